package service

import (
	"context"

	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/repository"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// AdminSeedName is the display name given to the bootstrap admin.
const AdminSeedName = "Admin"

// SeedAdmin creates the bootstrap admin account, or resets its password and
// role when the email already exists.
func SeedAdmin(ctx context.Context, users repository.UserRepository, hasher auth.PasswordHasher, rawEmail, password string) (*domain.User, error) {
	email, ok := NormalizeEmail(rawEmail)
	if !ok {
		return nil, apperrors.NewValidationError(CodeInvalidEmail, "Invalid admin email", "email")
	}
	if len([]rune(password)) < minPasswordLength {
		return nil, apperrors.NewValidationError(CodeWeakPassword, "Admin password too short", "password")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user, err := users.UpsertAdmin(ctx, AdminSeedName, email, hash)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}
