package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/repository"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// UserView selects how much of each user a listing exposes.
type UserView int

const (
	// UserViewSummary exposes id, name and email.
	UserViewSummary UserView = iota
	// UserViewFull adds age, role and creation time.
	UserViewFull
)

// UserService manages user accounts on behalf of authenticated callers.
type UserService struct {
	users      repository.UserRepository
	hasher     auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, hasher: hasher, dispatcher: dispatcher, logger: logger}
}

// List returns every user with the view the caller's role is entitled to.
// Unknown roles are refused.
func (s *UserService) List(ctx context.Context, caller *domain.Identity) ([]domain.User, UserView, error) {
	var view UserView
	switch {
	case caller != nil && caller.Role == domain.RoleAdmin:
		view = UserViewFull
	case caller != nil && caller.Role == domain.RoleStaff:
		view = UserViewSummary
	default:
		return nil, 0, apperrors.NewForbidden(CodeInvalidRole, "Invalid role", "role")
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}
	return users, view, nil
}

// EmailExists reports whether an account uses email.
func (s *UserService) EmailExists(ctx context.Context, raw string) (string, bool, error) {
	email, ok := NormalizeEmail(raw)
	if !ok {
		return email, false, apperrors.NewValidationError(CodeInvalidEmail, "Email is invalid", "email")
	}
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return email, true, nil
	case repository.IsNotFound(err):
		return email, false, nil
	default:
		return email, false, apperrors.NewInternalError(err)
	}
}

// UpdateSelf applies a profile update to the account named by targetID. Route
// guards guarantee the caller owns it.
func (s *UserService) UpdateSelf(ctx context.Context, caller *domain.Identity, targetID string, in domain.UserInput) (*domain.User, error) {
	targetID = strings.TrimSpace(targetID)
	if !IsUserID(targetID) {
		return nil, apperrors.NewValidationError(CodeInvalidIDFormat, "Invalid user id format", "users")
	}
	target, err := s.loadForUpdate(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, caller, target, in)
}

// AdminUpdate lets an admin edit a STAFF account other than their own.
func (s *UserService) AdminUpdate(ctx context.Context, caller *domain.Identity, targetID string, in domain.UserInput) (*domain.User, error) {
	targetID = strings.TrimSpace(targetID)
	if !IsUserID(targetID) {
		return nil, apperrors.NewValidationError(CodeInvalidStaffIDFormat, "Invalid user staff id format", "users")
	}
	if caller != nil && targetID == strings.TrimSpace(caller.ID) {
		return nil, apperrors.NewForbidden(CodeAdminSelfUpdate, "Admin cannot update own profile", "users")
	}
	target, err := s.loadForUpdate(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == domain.RoleAdmin {
		return nil, apperrors.NewForbidden(CodeUpdateAdminForbidden, "Cannot update another admin", "users")
	}
	return s.applyUpdate(ctx, caller, target, in)
}

func (s *UserService) loadForUpdate(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound(CodeIDNotFound, "User not found", "users")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *UserService) applyUpdate(ctx context.Context, caller *domain.Identity, target *domain.User, in domain.UserInput) (*domain.User, error) {
	if in.Empty() {
		return nil, apperrors.NewValidationError(CodeNoFieldsToUpdate, "At least one field must be provided", "users")
	}

	var (
		changes domain.UserChanges
		fields  []string
	)

	if in.Name.Set {
		name, ok := validName(in.Name.Value)
		if !ok {
			return nil, apperrors.NewValidationError(CodeUpdateInvalidName, "Invalid name", "users")
		}
		if name != target.Name {
			changes.Name = &name
			fields = append(fields, "name")
		}
	}
	if in.Email.Set {
		email, ok := NormalizeEmail(in.Email.Value)
		if !ok {
			return nil, apperrors.NewValidationError(CodeUpdateInvalidEmail, "Invalid email", "users")
		}
		if email != target.Email {
			changes.Email = &email
			fields = append(fields, "email")
		}
	}
	if in.Age.Set {
		age, ok := parseAge(in.Age.Value)
		if !ok {
			return nil, apperrors.NewValidationError(CodeUpdateInvalidAge, "Invalid age", "users")
		}
		if target.Age == nil || age != *target.Age {
			changes.Age = &age
			fields = append(fields, "age")
		}
	}

	var password string
	if in.Password.Set {
		var ok bool
		if password, ok = strongPassword(in.Password.Value); !ok {
			return nil, apperrors.NewValidationError(CodeUpdateInvalidPassword, "Invalid password", "users")
		}
	}
	if password != "" {
		same, err := s.hasher.Compare(target.PasswordHash, password)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if !same {
			hash, err := s.hasher.Hash(password)
			if err != nil {
				return nil, apperrors.NewInternalError(err)
			}
			changes.PasswordHash = &hash
			fields = append(fields, "password")
		}
	}

	if changes.Empty() {
		return nil, apperrors.NewValidationError(CodeNoChanges, "Nothing to update", "users")
	}

	updated, err := s.users.Update(ctx, target.ID, changes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, apperrors.NewValidationError(CodeUpdateEmailInUse, "Email already in use", "users")
		case repository.IsNotFound(err):
			return nil, apperrors.NewNotFound(CodeIDNotFound, "User not found", "users")
		default:
			return nil, apperrors.NewInternalError(err)
		}
	}

	actor := actorOf(caller)
	s.publish(ctx, events.NewEvent(events.EventUserUpdated, updated.ID, actor,
		events.UserUpdatedPayload{Fields: fields, ByRole: actor.UserID != updated.ID}))
	return updated, nil
}

// DeleteSelf removes the caller's own account. Admins cannot delete themselves.
func (s *UserService) DeleteSelf(ctx context.Context, caller *domain.Identity) error {
	if caller == nil || caller.ID == "" {
		return apperrors.NewNotFound(CodeUserNotFound, "User not found", "id")
	}
	if caller.Role == domain.RoleAdmin {
		return apperrors.NewForbidden(CodeAdminSelfDelete, "Admin cannot delete itself", "DELETE_ME")
	}
	return s.delete(ctx, caller, caller.ID, true)
}

// AdminDelete removes a STAFF account. Admins cannot delete themselves or other admins.
func (s *UserService) AdminDelete(ctx context.Context, caller *domain.Identity, targetID string) error {
	targetID = strings.TrimSpace(targetID)
	if !IsUserID(targetID) {
		return apperrors.NewValidationError(CodeInvalidStaffIDFormat, "Invalid user staff id format", "users")
	}
	if caller != nil && targetID == strings.TrimSpace(caller.ID) {
		return apperrors.NewForbidden(CodeAdminSelfDelete, "Admin cannot delete itself", "DELETE_BY_ADMIN")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NewNotFound(CodeUserNotFound, "User not found", "id")
		}
		return apperrors.NewInternalError(err)
	}
	if target.Role == domain.RoleAdmin {
		return apperrors.NewForbidden(CodeDeleteAdminBlocked, "Cannot delete an admin user", "DELETE_BY_ADMIN")
	}
	return s.delete(ctx, caller, targetID, false)
}

func (s *UserService) delete(ctx context.Context, caller *domain.Identity, id string, self bool) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NewNotFound(CodeUserNotFound, "User not found", "id")
		}
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.Bool("self", self))
	s.publish(ctx, events.NewEvent(events.EventUserDeleted, id, actorOf(caller), events.UserDeletedPayload{Self: self}))
	return nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func actorOf(identity *domain.Identity) events.Actor {
	if identity == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: identity.ID, Role: identity.Role}
}
