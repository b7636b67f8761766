package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/repository"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// AuthService coordinates registration, login and logout flows.
type AuthService struct {
	users      repository.UserRepository
	hasher     auth.PasswordHasher
	tokens     *auth.TokenManager
	denylist   auth.Denylist
	dispatcher events.Dispatcher
	logger     *zap.Logger
	dummyHash  string
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     auth.PasswordHasher
	Tokens     *auth.TokenManager
	Denylist   auth.Denylist
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// DummyHash is compared against when the login email is unknown so both
	// paths cost one bcrypt comparison.
	DummyHash string
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		denylist:   deps.Denylist,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		dummyHash:  deps.DummyHash,
		now:        time.Now,
	}
}

// Register creates a STAFF account. The role is never taken from input.
func (s *AuthService) Register(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	if isBlank(in.Name.Set, in.Name.Value) || isBlank(in.Age.Set, in.Age.Value) ||
		isBlank(in.Email.Set, in.Email.Value) || isBlank(in.Password.Set, in.Password.Value) {
		return nil, apperrors.NewValidationError(CodeMissingFields, "All fields are required", "all")
	}

	name, ok := validName(in.Name.Value)
	if !ok {
		return nil, apperrors.NewValidationError(CodeInvalidName, "Invalid name", "name")
	}
	age, ok := parseAge(in.Age.Value)
	if !ok {
		return nil, apperrors.NewValidationError(CodeInvalidAge, "Invalid age", "age")
	}
	email, ok := NormalizeEmail(in.Email.Value)
	if !ok {
		return nil, apperrors.NewValidationError(CodeInvalidEmail, "Invalid email format", "email")
	}
	password, ok := in.Password.Value.(string)
	if !ok || len([]rune(password)) < minPasswordLength {
		return nil, apperrors.NewValidationError(CodeWeakPassword, "Password too short", "password")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errEmailInUse()
	} else if !repository.IsNotFound(err) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Age:          &age,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleStaff,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, errEmailInUse()
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	s.publish(ctx, events.NewEvent(events.EventUserRegistered, user.ID, events.Actor{}, nil))
	return user, nil
}

func errEmailInUse() *apperrors.DomainError {
	return apperrors.NewValidationError(CodeEmailInUse, "Email already in use", "email")
}

// Login verifies credentials and issues a token carrying the user id and role.
func (s *AuthService) Login(ctx context.Context, in domain.UserInput) (*LoginResult, error) {
	if isBlank(in.Email.Set, in.Email.Value) || isBlank(in.Password.Set, in.Password.Value) {
		return nil, apperrors.NewValidationError(CodeMissingFields, "Email and password are required", "all")
	}

	email, ok := NormalizeEmail(in.Email.Value)
	if !ok {
		return nil, apperrors.NewValidationError(CodeInvalidEmail, "Invalid email format", "email")
	}
	password, ok := credentialString(in.Password.Value)
	if !ok {
		return nil, errInvalidCredentials()
	}
	if n := len([]rune(password)); n < minPasswordLength || n > maxPasswordLength {
		return nil, errInvalidCredentials()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, apperrors.NewInternalError(err)
		}
		if _, cmpErr := s.hasher.Compare(s.dummyHash, password); cmpErr != nil {
			s.logger.Debug("dummy hash comparison failed", zap.Error(cmpErr))
		}
		return nil, errInvalidCredentials()
	}

	match, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !match {
		return nil, errInvalidCredentials()
	}

	token, meta, err := s.tokens.Issue(map[string]any{"id": user.ID, "role": string(user.Role)})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventUserLoggedIn, user.ID,
		events.Actor{UserID: user.ID, Role: user.Role}, nil))
	return &LoginResult{Token: token, ExpiresAt: meta.ExpiresAtTime(), User: user}, nil
}

// Logout revokes the caller's token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, identity *domain.Identity) error {
	if identity == nil || identity.TokenID == "" {
		return apperrors.NewUnauthorized(auth.CodeTokenNoJTI, "Token has no jti", "token")
	}
	ttl := identity.RemainingLifetime(s.now())
	if err := s.denylist.Revoke(ctx, identity.TokenID, float64(ttl)); err != nil {
		return err
	}

	s.publish(ctx, events.NewEvent(events.EventUserLoggedOut, identity.ID,
		events.Actor{UserID: identity.ID, Role: identity.Role}, nil))
	return nil
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	if identity == nil || identity.ID == "" {
		return nil, apperrors.NewValidationError(auth.CodeAuthInvalid, "Invalid id", "auth")
	}
	user, err := s.users.GetByID(ctx, identity.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound(CodeIDNotFound, "User not found", "auth")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
