package auth

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/domain"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

const (
	identityKey  = "auth_identity"
	tokenKey     = "auth_token"
	bearerPrefix = "Bearer "
)

// AuthMiddleware validates bearer tokens and attaches the caller identity.
// It never touches the user store.
type AuthMiddleware struct {
	tokens   *TokenManager
	denylist Denylist
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, denylist Denylist) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, denylist: denylist}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	identity, token, err := m.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	c.Locals(identityKey, identity)
	c.Locals(tokenKey, token)
	return c.Next()
}

// Authenticate resolves an Authorization header value into an identity.
func (m *AuthMiddleware) Authenticate(ctx context.Context, header string) (*domain.Identity, string, error) {
	if header == "" {
		return nil, "", apperrors.NewUnauthorized(CodeAuthMissing, "Missing Authorization header", "authorization")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, "", apperrors.NewUnauthorized(CodeAuthScheme, "Invalid Authorization scheme", "authorization")
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return nil, "", apperrors.NewUnauthorized(CodeAuthEmpty, "Empty bearer token", "authorization")
	}

	verified, err := m.tokens.Verify(token)
	if err != nil {
		return nil, "", errTokenInvalid("Invalid or expired token", err)
	}

	if verified.Meta.JTI == "" {
		return nil, "", apperrors.NewUnauthorized(CodeTokenNoJTI, "Token has no jti", "token")
	}

	revoked, err := m.denylist.IsRevoked(ctx, verified.Meta.JTI)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	if revoked {
		return nil, "", apperrors.NewUnauthorized(CodeTokenRevoked, "Token has been revoked", "token")
	}

	subject := claimString(verified.Payload["sub"])
	if subject == "" {
		subject = claimString(verified.Payload["id"])
	}
	if subject == "" {
		return nil, "", apperrors.NewUnauthorized(CodeTokenNoSub, "Token missing subject", "token")
	}

	role, _ := verified.Payload["role"].(string)
	return &domain.Identity{
		ID:        subject,
		Role:      domain.Role(role),
		TokenID:   verified.Meta.JTI,
		IssuedAt:  verified.Meta.IssuedAt,
		ExpiresAt: verified.Meta.ExpiresAt,
	}, token, nil
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*domain.Identity)
	return identity, ok && identity != nil
}

// TokenFromContext returns the raw bearer token of the authenticated request.
func TokenFromContext(c *fiber.Ctx) string {
	token, _ := c.Locals(tokenKey).(string)
	return token
}

func claimString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}
