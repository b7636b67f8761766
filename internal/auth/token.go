package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// Registered claims managed by the token manager. They never appear in a
// verified payload and callers may not set them.
const (
	claimTokenID   = "jti"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	defaultTTL string
	now        func() time.Time
}

// NewTokenManager builds a new manager. An empty defaultTTL falls back to DefaultTokenTTL.
func NewTokenManager(secret, defaultTTL string) *TokenManager {
	if strings.TrimSpace(defaultTTL) == "" {
		defaultTTL = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), defaultTTL: defaultTTL, now: time.Now}
}

// TokenMeta carries the infrastructure claims of a verified token.
type TokenMeta struct {
	JTI       string `json:"jti"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// ExpiresAtTime returns the expiry as a time.Time.
func (m TokenMeta) ExpiresAtTime() time.Time {
	return time.Unix(m.ExpiresAt, 0)
}

// VerifiedToken splits a verified token into business payload and token metadata.
type VerifiedToken struct {
	Payload map[string]any
	Meta    TokenMeta
}

type signOptions struct {
	expiresIn        string
	expiresInSeconds int64
}

// SignOption overrides the configured token lifetime for a single token.
type SignOption func(*signOptions)

// WithExpiresIn sets a lifetime such as "15m" or "1d". Blank values are ignored.
func WithExpiresIn(ttl string) SignOption {
	return func(o *signOptions) {
		o.expiresIn = strings.TrimSpace(ttl)
	}
}

// WithExpiresInSeconds sets the lifetime in seconds. Non-positive values are ignored.
func WithExpiresInSeconds(seconds int64) SignOption {
	return func(o *signOptions) {
		if seconds > 0 {
			o.expiresInSeconds = seconds
		}
	}
}

// Sign builds and signs a JWT carrying payload plus a fresh jti, iat and exp.
func (tm *TokenManager) Sign(payload map[string]any, opts ...SignOption) (string, error) {
	token, _, err := tm.Issue(payload, opts...)
	return token, err
}

// Issue signs a token and also returns the metadata embedded in it.
func (tm *TokenManager) Issue(payload map[string]any, opts ...SignOption) (string, TokenMeta, error) {
	if len(tm.secret) == 0 {
		return "", TokenMeta{}, errSecretMissing()
	}
	if payload == nil {
		return "", TokenMeta{}, apperrors.NewDomainError(CodeTokenPayload, "token payload is required", http.StatusInternalServerError, "payload")
	}
	for _, reserved := range []string{claimTokenID, claimIssuedAt, claimExpiresAt} {
		if _, exists := payload[reserved]; exists {
			return "", TokenMeta{}, apperrors.NewDomainError(CodeTokenPayload, "token payload must not set "+reserved, http.StatusInternalServerError, "payload")
		}
	}

	ttl, err := tm.resolveTTL(opts)
	if err != nil {
		return "", TokenMeta{}, err
	}

	issuedAt := tm.now()
	meta := TokenMeta{
		JTI:       uuid.NewString(),
		IssuedAt:  issuedAt.Unix(),
		ExpiresAt: issuedAt.Add(ttl).Unix(),
	}

	claims := make(jwt.MapClaims, len(payload)+3)
	for k, v := range payload {
		claims[k] = v
	}
	claims[claimTokenID] = meta.JTI
	claims[claimIssuedAt] = meta.IssuedAt
	claims[claimExpiresAt] = meta.ExpiresAt

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", TokenMeta{}, apperrors.NewInternalError(err)
	}
	return tokenString, meta, nil
}

func (tm *TokenManager) resolveTTL(opts []SignOption) (time.Duration, error) {
	var o signOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.expiresInSeconds > 0 {
		return time.Duration(o.expiresInSeconds) * time.Second, nil
	}

	raw := tm.defaultTTL
	if o.expiresIn != "" {
		raw = o.expiresIn
	}
	ttl, err := ParseTTL(raw)
	if err != nil {
		return 0, apperrors.NewDomainError(CodeTokenTTL, err.Error(), http.StatusInternalServerError, "expiresIn").WithCause(err)
	}
	return ttl, nil
}

// Verify checks signature and expiry and returns the payload without registered claims.
func (tm *TokenManager) Verify(tokenStr string) (*VerifiedToken, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, errTokenInvalid("token must be a non-empty string", nil)
	}
	if len(tm.secret) == 0 {
		return nil, errSecretMissing()
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
		jwt.WithJSONNumber(),
	)

	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errTokenExpired(err)
		}
		return nil, errTokenInvalid("Invalid token", err)
	}

	verified := &VerifiedToken{Payload: make(map[string]any, len(claims))}
	for k, v := range claims {
		switch k {
		case claimTokenID:
			if jti, ok := v.(string); ok {
				verified.Meta.JTI = jti
			}
		case claimIssuedAt:
			verified.Meta.IssuedAt, _ = numericClaim(v)
		case claimExpiresAt:
			verified.Meta.ExpiresAt, _ = numericClaim(v)
		default:
			verified.Payload[k] = v
		}
	}
	return verified, nil
}

func numericClaim(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
