package auth

import (
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// Machine-readable codes produced by the authentication and authorization layer.
const (
	CodeAuthMissing = "AUTH_MISSING"
	CodeAuthScheme  = "AUTH_SCHEME"
	CodeAuthEmpty   = "AUTH_EMPTY"
	CodeAuthInvalid = "AUTH_INVALID"

	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenNoJTI   = "TOKEN_NO_JTI"
	CodeTokenRevoked = "TOKEN_REVOKED"
	CodeTokenNoSub   = "TOKEN_NO_SUB"
	CodeTokenPayload = "TOKEN_PAYLOAD_INVALID"
	CodeTokenTTL     = "TOKEN_TTL_INVALID"

	CodeSecretMissing = "JWT_SECRET_MISSING"

	CodeRoleMissing   = "ROLE_MISSING"
	CodeRoleForbidden = "ROLE_FORBIDDEN"

	CodeSelfOrRoleMissingUser   = "SELF_OR_ROLE_MISSING_USER"
	CodeSelfOrRoleMissingTarget = "SELF_OR_ROLE_MISSING_TARGET"
	CodeSelfOrRoleForbidden     = "SELF_OR_ROLE_FORBIDDEN"

	CodeRevocationInvalid = "REVOCATION_INVALID"
)

func errSecretMissing() *apperrors.DomainError {
	return apperrors.NewDomainError(CodeSecretMissing, "JWT_SECRET is not configured", 500, "env")
}

func errTokenInvalid(message string, cause error) *apperrors.DomainError {
	return apperrors.NewUnauthorized(CodeAuthInvalid, message, "token").WithCause(cause)
}

func errTokenExpired(cause error) *apperrors.DomainError {
	return apperrors.NewUnauthorized(CodeTokenExpired, "Token has expired", "token").WithCause(cause)
}
