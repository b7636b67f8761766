package service

import (
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// Error codes returned by the user and auth services.
const (
	CodeMissingFields      = "ERR_MISSING_FIELDS"
	CodeInvalidName        = "ERR_INVALID_NAME"
	CodeInvalidAge         = "ERR_INVALID_AGE"
	CodeInvalidEmail       = "ERR_INVALID_EMAIL"
	CodeWeakPassword       = "ERR_WEAK_PASSWORD"
	CodeEmailInUse         = "ERR_EMAIL_IN_USE"
	CodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	CodeInvalidRole        = "ERR_INVALID_ROLE"
	CodeUserNotFound       = "ERR_USER_NOT_FOUND"
	CodeAdminSelfDelete    = "ERR_ADMIN_SELF_DELETE"
	CodeDeleteAdminBlocked = "ERR_DELETE_ADMIN_BLOCKED"

	CodeIDNotFound             = "ID_NOT_FOUND"
	CodeInvalidIDFormat        = "INVALID_ID_FORMAT"
	CodeInvalidStaffIDFormat   = "INVALID_ID_STAFF_FORMAT"
	CodeNoFieldsToUpdate       = "NO_FIELDS_TO_UPDATE"
	CodeUpdateInvalidName      = "INVALID_NAME"
	CodeUpdateInvalidAge       = "INVALID_AGE"
	CodeUpdateInvalidEmail     = "INVALID_EMAIL"
	CodeUpdateInvalidPassword  = "INVALID_PASSWORD"
	CodeNoChanges              = "NO_CHANGES"
	CodeUpdateEmailInUse       = "EMAIL_IN_USE"
	CodeAdminSelfUpdate        = "ADMIN_SELF_UPDATE_FORBIDDEN"
	CodeUpdateAdminForbidden   = "UPDATE_ADMIN_FORBIDDEN"
	CodeWebhookInvalidInput    = "ERR_INVALID_INPUT"
	CodeWebhookContract        = "ERR_CONTRACT"
	CodeWebhookProviderMissing = "ERR_PROVIDER_MISSING"
)

func errInvalidCredentials() *apperrors.DomainError {
	return apperrors.NewUnauthorized(CodeInvalidCredentials, "Invalid credentials", "auth")
}
