package dto

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/user-service/internal/domain"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// Codes produced while decoding request bodies.
const (
	CodeExtraFields = "ERR_EXTRA_FIELDS"
	CodeInvalidBody = "ERR_INVALID_BODY"
)

// allowedUserFields is the complete set of keys accepted by user and auth bodies.
var allowedUserFields = map[string]struct{}{
	"name":     {},
	"age":      {},
	"email":    {},
	"password": {},
}

// DecodeUserInput parses a JSON object body and rejects any key outside the
// allow-list. An empty body decodes to an empty input.
func DecodeUserInput(body []byte) (domain.UserInput, error) {
	var in domain.UserInput
	if len(bytes.TrimSpace(body)) == 0 {
		return in, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return in, apperrors.NewValidationError(CodeInvalidBody, "Request body must be a JSON object", "body").WithCause(err)
	}

	var extra []string
	for key := range raw {
		if _, ok := allowedUserFields[key]; !ok {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		errs := make([]any, len(extra))
		for i, key := range extra {
			errs[i] = key
		}
		return in, apperrors.NewValidationError(CodeExtraFields,
			"Extra fields are not allowed: "+strings.Join(extra, ", "), "body").WithErrors(errs...)
	}

	field := func(key string) domain.Field {
		value, ok := raw[key]
		return domain.Field{Set: ok, Value: value}
	}
	in.Name = field("name")
	in.Age = field("age")
	in.Email = field("email")
	in.Password = field("password")
	return in, nil
}

// UserProfile is the public shape of a single account.
type UserProfile struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Age   *int        `json:"age"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// UserDetail adds the creation time, shown to admins and on registration.
type UserDetail struct {
	UserProfile
	CreatedAt time.Time `json:"createdAt"`
}

// UserSummary is the reduced listing row shown to staff.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewUserProfile projects a user without credentials.
func NewUserProfile(u *domain.User) UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Age: u.Age, Email: u.Email, Role: u.Role}
}

// NewUserDetail projects a user with its creation time.
func NewUserDetail(u *domain.User) UserDetail {
	return UserDetail{UserProfile: NewUserProfile(u), CreatedAt: u.CreatedAt}
}

// NewUserSummaries projects users for staff listings.
func NewUserSummaries(users []domain.User) []UserSummary {
	out := make([]UserSummary, len(users))
	for i, u := range users {
		out[i] = UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out
}

// NewUserDetails projects users for admin listings.
func NewUserDetails(users []domain.User) []UserDetail {
	out := make([]UserDetail, len(users))
	for i := range users {
		out[i] = NewUserDetail(&users[i])
	}
	return out
}

// RegisterResponse is returned by POST /register.
type RegisterResponse struct {
	NewUser UserDetail `json:"newUser"`
}

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserProfile `json:"user"`
}

// UpdateResponse is returned by profile updates.
type UpdateResponse struct {
	Updated bool        `json:"updated"`
	User    UserProfile `json:"user"`
}

// DeleteResponse is returned by admin deletions.
type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	UserID  string `json:"userId"`
}

// EmailCheckResponse is returned by GET /checkEmail/:email.
type EmailCheckResponse struct {
	Exists bool `json:"exists"`
}

// LogoutResponse is returned by POST /logout.
type LogoutResponse struct {
	LoggedOut bool `json:"loggedOut"`
}
