package service

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	minAge            = 1
	maxAge            = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases v and reports whether it looks like an address.
func NormalizeEmail(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return s, emailPattern.MatchString(s)
}

// validName accepts non-blank strings without digits and returns them trimmed.
func validName(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.IndexFunc(s, unicode.IsDigit) >= 0 {
		return "", false
	}
	return s, true
}

// parseAge accepts whole numbers in range, sent either as JSON numbers or numeric strings.
func parseAge(v any) (int, bool) {
	var (
		f   float64
		err error
	)
	switch a := v.(type) {
	case json.Number:
		f, err = a.Float64()
	case float64:
		f = a
	case int:
		f = float64(a)
	case string:
		s := strings.TrimSpace(a)
		if s == "" {
			return 0, false
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < minAge || f > maxAge {
		return 0, false
	}
	return int(f), true
}

// strongPassword requires a lowercase letter, an uppercase letter and a symbol.
func strongPassword(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || len([]rune(s)) < minPasswordLength {
		return "", false
	}
	var lower, upper, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
		default:
			symbol = true
		}
	}
	return s, lower && upper && symbol
}

// credentialString renders a login password the way it was sent. Only strings
// and numbers are accepted.
func credentialString(v any) (string, bool) {
	switch p := v.(type) {
	case string:
		return p, true
	case json.Number:
		return p.String(), true
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64), true
	default:
		return "", false
	}
}

// isBlank reports whether a field is absent or carries a falsy JSON value.
func isBlank(present bool, v any) bool {
	if !present || v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	}
	return false
}

// IsUserID reports whether id is a canonical RFC 4122 UUID of version 1 to 5.
func IsUserID(id string) bool {
	if len(id) != 36 {
		return false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return u.Variant() == uuid.RFC4122 && u.Version() >= 1 && u.Version() <= 5
}
