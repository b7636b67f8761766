package auth

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultTokenTTL applies when neither a per-call override nor JWT_EXPIRES_IN is set.
const DefaultTokenTTL = "1d"

var ttlPattern = regexp.MustCompile(`^(\d*\.?\d+)\s*([a-zA-Z]*)$`)

var ttlUnits = map[string]time.Duration{
	"ms": time.Millisecond, "msec": time.Millisecond, "msecs": time.Millisecond,
	"millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"": time.Second, "s": time.Second, "sec": time.Second, "secs": time.Second,
	"second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute,
	"minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
	"y": 8766 * time.Hour, "yr": 8766 * time.Hour, "yrs": 8766 * time.Hour,
	"year": 8766 * time.Hour, "years": 8766 * time.Hour,
}

// ParseTTL converts a token lifetime such as "15m", "1d", "2 days" or "3600"
// (bare numbers are seconds) into a duration of at least one second.
func ParseTTL(value string) (time.Duration, error) {
	raw := strings.TrimSpace(value)
	match := ttlPattern.FindStringSubmatch(raw)
	if match == nil {
		return 0, fmt.Errorf("invalid token ttl %q", value)
	}

	amount, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token ttl %q: %w", value, err)
	}
	unit, ok := ttlUnits[strings.ToLower(match[2])]
	if !ok {
		return 0, fmt.Errorf("invalid token ttl unit %q", match[2])
	}

	total := amount * float64(unit)
	if total > math.MaxInt64 {
		return 0, fmt.Errorf("token ttl %q overflows", value)
	}
	ttl := time.Duration(total).Truncate(time.Second)
	if ttl < time.Second {
		return 0, fmt.Errorf("token ttl %q is shorter than one second", value)
	}
	return ttl, nil
}
