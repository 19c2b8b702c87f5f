package stats

import (
	"math"
	"strconv"
	"strings"

	"github.com/rewired-gh/pollsight/internal/models"
)

// CoerceBool interprets v as a boolean answer. Native booleans and the strings
// "true"/"false" in any case are accepted.
func CoerceBool(v models.Value) (bool, bool) {
	if b, ok := v.Bool(); ok {
		return b, true
	}
	if s, ok := v.Str(); ok {
		switch {
		case strings.EqualFold(s, "true"):
			return true, true
		case strings.EqualFold(s, "false"):
			return false, true
		}
	}
	return false, false
}

// CoerceNumber interprets v as a numeric answer. Native numbers and numeric
// strings are accepted; NaN, infinities, empty strings and booleans are not.
func CoerceNumber(v models.Value) (float64, bool) {
	if n, ok := v.Number(); ok {
		return n, isFinite(n)
	}
	if s, ok := v.Str(); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return n, isFinite(n)
	}
	return 0, false
}

// NormalizeChoice turns v into the bare key a choice answer is counted under.
// One leading and one trailing quote character are removed so values stored as
// quoted literals ("\"o1\"") count with their unquoted form.
func NormalizeChoice(v models.Value) (string, bool) {
	switch v.Kind() {
	case models.KindString:
		s, _ := v.Str()
		s = stripQuotes(s)
		return s, s != ""
	case models.KindNumber, models.KindBool:
		return v.String(), true
	}
	return "", false
}

func stripQuotes(s string) string {
	if s != "" && isQuote(s[0]) {
		s = s[1:]
	}
	if s != "" && isQuote(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
