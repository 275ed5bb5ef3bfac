// Package normalize cleans raw catalog values before they are compared
// numerically or stored as graph properties.
package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the expected shape of a value.
type Kind int

const (
	Text Kind = iota
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "text"
}

// nullTokens are warehouse spellings of "no value", compared lowercased.
var nullTokens = map[string]bool{
	"nan":            true,
	"not applicable": true,
	"n/a":            true,
	"-":              true,
	"":               true,
}

// IsNullToken reports whether s (trimmed, any case) is a recognized null token.
func IsNullToken(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}

// Normalize returns the cleaned value and true, or nil and false when the
// value is absent. It never fails: anything that cannot be cleaned into the
// expected kind degrades to absent.
func Normalize(v any, kind Kind) (any, bool) {
	if kind == Numeric {
		f, ok := Number(v)
		if !ok {
			return nil, false
		}
		return f, true
	}

	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		s := strings.TrimSpace(t)
		if IsNullToken(s) {
			return nil, false
		}
		return s, true
	case float64:
		if math.IsNaN(t) {
			return nil, false
		}
	case float32:
		if math.IsNaN(float64(t)) {
			return nil, false
		}
	}
	return v, true
}

// Number cleans v into a non-negative float64. Strings are stripped of every
// character other than digits and '.', so "$1,234.50" and "20%" both parse.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case string:
		return parseNumber(t)
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), !math.IsNaN(float64(t))
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func parseNumber(s string) (float64, bool) {
	if IsNullToken(s) {
		return 0, false
	}

	var b strings.Builder
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
			b.WriteRune(r)
		case r == '.':
			dots++
			b.WriteRune(r)
		}
	}
	if digits == 0 || dots > 1 {
		return 0, false
	}

	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
