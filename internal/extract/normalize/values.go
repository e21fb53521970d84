// Package normalize turns backend-shaped field dictionaries into canonical typed records.
//
// Every backend's output passes through the same rules: money becomes a two-place
// decimal or null, EIN/SSN are reformatted only when exactly nine digits are present,
// collections accept a single object or a list, and key aliases collapse onto one
// canonical name.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var moneyStripper = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "")

// Money coerces v into a two-place decimal. Malformed or absent values come back
// invalid rather than zero.
func Money(v any) decimal.NullDecimal {
	var d decimal.Decimal
	switch x := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.Decimal:
		d = x
	case decimal.NullDecimal:
		if !x.Valid {
			return x
		}
		d = x.Decimal
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.NullDecimal{}
		}
		d = decimal.NewFromFloat(x)
	case float32:
		return Money(float64(x))
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case json.Number:
		return Money(x.String())
	case string:
		s := strings.TrimSpace(x)
		neg := false
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			neg, s = true, s[1:len(s)-1]
		}
		s = moneyStripper.Replace(s)
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
			return decimal.NullDecimal{}
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}
		}
		if neg {
			parsed = parsed.Neg()
		}
		d = parsed
	default:
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d.Round(2))
}

// FormatMoney renders a decimal the way it is stored: always two fraction digits.
func FormatMoney(d decimal.Decimal) string { return d.StringFixed(2) }

// EIN formats nine digits as DD-DDDDDDD; anything else is nil.
func EIN(v any) *string {
	d, ok := nineDigits(v)
	if !ok {
		return nil
	}
	s := d[:2] + "-" + d[2:]
	return &s
}

// SSN formats nine digits as DDD-DD-DDDD; anything else is nil.
func SSN(v any) *string {
	d, ok := nineDigits(v)
	if !ok {
		return nil
	}
	s := d[:3] + "-" + d[3:5] + "-" + d[5:]
	return &s
}

func nineDigits(v any) (string, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s = x
	case float64:
		s = fmt.Sprintf("%.0f", x)
	default:
		s = fmt.Sprint(x)
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() != 9 {
		return "", false
	}
	return b.String(), true
}

// Text trims v to a string; blank and literal "null" become nil.
func Text(v any) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case float64:
		if x == math.Trunc(x) {
			s = fmt.Sprintf("%.0f", x)
		} else {
			s = fmt.Sprint(x)
		}
	case json.Number:
		s = x.String()
	case bool, map[string]any, []any:
		return nil
	default:
		s = fmt.Sprint(x)
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
		return nil
	}
	return &s
}

// Flag reads a checkbox value.
func Flag(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "x", "checked", "1":
			return true
		}
	}
	return false
}

// Key lowercases k and folds every non-alphanumeric run to a single underscore.
func Key(k string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(k)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
