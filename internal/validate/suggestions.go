package validate

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
)

var requiredFields = map[constants.DocumentType][]string{
	constants.DocW2: {
		"employer_name",
		"employee_name",
		"wages_tips_compensation",
		"federal_income_tax_withheld",
		"social_security_wages",
		"social_security_tax_withheld",
		"medicare_wages",
		"medicare_tax_withheld",
	},
	constants.Doc1099INT: {"payer_name", "interest_income"},
	constants.Doc1099DIV: {"payer_name", "total_ordinary_dividends"},
}

// RequiredFields lists the mandatory canonical keys for docType.
func RequiredFields(docType constants.DocumentType) []string {
	return append([]string(nil), requiredFields[docType]...)
}

// MissingFields lists required keys that are absent or blank in a canonical field dictionary.
func MissingFields(docType constants.DocumentType, data map[string]any) []string {
	var missing []string
	for _, f := range requiredFields[docType] {
		if common.IsBlank(data[f]) {
			missing = append(missing, f)
		}
	}
	return missing
}

// SuggestCorrections points at likely OCR confusions and unexpected negative numbers
// in a raw field dictionary. Keys are visited in sorted order.
func SuggestCorrections(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		switch v := data[k].(type) {
		case string:
			if !hasDigit(v) {
				continue
			}
			if strings.Contains(v, "O") {
				out = append(out, fmt.Sprintf("Field '%s' may have OCR errors (O vs 0): %s", k, v))
			}
			if strings.Contains(v, "l") {
				out = append(out, fmt.Sprintf("Field '%s' may have OCR errors (l vs 1): %s", k, v))
			}
		case float64:
			if v < 0 && k != "early_withdrawal_penalty" {
				out = append(out, fmt.Sprintf("Field '%s' has negative value: %v", k, v))
			}
		case int:
			if v < 0 && k != "early_withdrawal_penalty" {
				out = append(out, fmt.Sprintf("Field '%s' has negative value: %d", k, v))
			}
		case decimal.Decimal:
			if v.IsNegative() && k != "early_withdrawal_penalty" {
				out = append(out, fmt.Sprintf("Field '%s' has negative value: %s", k, v.String()))
			}
		}
	}
	return out
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
