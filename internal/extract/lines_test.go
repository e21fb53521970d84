package extract

import (
	"testing"

	"github.com/joseph-ayodele/taxdocs/constants"
)

const w2Layout = `a Employee's social security number
XXX-XX-1234
b Employer identification number (EIN)          1 Wages, tips, other compensation   2 Federal income tax withheld
12-3456789                                      58,414.00                           6,210.55
c Employer's name, address, and ZIP code        3 Social security wages             4 Social security tax withheld
ACME WIDGETS, INC.                              58,414.00                           3,621.67
100 MAIN ST                                     5 Medicare wages and tips           6 Medicare tax withheld
SPRINGFIELD IL 62701                            58,414.00                           847.00
e Employee's first name and initial   Last name
JANE Q DOE
15 State  Employer's state ID number   16 State wages, tips, etc.   17 State income tax
IL        1234-5678                    58,414.00                    2,891.49
`

func TestParseText_W2(t *testing.T) {
	got := ParseText(constants.DocW2, w2Layout)
	want := map[string]string{
		"wages_tips_compensation":      "58414.00",
		"federal_income_tax_withheld":  "6210.55",
		"social_security_wages":        "58414.00",
		"social_security_tax_withheld": "3621.67",
		"medicare_wages":               "58414.00",
		"medicare_tax_withheld":        "847.00",
		"state_wages_tips":             "58414.00",
		"state_income_tax":             "2891.49",
		"employer_ein":                 "12-3456789",
		"employee_ssn":                 "XXX-XX-1234",
		"employer_name":                "ACME WIDGETS, INC.",
		"employee_name":                "JANE Q DOE",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %s", k, got[k], v)
		}
	}
}

func TestParseText_W2SameLineAmounts(t *testing.T) {
	text := "1 Wages, tips, other compensation 71,000.25\n2 Federal income tax withheld 9,100.00\n"
	got := ParseText(constants.DocW2, text)
	if got["wages_tips_compensation"] != "71000.25" || got["federal_income_tax_withheld"] != "9100.00" {
		t.Fatalf("got %v", got)
	}
}

func TestParseText_1099INT(t *testing.T) {
	text := `PAYER'S name, street address, city
FIRST NATIONAL BANK
PAYER'S TIN 98-7654321     RECIPIENT'S TIN ***-**-4321
RECIPIENT'S name
JOHN SMITH
1 Interest income                 2 Early withdrawal penalty
1,250.40                          25.00
3 Interest on U.S. Savings Bonds and Treasury obligations
4 Federal income tax withheld 0.00
8 Tax-exempt interest 310.00
`
	got := ParseText(constants.Doc1099INT, text)
	want := map[string]string{
		"interest_income":             "1250.40",
		"early_withdrawal_penalty":    "25.00",
		"federal_income_tax_withheld": "0.00",
		"tax_exempt_interest":         "310.00",
		"payer_tin":                   "98-7654321",
		"recipient_tin":               "***-**-4321",
		"payer_name":                  "FIRST NATIONAL BANK",
		"recipient_name":              "JOHN SMITH",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %s", k, got[k], v)
		}
	}
	if _, ok := got["interest_on_us_savings_bonds"]; ok {
		t.Errorf("box 3 has no amount and should be absent, got %v", got["interest_on_us_savings_bonds"])
	}
}

func TestParseText_1099DIV(t *testing.T) {
	text := `1a Total ordinary dividends   1b Qualified dividends
900.12                        850.00
2a Total capital gain distr. 120.00
5 Section 199A dividends 12.34
7 Foreign tax paid 4.56
`
	got := ParseText(constants.Doc1099DIV, text)
	want := map[string]string{
		"total_ordinary_dividends": "900.12",
		"qualified_dividends":      "850.00",
		"total_capital_gain":       "120.00",
		"section_199a_dividends":   "12.34",
		"foreign_tax_paid":         "4.56",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %s", k, got[k], v)
		}
	}
}

func TestParseText_NothingFound(t *testing.T) {
	if got := ParseText(constants.DocW2, "hello world"); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
	if got := ParseText(constants.Doc1098, w2Layout); got != nil {
		t.Fatalf("unmodeled type should parse nothing, got %v", got)
	}
}
