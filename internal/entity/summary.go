package entity

import "github.com/shopspring/decimal"

// Summary aggregates the validated records of one tax year.
type Summary struct {
	Year                    int             `json:"year"`
	W2Count                 int             `json:"w2_count"`
	TotalWages              decimal.Decimal `json:"total_wages"`
	TotalFederalWithheld    decimal.Decimal `json:"total_federal_withheld"`
	TotalStateWithheld      decimal.Decimal `json:"total_state_withheld"`
	Form1099INTCount        int             `json:"form_1099_int_count"`
	TotalInterest           decimal.Decimal `json:"total_interest"`
	Form1099DIVCount        int             `json:"form_1099_div_count"`
	TotalDividends          decimal.Decimal `json:"total_dividends"`
	TotalQualifiedDividends decimal.Decimal `json:"total_qualified_dividends"`
}
