package classify

import (
	"regexp"

	"github.com/joseph-ayodele/taxdocs/constants"
)

// rule is the scoring material for one document type. Patterns are form markers and
// box headers; keywords are weaker topical terms matched as lowercase substrings.
type rule struct {
	docType  constants.DocumentType
	patterns []*regexp.Regexp
	keywords []string
}

func ci(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// rules follows constants.ClassifiableTypes order.
var rules = []rule{
	{
		docType: constants.DocW2,
		patterns: ci(
			`\bW-?2\b`,
			`Wage\s+and\s+Tax\s+Statement`,
			`Form\s+W-?2`,
			`Box\s+1.*Wages`,
			`Box\s+2.*Federal\s+income\s+tax\s+withheld`,
			`Social\s+security\s+wages`,
			`Medicare\s+wages`,
		),
		keywords: []string{
			"employer", "employee", "ein", "ssn", "wages", "withheld",
			"social security", "medicare", "box 12", "box 14",
		},
	},
	{
		docType: constants.Doc1099INT,
		patterns: ci(
			`\b1099-?INT\b`,
			`Form\s+1099-?INT`,
			`Interest\s+Income`,
			`Payer's\s+name.*interest`,
			`Box\s+1.*Interest\s+income`,
			`Box\s+4.*Federal\s+income\s+tax\s+withheld`,
		),
		keywords: []string{
			"interest", "payer", "recipient", "bond", "treasury",
			"tax-exempt", "investment", "penalty",
		},
	},
	{
		docType: constants.Doc1099DIV,
		patterns: ci(
			`\b1099-?DIV\b`,
			`Form\s+1099-?DIV`,
			`Dividends\s+and\s+Distributions`,
			`Total\s+ordinary\s+dividends`,
			`Qualified\s+dividends`,
			`Box\s+1a.*Total\s+ordinary\s+dividends`,
		),
		keywords: []string{
			"dividend", "capital gain", "qualified", "ordinary",
			"section 199a", "foreign tax", "liquidation",
		},
	},
	{
		docType: constants.Doc1099B,
		patterns: ci(
			`\b1099-?B\b`,
			`Form\s+1099-?B`,
			`Proceeds\s+from\s+Broker`,
			`Barter\s+Exchange`,
		),
	},
	{
		docType: constants.Doc1099NEC,
		patterns: ci(
			`\b1099-?NEC\b`,
			`Form\s+1099-?NEC`,
			`Nonemployee\s+Compensation`,
		),
	},
	{
		docType: constants.Doc1099G,
		patterns: ci(
			`\b1099-?G\b`,
			`Form\s+1099-?G`,
			`Certain\s+Government\s+Payments`,
			`Unemployment\s+compensation`,
		),
	},
	{
		docType: constants.Doc1099R,
		patterns: ci(
			`\b1099-?R\b`,
			`Form\s+1099-?R`,
			`Distributions\s+from\s+Pensions`,
			`Annuities\s+Retirement`,
		),
	},
	{
		docType: constants.Doc1098,
		patterns: ci(
			`\b1098\b`,
			`Form\s+1098`,
			`Mortgage\s+Interest\s+Statement`,
		),
	},
}

// filenameRules are checked in order against the lowercased base name.
var filenameRules = []struct {
	re      *regexp.Regexp
	docType constants.DocumentType
}{
	{regexp.MustCompile(`\bw-?2\b`), constants.DocW2},
	{regexp.MustCompile(`1099-?int`), constants.Doc1099INT},
	{regexp.MustCompile(`1099-?div`), constants.Doc1099DIV},
	{regexp.MustCompile(`1099-?b\b`), constants.Doc1099B},
	{regexp.MustCompile(`1099-?nec`), constants.Doc1099NEC},
	{regexp.MustCompile(`1099-?g\b`), constants.Doc1099G},
	{regexp.MustCompile(`1099-?r\b`), constants.Doc1099R},
	{regexp.MustCompile(`1098\b`), constants.Doc1098},
}
