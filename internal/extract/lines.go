package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/taxdocs/constants"
)

var (
	reAmountTok = regexp.MustCompile(`\d[\d,]*\.\d{2}`)
	reEINTok    = regexp.MustCompile(`\b\d{2}-\d{7}\b`)
	reSSNTok    = regexp.MustCompile(`[X*]{3}-[X*]{2}-\d{4}|\b\d{3}-\d{2}-\d{4}\b`)
	reCompany   = regexp.MustCompile(`^[A-Z][A-Z0-9\s&.,'-]+$`)
	rePerson    = regexp.MustCompile(`^[A-Z][A-Z\s.'-]+$`)
	reColumnGap = regexp.MustCompile(`\s{2,}`)
)

type boxLabel struct {
	key string
	re  *regexp.Regexp
}

func label(key, pattern string) boxLabel {
	return boxLabel{key: key, re: regexp.MustCompile(`(?i)` + pattern)}
}

var w2Labels = []boxLabel{
	label("wages_tips_compensation", `(?:^|\s)1\s*Wages`),
	label("federal_income_tax_withheld", `(?:^|\s)2\s*Federal`),
	label("social_security_wages", `(?:^|\s)3\s*Social\s*security\s*wages`),
	label("social_security_tax_withheld", `(?:^|\s)4\s*Social\s*security\s*tax`),
	label("medicare_wages", `(?:^|\s)5\s*Medicare\s*wages`),
	label("medicare_tax_withheld", `(?:^|\s)6\s*Medicare\s*tax`),
	label("state_wages_tips", `(?:^|\s)16\s*State\s*wages`),
	label("state_income_tax", `(?:^|\s)17\s*State\s*income\s*tax`),
}

var intLabels = []boxLabel{
	label("interest_income", `(?:^|\s)1\s*Interest\s*income`),
	label("early_withdrawal_penalty", `(?:^|\s)2\s*Early\s*withdrawal`),
	label("interest_on_us_savings_bonds", `(?:^|\s)3\s*Interest\s*on\s*U\.?\s*S\.?`),
	label("federal_income_tax_withheld", `(?:^|\s)4\s*Federal\s*income\s*tax`),
	label("tax_exempt_interest", `(?:^|\s)8\s*Tax[\s-]*exempt\s*interest`),
}

var divLabels = []boxLabel{
	label("total_ordinary_dividends", `(?:^|\s)1a\s*Total\s*ordinary`),
	label("qualified_dividends", `(?:^|\s)1b\s*Qualified`),
	label("total_capital_gain", `(?:^|\s)2a\s*Total\s*capital\s*gain`),
	label("federal_income_tax_withheld", `(?:^|\s)4\s*Federal\s*income\s*tax`),
	label("section_199a_dividends", `(?:^|\s)5\s*Section\s*199A`),
	label("foreign_tax_paid", `(?:^|\s)7\s*Foreign\s*tax\s*paid`),
}

type nameRule struct {
	key   string
	label *regexp.Regexp
	value *regexp.Regexp
	// minWords guards against picking up a single stray capitalized token.
	minWords int
}

var w2Names = []nameRule{
	{"employer_name", regexp.MustCompile(`(?i)Employer.*name.*address`), reCompany, 1},
	{"employee_name", regexp.MustCompile(`(?i)Employee.*name`), rePerson, 2},
}

var payerNames = []nameRule{
	{"payer_name", regexp.MustCompile(`(?i)PAYER.?S\s*name`), reCompany, 1},
	{"recipient_name", regexp.MustCompile(`(?i)RECIPIENT.?S\s*name`), rePerson, 2},
}

// ParseText reads box values out of embedded (layout-preserving) form text. Values are
// returned as strings with commas removed; an empty result is nil.
func ParseText(docType constants.DocumentType, text string) map[string]any {
	lines := strings.Split(text, "\n")
	data := map[string]any{}
	switch docType {
	case constants.DocW2:
		parseBoxes(lines, w2Labels, data)
		firstMatch(lines, reEINTok, "employer_ein", data)
		firstMatch(lines, reSSNTok, "employee_ssn", data)
		parseNames(lines, w2Names, data)
	case constants.Doc1099INT:
		parseBoxes(lines, intLabels, data)
		parsePayerIDs(lines, data)
		parseNames(lines, payerNames, data)
	case constants.Doc1099DIV:
		parseBoxes(lines, divLabels, data)
		parsePayerIDs(lines, data)
		parseNames(lines, payerNames, data)
	default:
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

type hit struct {
	key        string
	start, end int
}

// parseBoxes handles both layouts seen on forms: the amount after the caption on the same line,
// or a caption row followed by a row of amounts in the same column order.
func parseBoxes(lines []string, labels []boxLabel, data map[string]any) {
	for i, line := range lines {
		var hits []hit
		for _, l := range labels {
			if _, done := data[l.key]; done {
				continue
			}
			if loc := l.re.FindStringIndex(line); loc != nil {
				hits = append(hits, hit{key: l.key, start: loc[0], end: loc[1]})
			}
		}
		if len(hits) == 0 {
			continue
		}
		sort.Slice(hits, func(a, b int) bool { return hits[a].start < hits[b].start })

		var next []string
		if i+1 < len(lines) && !hasLabel(lines[i+1], labels) {
			next = reAmountTok.FindAllString(lines[i+1], -1)
		}
		for k, h := range hits {
			end := len(line)
			if k+1 < len(hits) {
				end = hits[k+1].start
			}
			if amt := reAmountTok.FindString(line[h.end:end]); amt != "" {
				data[h.key] = clean(amt)
				continue
			}
			// Right-align: captions without an amount (e.g. box 15 state id) sit at the left.
			if idx := k - (len(hits) - len(next)); len(next) > 0 && idx >= 0 && idx < len(next) {
				data[h.key] = clean(next[idx])
			}
		}
	}
}

func hasLabel(line string, labels []boxLabel) bool {
	for _, l := range labels {
		if l.re.MatchString(line) {
			return true
		}
	}
	return false
}

func parsePayerIDs(lines []string, data map[string]any) {
	firstMatch(lines, reEINTok, "payer_tin", data)
	firstMatch(lines, reSSNTok, "recipient_tin", data)
}

func firstMatch(lines []string, re *regexp.Regexp, key string, data map[string]any) {
	for _, line := range lines {
		if m := re.FindString(line); m != "" {
			data[key] = m
			return
		}
	}
}

func parseNames(lines []string, rules []nameRule, data map[string]any) {
	for _, r := range rules {
		for i, line := range lines {
			if !r.label.MatchString(line) {
				continue
			}
			for j := i + 1; j < len(lines) && j <= i+3; j++ {
				// layout text puts other boxes to the right; keep the first column
				cand := reColumnGap.Split(strings.TrimSpace(lines[j]), 2)[0]
				if cand != "" && r.value.MatchString(cand) && len(strings.Fields(cand)) >= r.minWords {
					data[r.key] = cand
					break
				}
			}
			break
		}
	}
}

func clean(amount string) string { return strings.ReplaceAll(amount, ",", "") }
