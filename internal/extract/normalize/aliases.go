package normalize

import (
	"sort"
	"strings"

	"github.com/joseph-ayodele/taxdocs/constants"
)

type alias struct {
	pattern string
	target  string
}

type aliasTable struct {
	canonical map[string]struct{}
	exact     map[string]string
	// contains is scanned in order; specific entries sit above generic ones.
	contains []alias
}

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

var w2Aliases = aliasTable{
	canonical: set(
		"employer_ein", "employer_name", "employer_address", "employer_city", "employer_state", "employer_zip",
		"employee_name", "employee_ssn", "employee_address", "employee_city", "employee_state", "employee_zip",
		"control_number",
		"wages_tips_compensation", "federal_income_tax_withheld", "social_security_wages",
		"social_security_tax_withheld", "medicare_wages", "medicare_tax_withheld",
		"social_security_tips", "allocated_tips", "dependent_care_benefits", "nonqualified_plans",
		"box_12_codes", "statutory_employee", "retirement_plan", "third_party_sick_pay", "box_14_other",
		"state_employer_state_id", "state_wages_tips", "state_income_tax",
		"local_wages_tips", "local_income_tax", "locality_name",
	),
	exact: map[string]string{
		"wages": "wages_tips_compensation", "box1": "wages_tips_compensation", "box_1": "wages_tips_compensation",
		"federal": "federal_income_tax_withheld", "fed_tax": "federal_income_tax_withheld",
		"federal_tax_withheld": "federal_income_tax_withheld",
		"box2":                 "federal_income_tax_withheld", "box_2": "federal_income_tax_withheld",
		"ss_wages": "social_security_wages", "box3": "social_security_wages", "box_3": "social_security_wages",
		"ss_tax": "social_security_tax_withheld", "social_security_tax": "social_security_tax_withheld",
		"box4": "social_security_tax_withheld", "box_4": "social_security_tax_withheld",
		"box5": "medicare_wages", "box_5": "medicare_wages",
		"medicare_tax": "medicare_tax_withheld", "box6": "medicare_tax_withheld", "box_6": "medicare_tax_withheld",
		"box7": "social_security_tips", "box_7": "social_security_tips",
		"box8": "allocated_tips", "box_8": "allocated_tips",
		"box10": "dependent_care_benefits", "box_10": "dependent_care_benefits",
		"box11": "nonqualified_plans", "box_11": "nonqualified_plans",
		"box12": "box_12_codes", "box_12": "box_12_codes", "box_12_code": "box_12_codes",
		"box14": "box_14_other", "box_14": "box_14_other",
		"state_wages": "state_wages_tips", "box16": "state_wages_tips", "box_16": "state_wages_tips",
		"state_tax": "state_income_tax", "box17": "state_income_tax", "box_17": "state_income_tax",
		"box18": "local_wages_tips", "box_18": "local_wages_tips",
		"box19": "local_income_tax", "box_19": "local_income_tax",
		"box20": "locality_name", "box_20": "locality_name",
		"ein": "employer_ein", "employer_id": "employer_ein", "fein": "employer_ein",
		"ssn": "employee_ssn", "employer": "employer_name", "employee": "employee_name",
	},
	contains: []alias{
		{"social_security_wages", "social_security_wages"},
		{"ss_wages", "social_security_wages"},
		{"medicare_wages", "medicare_wages"},
		{"state_wages", "state_wages_tips"},
		{"local_wages", "local_wages_tips"},
		{"social_security_tax", "social_security_tax_withheld"},
		{"ss_tax", "social_security_tax_withheld"},
		{"medicare_tax", "medicare_tax_withheld"},
		{"state_income_tax", "state_income_tax"},
		{"state_tax", "state_income_tax"},
		{"local_income_tax", "local_income_tax"},
		{"local_tax", "local_income_tax"},
		{"federal", "federal_income_tax_withheld"},
		{"fed_tax", "federal_income_tax_withheld"},
		{"employer_ein", "employer_ein"},
		{"employer_name", "employer_name"},
		{"employer_address", "employer_address"},
		{"employee_ssn", "employee_ssn"},
		{"employee_name", "employee_name"},
		{"employee_address", "employee_address"},
		{"wages", "wages_tips_compensation"},
	},
}

var intAliases = aliasTable{
	canonical: set(
		"payer_name", "payer_address", "payer_tin", "recipient_name", "recipient_tin", "recipient_address",
		"interest_income", "early_withdrawal_penalty", "interest_on_us_savings_bonds",
		"federal_income_tax_withheld", "investment_expenses", "foreign_tax_paid", "foreign_country",
		"tax_exempt_interest", "specified_private_activity_bond_interest", "market_discount",
		"bond_premium", "bond_premium_treasury_obligations", "bond_premium_tax_exempt_bond",
		"tax_exempt_cusip_number", "state_info",
	),
	exact: map[string]string{
		"box1": "interest_income", "box_1": "interest_income", "box_1_interest_income": "interest_income",
		"interest": "interest_income",
		"box2":     "early_withdrawal_penalty", "box_2": "early_withdrawal_penalty",
		"box3": "interest_on_us_savings_bonds", "box_3": "interest_on_us_savings_bonds",
		"box4": "federal_income_tax_withheld", "box_4": "federal_income_tax_withheld",
		"box_4_federal_withholding": "federal_income_tax_withheld",
		"federal_tax_withheld":      "federal_income_tax_withheld",
		"box5":                      "investment_expenses", "box_5": "investment_expenses",
		"box6": "foreign_tax_paid", "box_6": "foreign_tax_paid", "box_6_foreign_tax_paid": "foreign_tax_paid",
		"box7": "foreign_country", "box_7": "foreign_country",
		"box8": "tax_exempt_interest", "box_8": "tax_exempt_interest", "box_8_tax_exempt_interest": "tax_exempt_interest",
		"box9": "specified_private_activity_bond_interest", "box_9": "specified_private_activity_bond_interest",
		"box10": "market_discount", "box_10": "market_discount",
		"box11": "bond_premium", "box_11": "bond_premium",
		"box12": "bond_premium_treasury_obligations", "box_12": "bond_premium_treasury_obligations",
		"box13": "bond_premium_tax_exempt_bond", "box_13": "bond_premium_tax_exempt_bond",
		"box14": "tax_exempt_cusip_number", "box_14": "tax_exempt_cusip_number", "cusip": "tax_exempt_cusip_number",
		"payer_ein": "payer_tin", "payer_tax_id": "payer_tin",
		"recipient_ssn": "recipient_tin", "recipient_tax_id": "recipient_tin",
		"payer": "payer_name", "recipient": "recipient_name", "states": "state_info",
	},
	contains: []alias{
		{"tax_exempt_interest", "tax_exempt_interest"},
		{"early_withdrawal", "early_withdrawal_penalty"},
		{"savings_bond", "interest_on_us_savings_bonds"},
		{"private_activity", "specified_private_activity_bond_interest"},
		{"market_discount", "market_discount"},
		{"treasury_obligation", "bond_premium_treasury_obligations"},
		{"tax_exempt_bond", "bond_premium_tax_exempt_bond"},
		{"bond_premium", "bond_premium"},
		{"cusip", "tax_exempt_cusip_number"},
		{"foreign_tax", "foreign_tax_paid"},
		{"foreign_country", "foreign_country"},
		{"investment_expense", "investment_expenses"},
		{"federal", "federal_income_tax_withheld"},
		{"payer_name", "payer_name"},
		{"payer_address", "payer_address"},
		{"recipient_name", "recipient_name"},
		{"recipient_address", "recipient_address"},
		{"interest_income", "interest_income"},
	},
}

var divAliases = aliasTable{
	canonical: set(
		"payer_name", "payer_address", "payer_tin", "recipient_name", "recipient_tin", "recipient_address",
		"total_ordinary_dividends", "qualified_dividends", "total_capital_gain",
		"unrecaptured_section_1250_gain", "section_1202_gain", "collectibles_gain",
		"section_897_ordinary_dividends", "section_897_capital_gain", "nondividend_distributions",
		"federal_income_tax_withheld", "section_199a_dividends", "investment_expenses",
		"foreign_tax_paid", "foreign_country", "cash_liquidation", "noncash_liquidation",
		"fatca_filing", "state_info",
	),
	exact: map[string]string{
		"box1a": "total_ordinary_dividends", "box_1a": "total_ordinary_dividends",
		"box_1a_total_ordinary_dividends": "total_ordinary_dividends",
		"ordinary_dividends":              "total_ordinary_dividends", "dividends": "total_ordinary_dividends",
		"box1b": "qualified_dividends", "box_1b": "qualified_dividends", "box_1b_qualified_dividends": "qualified_dividends",
		"box2a": "total_capital_gain", "box_2a": "total_capital_gain", "capital_gain_distributions": "total_capital_gain",
		"box2b": "unrecaptured_section_1250_gain", "box_2b": "unrecaptured_section_1250_gain",
		"box2c": "section_1202_gain", "box_2c": "section_1202_gain",
		"box2d": "collectibles_gain", "box_2d": "collectibles_gain",
		"box2e": "section_897_ordinary_dividends", "box_2e": "section_897_ordinary_dividends",
		"box2f": "section_897_capital_gain", "box_2f": "section_897_capital_gain",
		"box3": "nondividend_distributions", "box_3": "nondividend_distributions",
		"box4": "federal_income_tax_withheld", "box_4": "federal_income_tax_withheld",
		"box_4_federal_withholding": "federal_income_tax_withheld",
		"federal_tax_withheld":      "federal_income_tax_withheld",
		"box5":                      "section_199a_dividends", "box_5": "section_199a_dividends", "box_5_section_199a": "section_199a_dividends",
		"box6": "investment_expenses", "box_6": "investment_expenses",
		"box7": "foreign_tax_paid", "box_7": "foreign_tax_paid", "box_7_foreign_tax_paid": "foreign_tax_paid",
		"box8": "foreign_country", "box_8": "foreign_country",
		"box9": "cash_liquidation", "box_9": "cash_liquidation",
		"box10": "noncash_liquidation", "box_10": "noncash_liquidation",
		"payer_ein": "payer_tin", "payer_tax_id": "payer_tin",
		"recipient_ssn": "recipient_tin", "recipient_tax_id": "recipient_tin",
		"payer": "payer_name", "recipient": "recipient_name", "fatca": "fatca_filing", "states": "state_info",
	},
	contains: []alias{
		{"section_897_ordinary", "section_897_ordinary_dividends"},
		{"section_897_capital", "section_897_capital_gain"},
		{"section_1250", "unrecaptured_section_1250_gain"},
		{"section_1202", "section_1202_gain"},
		{"collectibles", "collectibles_gain"},
		{"section_199a", "section_199a_dividends"},
		{"nondividend", "nondividend_distributions"},
		{"noncash_liquidation", "noncash_liquidation"},
		{"cash_liquidation", "cash_liquidation"},
		{"qualified", "qualified_dividends"},
		{"ordinary_dividends", "total_ordinary_dividends"},
		{"capital_gain", "total_capital_gain"},
		{"foreign_tax", "foreign_tax_paid"},
		{"foreign_country", "foreign_country"},
		{"investment_expense", "investment_expenses"},
		{"federal", "federal_income_tax_withheld"},
		{"payer_name", "payer_name"},
		{"payer_address", "payer_address"},
		{"recipient_name", "recipient_name"},
		{"recipient_address", "recipient_address"},
	},
}

func tableFor(t constants.DocumentType) (aliasTable, bool) {
	switch t {
	case constants.DocW2:
		return w2Aliases, true
	case constants.Doc1099INT:
		return intAliases, true
	case constants.Doc1099DIV:
		return divAliases, true
	default:
		return aliasTable{}, false
	}
}

// resolve maps one normalized key to its canonical name.
func (t aliasTable) resolve(k string) (string, bool) {
	if _, ok := t.canonical[k]; ok {
		return k, true
	}
	if target, ok := t.exact[k]; ok {
		return target, true
	}
	for _, a := range t.contains {
		if strings.Contains(k, a.pattern) {
			return a.target, true
		}
	}
	return "", false
}

// Canonicalize rewrites raw into canonical keys for docType. A key that is already
// canonical beats any alias of the same field; among aliases the first key in sorted
// order wins. Unknown keys are dropped, and null values never claim a slot.
func Canonicalize(docType constants.DocumentType, raw map[string]any) map[string]any {
	table, ok := tableFor(docType)
	if !ok {
		return map[string]any{}
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(raw))
	var deferred []string
	for _, k := range keys {
		nk := Key(k)
		if _, isCanonical := table.canonical[nk]; isCanonical {
			if raw[k] != nil {
				out[nk] = raw[k]
			}
			continue
		}
		deferred = append(deferred, k)
	}
	for _, k := range deferred {
		if raw[k] == nil {
			continue
		}
		target, ok := table.resolve(Key(k))
		if !ok {
			continue
		}
		if _, taken := out[target]; !taken {
			out[target] = raw[k]
		}
	}
	return out
}
