package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindMoney
	kindFlag
	kindList
)

type fieldSpec struct {
	name     string
	kind     fieldKind
	hint     string // example value shown in the prompt template
	required bool
}

func text(name, hint string) fieldSpec {
	return fieldSpec{name: name, kind: kindText, hint: `"` + hint + ` or null"`}
}
func money(name string) fieldSpec {
	return fieldSpec{name: name, kind: kindMoney, hint: "0.00 or null"}
}
func mustMoney(name string) fieldSpec {
	return fieldSpec{name: name, kind: kindMoney, hint: "0.00", required: true}
}
func flag(name string) fieldSpec { return fieldSpec{name: name, kind: kindFlag, hint: "false"} }
func list(name, hint string) fieldSpec {
	return fieldSpec{name: name, kind: kindList, hint: hint + " or []"}
}

const stateInfoHint = `[{"state": "CA", "state_id": "XXX", "state_tax_withheld": 0.00}]`

var w2Fields = []fieldSpec{
	text("employer_ein", "XX-XXXXXXX"),
	text("employer_name", "Company name"),
	text("employer_address", "Street address"),
	text("employer_city", "City"),
	text("employer_state", "State code"),
	text("employer_zip", "ZIP code"),
	text("employee_name", "Employee name"),
	text("employee_ssn", "XXX-XX-XXXX"),
	text("employee_address", "Street address"),
	text("employee_city", "City"),
	text("employee_state", "State code"),
	text("employee_zip", "ZIP code"),
	text("control_number", "Control number"),
	mustMoney("wages_tips_compensation"),
	{name: "federal_income_tax_withheld", kind: kindMoney, hint: "0.00"},
	{name: "social_security_wages", kind: kindMoney, hint: "0.00"},
	{name: "social_security_tax_withheld", kind: kindMoney, hint: "0.00"},
	{name: "medicare_wages", kind: kindMoney, hint: "0.00"},
	{name: "medicare_tax_withheld", kind: kindMoney, hint: "0.00"},
	money("social_security_tips"),
	money("allocated_tips"),
	money("dependent_care_benefits"),
	money("nonqualified_plans"),
	list("box_12_codes", `[{"code": "D", "amount": 5000.00}]`),
	flag("statutory_employee"),
	flag("retirement_plan"),
	flag("third_party_sick_pay"),
	list("box_14_other", `[{"description": "CA SDI", "amount": 150.00}]`),
	text("state_employer_state_id", "State ID"),
	money("state_wages_tips"),
	money("state_income_tax"),
	money("local_wages_tips"),
	money("local_income_tax"),
	text("locality_name", "Locality name"),
}

var payerFields = []fieldSpec{
	text("payer_name", "Payer name"),
	text("payer_address", "Street address"),
	text("payer_tin", "XX-XXXXXXX"),
	text("recipient_name", "Recipient name"),
	text("recipient_tin", "XXX-XX-XXXX"),
	text("recipient_address", "Street address"),
}

var intFields = append(append([]fieldSpec{}, payerFields...),
	mustMoney("interest_income"),
	money("early_withdrawal_penalty"),
	money("interest_on_us_savings_bonds"),
	money("federal_income_tax_withheld"),
	money("investment_expenses"),
	money("foreign_tax_paid"),
	text("foreign_country", "Country name"),
	money("tax_exempt_interest"),
	money("specified_private_activity_bond_interest"),
	money("market_discount"),
	money("bond_premium"),
	money("bond_premium_treasury_obligations"),
	money("bond_premium_tax_exempt_bond"),
	text("tax_exempt_cusip_number", "CUSIP number"),
	list("state_info", stateInfoHint),
)

var divFields = append(append([]fieldSpec{}, payerFields...),
	mustMoney("total_ordinary_dividends"),
	money("qualified_dividends"),
	money("total_capital_gain"),
	money("unrecaptured_section_1250_gain"),
	money("section_1202_gain"),
	money("collectibles_gain"),
	money("section_897_ordinary_dividends"),
	money("section_897_capital_gain"),
	money("nondividend_distributions"),
	money("federal_income_tax_withheld"),
	money("section_199a_dividends"),
	money("investment_expenses"),
	money("foreign_tax_paid"),
	text("foreign_country", "Country name"),
	money("cash_liquidation"),
	money("noncash_liquidation"),
	flag("fatca_filing"),
	list("state_info", stateInfoHint),
)

func fieldsFor(t constants.DocumentType) ([]fieldSpec, bool) {
	switch t {
	case constants.DocW2:
		return w2Fields, true
	case constants.Doc1099INT:
		return intFields, true
	case constants.Doc1099DIV:
		return divFields, true
	default:
		return nil, false
	}
}

// BuildJSONSchema returns a JSON-Schema (draft 2020-12 subset) for one document type as a generic map.
// Types are loose: models answer money as numbers or strings and collections as a list or a
// lone object. No key is required: the extraction chain checks the load-bearing field once
// alias keys ("wages", "box_1") are resolved.
func BuildJSONSchema(t constants.DocumentType) (map[string]any, error) {
	fields, ok := fieldsFor(t)
	if !ok {
		return nil, fmt.Errorf("no extraction schema for document type %s", t)
	}
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f.name] = propFor(f)
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}, nil
}

func propFor(f fieldSpec) map[string]any {
	switch f.kind {
	case kindMoney:
		return map[string]any{"type": []string{"number", "string", "null"}}
	case kindFlag:
		return map[string]any{"type": []string{"boolean", "string", "null"}}
	case kindList:
		return map[string]any{"type": []string{"array", "object", "null"}}
	default:
		return map[string]any{"type": []string{"string", "number", "null"}}
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
