package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
)

// LoadBearingKey names the field a record cannot be extracted without.
func LoadBearingKey(t constants.DocumentType) string {
	switch t {
	case constants.DocW2:
		return "wages_tips_compensation"
	case constants.Doc1099INT:
		return "interest_income"
	case constants.Doc1099DIV:
		return "total_ordinary_dividends"
	default:
		return ""
	}
}

// Build canonicalizes raw and produces the typed record for docType. The returned
// record keeps raw verbatim. An error means docType has no typed record.
func Build(docType constants.DocumentType, raw map[string]any) (entity.Record, error) {
	return BuildFrom(docType, raw, raw)
}

// BuildFrom builds the record from fields and keeps raw as the record's audit copy.
// Backends that clean their output before handing it over pass both.
func BuildFrom(docType constants.DocumentType, fields, raw map[string]any) (entity.Record, error) {
	c := Canonicalize(docType, fields)
	switch docType {
	case constants.DocW2:
		return buildW2(c, raw), nil
	case constants.Doc1099INT:
		return buildINT(c, raw), nil
	case constants.Doc1099DIV:
		return buildDIV(c, raw), nil
	default:
		return nil, fmt.Errorf("no typed record for document type %s", docType)
	}
}

func str(m map[string]any, k string) string {
	if s := Text(m[k]); s != nil {
		return *s
	}
	return ""
}

func upper(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.ToUpper(*p)
	return &s
}

func buildW2(c, raw map[string]any) *entity.W2Data {
	return &entity.W2Data{
		EmployerEIN:     EIN(c["employer_ein"]),
		EmployerName:    str(c, "employer_name"),
		EmployerAddress: Text(c["employer_address"]),
		EmployerCity:    Text(c["employer_city"]),
		EmployerState:   upper(Text(c["employer_state"])),
		EmployerZip:     Text(c["employer_zip"]),

		EmployeeName:    str(c, "employee_name"),
		EmployeeSSN:     SSN(c["employee_ssn"]),
		EmployeeAddress: Text(c["employee_address"]),
		EmployeeCity:    Text(c["employee_city"]),
		EmployeeState:   upper(Text(c["employee_state"])),
		EmployeeZip:     Text(c["employee_zip"]),

		ControlNumber: Text(c["control_number"]),

		WagesTipsCompensation:     Money(c["wages_tips_compensation"]),
		FederalIncomeTaxWithheld:  Money(c["federal_income_tax_withheld"]),
		SocialSecurityWages:       Money(c["social_security_wages"]),
		SocialSecurityTaxWithheld: Money(c["social_security_tax_withheld"]),
		MedicareWages:             Money(c["medicare_wages"]),
		MedicareTaxWithheld:       Money(c["medicare_tax_withheld"]),
		SocialSecurityTips:        Money(c["social_security_tips"]),
		AllocatedTips:             Money(c["allocated_tips"]),
		DependentCareBenefits:     Money(c["dependent_care_benefits"]),
		NonqualifiedPlans:         Money(c["nonqualified_plans"]),

		Box12Codes: Box12(c["box_12_codes"]),

		StatutoryEmployee: Flag(c["statutory_employee"]),
		RetirementPlan:    Flag(c["retirement_plan"]),
		ThirdPartySickPay: Flag(c["third_party_sick_pay"]),

		Box14Other: Box14(c["box_14_other"]),

		StateEmployerStateID: Text(c["state_employer_state_id"]),
		StateWagesTips:       Money(c["state_wages_tips"]),
		StateIncomeTax:       Money(c["state_income_tax"]),
		LocalWagesTips:       Money(c["local_wages_tips"]),
		LocalIncomeTax:       Money(c["local_income_tax"]),
		LocalityName:         Text(c["locality_name"]),

		RawData: raw,
	}
}

func buildINT(c, raw map[string]any) *entity.Form1099INT {
	return &entity.Form1099INT{
		PayerName:        str(c, "payer_name"),
		PayerAddress:     Text(c["payer_address"]),
		PayerTIN:         EIN(c["payer_tin"]),
		RecipientName:    str(c, "recipient_name"),
		RecipientTIN:     SSN(c["recipient_tin"]),
		RecipientAddress: Text(c["recipient_address"]),

		InterestIncome:                       Money(c["interest_income"]),
		EarlyWithdrawalPenalty:               Money(c["early_withdrawal_penalty"]),
		InterestOnUSSavingsBonds:             Money(c["interest_on_us_savings_bonds"]),
		FederalIncomeTaxWithheld:             Money(c["federal_income_tax_withheld"]),
		InvestmentExpenses:                   Money(c["investment_expenses"]),
		ForeignTaxPaid:                       Money(c["foreign_tax_paid"]),
		ForeignCountry:                       Text(c["foreign_country"]),
		TaxExemptInterest:                    Money(c["tax_exempt_interest"]),
		SpecifiedPrivateActivityBondInterest: Money(c["specified_private_activity_bond_interest"]),
		MarketDiscount:                       Money(c["market_discount"]),
		BondPremium:                          Money(c["bond_premium"]),
		BondPremiumTreasuryObligations:       Money(c["bond_premium_treasury_obligations"]),
		BondPremiumTaxExemptBond:             Money(c["bond_premium_tax_exempt_bond"]),
		TaxExemptCUSIPNumber:                 Text(c["tax_exempt_cusip_number"]),

		StateInfo: States(c["state_info"]),
		RawData:   raw,
	}
}

func buildDIV(c, raw map[string]any) *entity.Form1099DIV {
	return &entity.Form1099DIV{
		PayerName:        str(c, "payer_name"),
		PayerAddress:     Text(c["payer_address"]),
		PayerTIN:         EIN(c["payer_tin"]),
		RecipientName:    str(c, "recipient_name"),
		RecipientTIN:     SSN(c["recipient_tin"]),
		RecipientAddress: Text(c["recipient_address"]),

		TotalOrdinaryDividends:      Money(c["total_ordinary_dividends"]),
		QualifiedDividends:          Money(c["qualified_dividends"]),
		TotalCapitalGain:            Money(c["total_capital_gain"]),
		UnrecapturedSection1250Gain: Money(c["unrecaptured_section_1250_gain"]),
		Section1202Gain:             Money(c["section_1202_gain"]),
		CollectiblesGain:            Money(c["collectibles_gain"]),
		Section897OrdinaryDividends: Money(c["section_897_ordinary_dividends"]),
		Section897CapitalGain:       Money(c["section_897_capital_gain"]),
		NondividendDistributions:    Money(c["nondividend_distributions"]),
		FederalIncomeTaxWithheld:    Money(c["federal_income_tax_withheld"]),
		Section199ADividends:        Money(c["section_199a_dividends"]),
		InvestmentExpenses:          Money(c["investment_expenses"]),
		ForeignTaxPaid:              Money(c["foreign_tax_paid"]),
		ForeignCountry:              Text(c["foreign_country"]),
		CashLiquidation:             Money(c["cash_liquidation"]),
		NoncashLiquidation:          Money(c["noncash_liquidation"]),
		FATCAFiling:                 Flag(c["fatca_filing"]),

		StateInfo: States(c["state_info"]),
		RawData:   raw,
	}
}

// Box12 keeps entries with a code of at most two characters and a parseable amount.
func Box12(v any) []entity.Box12Code {
	_, items := Collection(v)
	out := make([]entity.Box12Code, 0, len(items))
	for _, it := range items {
		code := Text(it["code"])
		amt := Money(it["amount"])
		if code == nil || !amt.Valid {
			continue
		}
		cs := strings.ToUpper(*code)
		if len(cs) > 2 {
			continue
		}
		out = append(out, entity.Box12Code{Code: cs, Amount: amt.Decimal})
	}
	return out
}

// Box14 keeps entries with a description; the amount stays optional.
func Box14(v any) []entity.Box14Item {
	_, items := Collection(v)
	out := make([]entity.Box14Item, 0, len(items))
	for _, it := range items {
		desc := Text(it["description"])
		if desc == nil {
			continue
		}
		out = append(out, entity.Box14Item{Description: *desc, Amount: Money(it["amount"])})
	}
	return out
}

// States keeps entries that name a state.
func States(v any) []entity.StateInfo {
	_, items := Collection(v)
	out := make([]entity.StateInfo, 0, len(items))
	for _, it := range items {
		st := Text(it["state"])
		if st == nil {
			continue
		}
		out = append(out, entity.StateInfo{
			State:            strings.ToUpper(*st),
			StateID:          Text(it["state_id"]),
			StateTaxWithheld: Money(it["state_tax_withheld"]),
		})
	}
	return out
}

// HasLoadBearing reports whether rec carries its load-bearing field.
func HasLoadBearing(rec entity.Record) bool {
	return rec != nil && rec.LoadBearing().Valid
}

// MoneyValue is a convenience for callers holding a NullDecimal they know is set.
func MoneyValue(n decimal.NullDecimal) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Decimal
}
