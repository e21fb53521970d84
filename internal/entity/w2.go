package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/taxdocs/constants"
)

// W2Data holds a W-2 Wage and Tax Statement. Every amount is nullable so that
// "not on the form" stays distinct from "$0.00"; required boxes are enforced by the validator.
type W2Data struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`

	EmployerEIN     *string `json:"employer_ein,omitempty"`
	EmployerName    string  `json:"employer_name"`
	EmployerAddress *string `json:"employer_address,omitempty"`
	EmployerCity    *string `json:"employer_city,omitempty"`
	EmployerState   *string `json:"employer_state,omitempty"`
	EmployerZip     *string `json:"employer_zip,omitempty"`

	EmployeeName    string  `json:"employee_name"`
	EmployeeSSN     *string `json:"employee_ssn,omitempty"`
	EmployeeAddress *string `json:"employee_address,omitempty"`
	EmployeeCity    *string `json:"employee_city,omitempty"`
	EmployeeState   *string `json:"employee_state,omitempty"`
	EmployeeZip     *string `json:"employee_zip,omitempty"`

	ControlNumber *string `json:"control_number,omitempty"`

	WagesTipsCompensation     decimal.NullDecimal `json:"wages_tips_compensation"`
	FederalIncomeTaxWithheld  decimal.NullDecimal `json:"federal_income_tax_withheld"`
	SocialSecurityWages       decimal.NullDecimal `json:"social_security_wages"`
	SocialSecurityTaxWithheld decimal.NullDecimal `json:"social_security_tax_withheld"`
	MedicareWages             decimal.NullDecimal `json:"medicare_wages"`
	MedicareTaxWithheld       decimal.NullDecimal `json:"medicare_tax_withheld"`
	SocialSecurityTips        decimal.NullDecimal `json:"social_security_tips"`
	AllocatedTips             decimal.NullDecimal `json:"allocated_tips"`
	DependentCareBenefits     decimal.NullDecimal `json:"dependent_care_benefits"`
	NonqualifiedPlans         decimal.NullDecimal `json:"nonqualified_plans"`

	Box12Codes []Box12Code `json:"box_12_codes"`

	StatutoryEmployee bool `json:"statutory_employee"`
	RetirementPlan    bool `json:"retirement_plan"`
	ThirdPartySickPay bool `json:"third_party_sick_pay"`

	Box14Other []Box14Item `json:"box_14_other"`

	StateEmployerStateID *string             `json:"state_employer_state_id,omitempty"`
	StateWagesTips       decimal.NullDecimal `json:"state_wages_tips"`
	StateIncomeTax       decimal.NullDecimal `json:"state_income_tax"`
	LocalWagesTips       decimal.NullDecimal `json:"local_wages_tips"`
	LocalIncomeTax       decimal.NullDecimal `json:"local_income_tax"`
	LocalityName         *string             `json:"locality_name,omitempty"`

	RawData map[string]any `json:"raw_data,omitempty"`
}

func (w *W2Data) Type() constants.DocumentType     { return constants.DocW2 }
func (w *W2Data) DocID() uuid.UUID                 { return w.DocumentID }
func (w *W2Data) SetDocID(id uuid.UUID)            { w.DocumentID = id }
func (w *W2Data) LoadBearing() decimal.NullDecimal { return w.WagesTipsCompensation }
func (w *W2Data) Raw() map[string]any              { return w.RawData }
