package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/taxdocs/constants"
)

// Form1099INT holds a 1099-INT Interest Income statement.
type Form1099INT struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`

	PayerName    string  `json:"payer_name"`
	PayerAddress *string `json:"payer_address,omitempty"`
	PayerTIN     *string `json:"payer_tin,omitempty"`

	RecipientName    string  `json:"recipient_name"`
	RecipientTIN     *string `json:"recipient_tin,omitempty"`
	RecipientAddress *string `json:"recipient_address,omitempty"`

	InterestIncome                       decimal.NullDecimal `json:"interest_income"`
	EarlyWithdrawalPenalty               decimal.NullDecimal `json:"early_withdrawal_penalty"`
	InterestOnUSSavingsBonds             decimal.NullDecimal `json:"interest_on_us_savings_bonds"`
	FederalIncomeTaxWithheld             decimal.NullDecimal `json:"federal_income_tax_withheld"`
	InvestmentExpenses                   decimal.NullDecimal `json:"investment_expenses"`
	ForeignTaxPaid                       decimal.NullDecimal `json:"foreign_tax_paid"`
	ForeignCountry                       *string             `json:"foreign_country,omitempty"`
	TaxExemptInterest                    decimal.NullDecimal `json:"tax_exempt_interest"`
	SpecifiedPrivateActivityBondInterest decimal.NullDecimal `json:"specified_private_activity_bond_interest"`
	MarketDiscount                       decimal.NullDecimal `json:"market_discount"`
	BondPremium                          decimal.NullDecimal `json:"bond_premium"`
	BondPremiumTreasuryObligations       decimal.NullDecimal `json:"bond_premium_treasury_obligations"`
	BondPremiumTaxExemptBond             decimal.NullDecimal `json:"bond_premium_tax_exempt_bond"`
	TaxExemptCUSIPNumber                 *string             `json:"tax_exempt_cusip_number,omitempty"`

	StateInfo []StateInfo `json:"state_info"`

	RawData map[string]any `json:"raw_data,omitempty"`
}

func (f *Form1099INT) Type() constants.DocumentType     { return constants.Doc1099INT }
func (f *Form1099INT) DocID() uuid.UUID                 { return f.DocumentID }
func (f *Form1099INT) SetDocID(id uuid.UUID)            { f.DocumentID = id }
func (f *Form1099INT) LoadBearing() decimal.NullDecimal { return f.InterestIncome }
func (f *Form1099INT) Raw() map[string]any              { return f.RawData }

// Form1099DIV holds a 1099-DIV Dividends and Distributions statement.
type Form1099DIV struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`

	PayerName    string  `json:"payer_name"`
	PayerAddress *string `json:"payer_address,omitempty"`
	PayerTIN     *string `json:"payer_tin,omitempty"`

	RecipientName    string  `json:"recipient_name"`
	RecipientTIN     *string `json:"recipient_tin,omitempty"`
	RecipientAddress *string `json:"recipient_address,omitempty"`

	TotalOrdinaryDividends      decimal.NullDecimal `json:"total_ordinary_dividends"`
	QualifiedDividends          decimal.NullDecimal `json:"qualified_dividends"`
	TotalCapitalGain            decimal.NullDecimal `json:"total_capital_gain"`
	UnrecapturedSection1250Gain decimal.NullDecimal `json:"unrecaptured_section_1250_gain"`
	Section1202Gain             decimal.NullDecimal `json:"section_1202_gain"`
	CollectiblesGain            decimal.NullDecimal `json:"collectibles_gain"`
	Section897OrdinaryDividends decimal.NullDecimal `json:"section_897_ordinary_dividends"`
	Section897CapitalGain       decimal.NullDecimal `json:"section_897_capital_gain"`
	NondividendDistributions    decimal.NullDecimal `json:"nondividend_distributions"`
	FederalIncomeTaxWithheld    decimal.NullDecimal `json:"federal_income_tax_withheld"`
	Section199ADividends        decimal.NullDecimal `json:"section_199a_dividends"`
	InvestmentExpenses          decimal.NullDecimal `json:"investment_expenses"`
	ForeignTaxPaid              decimal.NullDecimal `json:"foreign_tax_paid"`
	ForeignCountry              *string             `json:"foreign_country,omitempty"`
	CashLiquidation             decimal.NullDecimal `json:"cash_liquidation"`
	NoncashLiquidation          decimal.NullDecimal `json:"noncash_liquidation"`
	FATCAFiling                 bool                `json:"fatca_filing"`

	StateInfo []StateInfo `json:"state_info"`

	RawData map[string]any `json:"raw_data,omitempty"`
}

func (f *Form1099DIV) Type() constants.DocumentType     { return constants.Doc1099DIV }
func (f *Form1099DIV) DocID() uuid.UUID                 { return f.DocumentID }
func (f *Form1099DIV) SetDocID(id uuid.UUID)            { f.DocumentID = id }
func (f *Form1099DIV) LoadBearing() decimal.NullDecimal { return f.TotalOrdinaryDividends }
func (f *Form1099DIV) Raw() map[string]any              { return f.RawData }
