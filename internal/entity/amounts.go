package entity

import "github.com/shopspring/decimal"

// Amount is one named monetary field of a record.
type Amount struct {
	Field string
	Value decimal.NullDecimal
}

// Amounts lists the W-2 money fields in box order.
func (w *W2Data) Amounts() []Amount {
	return []Amount{
		{"wages_tips_compensation", w.WagesTipsCompensation},
		{"federal_income_tax_withheld", w.FederalIncomeTaxWithheld},
		{"social_security_wages", w.SocialSecurityWages},
		{"social_security_tax_withheld", w.SocialSecurityTaxWithheld},
		{"medicare_wages", w.MedicareWages},
		{"medicare_tax_withheld", w.MedicareTaxWithheld},
		{"social_security_tips", w.SocialSecurityTips},
		{"allocated_tips", w.AllocatedTips},
		{"dependent_care_benefits", w.DependentCareBenefits},
		{"nonqualified_plans", w.NonqualifiedPlans},
		{"state_wages_tips", w.StateWagesTips},
		{"state_income_tax", w.StateIncomeTax},
		{"local_wages_tips", w.LocalWagesTips},
		{"local_income_tax", w.LocalIncomeTax},
	}
}

// Amounts lists the 1099-INT money fields in box order.
func (f *Form1099INT) Amounts() []Amount {
	return []Amount{
		{"interest_income", f.InterestIncome},
		{"early_withdrawal_penalty", f.EarlyWithdrawalPenalty},
		{"interest_on_us_savings_bonds", f.InterestOnUSSavingsBonds},
		{"federal_income_tax_withheld", f.FederalIncomeTaxWithheld},
		{"investment_expenses", f.InvestmentExpenses},
		{"foreign_tax_paid", f.ForeignTaxPaid},
		{"tax_exempt_interest", f.TaxExemptInterest},
		{"specified_private_activity_bond_interest", f.SpecifiedPrivateActivityBondInterest},
		{"market_discount", f.MarketDiscount},
		{"bond_premium", f.BondPremium},
		{"bond_premium_treasury_obligations", f.BondPremiumTreasuryObligations},
		{"bond_premium_tax_exempt_bond", f.BondPremiumTaxExemptBond},
	}
}

// Amounts lists the 1099-DIV money fields in box order.
func (f *Form1099DIV) Amounts() []Amount {
	return []Amount{
		{"total_ordinary_dividends", f.TotalOrdinaryDividends},
		{"qualified_dividends", f.QualifiedDividends},
		{"total_capital_gain", f.TotalCapitalGain},
		{"unrecaptured_section_1250_gain", f.UnrecapturedSection1250Gain},
		{"section_1202_gain", f.Section1202Gain},
		{"collectibles_gain", f.CollectiblesGain},
		{"section_897_ordinary_dividends", f.Section897OrdinaryDividends},
		{"section_897_capital_gain", f.Section897CapitalGain},
		{"nondividend_distributions", f.NondividendDistributions},
		{"federal_income_tax_withheld", f.FederalIncomeTaxWithheld},
		{"section_199a_dividends", f.Section199ADividends},
		{"investment_expenses", f.InvestmentExpenses},
		{"foreign_tax_paid", f.ForeignTaxPaid},
		{"cash_liquidation", f.CashLiquidation},
		{"noncash_liquidation", f.NoncashLiquidation},
	}
}
