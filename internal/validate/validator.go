// Package validate checks typed records for required fields and tax-law consistency.
// Findings are either errors, which block persistence, or warnings, which do not.
package validate

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
)

var (
	reSSN = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
	reEIN = regexp.MustCompile(`^\d{2}-\d{7}$`)
)

// DefaultTolerance is the allowed deviation for withholding arithmetic.
var DefaultTolerance = decimal.RequireFromString("1.00")

// Result is the outcome of validating one record.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Messages returns errors followed by warnings prefixed with "WARNING: ".
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	for _, w := range r.Warnings {
		out = append(out, common.WarningPrefix+w)
	}
	return out
}

// Validator holds the tolerance used by the arithmetic checks.
type Validator struct {
	tolerance decimal.Decimal
	logger    *slog.Logger
}

// NewValidator builds a validator. A non-positive tolerance falls back to DefaultTolerance.
func NewValidator(tolerance decimal.Decimal, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if !tolerance.IsPositive() {
		tolerance = DefaultTolerance
	}
	return &Validator{tolerance: tolerance, logger: logger}
}

// ParseTolerance reads a configured tolerance such as "1.00".
func ParseTolerance(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return DefaultTolerance
	}
	return d
}

// Validate checks rec for taxYear. Types without a typed record are always valid.
func (v *Validator) Validate(rec entity.Record, taxYear int) Result {
	c := common.NewValidator()
	switch r := rec.(type) {
	case *entity.W2Data:
		v.w2(c, r, taxYear)
	case *entity.Form1099INT:
		v.form1099INT(c, r)
	case *entity.Form1099DIV:
		v.form1099DIV(c, r)
	default:
		return Result{Valid: true}
	}

	res := Result{Valid: !c.HasErrors(), Errors: c.Errors(), Warnings: c.Warnings()}
	label := rec.Type().Label()
	for _, w := range res.Warnings {
		v.logger.Warn("validate.warning", "type", label, "message", w)
	}
	for _, e := range res.Errors {
		v.logger.Error("validate.error", "type", label, "message", e)
	}
	return res
}

func (v *Validator) w2(c *common.Validator, d *entity.W2Data, taxYear int) {
	c.Required("employer_name", d.EmployerName, "Missing employer name")
	c.Required("employee_name", d.EmployeeName, "Missing employee name")
	if c.Required("wages_tips_compensation", d.WagesTipsCompensation, "Missing wages/tips/compensation (Box 1)") &&
		d.WagesTipsCompensation.Decimal.IsNegative() {
		c.Errorf("wages_tips_compensation", "Wages cannot be negative")
	}
	c.Required("federal_income_tax_withheld", d.FederalIncomeTaxWithheld, "Missing federal income tax withheld (Box 2)")
	c.Required("social_security_wages", d.SocialSecurityWages, "Missing social security wages (Box 3)")
	c.Required("social_security_tax_withheld", d.SocialSecurityTaxWithheld, "Missing social security tax withheld (Box 4)")
	c.Required("medicare_wages", d.MedicareWages, "Missing Medicare wages (Box 5)")
	c.Required("medicare_tax_withheld", d.MedicareTaxWithheld, "Missing Medicare tax withheld (Box 6)")
	negatives(c, d.Amounts(), "wages_tips_compensation")

	ssBasis, ssLabel := d.SocialSecurityWages, "SS wages"
	if !ssBasis.Valid {
		ssBasis, ssLabel = d.WagesTipsCompensation, "wages"
	}
	if ssBasis.Valid && ssBasis.Decimal.IsPositive() && d.SocialSecurityTaxWithheld.Valid {
		capped := decimal.Min(ssBasis.Decimal, WageBase(taxYear))
		expected := capped.Mul(socialSecurityRate)
		actual := d.SocialSecurityTaxWithheld.Decimal
		if expected.Sub(actual).Abs().GreaterThan(v.tolerance) {
			c.Warnf("social_security_tax_withheld",
				"Social Security tax (%s) doesn't match expected (%s) based on %s (%s)",
				actual.StringFixed(2), expected.StringFixed(2), ssLabel, ssBasis.Decimal.StringFixed(2))
		}
	}

	mBasis, mLabel := d.MedicareWages, "Medicare wages"
	if !mBasis.Valid {
		mBasis, mLabel = d.WagesTipsCompensation, "wages"
	}
	if mBasis.Valid && mBasis.Decimal.IsPositive() && d.MedicareTaxWithheld.Valid {
		expected := mBasis.Decimal.Mul(medicareRate)
		actual := d.MedicareTaxWithheld.Decimal
		if expected.Sub(actual).Abs().GreaterThan(v.tolerance) {
			c.Warnf("medicare_tax_withheld",
				"Medicare tax (%s) doesn't match expected (%s) based on %s (%s)",
				actual.StringFixed(2), expected.StringFixed(2), mLabel, mBasis.Decimal.StringFixed(2))
		}
	}

	if d.EmployeeSSN != nil && !reSSN.MatchString(*d.EmployeeSSN) {
		c.Warnf("employee_ssn", "SSN format may be incorrect: %s-XX-XXXX", prefix(*d.EmployeeSSN, 3))
	}
	if d.EmployerEIN != nil && !reEIN.MatchString(*d.EmployerEIN) {
		c.Warnf("employer_ein", "EIN format may be incorrect: %s", *d.EmployerEIN)
	}
}

func (v *Validator) form1099INT(c *common.Validator, d *entity.Form1099INT) {
	c.Required("payer_name", d.PayerName, "Missing payer name")
	if c.Required("interest_income", d.InterestIncome, "Missing interest income (Box 1)") {
		if d.InterestIncome.Decimal.IsNegative() {
			c.Errorf("interest_income", "Interest income cannot be negative")
		} else if d.InterestIncome.Decimal.GreaterThan(interestCeiling) {
			c.Warnf("interest_income", "Interest income is unusually high: $%s", groupThousands(d.InterestIncome.Decimal))
		}
	}
	negatives(c, d.Amounts(), "interest_income", "early_withdrawal_penalty")
	tinChecks(c, d.PayerTIN, d.RecipientTIN)

	if d.TaxExemptInterest.Valid && d.TaxExemptInterest.Decimal.IsPositive() {
		c.Warnf("tax_exempt_interest",
			"Tax-exempt interest detected. This may need to be reported on Form 1040, Schedule 2 even though it's not taxable.")
	}
}

func (v *Validator) form1099DIV(c *common.Validator, d *entity.Form1099DIV) {
	c.Required("payer_name", d.PayerName, "Missing payer name")
	if c.Required("total_ordinary_dividends", d.TotalOrdinaryDividends, "Missing total ordinary dividends (Box 1a)") &&
		d.TotalOrdinaryDividends.Decimal.IsNegative() {
		c.Errorf("total_ordinary_dividends", "Dividends cannot be negative")
	}
	negatives(c, d.Amounts(), "total_ordinary_dividends")
	tinChecks(c, d.PayerTIN, d.RecipientTIN)

	total := d.TotalOrdinaryDividends
	if total.Valid && d.QualifiedDividends.Valid && d.QualifiedDividends.Decimal.GreaterThan(total.Decimal) {
		c.Errorf("qualified_dividends", "Qualified dividends (%s) cannot exceed total ordinary dividends (%s)",
			d.QualifiedDividends.Decimal.StringFixed(2), total.Decimal.StringFixed(2))
	}
	if total.Valid && d.TotalCapitalGain.Valid && d.TotalCapitalGain.Decimal.GreaterThan(total.Decimal) {
		c.Warnf("total_capital_gain", "Capital gain distributions (%s) exceed total ordinary dividends (%s)",
			d.TotalCapitalGain.Decimal.StringFixed(2), total.Decimal.StringFixed(2))
	}
	if d.ForeignTaxPaid.Valid && d.ForeignTaxPaid.Decimal.IsPositive() {
		c.Warnf("foreign_tax_paid", "Foreign tax paid detected. You may be eligible for foreign tax credit (Form 1116).")
	}
}

// negatives flags every negative amount not named in skip.
func negatives(c *common.Validator, amounts []entity.Amount, skip ...string) {
	for _, a := range amounts {
		if !a.Value.Valid || !a.Value.Decimal.IsNegative() || contains(skip, a.Field) {
			continue
		}
		c.Errorf(a.Field, "%s cannot be negative", humanize(a.Field))
	}
}

func tinChecks(c *common.Validator, payer, recipient *string) {
	if payer != nil && !reEIN.MatchString(*payer) {
		c.Warnf("payer_tin", "EIN format may be incorrect: %s", *payer)
	}
	if recipient != nil && !reSSN.MatchString(*recipient) {
		c.Warnf("recipient_tin", "SSN format may be incorrect: %s-XX-XXXX", prefix(*recipient, 3))
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) < n {
		return string(r)
	}
	return string(r[:n])
}

// humanize turns "federal_income_tax_withheld" into "Federal income tax withheld".
func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// groupThousands renders d with two places and comma grouping, e.g. 1,234,567.89.
func groupThousands(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}
