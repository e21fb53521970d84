package repository

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
	"github.com/joseph-ayodele/taxdocs/internal/extract/normalize"
)

type SummaryRepository interface {
	Summary(ctx context.Context, ty *entity.TaxYear) (*entity.Summary, error)
}

type summaryRepo struct {
	records RecordRepository
	logger  *slog.Logger
}

func NewSummaryRepository(records RecordRepository, logger *slog.Logger) SummaryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &summaryRepo{records: records, logger: logger}
}

// Summary totals the stored records of a tax year. Federal withholding spans W-2s and
// both 1099s; state withholding comes from W-2 box 17 only.
func (r *summaryRepo) Summary(ctx context.Context, ty *entity.TaxYear) (*entity.Summary, error) {
	s := &entity.Summary{
		Year:                    ty.Year,
		TotalWages:              decimal.Zero,
		TotalFederalWithheld:    decimal.Zero,
		TotalStateWithheld:      decimal.Zero,
		TotalInterest:           decimal.Zero,
		TotalDividends:          decimal.Zero,
		TotalQualifiedDividends: decimal.Zero,
	}
	add := func(sum *decimal.Decimal, v decimal.NullDecimal) {
		*sum = sum.Add(normalize.MoneyValue(v))
	}

	w2s, err := r.records.ListByTaxYear(ctx, constants.DocW2, ty.ID)
	if err != nil {
		return nil, err
	}
	for _, rec := range w2s {
		w := rec.(*entity.W2Data)
		s.W2Count++
		add(&s.TotalWages, w.WagesTipsCompensation)
		add(&s.TotalFederalWithheld, w.FederalIncomeTaxWithheld)
		add(&s.TotalStateWithheld, w.StateIncomeTax)
	}

	ints, err := r.records.ListByTaxYear(ctx, constants.Doc1099INT, ty.ID)
	if err != nil {
		return nil, err
	}
	for _, rec := range ints {
		f := rec.(*entity.Form1099INT)
		s.Form1099INTCount++
		add(&s.TotalInterest, f.InterestIncome)
		add(&s.TotalFederalWithheld, f.FederalIncomeTaxWithheld)
	}

	divs, err := r.records.ListByTaxYear(ctx, constants.Doc1099DIV, ty.ID)
	if err != nil {
		return nil, err
	}
	for _, rec := range divs {
		f := rec.(*entity.Form1099DIV)
		s.Form1099DIVCount++
		add(&s.TotalDividends, f.TotalOrdinaryDividends)
		add(&s.TotalQualifiedDividends, f.QualifiedDividends)
		add(&s.TotalFederalWithheld, f.FederalIncomeTaxWithheld)
	}

	r.logger.Debug("summary computed", "year", ty.Year, "w2", s.W2Count, "int", s.Form1099INTCount, "div", s.Form1099DIVCount)
	return s, nil
}
