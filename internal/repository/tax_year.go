package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
)

const (
	MinTaxYear = 2020
	MaxTaxYear = 2030
)

var taxYearColumnNames = []string{"id", "year", "filing_status", "created_at"}

type TaxYearRepository interface {
	GetOrCreate(ctx context.Context, year int) (*entity.TaxYear, error)
	GetByYear(ctx context.Context, year int) (*entity.TaxYear, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.TaxYear, error)
	List(ctx context.Context) ([]entity.TaxYear, error)
}

type taxYearRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewTaxYearRepository(db *DB, logger *slog.Logger) TaxYearRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &taxYearRepo{db: db, logger: logger}
}

// ValidateYear rejects years outside the supported filing range.
func ValidateYear(year int) error {
	if year < MinTaxYear || year > MaxTaxYear {
		return fmt.Errorf("%w: tax year %d outside %d..%d", common.ErrInvalidInput, year, MinTaxYear, MaxTaxYear)
	}
	return nil
}

// GetOrCreate returns the tax year row, inserting it on first use. Concurrent
// callers converge on the same row.
func (r *taxYearRepo) GetOrCreate(ctx context.Context, year int) (*entity.TaxYear, error) {
	if err := ValidateYear(year); err != nil {
		return nil, err
	}
	if existing, err := r.GetByYear(ctx, year); err == nil {
		return existing, nil
	} else if !isNotFound(err) {
		return nil, err
	}

	ty := &entity.TaxYear{ID: uuid.New(), Year: year, CreatedAt: time.Now().UTC()}
	q, args := r.db.builder().Insert(tableTaxYears).
		Columns("id", "year", "created_at").
		Values(ty.ID, ty.Year, ty.CreatedAt).
		Query()
	if _, err := execQuery(ctx, r.db.drv, q, args); err != nil {
		if isUniqueViolation(err) {
			return r.GetByYear(ctx, year)
		}
		r.logger.Error("failed to create tax year", "year", year, "error", err)
		return nil, fmt.Errorf("%w: create tax year %d: %v", common.ErrDatabase, year, err)
	}
	r.logger.Info("tax year created", "year", year, "id", ty.ID)
	return ty, nil
}

func (r *taxYearRepo) GetByYear(ctx context.Context, year int) (*entity.TaxYear, error) {
	b := r.db.builder()
	t := b.Table(tableTaxYears)
	q, args := b.Select(t.Columns(taxYearColumnNames...)...).From(t).Where(entsql.EQ(t.C("year"), year)).Query()
	years, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: tax year %d", common.ErrNotFound, year)
	}
	return &years[0], nil
}

func (r *taxYearRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.TaxYear, error) {
	b := r.db.builder()
	t := b.Table(tableTaxYears)
	q, args := b.Select(t.Columns(taxYearColumnNames...)...).From(t).Where(entsql.EQ(t.C("id"), id)).Query()
	years, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: tax year %s", common.ErrNotFound, id)
	}
	return &years[0], nil
}

func (r *taxYearRepo) List(ctx context.Context) ([]entity.TaxYear, error) {
	b := r.db.builder()
	t := b.Table(tableTaxYears)
	q, args := b.Select(t.Columns(taxYearColumnNames...)...).From(t).OrderBy(entsql.Desc(t.C("year"))).Query()
	return r.query(ctx, q, args)
}

func (r *taxYearRepo) query(ctx context.Context, q string, args []any) ([]entity.TaxYear, error) {
	rows, err := runQuery(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to query tax years", "error", err)
		return nil, fmt.Errorf("%w: query tax years: %v", common.ErrDatabase, err)
	}
	defer rows.Close()
	var out []entity.TaxYear
	for rows.Next() {
		var (
			ty     entity.TaxYear
			status entsql.NullString
		)
		if err := rows.Scan(&ty.ID, &ty.Year, &status, &ty.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan tax year: %v", common.ErrDatabase, err)
		}
		if status.Valid {
			ty.FilingStatus = &status.String
		}
		out = append(out, ty)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate tax years: %v", common.ErrDatabase, err)
	}
	return out, nil
}
