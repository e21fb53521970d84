package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
	"github.com/joseph-ayodele/taxdocs/internal/extract/normalize"
)

type colKind int

const (
	kindText colKind = iota
	kindMoney
	kindBool
	kindJSON
)

type colSpec struct {
	name string
	kind colKind
}

func texts(names ...string) []colSpec {
	out := make([]colSpec, len(names))
	for i, n := range names {
		out[i] = colSpec{n, kindText}
	}
	return out
}

func monies(names ...string) []colSpec {
	out := make([]colSpec, len(names))
	for i, n := range names {
		out[i] = colSpec{n, kindMoney}
	}
	return out
}

func concat(groups ...[]colSpec) []colSpec {
	var out []colSpec
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var (
	w2Columns = concat(
		texts("employer_ein", "employer_name", "employer_address", "employer_city", "employer_state", "employer_zip",
			"employee_name", "employee_ssn", "employee_address", "employee_city", "employee_state", "employee_zip",
			"control_number"),
		monies("wages_tips_compensation", "federal_income_tax_withheld", "social_security_wages",
			"social_security_tax_withheld", "medicare_wages", "medicare_tax_withheld", "social_security_tips",
			"allocated_tips", "dependent_care_benefits", "nonqualified_plans"),
		[]colSpec{
			{"box_12_codes", kindJSON},
			{"statutory_employee", kindBool},
			{"retirement_plan", kindBool},
			{"third_party_sick_pay", kindBool},
			{"box_14_other", kindJSON},
		},
		texts("state_employer_state_id"),
		monies("state_wages_tips", "state_income_tax", "local_wages_tips", "local_income_tax"),
		texts("locality_name"),
		[]colSpec{{"raw_data", kindJSON}},
	)

	payerColumns = texts("payer_name", "payer_address", "payer_tin", "recipient_name", "recipient_tin", "recipient_address")

	intColumns = concat(
		payerColumns,
		monies("interest_income", "early_withdrawal_penalty", "interest_on_us_savings_bonds",
			"federal_income_tax_withheld", "investment_expenses", "foreign_tax_paid"),
		texts("foreign_country"),
		monies("tax_exempt_interest", "specified_private_activity_bond_interest", "market_discount",
			"bond_premium", "bond_premium_treasury_obligations", "bond_premium_tax_exempt_bond"),
		texts("tax_exempt_cusip_number"),
		[]colSpec{{"state_info", kindJSON}, {"raw_data", kindJSON}},
	)

	divColumns = concat(
		payerColumns,
		monies("total_ordinary_dividends", "qualified_dividends", "total_capital_gain",
			"unrecaptured_section_1250_gain", "section_1202_gain", "collectibles_gain",
			"section_897_ordinary_dividends", "section_897_capital_gain", "nondividend_distributions",
			"federal_income_tax_withheld", "section_199a_dividends", "investment_expenses", "foreign_tax_paid"),
		texts("foreign_country"),
		monies("cash_liquidation", "noncash_liquidation"),
		[]colSpec{{"fatca_filing", kindBool}, {"state_info", kindJSON}, {"raw_data", kindJSON}},
	)
)

type recordLayout struct {
	table *schema.Table
	cols  []colSpec
}

func layoutFor(t constants.DocumentType) (recordLayout, bool) {
	switch t {
	case constants.DocW2:
		return recordLayout{W2Table, w2Columns}, true
	case constants.Doc1099INT:
		return recordLayout{INTTable, intColumns}, true
	case constants.Doc1099DIV:
		return recordLayout{DIVTable, divColumns}, true
	default:
		return recordLayout{}, false
	}
}

func (l recordLayout) columnNames() []string {
	names := make([]string, 0, len(l.cols)+2)
	names = append(names, "id", "document_id")
	for _, c := range l.cols {
		names = append(names, c.name)
	}
	return names
}

// RecordRepository persists the typed per-form records.
type RecordRepository interface {
	Save(ctx context.Context, rec entity.Record) error
	Get(ctx context.Context, docType constants.DocumentType, documentID uuid.UUID) (entity.Record, error)
	ListByTaxYear(ctx context.Context, docType constants.DocumentType, taxYearID uuid.UUID) ([]entity.Record, error)
	DeleteForDocument(ctx context.Context, documentID uuid.UUID) error
}

type recordRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewRecordRepository(db *DB, logger *slog.Logger) RecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &recordRepo{db: db, logger: logger}
}

// Save inserts rec. A document holds at most one record; a second save is ErrDuplicate.
func (r *recordRepo) Save(ctx context.Context, rec entity.Record) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", common.ErrInvalidInput)
	}
	layout, ok := layoutFor(rec.Type())
	if !ok {
		return fmt.Errorf("%w: no table for document type %s", common.ErrInvalidInput, rec.Type())
	}
	if rec.DocID() == uuid.Nil {
		return fmt.Errorf("%w: record has no document id", common.ErrInvalidInput)
	}
	values, err := recordValues(rec, layout.cols)
	if err != nil {
		return err
	}
	id := uuid.New()
	ins := r.db.builder().Insert(layout.table.Name).Set("id", id).Set("document_id", rec.DocID())
	for i, c := range layout.cols {
		ins.Set(c.name, values[i])
	}
	q, args := ins.Query()
	if _, err := execQuery(ctx, r.db.drv, q, args); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: document %s already has a %s record", common.ErrDuplicate, rec.DocID(), rec.Type())
		}
		r.logger.Error("failed to save record", "document_id", rec.DocID(), "type", rec.Type(), "error", err)
		return fmt.Errorf("%w: save %s record: %v", common.ErrDatabase, rec.Type(), err)
	}
	setRecordID(rec, id)
	r.logger.Debug("record saved", "document_id", rec.DocID(), "type", rec.Type(), "record_id", id)
	return nil
}

func (r *recordRepo) Get(ctx context.Context, docType constants.DocumentType, documentID uuid.UUID) (entity.Record, error) {
	layout, ok := layoutFor(docType)
	if !ok {
		return nil, fmt.Errorf("%w: no table for document type %s", common.ErrInvalidInput, docType)
	}
	b := r.db.builder()
	t := b.Table(layout.table.Name)
	q, args := b.Select(t.Columns(layout.columnNames()...)...).From(t).
		Where(entsql.EQ(t.C("document_id"), documentID)).Query()
	recs, err := r.scanRecords(ctx, docType, layout, q, args)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s record for document %s", common.ErrNotFound, docType, documentID)
	}
	return recs[0], nil
}

// ListByTaxYear returns every record of docType whose document belongs to the tax year,
// oldest document first.
func (r *recordRepo) ListByTaxYear(ctx context.Context, docType constants.DocumentType, taxYearID uuid.UUID) ([]entity.Record, error) {
	layout, ok := layoutFor(docType)
	if !ok {
		return nil, fmt.Errorf("%w: no table for document type %s", common.ErrInvalidInput, docType)
	}
	b := r.db.builder()
	t := b.Table(layout.table.Name)
	d := b.Table(tableDocuments)
	q, args := b.Select(t.Columns(layout.columnNames()...)...).
		From(t).
		Join(d).On(t.C("document_id"), d.C("id")).
		Where(entsql.EQ(d.C("tax_year_id"), taxYearID)).
		OrderBy(d.C("created_at"), d.C("file_name")).
		Query()
	return r.scanRecords(ctx, docType, layout, q, args)
}

// DeleteForDocument removes whatever record the document has, in any table.
func (r *recordRepo) DeleteForDocument(ctx context.Context, documentID uuid.UUID) error {
	return r.db.withTx(ctx, func(tx dialect.Tx) error {
		return deleteRecords(ctx, r.db.builder(), tx, documentID)
	})
}

func deleteRecords(ctx context.Context, b *entsql.DialectBuilder, q dialect.ExecQuerier, documentID uuid.UUID) error {
	for _, t := range []*schema.Table{W2Table, INTTable, DIVTable} {
		query, args := b.Delete(t.Name).Where(entsql.EQ("document_id", documentID)).Query()
		if _, err := execQuery(ctx, q, query, args); err != nil {
			return fmt.Errorf("%w: delete from %s: %v", common.ErrDatabase, t.Name, err)
		}
	}
	return nil
}

func (r *recordRepo) scanRecords(ctx context.Context, docType constants.DocumentType, layout recordLayout, q string, args []any) ([]entity.Record, error) {
	rows, err := runQuery(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to query records", "type", docType, "error", err)
		return nil, fmt.Errorf("%w: query %s records: %v", common.ErrDatabase, docType, err)
	}
	defer rows.Close()

	var out []entity.Record
	for rows.Next() {
		var id, docID uuid.UUID
		cells := make([]sql.NullString, len(layout.cols))
		dest := make([]any, 0, len(cells)+2)
		dest = append(dest, &id, &docID)
		for i := range cells {
			dest = append(dest, &cells[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scan %s record: %v", common.ErrDatabase, docType, err)
		}
		rec, err := recordFromCells(docType, layout.cols, cells)
		if err != nil {
			return nil, err
		}
		setRecordID(rec, id)
		rec.SetDocID(docID)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s records: %v", common.ErrDatabase, docType, err)
	}
	return out, nil
}

// recordValues flattens rec into column order. Money comes from Amounts so it is
// always written with two fraction digits.
func recordValues(rec entity.Record, cols []colSpec) ([]any, error) {
	blob, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", rec.Type(), err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(blob, &fields); err != nil {
		return nil, fmt.Errorf("encode %s record: %w", rec.Type(), err)
	}
	money := map[string]any{}
	for _, a := range rec.Amounts() {
		if a.Value.Valid {
			money[a.Field] = normalize.FormatMoney(a.Value.Decimal)
		} else {
			money[a.Field] = nil
		}
	}

	values := make([]any, len(cols))
	for i, c := range cols {
		switch c.kind {
		case kindMoney:
			values[i] = money[c.name]
		case kindBool:
			b, _ := fields[c.name].(bool)
			values[i] = b
		case kindJSON:
			v := fields[c.name]
			if c.name == "raw_data" {
				if len(rec.Raw()) == 0 {
					values[i] = nil
					continue
				}
				v = rec.Raw()
			} else if v == nil {
				v = []any{}
			}
			enc, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s.%s: %w", rec.Type(), c.name, err)
			}
			values[i] = string(enc)
		default:
			if s, ok := fields[c.name].(string); ok {
				values[i] = s
			} else {
				values[i] = nil
			}
		}
	}
	return values, nil
}

func recordFromCells(docType constants.DocumentType, cols []colSpec, cells []sql.NullString) (entity.Record, error) {
	m := make(map[string]any, len(cols))
	var raw map[string]any
	for i, c := range cols {
		if !cells[i].Valid {
			continue
		}
		if c.kind != kindJSON {
			m[c.name] = cells[i].String
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(cells[i].String), &v); err != nil {
			return nil, fmt.Errorf("%w: decode %s.%s: %v", common.ErrDatabase, docType, c.name, err)
		}
		if c.name == "raw_data" {
			raw, _ = v.(map[string]any)
			continue
		}
		m[c.name] = v
	}
	rec, err := normalize.Build(docType, m)
	if err != nil {
		return nil, err
	}
	switch x := rec.(type) {
	case *entity.W2Data:
		x.RawData = raw
	case *entity.Form1099INT:
		x.RawData = raw
	case *entity.Form1099DIV:
		x.RawData = raw
	default:
		return nil, errors.New("unexpected record type")
	}
	return rec, nil
}

func setRecordID(rec entity.Record, id uuid.UUID) {
	switch x := rec.(type) {
	case *entity.W2Data:
		x.ID = id
	case *entity.Form1099INT:
		x.ID = id
	case *entity.Form1099DIV:
		x.ID = id
	}
}
