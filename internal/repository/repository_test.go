package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
	"github.com/joseph-ayodele/taxdocs/internal/extract/normalize"
)

type fixture struct {
	db      *DB
	years   TaxYearRepository
	docs    DocumentRepository
	records RecordRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := OpenInMemory(context.Background(), uuid.NewString(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(db.Close)
	return &fixture{
		db:      db,
		years:   NewTaxYearRepository(db, nil),
		docs:    NewDocumentRepository(db, nil),
		records: NewRecordRepository(db, nil),
	}
}

func (f *fixture) year(t *testing.T, y int) *entity.TaxYear {
	t.Helper()
	ty, err := f.years.GetOrCreate(context.Background(), y)
	if err != nil {
		t.Fatalf("tax year %d: %v", y, err)
	}
	return ty
}

func (f *fixture) doc(t *testing.T, ty *entity.TaxYear, name, hash string) *entity.Document {
	t.Helper()
	d := &entity.Document{TaxYearID: ty.ID, FileName: name, FilePath: "/in/" + name, FileHash: hash}
	if err := f.docs.Create(context.Background(), d); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return d
}

func build(t *testing.T, dt constants.DocumentType, raw map[string]any) entity.Record {
	t.Helper()
	rec, err := normalize.Build(dt, raw)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return rec
}

func mustEqual(t *testing.T, field string, got decimal.NullDecimal, want string) {
	t.Helper()
	if !got.Valid || !got.Decimal.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %v, want %s", field, got, want)
	}
}

func TestTaxYear_GetOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	a := f.year(t, 2024)
	b := f.year(t, 2024)
	if a.ID != b.ID {
		t.Fatalf("expected the same row, got %s and %s", a.ID, b.ID)
	}
	f.year(t, 2023)
	years, err := f.years.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(years) != 2 || years[0].Year != 2024 {
		t.Fatalf("unexpected years: %+v", years)
	}
}

func TestTaxYear_OutOfRange(t *testing.T) {
	f := newFixture(t)
	for _, y := range []int{2019, 2031} {
		if _, err := f.years.GetOrCreate(context.Background(), y); !errors.Is(err, common.ErrInvalidInput) {
			t.Errorf("year %d: expected ErrInvalidInput, got %v", y, err)
		}
	}
}

func TestDocument_HashIsUniquePerYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	y24, y23 := f.year(t, 2024), f.year(t, 2023)
	f.doc(t, y24, "w2.pdf", "abc")

	err := f.docs.Create(ctx, &entity.Document{TaxYearID: y24.ID, FileName: "copy.pdf", FilePath: "/in/copy.pdf", FileHash: "abc"})
	if !errors.Is(err, common.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	f.doc(t, y23, "w2.pdf", "abc")

	got, err := f.docs.GetByHash(ctx, y24.ID, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if got.FileName != "w2.pdf" || got.Status != constants.StatusPending || got.DocumentType != constants.DocUnknown {
		t.Fatalf("unexpected document: %+v", got)
	}
	if _, err := f.docs.GetByHash(ctx, y24.ID, "nope"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocument_UpdatesAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ty := f.year(t, 2024)
	a := f.doc(t, ty, "a.pdf", "h1")
	b := f.doc(t, ty, "b.pdf", "h2")

	if err := f.docs.SaveText(ctx, a.ID, "", "pdftotext"); err != nil {
		t.Fatal(err)
	}
	if err := f.docs.SaveClassification(ctx, a.ID, constants.DocW2, 0.82); err != nil {
		t.Fatal(err)
	}
	if err := f.docs.SaveExtraction(ctx, a.ID, "text-patterns"); err != nil {
		t.Fatal(err)
	}
	if err := f.docs.SaveWarnings(ctx, a.ID, []string{"WARNING: Invalid EIN format"}); err != nil {
		t.Fatal(err)
	}
	if err := f.docs.UpdateStatus(ctx, a.ID, constants.StatusValidated, nil); err != nil {
		t.Fatal(err)
	}
	msg := "extraction exhausted"
	if err := f.docs.UpdateStatus(ctx, b.ID, constants.StatusError, &msg); err != nil {
		t.Fatal(err)
	}

	got, err := f.docs.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.OCRText == nil || *got.OCRText != "" {
		t.Errorf("empty text should be stored, got %v", got.OCRText)
	}
	if got.DocumentType != constants.DocW2 || got.ClassificationConfidence != 0.82 {
		t.Errorf("classification not stored: %+v", got)
	}
	if got.ExtractionBackend == nil || *got.ExtractionBackend != "text-patterns" {
		t.Errorf("backend not stored: %v", got.ExtractionBackend)
	}
	if len(got.Warnings) != 1 || got.Warnings[0] != "WARNING: Invalid EIN format" {
		t.Errorf("warnings not stored: %v", got.Warnings)
	}

	errs, err := f.docs.List(ctx, entity.DocumentFilter{TaxYearID: ty.ID, Status: constants.StatusError})
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) != 1 || errs[0].ID != b.ID || errs[0].ErrorMessage == nil || *errs[0].ErrorMessage != msg {
		t.Fatalf("status filter: %+v", errs)
	}
	w2s, err := f.docs.List(ctx, entity.DocumentFilter{DocumentType: constants.DocW2})
	if err != nil {
		t.Fatal(err)
	}
	if len(w2s) != 1 || w2s[0].ID != a.ID {
		t.Fatalf("type filter: %+v", w2s)
	}

	if err := f.docs.UpdateStatus(ctx, uuid.New(), constants.StatusError, nil); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.docs.UpdateStatus(ctx, a.ID, "DONE", nil); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecord_W2RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ty := f.year(t, 2024)
	d := f.doc(t, ty, "w2.pdf", "h1")

	rec := build(t, constants.DocW2, map[string]any{
		"employer_name":                "ACME CORP",
		"employer_ein":                 "123456789",
		"employee_name":                "JANE DOE",
		"wages_tips_compensation":      "58,414.00",
		"federal_income_tax_withheld":  "5120",
		"social_security_wages":        58414.0,
		"social_security_tax_withheld": "3621.67",
		"retirement_plan":              true,
		"box_12_codes":                 []any{map[string]any{"code": "d", "amount": "1500.50"}},
		"state_income_tax":             "2100.10",
	})
	rec.SetDocID(d.ID)
	if err := f.records.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := f.records.Save(ctx, rec); !errors.Is(err, common.ErrDuplicate) {
		t.Fatalf("second save: expected ErrDuplicate, got %v", err)
	}

	got, err := f.records.Get(ctx, constants.DocW2, d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	w := got.(*entity.W2Data)
	if w.ID == uuid.Nil || w.DocumentID != d.ID {
		t.Fatalf("ids not restored: %+v", w)
	}
	if w.EmployerName != "ACME CORP" || w.EmployerEIN == nil || *w.EmployerEIN != "12-3456789" {
		t.Errorf("identity fields: %q %v", w.EmployerName, w.EmployerEIN)
	}
	mustEqual(t, "wages", w.WagesTipsCompensation, "58414.00")
	mustEqual(t, "federal", w.FederalIncomeTaxWithheld, "5120.00")
	mustEqual(t, "ss tax", w.SocialSecurityTaxWithheld, "3621.67")
	mustEqual(t, "state tax", w.StateIncomeTax, "2100.10")
	if w.MedicareWages.Valid {
		t.Errorf("absent amount came back as %v", w.MedicareWages)
	}
	if !w.RetirementPlan || w.StatutoryEmployee {
		t.Errorf("flags: retirement=%v statutory=%v", w.RetirementPlan, w.StatutoryEmployee)
	}
	if len(w.Box12Codes) != 1 || w.Box12Codes[0].Code != "D" || !w.Box12Codes[0].Amount.Equal(decimal.RequireFromString("1500.50")) {
		t.Errorf("box 12: %+v", w.Box12Codes)
	}
	if w.Box14Other == nil || len(w.Box14Other) != 0 {
		t.Errorf("box 14 should be an empty list, got %#v", w.Box14Other)
	}
	if w.RawData["wages_tips_compensation"] != "58,414.00" {
		t.Errorf("raw data not kept verbatim: %v", w.RawData)
	}
}

func TestRecord_SaveRejectsUnmodeled(t *testing.T) {
	f := newFixture(t)
	if _, err := f.records.Get(context.Background(), constants.DocOther, uuid.New()); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	rec := build(t, constants.Doc1099INT, map[string]any{"interest_income": "10"})
	if err := f.records.Save(context.Background(), rec); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("record without document: expected ErrInvalidInput, got %v", err)
	}
}

func TestDocument_DeleteRemovesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ty := f.year(t, 2024)
	d := f.doc(t, ty, "int.pdf", "h1")
	rec := build(t, constants.Doc1099INT, map[string]any{"payer_name": "FIRST BANK", "interest_income": "120.55"})
	rec.SetDocID(d.ID)
	if err := f.records.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}

	if err := f.docs.Delete(ctx, d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.docs.GetByID(ctx, d.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("document still present: %v", err)
	}
	if _, err := f.records.Get(ctx, constants.Doc1099INT, d.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("record still present: %v", err)
	}
	if err := f.docs.Delete(ctx, d.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDocument_ResetForReprocess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ty := f.year(t, 2024)
	a := f.doc(t, ty, "a.pdf", "h1")
	f.doc(t, ty, "b.pdf", "h2")
	if err := f.docs.SaveClassification(ctx, a.ID, constants.DocW2, 0.9); err != nil {
		t.Fatal(err)
	}

	if err := f.docs.ResetForReprocess(ctx, a.ID, "h2"); !errors.Is(err, common.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on hash collision, got %v", err)
	}
	if err := f.docs.ResetForReprocess(ctx, a.ID, "h3"); err != nil {
		t.Fatal(err)
	}
	got, err := f.docs.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FileHash != "h3" || got.DocumentType != constants.DocUnknown || got.ClassificationConfidence != 0 {
		t.Fatalf("reset not applied: %+v", got)
	}
}

func TestSummary_Totals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ty := f.year(t, 2024)
	other := f.year(t, 2023)

	save := func(ty *entity.TaxYear, name string, dt constants.DocumentType, raw map[string]any) {
		d := f.doc(t, ty, name, name)
		rec := build(t, dt, raw)
		rec.SetDocID(d.ID)
		if err := f.records.Save(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	save(ty, "w2-a", constants.DocW2, map[string]any{
		"wages_tips_compensation": "50000.00", "federal_income_tax_withheld": "5000.00", "state_income_tax": "2000.00",
	})
	save(ty, "w2-b", constants.DocW2, map[string]any{
		"wages_tips_compensation": "10000.50", "federal_income_tax_withheld": "1000.25",
	})
	save(ty, "int", constants.Doc1099INT, map[string]any{
		"interest_income": "120.55", "federal_income_tax_withheld": "12.00",
	})
	save(ty, "div", constants.Doc1099DIV, map[string]any{
		"total_ordinary_dividends": "300.00", "qualified_dividends": "250.00", "federal_income_tax_withheld": "30.00",
	})
	save(other, "w2-old", constants.DocW2, map[string]any{"wages_tips_compensation": "99999.00"})

	s, err := NewSummaryRepository(f.records, nil).Summary(ctx, ty)
	if err != nil {
		t.Fatal(err)
	}
	if s.Year != 2024 || s.W2Count != 2 || s.Form1099INTCount != 1 || s.Form1099DIVCount != 1 {
		t.Fatalf("counts: %+v", s)
	}
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"wages", s.TotalWages, "60000.50"},
		{"federal", s.TotalFederalWithheld, "6042.25"},
		{"state", s.TotalStateWithheld, "2000.00"},
		{"interest", s.TotalInterest, "120.55"},
		{"dividends", s.TotalDividends, "300.00"},
		{"qualified", s.TotalQualifiedDividends, "250.00"},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql"}, nil); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)
	if err := f.db.HealthCheck(context.Background(), 0); err != nil {
		t.Fatalf("health check: %v", err)
	}
	if f.db.Dialect() != "sqlite3" {
		t.Fatalf("dialect = %q", f.db.Dialect())
	}
}
