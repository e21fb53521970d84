package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
	"github.com/joseph-ayodele/taxdocs/internal/repository"
)

func money(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func seed(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenInMemory(ctx, uuid.NewString(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(db.Close)
	years := repository.NewTaxYearRepository(db, nil)
	docs := repository.NewDocumentRepository(db, nil)
	records := repository.NewRecordRepository(db, nil)

	ty, err := years.GetOrCreate(ctx, 2024)
	if err != nil {
		t.Fatal(err)
	}
	text := "very long OCR text"
	w2doc := &entity.Document{TaxYearID: ty.ID, FileName: "w2.pdf", FilePath: "/in/w2.pdf", FileHash: "h1", OCRText: &text}
	intdoc := &entity.Document{TaxYearID: ty.ID, FileName: "bank.pdf", FilePath: "/in/bank.pdf", FileHash: "h2"}
	for _, d := range []*entity.Document{w2doc, intdoc} {
		if err := docs.Create(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	if err := records.Save(ctx, &entity.W2Data{
		DocumentID:               w2doc.ID,
		EmployerName:             "ACME CORP",
		EmployeeName:             "JANE DOE",
		WagesTipsCompensation:    money("58414.00"),
		FederalIncomeTaxWithheld: money("5120.00"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := records.Save(ctx, &entity.Form1099INT{
		DocumentID:     intdoc.ID,
		PayerName:      "FIRST BANK",
		InterestIncome: money("120.55"),
	}); err != nil {
		t.Fatal(err)
	}
	return NewService(years, docs, records, repository.NewSummaryRepository(records, nil), nil)
}

func TestYearXLSX(t *testing.T) {
	svc := seed(t)
	b, err := svc.YearXLSX(context.Background(), 2024)
	if err != nil {
		t.Fatalf("YearXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	for _, want := range []string{SheetSummary, SheetDocuments, "W-2", "1099-INT", "1099-DIV"} {
		if !slices.Contains(sheets, want) {
			t.Errorf("missing sheet %q in %v", want, sheets)
		}
	}

	rows, err := f.GetRows("W-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][2] != "wages_tips_compensation" || rows[1][0] != "w2.pdf" || rows[1][1] != "ACME CORP" {
		t.Fatalf("W-2 rows = %v", rows)
	}
	raw := excelize.Options{RawCellValue: true}
	if v, _ := f.GetCellValue("W-2", "C2", raw); v != "58414" {
		t.Errorf("wages cell = %q", v)
	}
	if v, _ := f.GetCellValue(SheetSummary, "B5", raw); v != "5120" {
		t.Errorf("federal withheld cell = %q", v)
	}
	if rows, _ := f.GetRows("1099-DIV"); len(rows) != 1 {
		t.Errorf("empty form sheet should hold only headers: %v", rows)
	}
}

func TestYearJSON(t *testing.T) {
	svc := seed(t)
	b, err := svc.YearJSON(context.Background(), 2024)
	if err != nil {
		t.Fatalf("YearJSON: %v", err)
	}
	var out struct {
		Year      int                         `json:"year"`
		Summary   map[string]any              `json:"summary"`
		Documents []map[string]any            `json:"documents"`
		Records   map[string][]map[string]any `json:"records"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Year != 2024 || len(out.Documents) != 2 {
		t.Fatalf("export = %+v", out)
	}
	for _, d := range out.Documents {
		if _, ok := d["ocr_text"]; ok {
			t.Errorf("document text should not be exported: %v", d["file_name"])
		}
	}
	if len(out.Records["W2"]) != 1 || len(out.Records["1099_INT"]) != 1 || len(out.Records["1099_DIV"]) != 0 {
		t.Fatalf("records = %v", out.Records)
	}
	if out.Records["W2"][0]["employer_name"] != "ACME CORP" {
		t.Errorf("w2 = %v", out.Records["W2"][0])
	}
	if out.Summary["total_interest"] != "120.55" {
		t.Errorf("summary = %v", out.Summary)
	}
}

func TestUnknownYear(t *testing.T) {
	svc := seed(t)
	if _, err := svc.YearXLSX(context.Background(), 2021); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
