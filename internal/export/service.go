package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
	"github.com/joseph-ayodele/taxdocs/internal/repository"
)

// Service is a tiny façade over repositories that produces per-year exports.
type Service struct {
	years   repository.TaxYearRepository
	docs    repository.DocumentRepository
	records repository.RecordRepository
	summary repository.SummaryRepository
	logger  *slog.Logger
}

func NewService(years repository.TaxYearRepository, docs repository.DocumentRepository, records repository.RecordRepository, summary repository.SummaryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{years: years, docs: docs, records: records, summary: summary, logger: logger}
}

// YearExport is the JSON export document.
type YearExport struct {
	Year        int                        `json:"year"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Summary     *entity.Summary            `json:"summary"`
	Documents   []entity.Document          `json:"documents"`
	Records     map[string][]entity.Record `json:"records"`
}

type yearData struct {
	ty      *entity.TaxYear
	summary *entity.Summary
	docs    []entity.Document
	byID    map[uuid.UUID]entity.Document
	records map[constants.DocumentType][]entity.Record
}

var modeledTypes = []constants.DocumentType{constants.DocW2, constants.Doc1099INT, constants.Doc1099DIV}

func (s *Service) load(ctx context.Context, year int) (*yearData, error) {
	ty, err := s.years.GetByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.List(ctx, entity.DocumentFilter{TaxYearID: ty.ID})
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	sum, err := s.summary.Summary(ctx, ty)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	d := &yearData{
		ty:      ty,
		summary: sum,
		docs:    docs,
		byID:    make(map[uuid.UUID]entity.Document, len(docs)),
		records: map[constants.DocumentType][]entity.Record{},
	}
	for _, doc := range docs {
		d.byID[doc.ID] = doc
	}
	for _, t := range modeledTypes {
		recs, err := s.records.ListByTaxYear(ctx, t, ty.ID)
		if err != nil {
			return nil, fmt.Errorf("query %s records: %w", t.Label(), err)
		}
		sort.SliceStable(recs, func(i, j int) bool {
			return d.byID[recs[i].DocID()].FileName < d.byID[recs[j].DocID()].FileName
		})
		d.records[t] = recs
	}
	return d, nil
}

// YearJSON returns the summary, the documents without their text, and every stored record.
func (s *Service) YearJSON(ctx context.Context, year int) ([]byte, error) {
	start := time.Now()
	d, err := s.load(ctx, year)
	if err != nil {
		return nil, err
	}
	out := YearExport{
		Year:        d.ty.Year,
		GeneratedAt: time.Now().UTC(),
		Summary:     d.summary,
		Documents:   make([]entity.Document, len(d.docs)),
		Records:     map[string][]entity.Record{},
	}
	for i, doc := range d.docs {
		doc.OCRText = nil
		out.Documents[i] = doc
	}
	for _, t := range modeledTypes {
		out.Records[string(t)] = append([]entity.Record{}, d.records[t]...)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	s.logger.Info("export.json.ok", "year", year, "documents", len(d.docs), "elapsed_ms", time.Since(start).Milliseconds())
	return b, nil
}

// YearXLSX returns a workbook with a summary sheet, a documents sheet and one sheet per form type.
func (s *Service) YearXLSX(ctx context.Context, year int) ([]byte, error) {
	start := time.Now()
	d, err := s.load(ctx, year)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	w, err := newWriter(f)
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	w.summary(d.summary)
	if err := w.documents(d.docs); err != nil {
		return nil, err
	}
	rows := 0
	for _, t := range modeledTypes {
		if err := w.records(t, d.records[t], d.byID); err != nil {
			return nil, err
		}
		rows += len(d.records[t])
	}
	if idx, _ := f.GetSheetIndex(SheetSummary); idx >= 0 {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"year", year,
		"documents", len(d.docs),
		"records", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

const (
	SheetSummary   = "Summary"
	SheetDocuments = "Documents"
)

type writer struct {
	f      *excelize.File
	header int
	money  int
}

func newWriter(f *excelize.File) (*writer, error) {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	numFmt := "#,##0.00"
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, err
	}
	return &writer{f: f, header: header, money: money}, nil
}

func (w *writer) cell(sheet string, col, row int, v any) {
	name, _ := excelize.CoordinatesToCellName(col, row)
	switch x := v.(type) {
	case decimal.Decimal:
		_ = w.f.SetCellValue(sheet, name, x.InexactFloat64())
		_ = w.f.SetCellStyle(sheet, name, name, w.money)
	case decimal.NullDecimal:
		if x.Valid {
			w.cell(sheet, col, row, x.Decimal)
		}
	default:
		_ = w.f.SetCellValue(sheet, name, v)
	}
}

func (w *writer) headers(sheet string, names []string) {
	for i, h := range names {
		w.cell(sheet, i+1, 1, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(names), 1)
	_ = w.f.SetCellStyle(sheet, "A1", last, w.header)
}

func (w *writer) summary(sum *entity.Summary) {
	rows := []struct {
		label string
		value any
	}{
		{"Tax Year", sum.Year},
		{"W-2 Forms", sum.W2Count},
		{"Total Wages", sum.TotalWages},
		{"Federal Tax Withheld", sum.TotalFederalWithheld},
		{"State Tax Withheld", sum.TotalStateWithheld},
		{"1099-INT Forms", sum.Form1099INTCount},
		{"Total Interest", sum.TotalInterest},
		{"1099-DIV Forms", sum.Form1099DIVCount},
		{"Total Dividends", sum.TotalDividends},
		{"Qualified Dividends", sum.TotalQualifiedDividends},
	}
	w.headers(SheetSummary, []string{"Item", "Value"})
	for i, r := range rows {
		w.cell(SheetSummary, 1, i+2, r.label)
		w.cell(SheetSummary, 2, i+2, r.value)
	}
	_ = w.f.SetColWidth(SheetSummary, "A", "A", 24)
	_ = w.f.SetColWidth(SheetSummary, "B", "B", 16)
}

func (w *writer) documents(docs []entity.Document) error {
	if _, err := w.f.NewSheet(SheetDocuments); err != nil {
		return err
	}
	w.headers(SheetDocuments, []string{"File", "Type", "Confidence", "Status", "Backend", "Error", "Warnings", "Path"})
	for i, d := range docs {
		row := i + 2
		w.cell(SheetDocuments, 1, row, d.FileName)
		w.cell(SheetDocuments, 2, row, d.DocumentType.Label())
		w.cell(SheetDocuments, 3, row, d.ClassificationConfidence)
		w.cell(SheetDocuments, 4, row, string(d.Status))
		w.cell(SheetDocuments, 5, row, deref(d.ExtractionBackend))
		w.cell(SheetDocuments, 6, row, truncate(deref(d.ErrorMessage), 140))
		w.cell(SheetDocuments, 7, row, len(d.Warnings))
		w.cell(SheetDocuments, 8, row, d.FilePath)
	}
	_ = w.f.SetColWidth(SheetDocuments, "A", "A", 28)
	_ = w.f.SetColWidth(SheetDocuments, "F", "F", 48)
	_ = w.f.SetColWidth(SheetDocuments, "H", "H", 60)
	return nil
}

// records writes one sheet per form: file, party name, then every amount in box order.
func (w *writer) records(t constants.DocumentType, recs []entity.Record, docs map[uuid.UUID]entity.Document) error {
	sheet := t.Label()
	if _, err := w.f.NewSheet(sheet); err != nil {
		return err
	}
	var fields []string
	if len(recs) > 0 {
		for _, a := range recs[0].Amounts() {
			fields = append(fields, a.Field)
		}
	}
	w.headers(sheet, append([]string{"file_name", partyColumn(t)}, fields...))
	for i, rec := range recs {
		row := i + 2
		w.cell(sheet, 1, row, docs[rec.DocID()].FileName)
		w.cell(sheet, 2, row, partyName(rec))
		for j, a := range rec.Amounts() {
			w.cell(sheet, j+3, row, a.Value)
		}
	}
	_ = w.f.SetColWidth(sheet, "A", "B", 28)
	return nil
}

func partyColumn(t constants.DocumentType) string {
	if t == constants.DocW2 {
		return "employer_name"
	}
	return "payer_name"
}

func partyName(rec entity.Record) string {
	switch r := rec.(type) {
	case *entity.W2Data:
		return r.EmployerName
	case *entity.Form1099INT:
		return r.PayerName
	case *entity.Form1099DIV:
		return r.PayerName
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
