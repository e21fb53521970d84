package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/core"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
	"github.com/joseph-ayodele/taxdocs/internal/ingest"
)

func processCmd(fs *flag.FlagSet) runFunc {
	year := fs.Int("year", 0, "tax year (required)")
	input := fs.String("input", "", "file or directory to process (required)")
	recursive := fs.Bool("recursive", false, "descend into subdirectories")
	exts := fs.String("exts", "", "comma-separated extensions to accept (default: pdf and images)")

	return func(ctx context.Context, e *env) (int, error) {
		if *year == 0 || *input == "" {
			return 2, errors.New("-year and -input are required")
		}
		rep, err := e.stack.Processor.RunBatch(ctx, core.BatchRequest{
			Year:      *year,
			Input:     *input,
			Recursive: *recursive,
			Exts:      ingest.ParseExts(strings.Split(*exts, ",")),
		})
		if err != nil {
			return 2, err
		}

		tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "FILE\tTYPE\tSTATUS\tOUTCOME\tDETAIL")
		for _, r := range rep.Results {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				filepath.Base(r.Path), r.DocumentType.Label(), r.Status, r.Outcome, detail(r))
		}
		_ = tw.Flush()

		e.printf("\nProcessed %d file(s) for %d in %s\n", rep.Total, rep.Year, rep.Elapsed.Round(time.Millisecond))
		e.printf("- validated:          %d\n", rep.Validated)
		e.printf("- skipped-duplicate:  %d\n", rep.Skipped)
		e.printf("- validation-error:   %d\n", rep.ValidationErrors)
		e.printf("- extraction-error:   %d\n", rep.ExtractionErrors)
		e.printf("- error:              %d\n", rep.Errors)
		if rep.Failures() > 0 {
			return 1, nil
		}
		return 0, nil
	}
}

func detail(r core.FileResult) string {
	switch {
	case r.Message != "":
		return truncate(r.Message, 100)
	case r.Backend != "" && len(r.Warnings) > 0:
		return fmt.Sprintf("via %s, %d warning(s)", r.Backend, len(r.Warnings))
	case r.Backend != "":
		return "via " + r.Backend
	}
	return ""
}

func reprocessCmd(fs *flag.FlagSet) runFunc {
	id := fs.String("id", "", "document id (required)")
	return func(ctx context.Context, e *env) (int, error) {
		docID, err := uuid.Parse(strings.TrimSpace(*id))
		if err != nil {
			return 2, fmt.Errorf("-id must be a UUID: %w", err)
		}
		res, err := e.stack.Processor.Reprocess(ctx, docID)
		if err != nil {
			return 1, err
		}
		e.printf("%s: %s (%s) %s\n", filepath.Base(res.Path), res.Outcome, res.Status, detail(res))
		if res.Outcome.Failed() {
			return 1, nil
		}
		return 0, nil
	}
}

func listCmd(fs *flag.FlagSet) runFunc {
	year := fs.Int("year", 0, "tax year (default: all years)")
	docType := fs.String("type", "", "document type filter ("+strings.Join(constants.DocumentTypesAsStrings(), ", ")+")")
	return func(ctx context.Context, e *env) (int, error) {
		filter := entity.DocumentFilter{}
		if *docType != "" && !strings.EqualFold(*docType, "all") {
			t, ok := constants.ParseDocumentType(*docType)
			if !ok {
				return 2, fmt.Errorf("unknown document type %q", *docType)
			}
			filter.DocumentType = t
		}

		var years []entity.TaxYear
		if *year != 0 {
			ty, err := e.stack.TaxYears.GetByYear(ctx, *year)
			if errors.Is(err, common.ErrNotFound) {
				e.printf("No data found for year %d\n", *year)
				return 0, nil
			}
			if err != nil {
				return 1, err
			}
			years = []entity.TaxYear{*ty}
		} else {
			all, err := e.stack.TaxYears.List(ctx)
			if err != nil {
				return 1, err
			}
			years = all
		}
		if len(years) == 0 {
			e.printf("No tax years found. Process some documents first.\n")
			return 0, nil
		}

		for _, ty := range years {
			filter.TaxYearID = ty.ID
			docs, err := e.stack.Documents.List(ctx, filter)
			if err != nil {
				return 1, err
			}
			e.printf("\nTax Year: %d\n", ty.Year)
			if len(docs) == 0 {
				e.printf("No documents found.\n")
				continue
			}
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tTYPE\tFILE\tSTATUS")
			for _, d := range docs {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.DocumentType, d.FileName, d.Status)
			}
			_ = tw.Flush()
		}
		return 0, nil
	}
}

func summaryCmd(fs *flag.FlagSet) runFunc {
	year := fs.Int("year", 0, "tax year (required)")
	return func(ctx context.Context, e *env) (int, error) {
		ty, err := e.stack.TaxYears.GetByYear(ctx, *year)
		if err != nil {
			return 1, err
		}
		s, err := e.stack.Summary.Summary(ctx, ty)
		if err != nil {
			return 1, err
		}
		tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', tabwriter.AlignRight)
		row := func(label, value string) { _, _ = fmt.Fprintf(tw, "%s\t%s\t\n", label, value) }
		e.printf("Tax Summary for %d\n\n", s.Year)
		row("W-2 Forms", fmt.Sprint(s.W2Count))
		row("Total Wages", "$"+s.TotalWages.StringFixed(2))
		row("Federal Tax Withheld", "$"+s.TotalFederalWithheld.StringFixed(2))
		row("State Tax Withheld", "$"+s.TotalStateWithheld.StringFixed(2))
		row("1099-INT Forms", fmt.Sprint(s.Form1099INTCount))
		row("Total Interest", "$"+s.TotalInterest.StringFixed(2))
		row("1099-DIV Forms", fmt.Sprint(s.Form1099DIVCount))
		row("Total Dividends", "$"+s.TotalDividends.StringFixed(2))
		row("Qualified Dividends", "$"+s.TotalQualifiedDividends.StringFixed(2))
		_ = tw.Flush()
		return 0, nil
	}
}

func exportCmd(fs *flag.FlagSet) runFunc {
	year := fs.Int("year", 0, "tax year (required)")
	format := fs.String("format", "xlsx", "xlsx or json")
	out := fs.String("out", "", "output file (default: taxdocs-<year>.<format> in the current directory)")
	return func(ctx context.Context, e *env) (int, error) {
		var (
			b   []byte
			err error
		)
		switch *format {
		case "xlsx":
			b, err = e.stack.Export.YearXLSX(ctx, *year)
		case "json":
			b, err = e.stack.Export.YearJSON(ctx, *year)
		default:
			return 2, fmt.Errorf("-format must be xlsx or json, got %q", *format)
		}
		if err != nil {
			return 1, err
		}
		path := *out
		if path == "" {
			path = fmt.Sprintf("taxdocs-%d.%s", *year, *format)
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return 1, fmt.Errorf("write %s: %w", path, err)
		}
		e.printf("Exported %d to %s (%d bytes)\n", *year, path, len(b))
		return 0, nil
	}
}

// infoCmd runs text acquisition and classification on one file without storing anything.
func infoCmd(fs *flag.FlagSet) runFunc {
	file := fs.String("file", "", "file to inspect (required)")
	return func(ctx context.Context, e *env) (int, error) {
		if *file == "" {
			return 2, errors.New("-file is required")
		}
		hash, err := ingest.HashFile(*file)
		if err != nil {
			return 1, err
		}
		src, err := e.stack.Text.Extract(ctx, *file)
		if err != nil {
			e.logger.Warn("text extraction failed", "path", *file, "error", err)
		}
		info := e.stack.Classifier.Info(src.Text)
		fileType, fileConf := e.stack.Classifier.ClassifyFile(*file, src.Text)

		e.printf("File:         %s\n", *file)
		e.printf("SHA-256:      %s\n", hash)
		e.printf("Text method:  %s (digital=%t, %d chars, %d words)\n", src.Method, src.Digital, info.TextLength, info.WordCount)
		e.printf("Text type:    %s (%.3f)\n", info.DocumentType.Label(), info.Confidence)
		e.printf("Final type:   %s (%.3f)\n", fileType.Label(), fileConf)
		tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
		for _, t := range constants.ClassifiableTypes {
			_, _ = fmt.Fprintf(tw, "  %s\t%.3f\n", t.Label(), info.AllScores[string(t)])
		}
		_ = tw.Flush()
		return 0, nil
	}
}

func deleteCmd(fs *flag.FlagSet) runFunc {
	id := fs.String("id", "", "document id (required)")
	return func(ctx context.Context, e *env) (int, error) {
		docID, err := uuid.Parse(strings.TrimSpace(*id))
		if err != nil {
			return 2, fmt.Errorf("-id must be a UUID: %w", err)
		}
		if err := e.stack.Documents.Delete(ctx, docID); err != nil {
			return 1, err
		}
		e.printf("Deleted document %s\n", docID)
		return 0, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
