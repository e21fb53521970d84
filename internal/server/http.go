package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
	"github.com/joseph-ayodele/taxdocs/internal/export"
	"github.com/joseph-ayodele/taxdocs/internal/repository"
)

// Pinger reports database liveness.
type Pinger interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// API serves the read-only HTTP surface of the daemon.
type API struct {
	db       Pinger
	years    repository.TaxYearRepository
	docs     repository.DocumentRepository
	records  repository.RecordRepository
	summary  repository.SummaryRepository
	exporter *export.Service
	logger   *slog.Logger
}

func NewAPI(db Pinger, years repository.TaxYearRepository, docs repository.DocumentRepository, records repository.RecordRepository, summary repository.SummaryRepository, exporter *export.Service, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{db: db, years: years, docs: docs, records: records, summary: summary, exporter: exporter, logger: logger}
}

// Router builds and wires all routes.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.health)
	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/years", a.listYears)
		v1.Route("/years/{year}", func(y chi.Router) {
			y.Get("/documents", a.listDocuments)
			y.Get("/summary", a.yearSummary)
			y.Get("/export", a.exportYear)
		})
		v1.Get("/documents/{id}", a.getDocument)
	})
	return r
}

// NewHTTPServer wraps handler with the daemon's timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(common.WithRequestID(r.Context(), reqID)))
		a.logger.Info("http.request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	if err := a.db.HealthCheck(r.Context(), 3*time.Second); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) listYears(w http.ResponseWriter, r *http.Request) {
	years, err := a.years.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"years": years})
}

func (a *API) listDocuments(w http.ResponseWriter, r *http.Request) {
	ty, err := a.taxYear(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	filter := entity.DocumentFilter{TaxYearID: ty.ID}
	if v := r.URL.Query().Get("type"); v != "" {
		t, ok := constants.ParseDocumentType(v)
		if !ok {
			a.fail(w, r, fmt.Errorf("%w: unknown document type %q", common.ErrInvalidInput, v))
			return
		}
		filter.DocumentType = t
	}
	if v := r.URL.Query().Get("status"); v != "" {
		s := constants.ProcessingStatus(strings.ToUpper(v))
		if !s.Valid() {
			a.fail(w, r, fmt.Errorf("%w: unknown status %q", common.ErrInvalidInput, v))
			return
		}
		filter.Status = s
	}
	docs, err := a.docs.List(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	for i := range docs {
		docs[i].OCRText = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": ty.Year, "count": len(docs), "documents": docs})
}

func (a *API) yearSummary(w http.ResponseWriter, r *http.Request) {
	ty, err := a.taxYear(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sum, err := a.summary.Summary(r.Context(), ty)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) exportYear(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	switch format := r.URL.Query().Get("format"); format {
	case "", "xlsx":
		b, err := a.exporter.YearXLSX(r.Context(), year)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=taxdocs-%d.xlsx", year))
		_, _ = w.Write(b)
	case "json":
		b, err := a.exporter.YearJSON(r.Context(), year)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	default:
		a.fail(w, r, fmt.Errorf("%w: format must be xlsx or json", common.ErrInvalidInput))
	}
}

// getDocument returns the document with its extracted record, if one was stored.
func (a *API) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: id must be a UUID", common.ErrInvalidInput))
		return
	}
	doc, err := a.docs.GetByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := map[string]any{"document": doc}
	if doc.DocumentType.IsModeled() {
		rec, err := a.records.Get(r.Context(), doc.DocumentType, doc.ID)
		switch {
		case err == nil:
			out["record"] = rec
		case !errors.Is(err, common.ErrNotFound):
			a.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) taxYear(r *http.Request) (*entity.TaxYear, error) {
	year, err := yearParam(r)
	if err != nil {
		return nil, err
	}
	return a.years.GetByYear(r.Context(), year)
}

func yearParam(r *http.Request) (int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, fmt.Errorf("%w: year must be a number", common.ErrInvalidInput)
	}
	if err := repository.ValidateYear(year); err != nil {
		return 0, err
	}
	return year, nil
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("http.error", "req_id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
