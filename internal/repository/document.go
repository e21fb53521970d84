package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
)

var documentColumnNames = []string{
	"id", "tax_year_id", "document_type", "classification_confidence", "file_name", "file_path",
	"file_hash", "ocr_text", "text_method", "processing_status", "error_message",
	"extraction_backend", "warnings", "created_at", "updated_at",
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByHash(ctx context.Context, taxYearID uuid.UUID, hash string) (*entity.Document, error)
	List(ctx context.Context, f entity.DocumentFilter) ([]entity.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus, errMsg *string) error
	SaveText(ctx context.Context, id uuid.UUID, text, method string) error
	SaveClassification(ctx context.Context, id uuid.UUID, docType constants.DocumentType, confidence float64) error
	SaveExtraction(ctx context.Context, id uuid.UUID, backend string) error
	SaveWarnings(ctx context.Context, id uuid.UUID, warnings []string) error
	ResetForReprocess(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{db: db, logger: logger}
}

func isNotFound(err error) bool { return errors.Is(err, common.ErrNotFound) }

// Create inserts doc. A second document with the same hash in the same tax year
// is ErrDuplicate.
func (r *documentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if doc.TaxYearID == uuid.Nil {
		return fmt.Errorf("%w: document has no tax year", common.ErrInvalidInput)
	}
	if doc.FileHash == "" {
		return fmt.Errorf("%w: document has no content hash", common.ErrInvalidInput)
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = constants.StatusPending
	}
	if doc.DocumentType == "" {
		doc.DocumentType = constants.DocUnknown
	}
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	warnings, err := encodeWarnings(doc.Warnings)
	if err != nil {
		return err
	}
	q, args := r.db.builder().Insert(tableDocuments).
		Columns(documentColumnNames...).
		Values(doc.ID, doc.TaxYearID, string(doc.DocumentType), doc.ClassificationConfidence, doc.FileName,
			doc.FilePath, doc.FileHash, doc.OCRText, doc.TextMethod, string(doc.Status), doc.ErrorMessage,
			doc.ExtractionBackend, warnings, doc.CreatedAt, doc.UpdatedAt).
		Query()
	if _, err := execQuery(ctx, r.db.drv, q, args); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s already ingested for this tax year", common.ErrDuplicate, doc.FileName)
		}
		r.logger.Error("failed to create document", "file_name", doc.FileName, "error", err)
		return fmt.Errorf("%w: create document: %v", common.ErrDatabase, err)
	}
	r.logger.Debug("document created", "document_id", doc.ID, "file_name", doc.FileName)
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	docs, err := r.selectWhere(ctx, func(t *entsql.SelectTable) *entsql.Predicate {
		return entsql.EQ(t.C("id"), id)
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: document %s", common.ErrNotFound, id)
	}
	return &docs[0], nil
}

func (r *documentRepo) GetByHash(ctx context.Context, taxYearID uuid.UUID, hash string) (*entity.Document, error) {
	docs, err := r.selectWhere(ctx, func(t *entsql.SelectTable) *entsql.Predicate {
		return entsql.And(entsql.EQ(t.C("tax_year_id"), taxYearID), entsql.EQ(t.C("file_hash"), hash))
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: document with hash %s", common.ErrNotFound, hash)
	}
	return &docs[0], nil
}

// List returns documents matching every non-zero filter field, oldest first.
func (r *documentRepo) List(ctx context.Context, f entity.DocumentFilter) ([]entity.Document, error) {
	return r.selectWhere(ctx, func(t *entsql.SelectTable) *entsql.Predicate {
		var preds []*entsql.Predicate
		if f.TaxYearID != uuid.Nil {
			preds = append(preds, entsql.EQ(t.C("tax_year_id"), f.TaxYearID))
		}
		if f.DocumentType != "" {
			preds = append(preds, entsql.EQ(t.C("document_type"), string(f.DocumentType)))
		}
		if f.Status != "" {
			preds = append(preds, entsql.EQ(t.C("processing_status"), string(f.Status)))
		}
		if len(preds) == 0 {
			return nil
		}
		return entsql.And(preds...)
	})
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus, errMsg *string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", common.ErrInvalidInput, status)
	}
	return r.update(ctx, id, "status", func(u *entsql.UpdateBuilder) {
		u.Set("processing_status", string(status))
		if errMsg != nil {
			u.Set("error_message", *errMsg)
		} else {
			u.SetNull("error_message")
		}
	})
}

// SaveText persists the extracted text even when it is empty.
func (r *documentRepo) SaveText(ctx context.Context, id uuid.UUID, text, method string) error {
	return r.update(ctx, id, "text", func(u *entsql.UpdateBuilder) {
		u.Set("ocr_text", text).Set("text_method", method)
	})
}

func (r *documentRepo) SaveClassification(ctx context.Context, id uuid.UUID, docType constants.DocumentType, confidence float64) error {
	return r.update(ctx, id, "classification", func(u *entsql.UpdateBuilder) {
		u.Set("document_type", string(docType)).Set("classification_confidence", confidence)
	})
}

func (r *documentRepo) SaveExtraction(ctx context.Context, id uuid.UUID, backend string) error {
	return r.update(ctx, id, "extraction", func(u *entsql.UpdateBuilder) {
		u.Set("extraction_backend", backend)
	})
}

func (r *documentRepo) SaveWarnings(ctx context.Context, id uuid.UUID, warnings []string) error {
	enc, err := encodeWarnings(warnings)
	if err != nil {
		return err
	}
	return r.update(ctx, id, "warnings", func(u *entsql.UpdateBuilder) {
		if enc == nil {
			u.SetNull("warnings")
		} else {
			u.Set("warnings", *enc)
		}
	})
}

// ResetForReprocess records the file's current hash and clears every derived field
// so the document can run through the pipeline again. The stored status is left to
// the caller, which drives it through the lifecycle.
func (r *documentRepo) ResetForReprocess(ctx context.Context, id uuid.UUID, hash string) error {
	err := r.update(ctx, id, "reset", func(u *entsql.UpdateBuilder) {
		u.Set("file_hash", hash).
			Set("document_type", string(constants.DocUnknown)).
			Set("classification_confidence", 0.0).
			SetNull("ocr_text").
			SetNull("text_method").
			SetNull("error_message").
			SetNull("extraction_backend").
			SetNull("warnings")
	})
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: another document in this tax year has the same content", common.ErrDuplicate)
	}
	return err
}

// Delete removes the document and its record in one transaction.
func (r *documentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.withTx(ctx, func(tx dialect.Tx) error {
		b := r.db.builder()
		if err := deleteRecords(ctx, b, tx, id); err != nil {
			return err
		}
		q, args := b.Delete(tableDocuments).Where(entsql.EQ("id", id)).Query()
		res, err := execQuery(ctx, tx, q, args)
		if err != nil {
			return fmt.Errorf("%w: delete document: %v", common.ErrDatabase, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: document %s", common.ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info("document deleted", "document_id", id)
	return nil
}

func (r *documentRepo) update(ctx context.Context, id uuid.UUID, op string, set func(u *entsql.UpdateBuilder)) error {
	u := r.db.builder().Update(tableDocuments)
	set(u)
	u.Set("updated_at", time.Now().UTC())
	q, args := u.Where(entsql.EQ("id", id)).Query()
	res, err := execQuery(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to update document", "document_id", id, "op", op, "error", err)
		return fmt.Errorf("%w: update document %s: %v", common.ErrDatabase, op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: document %s", common.ErrNotFound, id)
	}
	return nil
}

func (r *documentRepo) selectWhere(ctx context.Context, where func(t *entsql.SelectTable) *entsql.Predicate) ([]entity.Document, error) {
	b := r.db.builder()
	t := b.Table(tableDocuments)
	sel := b.Select(t.Columns(documentColumnNames...)...).From(t)
	if p := where(t); p != nil {
		sel.Where(p)
	}
	q, args := sel.OrderBy(t.C("created_at"), t.C("file_name")).Query()

	rows, err := runQuery(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to query documents", "error", err)
		return nil, fmt.Errorf("%w: query documents: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.Document
	for rows.Next() {
		var (
			d                                          entity.Document
			docType, status                            string
			ocrText, method, errMsg, backend, warnings entsql.NullString
		)
		if err := rows.Scan(&d.ID, &d.TaxYearID, &docType, &d.ClassificationConfidence, &d.FileName,
			&d.FilePath, &d.FileHash, &ocrText, &method, &status, &errMsg, &backend, &warnings,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan document: %v", common.ErrDatabase, err)
		}
		d.DocumentType = constants.DocumentType(docType)
		d.Status = constants.ProcessingStatus(status)
		d.OCRText = nullable(ocrText)
		d.TextMethod = nullable(method)
		d.ErrorMessage = nullable(errMsg)
		d.ExtractionBackend = nullable(backend)
		if warnings.Valid && warnings.String != "" {
			if err := json.Unmarshal([]byte(warnings.String), &d.Warnings); err != nil {
				return nil, fmt.Errorf("%w: decode warnings for %s: %v", common.ErrDatabase, d.ID, err)
			}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate documents: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func nullable(s entsql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func encodeWarnings(w []string) (*string, error) {
	if len(w) == 0 {
		return nil, nil
	}
	enc, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode warnings: %w", err)
	}
	s := string(enc)
	return &s, nil
}
