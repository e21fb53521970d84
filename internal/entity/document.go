package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/taxdocs/constants"
)

// Document represents one ingested file for data transfer between layers.
type Document struct {
	ID                       uuid.UUID                  `json:"id"`
	TaxYearID                uuid.UUID                  `json:"tax_year_id"`
	DocumentType             constants.DocumentType     `json:"document_type"`
	ClassificationConfidence float64                    `json:"classification_confidence"`
	FileName                 string                     `json:"file_name"`
	FilePath                 string                     `json:"file_path"`
	FileHash                 string                     `json:"file_hash"`
	OCRText                  *string                    `json:"ocr_text,omitempty"`
	TextMethod               *string                    `json:"text_method,omitempty"`
	Status                   constants.ProcessingStatus `json:"processing_status"`
	ErrorMessage             *string                    `json:"error_message,omitempty"`
	ExtractionBackend        *string                    `json:"extraction_backend,omitempty"`
	Warnings                 []string                   `json:"warnings,omitempty"`
	CreatedAt                time.Time                  `json:"created_at"`
	UpdatedAt                time.Time                  `json:"updated_at"`
}

// DocumentFilter narrows ListDocuments; zero values mean "any".
type DocumentFilter struct {
	TaxYearID    uuid.UUID
	DocumentType constants.DocumentType
	Status       constants.ProcessingStatus
}
