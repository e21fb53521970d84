package entity

import (
	"time"

	"github.com/google/uuid"
)

// TaxYear scopes documents; content-hash dedup is per tax year.
type TaxYear struct {
	ID           uuid.UUID `json:"id"`
	Year         int       `json:"year"`
	FilingStatus *string   `json:"filing_status,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
