package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/taxdocs/constants"
)

// Record is implemented by every per-type extracted record.
type Record interface {
	Type() constants.DocumentType
	DocID() uuid.UUID
	SetDocID(id uuid.UUID)
	// LoadBearing is the single field that must be present for the record to count as extracted.
	LoadBearing() decimal.NullDecimal
	Raw() map[string]any
	// Amounts lists every monetary field in form order.
	Amounts() []Amount
}

// Box12Code is one W-2 box 12 entry.
type Box12Code struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// Box14Item is one W-2 box 14 entry.
type Box14Item struct {
	Description string              `json:"description"`
	Amount      decimal.NullDecimal `json:"amount"`
}

// StateInfo is a per-state withholding entry shared by the 1099 forms.
type StateInfo struct {
	State            string              `json:"state"`
	StateID          *string             `json:"state_id,omitempty"`
	StateTaxWithheld decimal.NullDecimal `json:"state_tax_withheld"`
}
