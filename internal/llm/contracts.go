package llm

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/taxdocs/constants"
)

// ErrNoData means the model answered but nothing usable came back (empty or non-JSON content).
var ErrNoData = errors.New("llm returned no data")

type ExtractRequest struct {
	DocumentType constants.DocumentType
	Text         string
	// FileName is only used for logging.
	FileName string
}

// FieldExtractor is the interface the extraction chain depends on. The map is the
// model's JSON object after schema cleanup and before normalization; raw is the object
// exactly as the model sent it.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (fields map[string]any, raw []byte, err error)
}
