package constants

// ProcessingStatus is the lifecycle state stored on documents.processing_status.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending     ProcessingStatus = "PENDING"      // created, nothing read yet
	StatusProcessing  ProcessingStatus = "PROCESSING"   // text/OCR extraction in progress
	StatusOCRComplete ProcessingStatus = "OCR_COMPLETE" // raw text captured (may be empty)
	StatusExtracted   ProcessingStatus = "EXTRACTED"    // typed record built from a backend
	StatusValidated   ProcessingStatus = "VALIDATED"    // terminal success
	StatusError       ProcessingStatus = "ERROR"        // terminal failure
)

func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusOCRComplete, StatusExtracted, StatusValidated, StatusError:
		return true
	default:
		return false
	}
}

func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusValidated || s == StatusError
}
