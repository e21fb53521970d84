package constants

import (
	"strings"
)

type DocumentType string

const (
	DocW2      DocumentType = "W2"
	Doc1099INT DocumentType = "1099_INT"
	Doc1099DIV DocumentType = "1099_DIV"
	Doc1099B   DocumentType = "1099_B"
	Doc1099NEC DocumentType = "1099_NEC"
	Doc1099G   DocumentType = "1099_G"
	Doc1099R   DocumentType = "1099_R"
	Doc1098    DocumentType = "1098"
	DocOther   DocumentType = "OTHER"
	DocUnknown DocumentType = "UNKNOWN"
)

// ClassifiableTypes is the fixed scoring order; ties go to the earlier entry.
var ClassifiableTypes = []DocumentType{
	DocW2,
	Doc1099INT,
	Doc1099DIV,
	Doc1099B,
	Doc1099NEC,
	Doc1099G,
	Doc1099R,
	Doc1098,
}

var allDocumentTypes = append(append([]DocumentType{}, ClassifiableTypes...), DocOther, DocUnknown)

// IsModeled reports whether the type has a typed record, an extraction path and a validator.
func (t DocumentType) IsModeled() bool {
	switch t {
	case DocW2, Doc1099INT, Doc1099DIV:
		return true
	default:
		return false
	}
}

// Label is the human form name, e.g. "1099-INT".
func (t DocumentType) Label() string {
	switch t {
	case DocW2:
		return "W-2"
	case DocOther, DocUnknown:
		return string(t)
	default:
		return strings.ReplaceAll(string(t), "_", "-")
	}
}

func DocumentTypesAsStrings() []string {
	result := make([]string, len(allDocumentTypes))
	for i, t := range allDocumentTypes {
		result[i] = string(t)
	}
	return result
}

// ParseDocumentType accepts stored values as well as the spellings people type
// ("w-2", "1099-int", "1099 div").
func ParseDocumentType(input string) (DocumentType, bool) {
	if input == "" {
		return DocUnknown, false
	}

	normalized := strings.ToUpper(strings.TrimSpace(input))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	synonyms := map[string]DocumentType{
		"W_2":           DocW2,
		"FORM_W2":       DocW2,
		"FORM_W_2":      DocW2,
		"INT":           Doc1099INT,
		"DIV":           Doc1099DIV,
		"FORM_1099_INT": Doc1099INT,
		"FORM_1099_DIV": Doc1099DIV,
		"FORM_1098":     Doc1098,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}

	for _, t := range allDocumentTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return DocUnknown, false
}
