package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/taxdocs/constants"
)

var (
	reFence  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	reAmount = regexp.MustCompile(`^\(?-?\$?\s*[\d,]*\.?\d+\)?$`)
)

// DecodeObject parses model output into a JSON object. Code fences and chatter around the
// object are tolerated; anything else is ErrNoData.
func DecodeObject(content []byte) (map[string]any, []byte, error) {
	s := strings.TrimSpace(string(content))
	if m := reFence.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if i, j := strings.Index(s, "{"), strings.LastIndex(s, "}"); i >= 0 && j > i {
		s = s[i : j+1]
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return nil, nil, ErrNoData
	}
	return out, []byte(s), nil
}

// SanitizeFields loosens the values the schema would reject so the document can still validate.
// Only optional fields are dropped; a malformed required amount is left for the schema to catch.
func SanitizeFields(t constants.DocumentType, doc []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fields, ok := fieldsFor(t)
	if !ok {
		return nil, nil, fmt.Errorf("sanitize: unsupported document type %s", t)
	}
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	drop := func(k, why string) {
		m[k] = nil
		dropped = append(dropped, k+"("+why+")")
	}

	for _, f := range fields {
		v, present := m[f.name]
		if !present || v == nil {
			continue
		}
		switch f.kind {
		case kindMoney:
			switch x := v.(type) {
			case float64:
			case string:
				s := strings.TrimSpace(x)
				if !reAmount.MatchString(s) && !f.required {
					drop(f.name, "amount")
				}
			default:
				if !f.required {
					drop(f.name, "type")
				}
			}
		case kindFlag:
			switch v.(type) {
			case bool, string:
			default:
				drop(f.name, "type")
			}
		case kindList:
			switch v.(type) {
			case []any, map[string]any:
			default:
				drop(f.name, "type")
			}
		default:
			switch x := v.(type) {
			case string:
				m[f.name] = strings.TrimSpace(x)
			case float64:
			default:
				drop(f.name, "type")
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.sanitize", "document_type", t, "dropped", dropped)
	}
	return out, dropped, nil
}
