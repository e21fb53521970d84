package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/taxdocs/constants"
)

// SystemPrompt is sent with every extraction request.
const SystemPrompt = `You are a tax document data extraction specialist. Your task is to extract structured data from tax documents accurately and completely.

IMPORTANT RULES:
1. Extract ONLY the data that is explicitly present in the document
2. Use null for any fields that are not present or cannot be determined
3. Be precise with numbers - include cents (two decimal places)
4. Do not make up or infer any data
5. Maintain the exact format of IDs (SSN, EIN) as they appear
6. If a field is blank or empty in the document, use null
7. Respond ONLY with valid JSON - no explanations or additional text`

// MaxPromptChars caps the document text placed in the user prompt.
const MaxPromptChars = 6000

var formTitles = map[constants.DocumentType]string{
	constants.DocW2:      "W-2 Wage and Tax Statement",
	constants.Doc1099INT: "1099-INT Interest Income form",
	constants.Doc1099DIV: "1099-DIV Dividends and Distributions form",
}

var formNotes = map[constants.DocumentType][]string{
	constants.DocW2: {
		"Box 12 codes: Extract each code-letter and amount pair",
		"Box 13 checkboxes: Set to true only if checked",
		"Box 14: Extract description and amount pairs",
		"Numbers should be decimal values without currency symbols",
	},
	constants.Doc1099INT: {
		"Box 1 (Interest income) is required",
		"Numbers should be decimal values without currency symbols",
		"State info is optional and may not be present",
	},
	constants.Doc1099DIV: {
		"Box 1a (Total ordinary dividends) is required",
		"Numbers should be decimal values without currency symbols",
		"FATCA filing checkbox: set to true only if checked",
	},
}

// BuildUserPrompt renders the per-type field template around the (already filtered) document text.
func BuildUserPrompt(t constants.DocumentType, docText string) (string, error) {
	fields, ok := fieldsFor(t)
	if !ok {
		return "", fmt.Errorf("no extraction prompt available for document type: %s", t)
	}
	docText = strings.TrimSpace(docText)
	if len(docText) > MaxPromptChars {
		docText = docText[:MaxPromptChars] + "\n...(truncated)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Extract all data from this %s.\n\nDocument text:\n%s\n\n", formTitles[t], docText)
	b.WriteString("Extract the following fields and respond with JSON only:\n{\n")
	for i, f := range fields {
		fmt.Fprintf(&b, "    %q: %s", f.name, f.hint)
		if i < len(fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n\nNotes:\n")
	for _, n := range formNotes[t] {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

var (
	reMoneyLine = regexp.MustCompile(`\d[\d,]*\.\d{2}\b`)
	reBoxMarker = regexp.MustCompile(`(?i)\bbox\s*\d{1,2}[a-f]?\b|^\s*\d{1,2}[a-f]?\s+[A-Za-z]`)
	reIDLine    = regexp.MustCompile(`\b\d{2}-\d{7}\b|\b[\dX*]{3}-[\dX*]{2}-\d{4}\b`)
	reKeyword   = regexp.MustCompile(`(?i)wage|tax|withh|employer|employee|payer|recipient|interest|dividend|` +
		`medicare|social security|federal|state|1099|w-?2|compensation|distribution|gain|\bein\b|\bssn\b|\btin\b|name|address`)
)

// PrefilterText keeps the lines a model needs: amounts, box markers, ids and tax keywords,
// plus the line after a keyword label since names and values often sit below their caption.
// Falls back to the input when nothing survives.
func PrefilterText(s string) string {
	lines := strings.Split(s, "\n")
	keep := make([]bool, len(lines))
	for i, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		switch {
		case reMoneyLine.MatchString(ln), reBoxMarker.MatchString(ln), reIDLine.MatchString(ln):
			keep[i] = true
		case reKeyword.MatchString(ln):
			keep[i] = true
			if i+1 < len(lines) {
				keep[i+1] = true
			}
		}
	}
	var out []string
	for i, ln := range lines {
		if keep[i] && strings.TrimSpace(ln) != "" {
			out = append(out, strings.TrimRight(ln, " \t"))
		}
	}
	if len(out) == 0 {
		return strings.TrimSpace(s)
	}
	return strings.Join(out, "\n")
}
