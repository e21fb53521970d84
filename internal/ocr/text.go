package ocr

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinDigitalChars and MinDigitalKeywords gate whether an embedded PDF text layer is trusted.
const (
	MinDigitalChars    = 50
	MinDigitalKeywords = 2
)

var taxKeywords = []string{
	"wage", "tax", "income", "employer", "employee", "ssn", "ein",
	"federal", "state", "withhold", "compensation", "interest",
	"dividend", "payer", "recipient", "1099", "w-2", "w2",
}

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)
)

// IsUsableDigitalText reports whether embedded text looks like a real tax form
// rather than an empty or garbage text layer over a scan.
func IsUsableDigitalText(text string) bool {
	cleaned := strings.TrimSpace(text)
	if utf8.RuneCountInString(cleaned) < MinDigitalChars {
		return false
	}
	lower := strings.ToLower(cleaned)
	n := 0
	for _, kw := range taxKeywords {
		if strings.Contains(lower, kw) {
			n++
			if n >= MinDigitalKeywords {
				return true
			}
		}
	}
	return false
}

// Normalize collapses noisy whitespace in OCR output.
// Keeps line breaks; collapses >2 newlines into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(trimLines(s))
}

// CleanEmbedded is the lighter pass for pdftotext output: layout columns are kept
// because the line-pattern parser reads them.
func CleanEmbedded(s string) string {
	s = reCRLF.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = reMultiBlank.ReplaceAllString(trimLines(s), "\n\n")
	return strings.TrimSpace(s)
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.Join(lines, "\n")
}
