// Package classify decides which tax form a document is from its text, or failing
// that, from its file name.
package classify

import (
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/taxdocs/constants"
)

const (
	patternWeight = 0.7
	keywordWeight = 0.3

	// DefaultThreshold is the minimum best score for a confident classification.
	DefaultThreshold = 0.3

	// weakTextConfidence is the text score below which a filename hint wins.
	weakTextConfidence = 0.5
	filenameOverride   = 0.8
	filenameOnly       = 0.6

	epsilon = 1e-9
)

// Classifier scores text against every classifiable document type.
type Classifier struct {
	threshold float64
	logger    *slog.Logger
}

// NewClassifier builds a classifier. A threshold outside (0,1] falls back to DefaultThreshold.
func NewClassifier(threshold float64, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Classifier{threshold: threshold, logger: logger}
}

// Threshold returns the configured minimum score.
func (c *Classifier) Threshold() float64 { return c.threshold }

// Classify returns the best-scoring type and its score. Text scoring under the threshold
// yields OTHER with that score; blank text yields UNKNOWN with 0.
func (c *Classifier) Classify(text string) (constants.DocumentType, float64) {
	if strings.TrimSpace(text) == "" {
		return constants.DocUnknown, 0
	}

	lower := strings.ToLower(text)
	bestType := constants.DocUnknown
	best := -1.0
	for _, r := range rules {
		s := score(text, lower, r)
		if s > best {
			best, bestType = s, r.docType
		}
	}

	if best+epsilon < c.threshold {
		c.logger.Warn("classify.low_confidence", "best_type", bestType, "score", round3(best))
		return constants.DocOther, best
	}
	c.logger.Debug("classify.ok", "type", bestType, "score", round3(best))
	return bestType, best
}

// Scores returns the raw score of every classifiable type.
func (c *Classifier) Scores(text string) map[constants.DocumentType]float64 {
	lower := strings.ToLower(text)
	out := make(map[constants.DocumentType]float64, len(rules))
	for _, r := range rules {
		out[r.docType] = score(text, lower, r)
	}
	return out
}

// ClassifyFile combines the text signal with the file name. With usable text the text
// result wins unless it is weak and the name names a type; without text only the name counts.
func (c *Classifier) ClassifyFile(path, text string) (constants.DocumentType, float64) {
	byName := ByFilename(filepath.Base(path))

	if strings.TrimSpace(text) != "" {
		textType, conf := c.Classify(text)
		if byName != constants.DocUnknown && conf < weakTextConfidence {
			c.logger.Info("classify.filename_override", "path", path, "text_type", textType, "text_score", round3(conf), "type", byName)
			return byName, filenameOverride
		}
		return textType, conf
	}

	if byName == constants.DocUnknown {
		return constants.DocUnknown, 0
	}
	return byName, filenameOnly
}

// ByFilename maps a file name to a type using name keywords only.
func ByFilename(name string) constants.DocumentType {
	lower := strings.ToLower(name)
	for _, fr := range filenameRules {
		if fr.re.MatchString(lower) {
			return fr.docType
		}
	}
	return constants.DocUnknown
}

// Info is a diagnostic view of one classification.
type Info struct {
	DocumentType constants.DocumentType `json:"document_type"`
	Confidence   float64                `json:"confidence"`
	AllScores    map[string]float64     `json:"all_scores"`
	TextLength   int                    `json:"text_length"`
	WordCount    int                    `json:"word_count"`
}

// Info classifies text and reports every per-type score rounded to three places.
func (c *Classifier) Info(text string) Info {
	t, conf := c.Classify(text)
	all := make(map[string]float64, len(rules))
	for dt, s := range c.Scores(text) {
		all[string(dt)] = round3(s)
	}
	return Info{
		DocumentType: t,
		Confidence:   round3(conf),
		AllScores:    all,
		TextLength:   len([]rune(text)),
		WordCount:    len(strings.Fields(text)),
	}
}

func score(text, lower string, r rule) float64 {
	var s float64
	if len(r.patterns) > 0 {
		matched := 0
		for _, p := range r.patterns {
			if p.MatchString(text) {
				matched++
			}
		}
		s += float64(matched) / float64(len(r.patterns)) * patternWeight
	}
	if len(r.keywords) > 0 {
		matched := 0
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				matched++
			}
		}
		s += float64(matched) / float64(len(r.keywords)) * keywordWeight
	}
	return math.Min(s, 1.0)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
