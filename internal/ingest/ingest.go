package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/taxdocs/constants"
)

// Candidate is one file the pipeline should look at.
type Candidate struct {
	Path string // absolute
	Name string
	Ext  string // normalized, no dot
	Size int64
}

// DirStats summarizes a listing.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Hidden  uint32
	Failed  uint32
}

// HashFile returns the hex SHA-256 of the file's bytes.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return HashReader(f)
}

func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// AllowedExt checks ext against exts, or the default tax-document set when exts is nil.
func AllowedExt(ext string, exts map[string]struct{}) bool {
	if exts == nil {
		exts = constants.AllowedExtensions
	}
	_, ok := exts[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// ParseExts turns "pdf, .PNG" style lists into an extension set. Empty input yields nil.
func ParseExts(list []string) map[string]struct{} {
	var out map[string]struct{}
	for _, e := range list {
		e = constants.NormalizeExt(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if out == nil {
			out = map[string]struct{}{}
		}
		out[e] = struct{}{}
	}
	return out
}
