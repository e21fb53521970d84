package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
)

// Lister finds candidate documents under an input path.
type Lister struct {
	Recursive   bool
	SkipHidden  bool
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> default set
	logger      *slog.Logger
}

func NewLister(recursive bool, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{Recursive: recursive, SkipHidden: true, logger: logger}
}

// List returns the candidates at input in lexical order. A file input must carry an
// allowed extension; a directory input is filtered silently.
func (l *Lister) List(input string) ([]Candidate, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(input) == "" {
		return nil, stats, fmt.Errorf("%w: input path is required", common.ErrInvalidInput)
	}
	root, err := filepath.Abs(input)
	if err != nil {
		return nil, stats, fmt.Errorf("abs path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stats, fmt.Errorf("%w: %s does not exist", common.ErrInvalidInput, input)
		}
		return nil, stats, err
	}

	if !info.IsDir() {
		stats.Scanned = 1
		ext := constants.NormalizeExt(filepath.Ext(root))
		if !AllowedExt(ext, l.AllowedExts) {
			return nil, stats, fmt.Errorf("%w: unsupported or missing extension %q", common.ErrInvalidInput, ext)
		}
		stats.Matched = 1
		return []Candidate{{Path: root, Name: info.Name(), Ext: ext, Size: info.Size()}}, stats, nil
	}

	var out []Candidate
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			l.logger.Warn("ingest.list.error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if path == root {
			return nil
		}
		stats.Scanned++
		if l.SkipHidden && IsHidden(path) {
			stats.Hidden++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !l.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if !AllowedExt(ext, l.AllowedExts) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			stats.Failed++
			return nil
		}
		stats.Matched++
		out = append(out, Candidate{Path: path, Name: d.Name(), Ext: ext, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return out, stats, fmt.Errorf("walk: %w", err)
	}
	l.logger.Debug("ingest.list.done", "root", root, "matched", stats.Matched, "scanned", stats.Scanned)
	return out, stats, nil
}
