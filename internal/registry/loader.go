package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"llmcore/internal/common/fsutil"
	"llmcore/pkg/types"
)

// Scanner discovers model files by extension.
type Scanner struct {
	exts []string
}

// NewScanner matches files whose extension is one of exts (case-insensitive,
// leading dot optional).
func NewScanner(exts ...string) *Scanner {
	s := &Scanner{}
	for _, e := range exts {
		e = strings.ToLower(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		s.exts = append(s.exts, e)
	}
	return s
}

// match returns the matched extension, or "" when name has none of them.
// Multi-part extensions such as ".tlm.yaml" are supported.
func (s *Scanner) match(name string) string {
	lower := strings.ToLower(name)
	for _, e := range s.exts {
		if strings.HasSuffix(lower, e) && len(lower) > len(e) {
			return e
		}
	}
	return ""
}

// Scan lists matching files in dir. ID is the full filename; Path is absolute.
// Results are sorted by ID.
func (s *Scanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := s.match(name)
		if ext == "" {
			continue
		}
		m := types.Model{ID: name, Name: name[:len(name)-len(ext)], Path: filepath.Join(abs, name)}
		if fi, err := e.Info(); err == nil {
			m.SizeBytes = fi.Size()
		}
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// LoadDir scans dir for files with any of the given extensions.
func LoadDir(dir string, exts ...string) ([]types.Model, error) {
	return NewScanner(exts...).Scan(dir)
}

// Find returns the model whose ID or Name equals id.
func Find(models []types.Model, id string) (types.Model, bool) {
	for _, m := range models {
		if m.ID == id || m.Name == id {
			return m, true
		}
	}
	return types.Model{}, false
}
