package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrTemplateNotFound is returned when no blank template exists for a form.
var ErrTemplateNotFound = errors.New("blank template not found")

// Loader provides blank structures for form types.
type Loader interface {
	Load(t Type) (*Structure, error)
}

// DirLoader reads blank JSON templates from a directory. A template for
// form t is looked up as Names[t] when set, else as "<slug>.json".
type DirLoader struct {
	Dir   string
	Names map[Type]string
}

// Path returns the template path for t.
func (l DirLoader) Path(t Type) string {
	name, ok := l.Names[t]
	if !ok {
		name = t.Slug() + ".json"
	}

	return filepath.Join(l.Dir, name)
}

// Load reads and decodes the template for t. Values present in the file are
// cleared so the result is always blank.
func (l DirLoader) Load(t Type) (*Structure, error) {
	path := l.Path(t)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrTemplateNotFound, t, path)
		}

		return nil, fmt.Errorf("read template %s: %w", path, err)
	}

	s := &Structure{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}

	s.Form = t
	s.Clear()

	return s, nil
}

// SkeletonLoader synthesises blank structures from known field names. It is
// used when no template directory is configured: the skeleton declares every
// mapping target and is extensible, so calculated fields are added on write.
type SkeletonLoader struct {
	Fields map[Type][]string
}

// Load returns an extensible structure declaring Fields[t].
func (l SkeletonLoader) Load(t Type) (*Structure, error) {
	s := NewStructure(t)
	s.Extensible = true
	s.Declare(l.Fields[t]...)

	return s, nil
}

// WriteFile writes s as indented JSON to dir/<slug>.json and returns the path.
func WriteFile(dir string, s *Structure) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", s.Form, err)
	}

	path := filepath.Join(dir, s.Form.Slug()+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}
