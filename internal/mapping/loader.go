package mapping

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTables []byte

// Default returns the built-in translation tables, normalized.
func Default() (*MappingFile, error) {
	mf, err := Parse(defaultTables)
	if err != nil {
		return nil, fmt.Errorf("built-in mapping: %w", err)
	}

	return mf, nil
}

// LoadFile loads and parses a YAML mapping file from the given path.
func LoadFile(path string) (*MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a normalized MappingFile.
func Parse(data []byte) (*MappingFile, error) {
	var mf MappingFile

	err := yaml.Unmarshal(data, &mf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	applyDefaults(&mf)
	NormalizeMappingFile(&mf)

	return &mf, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(mf *MappingFile) {
	if mf.Version == "" {
		mf.Version = "1"
	}
}

// Marshal serializes a MappingFile to YAML.
func Marshal(mf *MappingFile) ([]byte, error) {
	return yaml.Marshal(mf)
}

// NormalizeFormMapping expands 121 shorthand into Fields entries, sorted by
// key so the expansion is deterministic, and clears the shorthand.
func NormalizeFormMapping(fm *FormMapping) {
	if len(fm.OneToOne) == 0 {
		return
	}

	sources := make([]string, 0, len(fm.OneToOne))
	for source := range fm.OneToOne {
		sources = append(sources, source)
	}

	sort.Strings(sources)

	expanded := make([]FieldMapping, 0, len(sources))
	for _, source := range sources {
		expanded = append(expanded, FieldMapping{
			Source: Names{source},
			Target: Names{fm.OneToOne[source]},
		})
	}

	// 121 has highest priority, so it goes first
	fm.Fields = append(expanded, fm.Fields...)
	fm.OneToOne = nil
}

// NormalizeMappingFile normalizes all form mappings in a file.
func NormalizeMappingFile(mf *MappingFile) {
	for i := range mf.Forms {
		NormalizeFormMapping(&mf.Forms[i])
	}
}
