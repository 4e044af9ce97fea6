package form

import (
	"strings"
)

// Type identifies a target tax form.
type Type string

const (
	Form1040  Type = "1040"
	SchedC    Type = "SchedC"
	SchedE    Type = "SchedE"
	SchedSE   Type = "1040-SE"
	Schedule1 Type = "Schedule 1"
	Schedule2 Type = "Schedule 2"
	Schedule3 Type = "Schedule 3"
	Form2441  Type = "Form 2441"
	Form8812  Type = "Form 8812"
	ScheduleA Type = "Schedule A"
)

// Types returns every supported form type.
func Types() []Type {
	return []Type{SchedC, SchedE, SchedSE, Schedule1, Schedule2, Form2441, Schedule3, Form8812, ScheduleA, Form1040}
}

// Slug returns a file-system friendly name, e.g. "schedule_1" for Schedule 1.
func (t Type) Slug() string {
	s := strings.ToLower(strings.TrimSpace(string(t)))

	return strings.ReplaceAll(s, " ", "_")
}

// Field is one cell of a form's field structure.
type Field struct {
	FieldName   string   `json:"field_name"`
	LabelText   string   `json:"label_text"`
	LineNumber  string   `json:"line_number,omitempty"`
	SectionName string   `json:"section_name,omitempty"`
	Value       any      `json:"value"`
	Sources     []string `json:"sources"`
}

// IsSet reports whether the field carries a value.
func (f *Field) IsSet() bool {
	return f.Value != nil
}

// Page is an ordered list of fields.
type Page struct {
	Name   string
	Fields []*Field
}

// Structure is the populated field structure of one form.
type Structure struct {
	Form  Type
	Pages []*Page

	// Extensible lets Set create fields that the structure does not declare.
	// Skeleton structures built without a template are extensible.
	Extensible bool
}

// NewStructure returns an empty structure with a single page.
func NewStructure(t Type) *Structure {
	return &Structure{Form: t, Pages: []*Page{{Name: "page_1"}}}
}
