package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"formflow/internal/calc"
	"formflow/internal/form"
	"formflow/internal/mapping"
	"formflow/internal/rules"
	"formflow/internal/validate"
)

// Reviewer is the downstream review pass. It proposes values for fields that
// are still unset; proposals for fields that already carry a value are
// ignored.
type Reviewer interface {
	Review(ctx context.Context, t form.Type, s *form.Structure) (map[string]any, error)
}

// Sink persists a finished structure and returns where it went.
type Sink interface {
	Write(t form.Type, s *form.Structure) (string, error)
}

// DirSink writes each structure as JSON into Dir.
type DirSink struct {
	Dir string
}

// Write implements Sink.
func (d DirSink) Write(_ form.Type, s *form.Structure) (string, error) {
	return form.WriteFile(d.Dir, s)
}

// ReviewSource is the provenance recorded for values filled by a Reviewer.
const ReviewSource = "Review"

// Context carries everything a run needs: rule tables, translation tables,
// the calculation engine and template access. It is built once per run and
// passed explicitly; nothing is held in package state.
type Context struct {
	Rules    *rules.Registry
	Mapper   *mapping.Mapper
	Engine   *calc.Engine
	Loader   form.Loader
	Reviewer Reviewer
	Sink     Sink
	Logger   *slog.Logger

	// Validator checks each structure once calculation and review are done.
	// Nil skips validation.
	Validator *validate.Validator
}

// Validate reports missing required collaborators.
func (c *Context) Validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("schedule context is nil")
	case c.Rules == nil:
		return fmt.Errorf("schedule context has no rules")
	case c.Mapper == nil:
		return fmt.Errorf("schedule context has no mapper")
	case c.Engine == nil:
		return fmt.Errorf("schedule context has no engine")
	case c.Loader == nil:
		return fmt.Errorf("schedule context has no template loader")
	}

	return nil
}

func (c *Context) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}

	return c.Logger
}

// SkeletonLoader returns a loader that synthesises blank structures
// declaring every mapping target of each form, for runs without a template
// directory.
func SkeletonLoader(m *mapping.Mapper, forms []form.Type) form.SkeletonLoader {
	fields := make(map[form.Type][]string, len(forms))

	for _, t := range forms {
		if m.Columns(string(t)) {
			fields[t] = m.Targets(string(t), calc.ColumnLetters...)
			continue
		}

		fields[t] = m.Targets(string(t))
	}

	return form.SkeletonLoader{Fields: fields}
}
