package schedule

import (
	"context"
	"fmt"
	"runtime/debug"

	"formflow/internal/aggregate"
	"formflow/internal/calc"
	"formflow/internal/diagnostic"
	"formflow/internal/form"
	"formflow/internal/taxdoc"
)

// Runner processes forms sequentially against one Context.
type Runner struct {
	ctx *Context
}

// NewRunner validates c and returns a runner for it.
func NewRunner(c *Context) (*Runner, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &Runner{ctx: c}, nil
}

// Run orders forms and processes each in turn. It never fails as a whole:
// every problem is recorded on the form it belongs to. If the forms cannot be
// ordered, all of them are marked failed.
func (r *Runner) Run(ctx context.Context, records *taxdoc.Records, forms []form.Type) *Outcome {
	log := r.ctx.logger()

	out := &Outcome{
		Cache:   form.NewCache(),
		Results: make(map[form.Type]*FormResult, len(forms)),
	}

	order, err := Order(r.ctx.Rules, forms)
	if err != nil {
		log.Error("cannot order forms", "forms", forms, "error", err)

		for _, t := range forms {
			out.Results[t] = &FormResult{Form: t, Status: StatusFailed, Err: fmt.Errorf("order forms: %w", err)}
		}

		return out
	}

	out.Order = order
	log.Info("processing forms", "order", order)

	for _, t := range order {
		res := r.process(ctx, t, records, out.Cache)
		out.Results[t] = res
		out.Diagnostics.Merge(res.Diagnostics)

		attrs := []any{"form", t, "status", res.Status, "diagnostics", res.Diagnostics.Len()}
		if res.Err != nil {
			attrs = append(attrs, "error", res.Err)
		}

		if res.NeedsReview() {
			attrs = append(attrs, "needs_review", true)
		}

		switch res.Status {
		case StatusProcessed:
			log.Info("form processed", attrs...)
		case StatusSkipped:
			log.Warn("form skipped", attrs...)
		default:
			log.Error("form failed", attrs...)
		}
	}

	return out
}

func (r *Runner) process(ctx context.Context, t form.Type, records *taxdoc.Records, cache *form.Cache) *FormResult {
	res := &FormResult{Form: t}

	rule, ok := r.ctx.Rules.Rule(t)
	if !ok {
		res.Status, res.Err = StatusFailed, fmt.Errorf("no rule for %s", t)
		return res
	}

	blank, err := r.ctx.Loader.Load(t)
	if err != nil {
		res.Status, res.Err = StatusSkipped, err
		return res
	}

	in := rule.AggregateInput(records, r.ctx.Rules.ProprietorIndicators)

	var (
		agg    aggregate.Result
		mapped map[string]aggregate.Value
		diags  diagnostic.Diagnostics
	)

	if rule.PropertyColumns {
		cols, aggDiags := aggregate.AggregateProperties(in, len(calc.ColumnLetters))
		diags.Merge(aggDiags)

		var mapDiags diagnostic.Diagnostics

		mapped, mapDiags = r.ctx.Mapper.MapColumns(string(t), cols)
		diags.Merge(mapDiags)
	} else {
		var aggDiags, mapDiags diagnostic.Diagnostics

		agg, aggDiags = aggregate.Aggregate(in)
		diags.Merge(aggDiags)

		mapped, mapDiags = r.ctx.Mapper.Map(string(t), agg)
		diags.Merge(mapDiags)
	}

	form.Inject(blank, mapped)

	populated, calcDiags, err := r.calculate(blank, t, cache, agg)
	diags.Merge(calcDiags)
	res.Diagnostics = diags

	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}

	if r.ctx.Reviewer != nil {
		proposed, err := r.ctx.Reviewer.Review(ctx, t, populated)
		if err != nil {
			res.ReviewErr = err
		} else {
			form.FillMissing(populated, proposed, ReviewSource)
		}
	}

	res.Structure = populated

	if r.ctx.Validator != nil {
		res.Validation = r.ctx.Validator.Validate(t, populated)
		res.Diagnostics.Merge(res.Validation.Diagnostics)
	}

	if err := cache.Put(t, populated); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}

	if r.ctx.Sink != nil {
		path, err := r.ctx.Sink.Write(t, populated)
		if err != nil {
			res.Status, res.Err = StatusFailed, fmt.Errorf("write %s: %w", t, err)
			return res
		}

		res.OutputPath = path
	}

	res.Status = StatusProcessed

	return res
}

// calculate runs the engine and turns a panic into an error so one broken
// calculation cannot stop the remaining forms.
func (r *Runner) calculate(
	s *form.Structure,
	t form.Type,
	cache *form.Cache,
	agg aggregate.Result,
) (out *form.Structure, diags diagnostic.Diagnostics, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.ctx.logger().Error("calculation panicked", "form", t, "panic", rec, "stack", string(debug.Stack()))
			out, err = nil, fmt.Errorf("calculate %s: panic: %v", t, rec)
		}
	}()

	out, diags, err = r.ctx.Engine.Calculate(s, t, cache, agg)
	if err != nil {
		err = fmt.Errorf("calculate %s: %w", t, err)
	}

	return out, diags, err
}
