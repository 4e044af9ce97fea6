package pipeline

import (
	"time"

	"github.com/google/uuid"

	"formflow/internal/diagnostic"
	"formflow/internal/form"
	"formflow/internal/schedule"
)

// RunStatus is the overall outcome of a run.
type RunStatus string

const (
	StatusCompleted                          RunStatus = "COMPLETED"
	StatusCompletedWithExtractionErrors      RunStatus = "COMPLETED_WITH_EXTRACTION_ERRORS"
	StatusCompletedWithReviewErrors          RunStatus = "COMPLETED_WITH_REVIEW_ERRORS"
	StatusCompletedWithExtractionReviewError RunStatus = "COMPLETED_WITH_EXTRACTION_AND_REVIEW_ERRORS"
	StatusCompletedWithSkips                 RunStatus = "COMPLETED_WITH_SKIPS"
	StatusFailed                             RunStatus = "FAILED"
)

// FormSummary is the per-form entry of a Summary.
type FormSummary struct {
	Status      schedule.Status `json:"status"`
	OutputPath  string          `json:"output_path,omitempty"`
	Error       string          `json:"error,omitempty"`
	ReviewError string          `json:"review_error,omitempty"`
	Populated   int             `json:"populated_fields"`
	NeedsReview bool            `json:"needs_review,omitempty"`

	// Validation is nil when the form was not validated.
	Validation *diagnostic.Diagnostics `json:"validation,omitempty"`
}

// Summary is the result of one run.
type Summary struct {
	RunID      uuid.UUID `json:"run_id"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Documents lists the accepted document refs in input order.
	Documents []string `json:"documents"`
	// DocTypes maps each accepted document to its classified type.
	DocTypes map[string]string `json:"doc_types,omitempty"`

	// Forms is the processing order.
	Forms            []form.Type               `json:"forms"`
	ResultsPerForm   map[form.Type]FormSummary `json:"results_per_form"`
	ExtractionErrors map[string]string         `json:"extraction_errors,omitempty"`
	InputErrors      map[string]string         `json:"input_errors,omitempty"`
	UnmappedKeys     []string                  `json:"unmapped_keys,omitempty"`

	// NeedsReview lists the forms whose validation found errors.
	NeedsReview []form.Type            `json:"needs_review,omitempty"`
	Diagnostics diagnostic.Diagnostics `json:"diagnostics"`

	// Outcome is the scheduler's full result, including populated structures.
	Outcome *schedule.Outcome `json:"-"`
}

func newSummary() *Summary {
	return &Summary{
		RunID:            uuid.New(),
		StartedAt:        time.Now().UTC(),
		DocTypes:         make(map[string]string),
		ResultsPerForm:   make(map[form.Type]FormSummary),
		ExtractionErrors: make(map[string]string),
		InputErrors:      make(map[string]string),
	}
}

// Structure returns the populated structure of form t, if it was produced.
func (s *Summary) Structure(t form.Type) (*form.Structure, bool) {
	if s.Outcome == nil {
		return nil, false
	}

	res, ok := s.Outcome.Results[t]
	if !ok || res.Structure == nil {
		return nil, false
	}

	return res.Structure, true
}

func (s *Summary) absorb(out *schedule.Outcome) {
	s.Outcome = out
	s.Forms = out.Order
	s.Diagnostics.Merge(out.Diagnostics)

	for t, res := range out.Results {
		fs := FormSummary{Status: res.Status, OutputPath: res.OutputPath}
		if res.Err != nil {
			fs.Error = res.Err.Error()
		}

		if res.ReviewErr != nil {
			fs.ReviewError = res.ReviewErr.Error()
		}

		if res.Structure != nil {
			fs.Populated = res.Structure.Populated()
		}

		if res.Validation != nil {
			fs.Validation = &res.Validation.Diagnostics
			fs.NeedsReview = res.NeedsReview()
		}

		s.ResultsPerForm[t] = fs
	}

	for _, t := range out.Order {
		if res, ok := out.Results[t]; ok && res.NeedsReview() {
			s.NeedsReview = append(s.NeedsReview, t)
		}
	}

	s.Status = deriveStatus(len(s.ExtractionErrors) > 0, out)
}

// deriveStatus folds the per-form outcome into the run status. A failed form
// outranks a skipped one, which outranks review and extraction problems.
func deriveStatus(extractionErrors bool, out *schedule.Outcome) RunStatus {
	switch {
	case out.Count(schedule.StatusFailed) > 0:
		return StatusFailed
	case out.Count(schedule.StatusSkipped) > 0:
		return StatusCompletedWithSkips
	}

	review := out.ReviewErrors()

	switch {
	case extractionErrors && review:
		return StatusCompletedWithExtractionReviewError
	case extractionErrors:
		return StatusCompletedWithExtractionErrors
	case review:
		return StatusCompletedWithReviewErrors
	default:
		return StatusCompleted
	}
}
