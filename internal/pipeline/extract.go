package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"formflow/internal/taxdoc"
)

type extraction struct {
	docType taxdoc.DocType
	pages   map[int]taxdoc.Page
	err     error
}

// extractAll classifies and extracts refs with bounded concurrency. Results
// are indexed by input position so the caller sees input order no matter
// which document finishes first.
func (p *Pipeline) extractAll(ctx context.Context, refs []taxdoc.DocumentRef, log *slog.Logger) []extraction {
	results := make([]extraction, len(refs))

	var g errgroup.Group

	g.SetLimit(p.opts.Concurrency)

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			results[i] = extraction{docType: taxdoc.DocOther, err: fmt.Errorf("not extracted: %w", err)}
			continue
		}

		g.Go(func() error {
			results[i] = p.extractOne(ctx, ref, log)
			return nil
		})
	}

	_ = g.Wait()

	return results
}

func (p *Pipeline) extractOne(ctx context.Context, ref taxdoc.DocumentRef, log *slog.Logger) extraction {
	if err := ctx.Err(); err != nil {
		return extraction{docType: taxdoc.DocOther, err: fmt.Errorf("not extracted: %w", err)}
	}

	docType := p.classify(ctx, ref, log)

	pages, err := p.extractor.Extract(ctx, ref, docType)
	if err != nil {
		return extraction{docType: docType, err: fmt.Errorf("extract: %w", err)}
	}

	log.Debug("document extracted", "ref", ref, "doc_type", docType, "pages", len(pages))

	return extraction{docType: docType, pages: pages}
}

// classify never fails: errors and labels outside the closed set become Other.
func (p *Pipeline) classify(ctx context.Context, ref taxdoc.DocumentRef, log *slog.Logger) taxdoc.DocType {
	docType, err := p.classifier.Classify(ctx, ref)
	if err != nil {
		log.Warn("classification failed, using Other", "ref", ref, "error", err)
		return taxdoc.DocOther
	}

	if !docType.Known() {
		parsed := taxdoc.ParseDocType(string(docType))
		if parsed == taxdoc.DocOther {
			log.Warn("unknown document type, using Other", "ref", ref, "label", docType)
		}

		return parsed
	}

	log.Debug("document classified", "ref", ref, "doc_type", docType)

	return docType
}
