package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// BatchResult is the outcome for one input of a batch
type BatchResult struct {
	Path       string
	Extraction *filing.DocumentExtraction
	Err        error
}

// Batch extracts every path with at most Workers documents in flight.
// Results are in input order. Cancelling ctx stops new documents from
// starting; those are reported with the context error, and documents already
// past segmentation finish normally. The returned error is ctx.Err().
func (p *Pipeline) Batch(ctx context.Context, paths []string) ([]BatchResult, error) {
	results := make([]BatchResult, len(paths))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, path := range paths {
		results[i].Path = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			ex, err := p.ExtractFile(ctx, path, "")
			if err != nil {
				p.logger.Warn("pipeline.batch.document_failed", "path", path, "error", err)
			}
			results[i].Extraction = ex
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}
