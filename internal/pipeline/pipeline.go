// Package pipeline runs the extraction stages end to end:
// Provider, Segmenter, entity annotation, field extractors, aggregation and
// assembly.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/filing-extractor/internal/aggregate"
	"github.com/a3tai/filing-extractor/internal/assemble"
	"github.com/a3tai/filing-extractor/internal/entities"
	"github.com/a3tai/filing-extractor/internal/errors"
	"github.com/a3tai/filing-extractor/internal/fields"
	"github.com/a3tai/filing-extractor/internal/filing"
	"github.com/a3tai/filing-extractor/internal/segment"
)

// Provider turns PDF input into a Document
type Provider interface {
	Extract(ctx context.Context, data []byte, sourcePath string, errs *errors.Collection) (*filing.Document, error)
	ExtractFile(ctx context.Context, path string, errs *errors.Collection) (*filing.Document, error)
}

// documentNamespace seeds document IDs derived from content hashes.
var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/a3tai/filing-extractor/document"))

// DocumentID derives a stable identifier from a content hash
func DocumentID(hash string) string {
	return uuid.NewSHA1(documentNamespace, []byte(hash)).String()
}

// Options configures a Pipeline
type Options struct {
	Fields    []filing.FieldKind // enabled fields; nil means all
	Segment   segment.Config
	Aggregate aggregate.Config
	Workers   int // documents processed at once in Batch
	Logger    *slog.Logger
}

// DefaultOptions enables every field with default tuning
func DefaultOptions() Options {
	return Options{
		Fields:    filing.AllFields(),
		Segment:   segment.DefaultConfig(),
		Aggregate: aggregate.DefaultConfig(),
		Workers:   1,
	}
}

// Pipeline extracts filing fields from documents. It holds no per-document
// state and is safe for concurrent use.
type Pipeline struct {
	provider   Provider
	segmenter  *segment.Segmenter
	annotator  *entities.Annotator
	aggregator *aggregate.Aggregator
	fields     []filing.FieldKind
	workers    int
	logger     *slog.Logger
}

// New assembles a Pipeline from its stages
func New(provider Provider, annotator *entities.Annotator, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	enabled := opts.Fields
	if len(enabled) == 0 {
		enabled = filing.AllFields()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		provider:   provider,
		segmenter:  segment.New(opts.Segment, logger),
		annotator:  annotator,
		aggregator: aggregate.New(opts.Aggregate),
		fields:     enabled,
		workers:    workers,
		logger:     logger,
	}
}

// Fields returns the enabled fields in canonical order
func (p *Pipeline) Fields() []filing.FieldKind {
	out := make([]filing.FieldKind, len(p.fields))
	copy(out, p.fields)
	return out
}

// ExtractFile runs the pipeline over the PDF at path. An empty id is
// replaced by an identifier derived from the content hash.
func (p *Pipeline) ExtractFile(ctx context.Context, path, id string) (*filing.DocumentExtraction, error) {
	return p.run(ctx, id, func(errs *errors.Collection) (*filing.Document, error) {
		return p.provider.ExtractFile(ctx, path, errs)
	})
}

// Extract runs the pipeline over PDF bytes. sourcePath is informational.
func (p *Pipeline) Extract(ctx context.Context, data []byte, sourcePath, id string) (*filing.DocumentExtraction, error) {
	return p.run(ctx, id, func(errs *errors.Collection) (*filing.Document, error) {
		return p.provider.Extract(ctx, data, sourcePath, errs)
	})
}

// run drives one document. Only provider failures (UnreadablePDF, invalid
// input) and cancellation before segmentation are returned as errors; every
// other fault is recorded as a degradation on the result.
func (p *Pipeline) run(ctx context.Context, id string, load func(*errors.Collection) (*filing.Document, error)) (*filing.DocumentExtraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	errs := errors.NewCollection()

	doc, err := load(errs)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = DocumentID(doc.Hash)
	}
	doc.ID = id

	sections := p.segmenter.Segment(doc)

	// From here on the document runs to completion.
	ctx = context.WithoutCancel(ctx)

	spans := p.annotator.Annotate(ctx, sections, errs)
	results := p.extractFields(fields.NewInput(sections, spans))

	kinds := make([]filing.SectionKind, len(sections))
	for i := range sections {
		kinds[i] = sections[i].Kind
	}
	out := assemble.Assemble(doc, sections, results, errs.Degradations(kinds))

	found := 0
	for _, r := range out.Fields {
		if r.NotFound == filing.ReasonNone {
			found++
		}
	}
	p.logger.Info("pipeline.document.ok",
		"document_id", out.DocumentID,
		"path", out.SourcePath,
		"pages", out.PageCount,
		"sections", len(sections),
		"fields_found", found,
		"fields_total", len(out.Fields),
		"degraded", out.Degraded,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// extractFields runs every enabled extractor concurrently. Extractors only
// read in, so no locking is needed; each writes its own slot.
func (p *Pipeline) extractFields(in *fields.Input) []filing.ExtractionResult {
	cands := make([][]filing.FieldCandidate, len(p.fields))

	var g errgroup.Group
	for i, f := range p.fields {
		g.Go(func() error {
			cands[i] = fields.Extract(f, in)
			return nil
		})
	}
	_ = g.Wait()

	byField := make(map[filing.FieldKind][]filing.FieldCandidate, len(p.fields))
	for i, f := range p.fields {
		byField[f] = cands[i]
	}
	return p.aggregator.ResolveAll(p.fields, byField)
}
