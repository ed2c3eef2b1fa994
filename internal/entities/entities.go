// Package entities wraps the NLP annotator and maps its labels onto the
// closed set of entity kinds the field extractors understand.
package entities

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/a3tai/filing-extractor/internal/errors"
	"github.com/a3tai/filing-extractor/internal/filing"
	"github.com/a3tai/filing-extractor/internal/nlp"
)

// LabelKinds maps annotator-native labels to entity kinds. Unlisted labels
// become EntityOther.
var LabelKinds = map[string]filing.EntityKind{
	"ORG":      filing.EntityOrganization,
	"PERSON":   filing.EntityPerson,
	"PER":      filing.EntityPerson,
	"GPE":      filing.EntityLocation,
	"LOC":      filing.EntityLocation,
	"FAC":      filing.EntityLocation,
	"MONEY":    filing.EntityMoney,
	"CARDINAL": filing.EntityCardinal,
}

// KindOf maps one annotator label.
func KindOf(label string) filing.EntityKind {
	if k, ok := LabelKinds[strings.ToUpper(label)]; ok {
		return k
	}
	return filing.EntityOther
}

// Annotator annotates every section of a document.
type Annotator struct {
	backend     nlp.Annotator
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithTimeout bounds each per-section annotator call.
func WithTimeout(d time.Duration) Option {
	return func(a *Annotator) { a.timeout = d }
}

// WithConcurrency caps how many sections are annotated at once.
func WithConcurrency(n int) Option {
	return func(a *Annotator) { a.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Annotator) { a.logger = l }
}

// New wraps backend.
func New(backend nlp.Annotator, opts ...Option) *Annotator {
	a := &Annotator{
		backend:     backend,
		timeout:     30 * time.Second,
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Annotate returns the spans of every section, indexed by section. A section
// whose annotator call fails gets no spans and an AnnotatorUnavailable entry
// in errs; the other sections are unaffected. Annotate itself never fails.
func (a *Annotator) Annotate(ctx context.Context, sections []filing.Section, errs *errors.Collection) filing.SpanSet {
	out := make(filing.SpanSet, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i := range sections {
		sec := &sections[i]
		g.Go(func() error {
			spans, err := a.annotateSection(gctx, sec)
			if err != nil {
				a.logger.Warn("entities.annotate.degraded",
					"section", sec.Index,
					"kind", sec.Kind.String(),
					"error", err,
				)
				errs.Add(errors.AnnotatorUnavailable(sec.Index, err))
				return nil
			}
			out[i] = spans
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (a *Annotator) annotateSection(ctx context.Context, sec *filing.Section) ([]filing.EntitySpan, error) {
	if strings.TrimSpace(sec.Text) == "" {
		return nil, nil
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.backend.Annotate(ctx, sec.Text)
	if err != nil {
		return nil, err
	}
	return Convert(sec, raw), nil
}

// Convert maps raw annotator spans onto section-scoped entity spans. Spans
// outside the section text, or empty after trimming, are dropped.
func Convert(sec *filing.Section, raw []nlp.Span) []filing.EntitySpan {
	spans := make([]filing.EntitySpan, 0, len(raw))
	for _, r := range raw {
		if r.Start < 0 || r.End > len(sec.Text) || r.End <= r.Start {
			continue
		}
		text := strings.TrimSpace(sec.Text[r.Start:r.End])
		if text == "" {
			continue
		}
		spans = append(spans, filing.EntitySpan{
			Kind:    KindOf(r.Label),
			Text:    filing.CollapseSpace(text),
			Section: sec.Index,
			Start:   r.Start,
			End:     r.End,
		})
	}
	return spans
}
