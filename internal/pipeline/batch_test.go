package pipeline

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/filing-extractor/internal/errors"
	"github.com/a3tai/filing-extractor/internal/filing"
	"github.com/a3tai/filing-extractor/internal/nlp"
)

func TestBatch(t *testing.T) {
	provider := &fakeProvider{
		docs: map[string]*filing.Document{
			"a.pdf": annualReport(),
			"c.pdf": document("hash-c", []line{body("Nothing to see.")}),
		},
		err: map[string]error{"b.pdf": errors.Unreadable("validate structure", stderrors.New("broken"))},
	}
	opts := DefaultOptions()
	opts.Workers = 2
	p := newPipeline(provider, nlp.NewRuleAnnotator(), opts)

	results, err := p.Batch(context.Background(), []string{"a.pdf", "b.pdf", "c.pdf"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a.pdf", results[0].Path)
	require.NoError(t, results[0].Err)
	assert.Equal(t, DocumentID("hash-acme"), results[0].Extraction.DocumentID)

	assert.Equal(t, "b.pdf", results[1].Path)
	assert.ErrorIs(t, results[1].Err, errors.ErrUnreadablePDF)
	assert.Nil(t, results[1].Extraction)

	require.NoError(t, results[2].Err)
	assert.Equal(t, "c.pdf", results[2].Extraction.SourcePath)
}

func TestBatch_Cancelled(t *testing.T) {
	provider := &fakeProvider{docs: map[string]*filing.Document{"a.pdf": annualReport(), "b.pdf": annualReport()}}
	p := newPipeline(provider, nlp.NewRuleAnnotator(), DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := p.Batch(ctx, []string{"a.pdf", "b.pdf"})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
		assert.Nil(t, r.Extraction)
	}
	assert.Zero(t, provider.calls.Load())
}

func TestBatch_CancelBetweenDocuments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rules := nlp.NewRuleAnnotator()
	backend := nlp.AnnotatorFunc(func(actx context.Context, text string) ([]nlp.Span, error) {
		cancel()
		return rules.Annotate(actx, text)
	})
	provider := &fakeProvider{docs: map[string]*filing.Document{"a.pdf": annualReport(), "b.pdf": annualReport()}}
	p := newPipeline(provider, backend, DefaultOptions()) // one worker

	results, err := p.Batch(ctx, []string{"a.pdf", "b.pdf"})
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, results[0].Err, "the document in flight finishes")
	assert.NotNil(t, results[0].Extraction)
	assert.ErrorIs(t, results[1].Err, context.Canceled)
	assert.Equal(t, int32(1), provider.calls.Load())
}
