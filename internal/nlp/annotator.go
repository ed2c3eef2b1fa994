// Package nlp is the boundary to the named-entity annotator.
//
// An Annotator turns text into labelled spans using the annotator's own
// category names (ORG, PERSON, GPE, MONEY, CARDINAL, ...). Offsets are byte
// offsets into the text passed in. Mapping labels onto the pipeline's closed
// entity kinds is the job of the entities package.
package nlp

import (
	"context"
)

// Span is one annotator-native entity mention.
type Span struct {
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Annotator labels entity mentions in a piece of text.
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]Span, error)
}

// AnnotatorFunc adapts a function to the Annotator interface.
type AnnotatorFunc func(ctx context.Context, text string) ([]Span, error)

// Annotate calls f.
func (f AnnotatorFunc) Annotate(ctx context.Context, text string) ([]Span, error) {
	return f(ctx, text)
}
