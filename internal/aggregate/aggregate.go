// Package aggregate resolves each field's candidates into one verdict.
package aggregate

import (
	"sort"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// Defaults for acceptance.
const (
	DefaultThreshold  = 0.4
	DefaultTieEpsilon = 0.05

	// scoreTolerance absorbs float error when comparing score differences.
	scoreTolerance = 1e-9
)

// Config holds the acceptance rules.
type Config struct {
	Threshold         float64
	FieldThresholds   map[filing.FieldKind]float64
	TieEpsilon        float64
	EmitLowConfidence bool
}

// DefaultConfig returns the default acceptance rules.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold, TieEpsilon: DefaultTieEpsilon}
}

// ThresholdFor returns the acceptance threshold of field.
func (c Config) ThresholdFor(field filing.FieldKind) float64 {
	if t, ok := c.FieldThresholds[field]; ok {
		return t
	}
	return c.Threshold
}

// Aggregator turns candidate lists into ExtractionResults.
type Aggregator struct {
	config Config
}

// New creates an Aggregator.
func New(config Config) *Aggregator {
	return &Aggregator{config: config}
}

// Resolve decides one field. The candidate slice is not modified.
func (a *Aggregator) Resolve(field filing.FieldKind, cands []filing.FieldCandidate) filing.ExtractionResult {
	if len(cands) == 0 {
		return filing.NotFound(field, filing.ReasonNoCandidates)
	}
	if field.SetValued() {
		return a.resolveSet(field, cands)
	}
	return a.resolveSingle(field, cands)
}

// ResolveAll decides every field in fields, in that order.
func (a *Aggregator) ResolveAll(fields []filing.FieldKind, cands map[filing.FieldKind][]filing.FieldCandidate) []filing.ExtractionResult {
	out := make([]filing.ExtractionResult, len(fields))
	for i, f := range fields {
		out[i] = a.Resolve(f, cands[f])
	}
	return out
}

// ranked returns a copy ordered by score, highest first, with earlier
// document positions winning equal scores.
func ranked(cands []filing.FieldCandidate) []filing.FieldCandidate {
	out := make([]filing.FieldCandidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Position < out[j].Position
	})
	return out
}

func (a *Aggregator) resolveSingle(field filing.FieldKind, cands []filing.FieldCandidate) filing.ExtractionResult {
	order := ranked(cands)
	top := order[0]

	if top.Score < a.config.ThresholdFor(field) {
		return a.rejected(field, filing.ReasonBelowThreshold, top)
	}

	for _, c := range order[1:] {
		if c.Normalized == top.Normalized {
			continue
		}
		if top.Score-c.Score <= a.config.TieEpsilon+scoreTolerance {
			return a.rejected(field, filing.ReasonAmbiguousTie, top)
		}
		break
	}

	return filing.ExtractionResult{
		Field:      field,
		Winners:    []filing.FieldCandidate{top},
		Confidence: filing.ClampScore(top.Score),
	}
}

// resolveSet accepts every candidate at or above the threshold, keeping the
// first mention of each normalized value. Confidence is the mean score of
// the accepted values.
func (a *Aggregator) resolveSet(field filing.FieldKind, cands []filing.FieldCandidate) filing.ExtractionResult {
	order := make([]filing.FieldCandidate, len(cands))
	copy(order, cands)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Position < order[j].Position })

	threshold := a.config.ThresholdFor(field)
	seen := make(map[string]bool)
	var (
		winners []filing.FieldCandidate
		sum     float64
	)
	for _, c := range order {
		if c.Score < threshold || seen[c.Normalized] {
			continue
		}
		seen[c.Normalized] = true
		winners = append(winners, c)
		sum += c.Score
	}

	if len(winners) == 0 {
		return a.rejected(field, filing.ReasonBelowThreshold, ranked(cands)[0])
	}
	return filing.ExtractionResult{
		Field:      field,
		Winners:    winners,
		Confidence: filing.ClampScore(sum / float64(len(winners))),
	}
}

func (a *Aggregator) rejected(field filing.FieldKind, reason filing.NotFoundReason, best filing.FieldCandidate) filing.ExtractionResult {
	r := filing.NotFound(field, reason)
	if a.config.EmitLowConfidence {
		b := best
		r.LowConfidence = &b
	}
	return r
}
