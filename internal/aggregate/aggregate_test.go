package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/filing-extractor/internal/filing"
)

func cand(value string, score float64, pos int) filing.FieldCandidate {
	return filing.FieldCandidate{Value: value, Normalized: value, Score: score, Position: pos}
}

func TestResolve_SingleWinner(t *testing.T) {
	tests := []struct {
		name       string
		cands      []filing.FieldCandidate
		wantValue  string
		wantReason filing.NotFoundReason
	}{
		{
			name:       "no candidates",
			wantReason: filing.ReasonNoCandidates,
		},
		{
			name:      "clear winner",
			cands:     []filing.FieldCandidate{cand("Acme", 0.90, 10), cand("Other", 0.40, 5)},
			wantValue: "Acme",
		},
		{
			name:       "ambiguous tie",
			cands:      []filing.FieldCandidate{cand("Acme", 0.81, 10), cand("Other", 0.80, 5)},
			wantReason: filing.ReasonAmbiguousTie,
		},
		{
			name:      "close scores that agree are not a tie",
			cands:     []filing.FieldCandidate{cand("Acme", 0.81, 10), cand("Acme", 0.80, 5), cand("Other", 0.5, 1)},
			wantValue: "Acme",
		},
		{
			name:       "runner-up with a different value is found past agreeing ones",
			cands:      []filing.FieldCandidate{cand("Acme", 0.81, 10), cand("Acme", 0.80, 5), cand("Other", 0.79, 1)},
			wantReason: filing.ReasonAmbiguousTie,
		},
		{
			name:       "edge of epsilon is a tie",
			cands:      []filing.FieldCandidate{cand("Acme", 0.85, 10), cand("Other", 0.80, 5)},
			wantReason: filing.ReasonAmbiguousTie,
		},
		{
			name:      "just past epsilon is accepted",
			cands:     []filing.FieldCandidate{cand("Acme", 0.86, 10), cand("Other", 0.80, 5)},
			wantValue: "Acme",
		},
		{
			name:       "below threshold",
			cands:      []filing.FieldCandidate{cand("Acme", 0.39, 10)},
			wantReason: filing.ReasonBelowThreshold,
		},
		{
			name:      "exactly at threshold",
			cands:     []filing.FieldCandidate{cand("Acme", 0.4, 10)},
			wantValue: "Acme",
		},
		{
			name:      "equal scores prefer earlier position",
			cands:     []filing.FieldCandidate{cand("Acme", 0.7, 10), cand("Acme", 0.7, 3)},
			wantValue: "Acme",
		},
	}

	a := New(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := a.Resolve(filing.FieldCompanyName, tt.cands)
			assert.Equal(t, filing.FieldCompanyName, r.Field)
			assert.Equal(t, tt.wantReason, r.Reason)
			assert.GreaterOrEqual(t, r.Confidence, 0.0)
			assert.LessOrEqual(t, r.Confidence, 1.0)
			if tt.wantValue == "" {
				assert.False(t, r.Found())
				assert.Empty(t, r.Winners)
				assert.Nil(t, r.LowConfidence)
				return
			}
			require.True(t, r.Found())
			require.Len(t, r.Winners, 1)
			assert.Equal(t, tt.wantValue, r.Winners[0].Value)
			assert.Equal(t, r.Winners[0].Score, r.Confidence)
		})
	}
}

func TestResolve_EarliestPositionWinsEqualScores(t *testing.T) {
	r := New(DefaultConfig()).Resolve(filing.FieldRevenue, []filing.FieldCandidate{
		cand("100", 0.7, 40), cand("100", 0.7, 12),
	})
	require.True(t, r.Found())
	assert.Equal(t, 12, r.Winners[0].Position)
}

func TestResolve_DoesNotReorderInput(t *testing.T) {
	in := []filing.FieldCandidate{cand("B", 0.5, 1), cand("A", 0.9, 2)}
	New(DefaultConfig()).Resolve(filing.FieldAuditor, in)
	assert.Equal(t, "B", in[0].Value)
}

func TestResolve_PerFieldThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FieldThresholds = map[filing.FieldKind]float64{filing.FieldAuditor: 0.8}
	a := New(cfg)

	r := a.Resolve(filing.FieldAuditor, []filing.FieldCandidate{cand("EY", 0.7, 1)})
	assert.Equal(t, filing.ReasonBelowThreshold, r.Reason)

	r = a.Resolve(filing.FieldCompanyName, []filing.FieldCandidate{cand("Acme", 0.7, 1)})
	assert.True(t, r.Found())
}

func TestResolve_LowConfidence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmitLowConfidence = true
	a := New(cfg)

	r := a.Resolve(filing.FieldCompanyName, []filing.FieldCandidate{cand("Acme", 0.3, 1), cand("Other", 0.1, 2)})
	assert.Equal(t, filing.ReasonBelowThreshold, r.Reason)
	require.NotNil(t, r.LowConfidence)
	assert.Equal(t, "Acme", r.LowConfidence.Value)

	r = a.Resolve(filing.FieldCompanyName, []filing.FieldCandidate{cand("Acme", 0.81, 1), cand("Other", 0.80, 2)})
	assert.Equal(t, filing.ReasonAmbiguousTie, r.Reason)
	require.NotNil(t, r.LowConfidence)
	assert.Equal(t, "Acme", r.LowConfidence.Value)

	r = a.Resolve(filing.FieldCompanyName, nil)
	assert.Nil(t, r.LowConfidence)
}

func TestResolve_SetValued(t *testing.T) {
	a := New(DefaultConfig())

	r := a.Resolve(filing.FieldDirectors, []filing.FieldCandidate{
		cand("john smith", 0.9, 30),
		cand("jane doe", 0.6, 50),
		cand("john smith", 0.7, 10),
		cand("noise", 0.2, 5),
	})
	require.True(t, r.Found())

	var names []string
	for _, w := range r.Winners {
		names = append(names, w.Normalized)
	}
	assert.Equal(t, []string{"john smith", "jane doe"}, names)
	assert.Equal(t, 10, r.Winners[0].Position, "first mention is kept")
	assert.InDelta(t, (0.7+0.6)/2, r.Confidence, 1e-9)
}

func TestResolve_SetValuedBelowThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmitLowConfidence = true
	r := New(cfg).Resolve(filing.FieldDirectors, []filing.FieldCandidate{cand("a b", 0.1, 1), cand("c d", 0.3, 2)})
	assert.Equal(t, filing.ReasonBelowThreshold, r.Reason)
	require.NotNil(t, r.LowConfidence)
	assert.Equal(t, "c d", r.LowConfidence.Value)
}

func TestResolveAll(t *testing.T) {
	a := New(DefaultConfig())
	fields := []filing.FieldKind{filing.FieldCompanyName, filing.FieldRevenue}
	out := a.ResolveAll(fields, map[filing.FieldKind][]filing.FieldCandidate{
		filing.FieldCompanyName: {cand("Acme", 0.9, 1)},
	})
	require.Len(t, out, 2)
	assert.True(t, out[0].Found())
	assert.Equal(t, filing.FieldRevenue, out[1].Field)
	assert.Equal(t, filing.ReasonNoCandidates, out[1].Reason)
}
