// Package fields holds one extraction strategy per target field.
//
// Every strategy has the same shape: it reads the immutable sections and
// entity spans of a document and returns zero or more scored candidates. A
// strategy never fails; finding nothing is an empty slice. Strategies are
// selected by field through a fixed table.
package fields

import (
	"regexp"
	"sort"
	"strings"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// Input is the read-only view every strategy works from. It is safe for
// concurrent use once built.
type Input struct {
	Sections []filing.Section
	Spans    filing.SpanSet

	tokens []*tokens
}

// NewInput indexes sections for token-window lookups.
func NewInput(sections []filing.Section, spans filing.SpanSet) *Input {
	in := &Input{Sections: sections, Spans: spans, tokens: make([]*tokens, len(sections))}
	for i := range sections {
		in.tokens[i] = tokenize(sections[i].Text)
	}
	return in
}

// Strategy extracts candidates for one field.
type Strategy func(in *Input) []filing.FieldCandidate

var strategies = map[filing.FieldKind]Strategy{
	filing.FieldCompanyName:       CompanyName,
	filing.FieldAuditor:           Auditor,
	filing.FieldAddress:           Address,
	filing.FieldLineOfBusiness:    LineOfBusiness,
	filing.FieldDirectors:         Directors,
	filing.FieldRevenue:           Revenue,
	filing.FieldSharesTraded:      SharesTraded,
	filing.FieldEmployees:         Employees,
	filing.FieldContactNumber:     ContactNumber,
	filing.FieldCompanyNumber:     CompanyNumber,
	filing.FieldIncorporationDate: IncorporationDate,
	filing.FieldFormerName:        FormerName,
	filing.FieldSeniorManagement:  SeniorManagement,
	filing.FieldListingProof:      ListingProof,
	filing.FieldTypeOfCompany:     TypeOfCompany,
	filing.FieldAuditorReport:     AuditorReport,
}

// StrategyFor returns the strategy registered for field.
func StrategyFor(field filing.FieldKind) (Strategy, bool) {
	s, ok := strategies[field]
	return s, ok
}

// Extract runs the strategy for field. Candidates come back in document order.
func Extract(field filing.FieldKind, in *Input) []filing.FieldCandidate {
	s, ok := strategies[field]
	if !ok {
		return nil
	}
	out := s(in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// sectionsOf calls fn for every section whose kind is in kinds, or for every
// section when kinds is empty.
func (in *Input) sectionsOf(fn func(sec *filing.Section, toks *tokens), kinds ...filing.SectionKind) {
	for i := range in.Sections {
		sec := &in.Sections[i]
		if len(kinds) > 0 && !sec.Kind.HasKind(kinds...) {
			continue
		}
		fn(sec, in.tokens[i])
	}
}

// spansOf returns the spans of sec with one of the given kinds.
func (in *Input) spansOf(sec *filing.Section, kinds ...filing.EntityKind) []filing.EntitySpan {
	var out []filing.EntitySpan
	for _, sp := range in.Spans.Of(sec.Index) {
		for _, k := range kinds {
			if sp.Kind == k {
				out = append(out, sp)
				break
			}
		}
	}
	return out
}

// spanCandidate builds a candidate supported by one entity span.
func spanCandidate(field filing.FieldKind, sec *filing.Section, sp filing.EntitySpan, normalized string, score float64) filing.FieldCandidate {
	return filing.FieldCandidate{
		Field:       field,
		Value:       sp.Text,
		Normalized:  normalized,
		Score:       filing.ClampScore(score),
		Section:     sec.Index,
		SectionKind: sec.Kind,
		Position:    sec.DocOffset + sp.Start,
		Page:        sec.PageOf(sp.Start),
		Spans:       []filing.EntitySpan{sp},
	}
}

// textCandidate builds a candidate from raw section text. The evidence span
// has kind Other so it is never mistaken for an annotator span.
func textCandidate(field filing.FieldKind, sec *filing.Section, start, end int, value, normalized string, score float64) filing.FieldCandidate {
	ev := filing.EntitySpan{
		Kind:    filing.EntityOther,
		Text:    filing.CollapseSpace(sec.Text[start:end]),
		Section: sec.Index,
		Start:   start,
		End:     end,
	}
	c := spanCandidate(field, sec, ev, normalized, score)
	c.Value = value
	return c
}

// amountCandidate attaches the parsed number to a span candidate.
func amountCandidate(field filing.FieldKind, sec *filing.Section, sp filing.EntitySpan, v, score float64) filing.FieldCandidate {
	v = RoundAmount(v)
	c := spanCandidate(field, sec, sp, FormatAmount(v), score)
	c.Number = &v
	return c
}

var monthBeforeRe = regexp.MustCompile(`(?i)\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s*$`)

// isDatePart reports whether the number at offset is the day of a date such
// as "January 31".
func isDatePart(text string, offset int) bool {
	from := offset - 12
	if from < 0 {
		from = 0
	}
	return monthBeforeRe.MatchString(text[from:offset])
}

// blockOf returns the text of the block containing offset and of the block
// after it.
func blockOf(sec *filing.Section, offset int) (cur, next string) {
	i := sec.BlockAt(offset)
	return sec.BlockText(i), sec.BlockText(i + 1)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
