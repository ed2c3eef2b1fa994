// Package assemble builds the final DocumentExtraction record.
package assemble

import (
	"sort"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// Assemble orders the field results canonically, converts winners into
// values with provenance, and attaches document identity and degradations.
// The inputs are not modified.
func Assemble(doc *filing.Document, sections []filing.Section, results []filing.ExtractionResult, degradations []filing.Degradation) *filing.DocumentExtraction {
	ordered := make([]filing.ExtractionResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Field < ordered[j].Field })

	out := &filing.DocumentExtraction{
		DocumentID:   doc.ID,
		SourcePath:   doc.SourcePath,
		Hash:         doc.Hash,
		PageCount:    doc.PageCount(),
		Fields:       make([]filing.FieldRecord, 0, len(ordered)),
		Degraded:     len(degradations) > 0,
		Degradations: make([]filing.Degradation, len(degradations)),
	}
	copy(out.Degradations, degradations)

	for _, r := range ordered {
		out.Fields = append(out.Fields, record(sections, r))
	}
	return out
}

func record(sections []filing.Section, r filing.ExtractionResult) filing.FieldRecord {
	rec := filing.FieldRecord{Field: r.Field}
	if r.LowConfidence != nil {
		rec.LowConfidence = &filing.Suggestion{
			Value:      r.LowConfidence.Value,
			Confidence: filing.ClampScore(r.LowConfidence.Score),
			Provenance: provenance(sections, *r.LowConfidence),
		}
	}
	if !r.Found() {
		rec.NotFound = r.Reason
		if rec.NotFound == filing.ReasonNone {
			rec.NotFound = filing.ReasonNoCandidates
		}
		return rec
	}

	rec.Confidence = filing.ClampScore(r.Confidence)
	for _, w := range r.Winners {
		rec.Provenance = append(rec.Provenance, provenance(sections, w)...)
	}

	if r.Field.SetValued() {
		values := make([]string, len(r.Winners))
		norms := make([]string, len(r.Winners))
		for i, w := range r.Winners {
			values[i] = w.Value
			norms[i] = w.Normalized
		}
		rec.Value = values
		rec.Normalized = norms
		return rec
	}

	w := r.Winners[0]
	rec.Value = w.Value
	if w.Number != nil {
		rec.Normalized = *w.Number
	} else {
		rec.Normalized = w.Normalized
	}
	return rec
}

// provenance lists the supporting spans of a candidate. A candidate without
// spans is described by its section and page alone.
func provenance(sections []filing.Section, c filing.FieldCandidate) []filing.Provenance {
	if len(c.Spans) == 0 {
		return []filing.Provenance{{
			Section:      c.SectionKind,
			SectionIndex: c.Section,
			Page:         c.Page,
			Text:         c.Value,
		}}
	}
	out := make([]filing.Provenance, 0, len(c.Spans))
	for _, sp := range c.Spans {
		p := filing.Provenance{
			Section:      c.SectionKind,
			SectionIndex: sp.Section,
			Page:         c.Page,
			Text:         sp.Text,
			Start:        sp.Start,
			End:          sp.End,
		}
		if sp.Section >= 0 && sp.Section < len(sections) {
			sec := &sections[sp.Section]
			p.Section = sec.Kind
			p.Page = sec.PageOf(sp.Start)
		}
		out = append(out, p)
	}
	return out
}
