package assemble

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/filing-extractor/internal/filing"
)

func fixture() (*filing.Document, []filing.Section) {
	doc := &filing.Document{
		ID:         "doc-1",
		SourcePath: "/tmp/acme.pdf",
		Hash:       "abc123",
		Pages:      []filing.Page{{Index: 0}, {Index: 1}},
	}
	sections := []filing.Section{
		{
			Index: 0, Kind: filing.SectionCover, Text: "Acme Corp",
			Blocks: []filing.BlockRef{{Page: 0, Index: 0}}, Offsets: []int{0},
		},
		{
			Index: 1, Kind: filing.SectionGovernance, Text: "John Smith\nJane Doe", StartPage: 1, EndPage: 1,
			Blocks: []filing.BlockRef{{Page: 1, Index: 0}, {Page: 1, Index: 1}}, Offsets: []int{0, 11},
		},
	}
	return doc, sections
}

func span(section, start, end int, text string) filing.EntitySpan {
	return filing.EntitySpan{Kind: filing.EntityPerson, Text: text, Section: section, Start: start, End: end}
}

func TestAssemble(t *testing.T) {
	doc, sections := fixture()
	revenue := 1200000.0

	results := []filing.ExtractionResult{
		filing.NotFound(filing.FieldAuditor, filing.ReasonAmbiguousTie),
		{
			Field: filing.FieldDirectors,
			Winners: []filing.FieldCandidate{
				{Value: "John Smith", Normalized: "john smith", Score: 0.9, Section: 1, SectionKind: filing.SectionGovernance, Page: 1, Spans: []filing.EntitySpan{span(1, 0, 10, "John Smith")}},
				{Value: "Jane Doe", Normalized: "jane doe", Score: 0.7, Section: 1, SectionKind: filing.SectionGovernance, Page: 1, Spans: []filing.EntitySpan{span(1, 11, 19, "Jane Doe")}},
			},
			Confidence: 0.8,
		},
		{
			Field: filing.FieldCompanyName,
			Winners: []filing.FieldCandidate{
				{Value: "Acme Corp", Normalized: "acme corp", Score: 0.95, Section: 0, SectionKind: filing.SectionCover, Spans: []filing.EntitySpan{{Kind: filing.EntityOrganization, Text: "Acme Corp", Section: 0, Start: 0, End: 9}}},
			},
			Confidence: 0.95,
		},
		{
			Field: filing.FieldRevenue,
			Winners: []filing.FieldCandidate{
				{Value: "$1.2 million", Normalized: "1200000", Number: &revenue, Score: 0.7, Section: 0, SectionKind: filing.SectionCover},
			},
			Confidence: 0.7,
		},
	}

	ex := Assemble(doc, sections, results, nil)

	assert.Equal(t, "doc-1", ex.DocumentID)
	assert.Equal(t, 2, ex.PageCount)
	assert.False(t, ex.Degraded)
	assert.NotNil(t, ex.Degradations)

	var order []filing.FieldKind
	for _, r := range ex.Fields {
		order = append(order, r.Field)
	}
	assert.Equal(t, []filing.FieldKind{
		filing.FieldCompanyName, filing.FieldAuditor, filing.FieldDirectors, filing.FieldRevenue,
	}, order)

	company, ok := ex.Field(filing.FieldCompanyName)
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", company.Value)
	assert.Equal(t, "acme corp", company.Normalized)
	require.Len(t, company.Provenance, 1)
	assert.Equal(t, filing.SectionCover, company.Provenance[0].Section)
	assert.Equal(t, 9, company.Provenance[0].End)

	auditor, _ := ex.Field(filing.FieldAuditor)
	assert.Nil(t, auditor.Value)
	assert.Equal(t, filing.ReasonAmbiguousTie, auditor.NotFound)

	directors, _ := ex.Field(filing.FieldDirectors)
	assert.Equal(t, []string{"John Smith", "Jane Doe"}, directors.Value)
	require.Len(t, directors.Provenance, 2)
	assert.Equal(t, 1, directors.Provenance[1].Page)
	assert.Equal(t, filing.SectionGovernance, directors.Provenance[1].Section)

	rev, _ := ex.Field(filing.FieldRevenue)
	assert.Equal(t, 1200000.0, rev.Normalized)
	require.Len(t, rev.Provenance, 1, "spanless winners still carry section provenance")
}

func TestAssemble_Degraded(t *testing.T) {
	doc, sections := fixture()
	kind := filing.SectionFinancials
	degs := []filing.Degradation{{Kind: filing.DegradationAnnotator, Page: -1, Section: 3, SectionKind: &kind, Detail: "timeout"}}

	ex := Assemble(doc, sections, []filing.ExtractionResult{filing.NotFound(filing.FieldRevenue, filing.ReasonNoCandidates)}, degs)
	assert.True(t, ex.Degraded)
	assert.Equal(t, degs, ex.Degradations)

	data, err := Marshal(ex)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"section_kind":"financials"`)
}

func TestMarshal_JSONShape(t *testing.T) {
	doc, sections := fixture()
	results := []filing.ExtractionResult{
		filing.NotFound(filing.FieldRevenue, filing.ReasonBelowThreshold),
		{
			Field:      filing.FieldCompanyName,
			Winners:    []filing.FieldCandidate{{Value: "Acme Corp", Normalized: "acme corp", Score: 0.9, SectionKind: filing.SectionCover, Spans: []filing.EntitySpan{{Text: "Acme Corp", End: 9}}}},
			Confidence: 0.9,
		},
	}

	data, err := Marshal(Assemble(doc, sections, results, nil))
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.HasPrefix(s, `{"fields":{"company_name":`), s)
	assert.Less(t, strings.Index(s, `"company_name"`), strings.Index(s, `"revenue"`))
	assert.Contains(t, s, `"revenue":{"confidence":0,"not_found":"below_threshold"}`)
	assert.Contains(t, s, `"degradations":[]`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "doc-1", decoded["document_id"])
	assert.NotContains(t, s, "time", "output carries no timestamps")
}

func TestMarshal_Deterministic(t *testing.T) {
	doc, sections := fixture()
	results := []filing.ExtractionResult{filing.NotFound(filing.FieldEmployees, filing.ReasonNoCandidates)}

	a, err := Marshal(Assemble(doc, sections, results, nil))
	require.NoError(t, err)
	b, err := Marshal(Assemble(doc, sections, results, nil))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAssemble_LowConfidence(t *testing.T) {
	doc, sections := fixture()
	best := filing.FieldCandidate{Value: "Acme", Normalized: "acme", Score: 0.3, SectionKind: filing.SectionCover, Spans: []filing.EntitySpan{{Text: "Acme", End: 4}}}
	r := filing.NotFound(filing.FieldCompanyName, filing.ReasonBelowThreshold)
	r.LowConfidence = &best

	ex := Assemble(doc, sections, []filing.ExtractionResult{r}, nil)
	rec, _ := ex.Field(filing.FieldCompanyName)
	require.NotNil(t, rec.LowConfidence)
	assert.Equal(t, "Acme", rec.LowConfidence.Value)
	assert.InDelta(t, 0.3, rec.LowConfidence.Confidence, 1e-9)

	_, err := Marshal(ex)
	require.NoError(t, err)
}

func TestValidateJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing fields", `{"document_id":"x","hash":"h","page_count":1,"degraded":false,"degradations":[]}`},
		{"unknown field name", `{"fields":{"colour":{"confidence":0,"not_found":"no_candidates"}},"document_id":"x","hash":"h","page_count":1,"degraded":false,"degradations":[]}`},
		{"confidence out of range", `{"fields":{"revenue":{"value":"1","confidence":1.5,"provenance":[]}},"document_id":"x","hash":"h","page_count":1,"degraded":false,"degradations":[]}`},
		{"silently missing value", `{"fields":{"revenue":{"confidence":0}},"document_id":"x","hash":"h","page_count":1,"degraded":false,"degradations":[]}`},
		{"bad reason", `{"fields":{"revenue":{"confidence":0,"not_found":"gave_up"}},"document_id":"x","hash":"h","page_count":1,"degraded":false,"degradations":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateJSON([]byte(tt.data)))
		})
	}
}

func TestSchema_ListsEveryField(t *testing.T) {
	props := Schema()["properties"].(map[string]any)
	names := props["fields"].(map[string]any)["propertyNames"].(map[string]any)["enum"].([]any)
	assert.Len(t, names, len(filing.AllFields()))
}
