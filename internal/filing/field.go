package filing

import (
	"fmt"
	"math"
)

// FieldKind identifies one target data point.
type FieldKind int

const (
	FieldCompanyName FieldKind = iota
	FieldAuditor
	FieldAddress
	FieldLineOfBusiness
	FieldDirectors
	FieldRevenue
	FieldSharesTraded
	FieldEmployees
	FieldContactNumber
	FieldCompanyNumber
	FieldIncorporationDate
	FieldFormerName
	FieldSeniorManagement
	FieldListingProof
	FieldTypeOfCompany
	FieldAuditorReport
)

var fieldNames = [...]string{
	FieldCompanyName:       "company_name",
	FieldAuditor:           "auditor",
	FieldAddress:           "address",
	FieldLineOfBusiness:    "line_of_business",
	FieldDirectors:         "directors",
	FieldRevenue:           "revenue",
	FieldSharesTraded:      "shares_traded",
	FieldEmployees:         "employees",
	FieldContactNumber:     "contact_number",
	FieldCompanyNumber:     "company_number",
	FieldIncorporationDate: "incorporation_date",
	FieldFormerName:        "former_name",
	FieldSeniorManagement:  "senior_management",
	FieldListingProof:      "listing_proof",
	FieldTypeOfCompany:     "type_of_company",
	FieldAuditorReport:     "auditor_financial_report",
}

// AllFields returns every field in canonical output order.
func AllFields() []FieldKind {
	out := make([]FieldKind, len(fieldNames))
	for i := range fieldNames {
		out[i] = FieldKind(i)
	}
	return out
}

// String returns the snake_case name used as the output key.
func (f FieldKind) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("field_%d", int(f))
	}
	return fieldNames[f]
}

// MarshalText implements encoding.TextMarshaler.
func (f FieldKind) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ParseFieldKind maps an output key back to its FieldKind.
func ParseFieldKind(name string) (FieldKind, error) {
	for i, n := range fieldNames {
		if n == name {
			return FieldKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field: %q", name)
}

// SetValued reports whether the field accepts several winners.
func (f FieldKind) SetValued() bool {
	return f == FieldDirectors || f == FieldSeniorManagement
}

// FieldCandidate is a provisional value for a field. Position is the
// document-wide byte offset of the supporting text and breaks score ties.
type FieldCandidate struct {
	Field       FieldKind    `json:"field"`
	Value       string       `json:"value"`
	Normalized  string       `json:"normalized"`
	Number      *float64     `json:"number,omitempty"`
	Score       float64      `json:"score"`
	Section     int          `json:"section"`
	SectionKind SectionKind  `json:"section_kind"`
	Position    int          `json:"position"`
	Page        int          `json:"page"`
	Spans       []EntitySpan `json:"spans,omitempty"`
}

// ClampScore bounds a score to [0,1]; NaN becomes 0.
func ClampScore(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// NotFoundReason explains why a field has no accepted value.
type NotFoundReason string

const (
	ReasonNone           NotFoundReason = ""
	ReasonNoCandidates   NotFoundReason = "no_candidates"
	ReasonBelowThreshold NotFoundReason = "below_threshold"
	ReasonAmbiguousTie   NotFoundReason = "ambiguous_tie"
)

// ExtractionResult is the aggregator's verdict for one field: either one or
// more winners with a confidence, or a NotFound reason. LowConfidence carries
// the best rejected candidate and is only set when explicitly requested.
type ExtractionResult struct {
	Field         FieldKind        `json:"field"`
	Winners       []FieldCandidate `json:"winners,omitempty"`
	Confidence    float64          `json:"confidence"`
	Reason        NotFoundReason   `json:"reason,omitempty"`
	LowConfidence *FieldCandidate  `json:"low_confidence,omitempty"`
}

// Found reports whether the field resolved to at least one winner.
func (r ExtractionResult) Found() bool {
	return r.Reason == ReasonNone && len(r.Winners) > 0
}

// NotFound builds an unresolved result.
func NotFound(field FieldKind, reason NotFoundReason) ExtractionResult {
	return ExtractionResult{Field: field, Reason: reason}
}

// DegradationKind names a recoverable loss of input signal.
type DegradationKind string

const (
	DegradationAnnotator DegradationKind = "annotator_unavailable"
	DegradationOCR       DegradationKind = "ocr_unavailable"
)

// Degradation records where signal was lost. Page is set for OCR losses,
// Section for annotator losses; the other is -1.
type Degradation struct {
	Kind        DegradationKind `json:"kind"`
	Page        int             `json:"page"`
	Section     int             `json:"section"`
	SectionKind *SectionKind    `json:"section_kind,omitempty"`
	Detail      string          `json:"detail"`
}
