package filing

import (
	"bytes"
	"encoding/json"
)

// Provenance points an accepted value back at the text it came from.
type Provenance struct {
	Section      SectionKind `json:"section"`
	SectionIndex int         `json:"section_index"`
	Page         int         `json:"page"`
	Text         string      `json:"text"`
	Start        int         `json:"start"`
	End          int         `json:"end"`
}

// Suggestion is a rejected candidate surfaced for review.
type Suggestion struct {
	Value      string       `json:"value"`
	Confidence float64      `json:"confidence"`
	Provenance []Provenance `json:"provenance"`
}

// FieldRecord is the serialized outcome for one field. Value is a string for
// single-winner fields and a []string for set-valued fields; it is nil when
// NotFound is set.
type FieldRecord struct {
	Field         FieldKind      `json:"-"`
	Value         any            `json:"value,omitempty"`
	Normalized    any            `json:"normalized,omitempty"`
	Confidence    float64        `json:"confidence"`
	Provenance    []Provenance   `json:"provenance,omitempty"`
	NotFound      NotFoundReason `json:"not_found,omitempty"`
	LowConfidence *Suggestion    `json:"low_confidence,omitempty"`
}

// DocumentExtraction is the final output record for one document.
type DocumentExtraction struct {
	DocumentID   string        `json:"document_id"`
	SourcePath   string        `json:"source_path,omitempty"`
	Hash         string        `json:"hash"`
	PageCount    int           `json:"page_count"`
	Fields       []FieldRecord `json:"-"`
	Degraded     bool          `json:"degraded"`
	Degradations []Degradation `json:"degradations"`
}

// Field returns the record for f and whether it is present.
func (d *DocumentExtraction) Field(f FieldKind) (FieldRecord, bool) {
	for _, r := range d.Fields {
		if r.Field == f {
			return r, true
		}
	}
	return FieldRecord{}, false
}

// MarshalJSON writes fields as an object whose keys keep canonical order.
func (d DocumentExtraction) MarshalJSON() ([]byte, error) {
	type header DocumentExtraction
	head, err := json.Marshal(header(d))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"fields":{`)
	for i, r := range d.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Field.String())
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString("},")
	// head is a JSON object; splice its members after "fields".
	buf.Write(head[1:])
	return buf.Bytes(), nil
}
