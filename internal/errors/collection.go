package errors

import (
	"sort"
	"sync"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// Collection gathers recoverable errors raised while processing one document
type Collection struct {
	mu     sync.Mutex
	errors []*Error
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{}
}

// Add records a recoverable error. Nil is ignored.
func (c *Collection) Add(err *Error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

// Len returns the number of recorded errors
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

// Errors returns the recorded errors ordered by page, then section, then type
func (c *Collection) Errors() []*Error {
	c.mu.Lock()
	out := make([]*Error, len(c.errors))
	copy(out, c.errors)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Degradations converts the recorded boundary outages into output records.
// sectionKinds maps a section index to its kind and may be nil.
func (c *Collection) Degradations(sectionKinds []filing.SectionKind) []filing.Degradation {
	out := make([]filing.Degradation, 0, c.Len())
	for _, e := range c.Errors() {
		d := filing.Degradation{Page: e.Page, Section: e.Section}
		switch e.Type {
		case ErrorTypeAnnotatorUnavailable:
			d.Kind = filing.DegradationAnnotator
		case ErrorTypeOCRUnavailable:
			d.Kind = filing.DegradationOCR
		default:
			continue
		}
		if e.Section >= 0 && e.Section < len(sectionKinds) {
			k := sectionKinds[e.Section]
			d.SectionKind = &k
		}
		if e.Err != nil {
			d.Detail = e.Err.Error()
		}
		out = append(out, d)
	}
	return out
}
