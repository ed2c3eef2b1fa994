package pdf

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// TextLayer exposes the positioned text runs of each page. Pages are
// zero-based.
type TextLayer interface {
	NumPage() int
	Texts(page int) ([]pdf.Text, error)
}

// Reader is the TextLayer over the native PDF content streams
type Reader struct {
	r *pdf.Reader
}

// NewReader parses data with ledongthuc/pdf
func NewReader(data []byte) (r *Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("panic while opening PDF: %v", rec)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &Reader{r: pdfReader}, nil
}

// NumPage returns the number of pages
func (r *Reader) NumPage() int {
	return r.r.NumPage()
}

// Texts returns the text runs of a page. Malformed content streams are
// reported as errors instead of panics.
func (r *Reader) Texts(page int) (texts []pdf.Text, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			texts, err = nil, fmt.Errorf("panic during content extraction on page %d: %v", page, rec)
		}
	}()

	p := r.r.Page(page + 1)
	if p.V.IsNull() {
		return nil, fmt.Errorf("invalid page %d", page)
	}
	return p.Content().Text, nil
}
