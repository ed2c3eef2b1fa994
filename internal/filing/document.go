// Package filing holds the data model shared by every pipeline stage.
//
// Values are built once, in pipeline order, and never mutated afterwards:
// the Provider builds a Document, the Segmenter derives Sections from it, the
// annotator wrapper derives EntitySpans from the Sections, and so on. Stages
// that run concurrently only ever read these values.
package filing

import (
	"sort"
	"strings"
	"unicode"
)

// BBox is a text block's bounding box in PDF user space units.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextBlock is a run of text on a page with its position and a font-size hint.
// FontSize is zero when the text did not come from the PDF content stream (OCR).
type TextBlock struct {
	Page     int     `json:"page"`
	Index    int     `json:"index"`
	Text     string  `json:"text"`
	BBox     BBox    `json:"bbox"`
	FontSize float64 `json:"font_size"`
}

// Page is one page of a Document. Index is zero-based.
type Page struct {
	Index  int         `json:"index"`
	Text   string      `json:"text"`
	Blocks []TextBlock `json:"blocks"`
	OCR    bool        `json:"ocr,omitempty"`
}

// NonSpaceChars counts the non-whitespace characters of the page text.
func (p Page) NonSpaceChars() int {
	n := 0
	for _, r := range p.Text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// Document is an ordered sequence of pages identified by its source and content hash.
type Document struct {
	ID         string `json:"id"`
	SourcePath string `json:"source_path,omitempty"`
	Hash       string `json:"hash"`
	Pages      []Page `json:"pages"`
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// BlockRef addresses a block by page index and block index within the page.
type BlockRef struct {
	Page  int `json:"page"`
	Index int `json:"index"`
}

// Blocks returns references to every block in page/block order.
func (d *Document) Blocks() []BlockRef {
	var refs []BlockRef
	for _, p := range d.Pages {
		for i := range p.Blocks {
			refs = append(refs, BlockRef{Page: p.Index, Index: i})
		}
	}
	return refs
}

// Block resolves a reference. The reference must come from this document.
func (d *Document) Block(ref BlockRef) TextBlock {
	return d.Pages[ref.Page].Blocks[ref.Index]
}

// SectionKind tags a logical region of a filing.
type SectionKind int

const (
	SectionOther SectionKind = iota
	SectionCover
	SectionBusiness
	SectionGovernance
	SectionFinancials
)

// String returns the lower-case name used in output records.
func (k SectionKind) String() string {
	switch k {
	case SectionCover:
		return "cover"
	case SectionBusiness:
		return "business"
	case SectionGovernance:
		return "governance"
	case SectionFinancials:
		return "financials"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k SectionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Section is a contiguous, kind-tagged run of blocks.
//
// Text is the block texts joined by "\n"; Offsets[i] is the byte offset of
// Blocks[i] inside Text. DocOffset is the byte offset of the section in the
// concatenation of all section texts, which gives every span a document-wide
// position for tie-breaking.
type Section struct {
	Index     int         `json:"index"`
	Kind      SectionKind `json:"kind"`
	Heading   string      `json:"heading,omitempty"`
	StartPage int         `json:"start_page"`
	EndPage   int         `json:"end_page"`
	Blocks    []BlockRef  `json:"blocks"`
	Text      string      `json:"-"`
	Offsets   []int       `json:"-"`
	DocOffset int         `json:"-"`
}

// BlockAt returns the index into s.Blocks of the block containing the byte
// offset, or -1 when the section is empty.
func (s *Section) BlockAt(offset int) int {
	if len(s.Offsets) == 0 {
		return -1
	}
	i := sort.Search(len(s.Offsets), func(i int) bool { return s.Offsets[i] > offset })
	if i == 0 {
		return 0
	}
	return i - 1
}

// BlockText returns the text of the i-th block of the section.
func (s *Section) BlockText(i int) string {
	if i < 0 || i >= len(s.Offsets) {
		return ""
	}
	start := s.Offsets[i]
	end := len(s.Text)
	if i+1 < len(s.Offsets) {
		end = s.Offsets[i+1] - 1
	}
	if end < start {
		end = start
	}
	return s.Text[start:end]
}

// PageOf returns the page index of the block containing the byte offset.
func (s *Section) PageOf(offset int) int {
	i := s.BlockAt(offset)
	if i < 0 {
		return s.StartPage
	}
	return s.Blocks[i].Page
}

// HasKind reports whether k is one of kinds.
func (k SectionKind) HasKind(kinds ...SectionKind) bool {
	for _, o := range kinds {
		if o == k {
			return true
		}
	}
	return false
}

// EntityKind is the closed set of entity categories the extractors understand.
type EntityKind int

const (
	EntityOther EntityKind = iota
	EntityOrganization
	EntityPerson
	EntityLocation
	EntityMoney
	EntityCardinal
)

// String returns the lower-case entity kind name.
func (k EntityKind) String() string {
	switch k {
	case EntityOrganization:
		return "organization"
	case EntityPerson:
		return "person"
	case EntityLocation:
		return "location"
	case EntityMoney:
		return "money"
	case EntityCardinal:
		return "cardinal"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k EntityKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// EntitySpan is a typed mention inside one section. Start and End are byte
// offsets into that section's Text.
type EntitySpan struct {
	Kind    EntityKind `json:"kind"`
	Text    string     `json:"text"`
	Section int        `json:"section"`
	Start   int        `json:"start"`
	End     int        `json:"end"`
}

// SpanSet holds the spans of every section of a document, indexed by section.
type SpanSet [][]EntitySpan

// Of returns the spans of section i, or nil.
func (s SpanSet) Of(i int) []EntitySpan {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// Count returns how many spans of the given kind have the same normalized text
// anywhere in the document.
func (s SpanSet) Count(kind EntityKind, text string, normalize func(string) string) int {
	want := normalize(text)
	n := 0
	for _, spans := range s {
		for _, sp := range spans {
			if sp.Kind == kind && normalize(sp.Text) == want {
				n++
			}
		}
	}
	return n
}

// JoinBlocks is the separator used between block texts inside a section.
const JoinBlocks = "\n"

// CollapseSpace trims and folds internal whitespace runs to single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
