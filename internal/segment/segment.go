// Package segment partitions a filing into kind-tagged sections.
//
// Blocks are scanned in page order. A block is a heading candidate when its
// font is noticeably larger than the median font of its page. Pages without
// font sizes, such as OCR output, fall back to short all-caps lines. A heading candidate opens a new section
// when it matches one of the HeadingPatterns; everything else is appended to
// the section in progress.
package segment

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// HeadingPattern maps a heading keyword to a section kind. Priority orders
// patterns that match the same block; higher is more specific.
type HeadingPattern struct {
	Kind     filing.SectionKind
	Keyword  string
	Priority int
	re       *regexp.Regexp
}

func heading(kind filing.SectionKind, priority int, expr string) HeadingPattern {
	return HeadingPattern{Kind: kind, Keyword: expr, Priority: priority, re: regexp.MustCompile(`(?i)` + expr)}
}

// HeadingPatterns is the ranked heading keyword table.
var HeadingPatterns = []HeadingPattern{
	heading(filing.SectionCover, 3, `\bform\s+10-k\b`),
	heading(filing.SectionCover, 3, `\bform\s+20-f\b`),
	heading(filing.SectionCover, 2, `\bsecurities\s+and\s+exchange\s+commission\b`),
	heading(filing.SectionCover, 1, `\bannual\s+report\b`),

	heading(filing.SectionBusiness, 3, `\bitem\s*1\s*\.?\s*business\b`),
	heading(filing.SectionBusiness, 2, `\bdescription\s+of\s+(the\s+)?business\b`),
	heading(filing.SectionBusiness, 2, `\bour\s+business\b`),
	heading(filing.SectionBusiness, 1, `\bbusiness\b`),

	heading(filing.SectionGovernance, 3, `\bitem\s*10\s*\.?\s*directors\b`),
	heading(filing.SectionGovernance, 2, `\bdirectors\s+and\s+executive\s+officers\b`),
	heading(filing.SectionGovernance, 2, `\bboard\s+of\s+directors\b`),
	heading(filing.SectionGovernance, 2, `\bcorporate\s+governance\b`),
	heading(filing.SectionGovernance, 1, `\bdirectors\b`),

	heading(filing.SectionFinancials, 3, `\bitem\s*8\s*\.?\s*financial\s+statements\b`),
	heading(filing.SectionFinancials, 3, `\breport\s+of\s+independent\s+registered\s+public\s+accounting\s+firm\b`),
	heading(filing.SectionFinancials, 3, `\bitem\s*7\s*\.?\s*management'?s\s+discussion\b`),
	heading(filing.SectionFinancials, 2, `\bconsolidated\s+(statements?|balance\s+sheets?)\b`),
	heading(filing.SectionFinancials, 2, `\bselected\s+financial\s+data\b`),
	heading(filing.SectionFinancials, 1, `\bfinancial\s+statements\b`),

	heading(filing.SectionOther, 3, `\bitem\s*1a\s*\.?\s*risk\s+factors\b`),
	heading(filing.SectionOther, 3, `\bitem\s*2\s*\.?\s*properties\b`),
	heading(filing.SectionOther, 3, `\bitem\s*3\s*\.?\s*legal\s+proceedings\b`),
	heading(filing.SectionOther, 2, `\bexhibits\b`),
}

// Config tunes heading detection.
type Config struct {
	// HeadingRatio is the font size multiple of the page median at which a
	// block becomes a heading candidate.
	HeadingRatio float64
	// MaxHeadingLength bounds heading candidates, in bytes.
	MaxHeadingLength int
	// AllCapsHeadings treats short all-caps lines as heading candidates on
	// pages that carry no font sizes (OCR output).
	AllCapsHeadings bool
}

// DefaultConfig returns the default heading detection settings.
func DefaultConfig() Config {
	return Config{
		HeadingRatio:     1.2,
		MaxHeadingLength: 200,
		AllCapsHeadings:  true,
	}
}

// Segmenter splits documents into sections.
type Segmenter struct {
	config   Config
	patterns []HeadingPattern
	logger   *slog.Logger
}

// New creates a Segmenter using the default heading table.
func New(config Config, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	if config.HeadingRatio <= 0 {
		config.HeadingRatio = DefaultConfig().HeadingRatio
	}
	if config.MaxHeadingLength <= 0 {
		config.MaxHeadingLength = DefaultConfig().MaxHeadingLength
	}
	return &Segmenter{config: config, patterns: HeadingPatterns, logger: logger}
}

type draft struct {
	kind    filing.SectionKind
	heading string
	blocks  []filing.BlockRef
}

// Segment returns the ordered sections of doc. Every block of the document
// belongs to exactly one section. A document without recognizable headings
// yields a single Other section.
func (s *Segmenter) Segment(doc *filing.Document) []filing.Section {
	var drafts []*draft
	headings := 0

	for _, page := range doc.Pages {
		median := medianFontSize(page.Blocks)
		for i, b := range page.Blocks {
			ref := filing.BlockRef{Page: page.Index, Index: i}
			if s.isHeadingCandidate(b, median) {
				if p, ok := s.match(b.Text); ok {
					headings++
					drafts = append(drafts, &draft{kind: p.Kind, heading: filing.CollapseSpace(b.Text)})
				}
			}
			if len(drafts) == 0 {
				drafts = append(drafts, &draft{kind: filing.SectionOther})
			}
			cur := drafts[len(drafts)-1]
			cur.blocks = append(cur.blocks, ref)
		}
	}

	drafts = mergeAdjacent(drafts)
	if len(drafts) == 0 {
		drafts = []*draft{{kind: filing.SectionOther}}
	}

	sections := make([]filing.Section, 0, len(drafts))
	docOffset := 0
	for i, d := range drafts {
		sec := build(doc, i, d, docOffset)
		docOffset += len(sec.Text) + len(filing.JoinBlocks)
		sections = append(sections, sec)
	}

	s.logger.Debug("segment.document.ok",
		"doc_id", doc.ID,
		"pages", doc.PageCount(),
		"headings", headings,
		"sections", len(sections),
	)
	return sections
}

func (s *Segmenter) isHeadingCandidate(b filing.TextBlock, median float64) bool {
	text := strings.TrimSpace(b.Text)
	if text == "" || len(text) > s.config.MaxHeadingLength {
		return false
	}
	if median > 0 {
		return b.FontSize >= median*s.config.HeadingRatio
	}
	// No font sizes on the page (OCR output).
	return s.config.AllCapsHeadings && isAllCaps(text)
}

// match returns the best heading pattern for text: highest priority first,
// then the longest matched keyword.
func (s *Segmenter) match(text string) (HeadingPattern, bool) {
	var (
		best    HeadingPattern
		bestLen int
		found   bool
	)
	for _, p := range s.patterns {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		n := loc[1] - loc[0]
		if !found || p.Priority > best.Priority || (p.Priority == best.Priority && n > bestLen) {
			best, bestLen, found = p, n, true
		}
	}
	return best, found
}

func mergeAdjacent(drafts []*draft) []*draft {
	var out []*draft
	for _, d := range drafts {
		if len(out) > 0 && out[len(out)-1].kind == d.kind {
			prev := out[len(out)-1]
			prev.blocks = append(prev.blocks, d.blocks...)
			continue
		}
		out = append(out, d)
	}
	return out
}

func build(doc *filing.Document, index int, d *draft, docOffset int) filing.Section {
	sec := filing.Section{
		Index:     index,
		Kind:      d.kind,
		Heading:   d.heading,
		Blocks:    d.blocks,
		Offsets:   make([]int, len(d.blocks)),
		DocOffset: docOffset,
	}

	var sb strings.Builder
	for i, ref := range d.blocks {
		if i > 0 {
			sb.WriteString(filing.JoinBlocks)
		}
		sec.Offsets[i] = sb.Len()
		sb.WriteString(doc.Block(ref).Text)
	}
	sec.Text = sb.String()

	if len(d.blocks) > 0 {
		sec.StartPage = d.blocks[0].Page
		sec.EndPage = d.blocks[len(d.blocks)-1].Page
	}
	return sec
}

// medianFontSize returns the median of the positive font sizes on a page, or
// zero when none are known.
func medianFontSize(blocks []filing.TextBlock) float64 {
	sizes := make([]float64, 0, len(blocks))
	for _, b := range blocks {
		if b.FontSize > 0 {
			sizes = append(sizes, b.FontSize)
		}
	}
	if len(sizes) == 0 {
		return 0
	}
	sort.Float64s(sizes)
	mid := len(sizes) / 2
	if len(sizes)%2 == 0 {
		return (sizes[mid-1] + sizes[mid]) / 2
	}
	return sizes[mid]
}

func isAllCaps(text string) bool {
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			if unicode.IsLower(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 4
}
