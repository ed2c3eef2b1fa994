package pdf

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// Layout tuning for grouping positioned glyph runs into line blocks.
const (
	// RowTolerance is the largest baseline difference, in points, between
	// runs that belong to the same line.
	RowTolerance = 2.0
	// WordGapRatio is the horizontal gap, as a fraction of the font size,
	// above which a space is inserted between two runs.
	WordGapRatio = 0.2
	// defaultFontSize stands in when a run reports no size.
	defaultFontSize = 10.0
)

type row struct {
	y     float64
	texts []pdf.Text
}

// GroupBlocks turns the text runs of one page into line blocks in reading
// order: top to bottom, then left to right. A run joins the current line when
// its baseline is within RowTolerance of the line's first baseline.
func GroupBlocks(page int, texts []pdf.Text) []filing.TextBlock {
	runs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S == "" || t.S == "\n" {
			continue
		}
		runs = append(runs, t)
	}
	if len(runs) == 0 {
		return nil
	}

	// PDF user space has its origin at the bottom left. The order is strict
	// so that rows do not depend on the order the runs were drawn in.
	sort.Slice(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.S < b.S
	})

	var rows []row
	for _, t := range runs {
		if n := len(rows); n > 0 && math.Abs(rows[n-1].y-t.Y) <= RowTolerance {
			rows[n-1].texts = append(rows[n-1].texts, t)
			continue
		}
		rows = append(rows, row{y: t.Y, texts: []pdf.Text{t}})
	}

	blocks := make([]filing.TextBlock, 0, len(rows))
	for _, r := range rows {
		b, ok := lineBlock(r)
		if !ok {
			continue
		}
		b.Page = page
		b.Index = len(blocks)
		blocks = append(blocks, b)
	}
	return blocks
}

func lineBlock(r row) (filing.TextBlock, bool) {
	texts := r.texts
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })

	var (
		sb       strings.Builder
		minX     = math.Inf(1)
		maxX     = math.Inf(-1)
		maxSize  float64
		prevEnd  float64
		havePrev bool
	)
	for _, t := range texts {
		size := t.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		if havePrev && t.X-prevEnd > size*WordGapRatio {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
		havePrev = true

		minX = math.Min(minX, t.X)
		maxX = math.Max(maxX, t.X+t.W)
		maxSize = math.Max(maxSize, t.FontSize)
	}

	text := filing.CollapseSpace(sb.String())
	if text == "" {
		return filing.TextBlock{}, false
	}
	height := maxSize
	if height <= 0 {
		height = defaultFontSize
	}
	return filing.TextBlock{
		Text:     text,
		FontSize: maxSize,
		BBox:     filing.BBox{X: minX, Y: r.y, Width: maxX - minX, Height: height},
	}, true
}

// blocksFromText splits recognized text into line blocks. OCR output has no
// geometry, so boxes are empty and the font size is unknown.
func blocksFromText(page int, text string) []filing.TextBlock {
	var blocks []filing.TextBlock
	for _, line := range strings.Split(text, "\n") {
		line = filing.CollapseSpace(line)
		if line == "" {
			continue
		}
		blocks = append(blocks, filing.TextBlock{Page: page, Index: len(blocks), Text: line})
	}
	return blocks
}

// pageText joins block texts the same way sections do.
func pageText(blocks []filing.TextBlock) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Text
	}
	return strings.Join(parts, filing.JoinBlocks)
}
