package fields

import (
	"regexp"
	"strings"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// LineOfBusiness tuning.
const (
	BusinessSentences   = 5
	MinSentenceTokens   = 5
	MaxSentenceLength   = 400
	minContentTokenSize = 3
	maxTitleTokens      = 8
)

// boilerplateRe matches sentence lead-ins that never describe the business.
var boilerplateRe = regexp.MustCompile(`(?i)^(?:item\s*\d|table\s+of\s+contents|this\s+(?:annual\s+)?report|in\s+this\s+report|unless\s+the\s+context|as\s+used\s+in|the\s+following|see\s|refer\s+to|forward[- ]looking|cautionary|part\s+[iv]+\b|general\.?$|overview\.?$)`)

var stopwords = setOf(
	"the", "and", "for", "with", "that", "this", "from", "are", "was", "were", "has", "have",
	"its", "our", "their", "which", "also", "into", "such", "other", "these", "those", "been",
	"will", "may", "can", "including", "well", "through", "each", "any", "all", "not", "but",
)

// LineOfBusiness scores the first BusinessSentences sentences of the first
// Business section that has any by the share of content tokens and returns
// the best one. Table-of-contents fragments classified as Business are
// skipped that way.
func LineOfBusiness(in *Input) []filing.FieldCandidate {
	for i := range in.Sections {
		sec := &in.Sections[i]
		if sec.Kind != filing.SectionBusiness {
			continue
		}
		if c, ok := bestSentence(sec); ok {
			return []filing.FieldCandidate{c}
		}
	}
	return nil
}

func bestSentence(sec *filing.Section) (filing.FieldCandidate, bool) {
	var (
		best  filing.FieldCandidate
		found bool
		taken int
	)
	for _, para := range paragraphs(sec) {
		for _, r := range sentences(sec.Text[:para.end], para.start) {
			if taken == BusinessSentences {
				return best, found
			}
			text := filing.CollapseSpace(sec.Text[r.start:r.end])
			if boilerplateRe.MatchString(text) || len(text) > MaxSentenceLength {
				continue
			}
			words := tokenRe.FindAllString(text, -1)
			if len(words) < MinSentenceTokens {
				continue
			}
			taken++

			score := informativeness(words)
			if !found || score > best.Score {
				best = textCandidate(filing.FieldLineOfBusiness, sec, r.start, r.end, text, strings.ToLower(text), score)
				found = true
			}
		}
	}
	return best, found
}

// paragraphs splits the section into runs of prose blocks. Heading-like
// blocks end a run and are dropped, so a subheading such as "Overview" never
// becomes the start of the sentence that follows it.
func paragraphs(sec *filing.Section) []textRange {
	var (
		out  []textRange
		cur  textRange
		open bool
	)
	for i, off := range sec.Offsets {
		block := sec.BlockText(i)
		if isTitleBlock(sec, block) {
			if open {
				out = append(out, cur)
				open = false
			}
			continue
		}
		if !open {
			cur.start = off
			open = true
		}
		cur.end = off + len(block)
	}
	if open {
		out = append(out, cur)
	}
	return out
}

// isTitleBlock reports whether a block reads as a heading: the section
// heading itself, or a short line without closing punctuation.
func isTitleBlock(sec *filing.Section, block string) bool {
	text := filing.CollapseSpace(block)
	if text == "" {
		return true
	}
	if sec.Heading != "" && text == sec.Heading {
		return true
	}
	if strings.ContainsAny(text[len(text)-1:], ".!?:;,") {
		return false
	}
	return len(tokenRe.FindAllString(text, -1)) <= maxTitleTokens
}

// informativeness is the ratio of content tokens to all tokens.
func informativeness(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	content := 0
	for _, w := range words {
		lw := strings.ToLower(w)
		if len(lw) >= minContentTokenSize && !stopwords[lw] && !isNumber(lw) {
			content++
		}
	}
	return float64(content) / float64(len(words))
}

func isNumber(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != ',' && r != '.' {
			return false
		}
	}
	return true
}
