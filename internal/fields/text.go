package fields

import (
	"regexp"
	"sort"
	"strings"
)

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:[.,'’\-&][\p{L}\p{N}]+)*`)

// tokens indexes the word tokens of a section text by byte offset.
type tokens struct {
	starts []int
	ends   []int
}

func tokenize(text string) *tokens {
	locs := tokenRe.FindAllStringIndex(text, -1)
	t := &tokens{starts: make([]int, len(locs)), ends: make([]int, len(locs))}
	for i, l := range locs {
		t.starts[i], t.ends[i] = l[0], l[1]
	}
	return t
}

func (t *tokens) len() int { return len(t.starts) }

// span returns the first and last token indices overlapping [start,end). A
// range with no tokens maps to the next token on both sides.
func (t *tokens) span(start, end int) (int, int) {
	first := sort.Search(len(t.ends), func(i int) bool { return t.ends[i] > start })
	last := sort.Search(len(t.starts), func(i int) bool { return t.starts[i] >= end }) - 1
	if last < first {
		last = first
	}
	return first, last
}

// gap is the number of tokens strictly between two token ranges, or zero
// when they touch or overlap.
func gap(a0, a1, b0, b1 int) int {
	switch {
	case b0 > a1:
		return b0 - a1 - 1
	case a0 > b1:
		return a0 - b1 - 1
	default:
		return 0
	}
}

// keywordHit is one keyword occurrence as a token range.
type keywordHit struct {
	first, last int
	start       int
}

// findKeywords returns every match of re in text as token ranges.
func findKeywords(text string, t *tokens, re *regexp.Regexp) []keywordHit {
	var hits []keywordHit
	for _, loc := range re.FindAllStringIndex(text, -1) {
		first, last := t.span(loc[0], loc[1])
		hits = append(hits, keywordHit{first: first, last: last, start: loc[0]})
	}
	return hits
}

// Direction restricts which side of a span a keyword may sit on.
type Direction int

const (
	Either Direction = iota
	Before
	After
)

// proximity scores how close the nearest keyword hit is to the token range
// [first,last]: 1 when adjacent, falling linearly to 0 at window tokens away.
// ok is false when no hit is within the window.
func proximity(first, last int, hits []keywordHit, window int, dir Direction) (float64, bool) {
	best := -1
	for _, h := range hits {
		switch dir {
		case Before:
			if h.first > first {
				continue
			}
		case After:
			if h.last < last {
				continue
			}
		}
		d := gap(first, last, h.first, h.last)
		if d > window {
			continue
		}
		if best < 0 || d < best {
			best = d
		}
	}
	if best < 0 {
		return 0, false
	}
	return 1 - float64(best)/float64(window+1), true
}

// keywords builds a case-insensitive, whole-word alternation. Spaces in a
// phrase match any whitespace run.
func keywords(phrases ...string) *regexp.Regexp {
	parts := make([]string, len(phrases))
	for i, p := range phrases {
		words := strings.Fields(p)
		for j, w := range words {
			words[j] = regexp.QuoteMeta(w)
		}
		parts[i] = strings.Join(words, `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
}

var sentenceEnd = regexp.MustCompile(`[.!?]["')\]]?(?:\s+|$)`)

// abbreviations never end a sentence.
var abbreviations = map[string]bool{
	"inc": true, "corp": true, "co": true, "ltd": true, "no": true, "mr": true, "mrs": true,
	"ms": true, "dr": true, "st": true, "jr": true, "sr": true, "u.s": true, "e.g": true, "i.e": true,
	"vs": true, "approx": true,
}

func isAbbreviation(prefix string) bool {
	i := strings.LastIndexAny(prefix, " \n\t(")
	word := strings.ToLower(prefix[i+1:])
	if len(word) == 1 && word[0] >= 'a' && word[0] <= 'z' {
		return true
	}
	return abbreviations[word]
}

// sentences splits text[from:] into trimmed sentences with byte offsets into
// text. Block boundaries inside a sentence are treated as spaces.
func sentences(text string, from int) []textRange {
	var out []textRange
	add := func(start, end int) {
		if r, ok := trimRange(text, start, end); ok {
			out = append(out, r)
		}
	}

	start, scan := from, from
	for start < len(text) {
		loc := sentenceEnd.FindStringIndex(text[scan:])
		if loc == nil {
			add(start, len(text))
			break
		}
		end := scan + loc[0] + 1
		next := scan + loc[1]
		if next <= scan {
			next = scan + 1
		}
		if text[end-1] == '.' && next < len(text) && isAbbreviation(text[start:end-1]) {
			scan = next
			continue
		}
		add(start, end)
		start, scan = next, next
	}
	return out
}

type textRange struct {
	start, end int
}

func trimRange(text string, start, end int) (textRange, bool) {
	for start < end && isSpaceByte(text[start]) {
		start++
	}
	for end > start && isSpaceByte(text[end-1]) {
		end--
	}
	return textRange{start, end}, end > start
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
