package fields

import (
	"regexp"
	"strings"
	"time"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// Cover-page pattern scoring.
const (
	CoverPatternBase     = 0.5
	ElsewherePatternBase = 0.2
	LabelBoost           = 0.5
	LabelWindow          = 15
	FileNumberScore      = 0.9
	IncorporationScore   = 0.7
	SymbolCoverScore     = 0.9
	SymbolElsewhereScore = 0.5
	SymbolReach          = 200 // bytes after the label searched for the symbol
)

var phoneRe = regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?)?\(?\b\d{3}\)?[\s.-]?\d{3}[\s.-]\d{4}\b|\+44\s?\d{2,4}\s?\d{3,4}\s?\d{3,4}\b`)

var phoneLabel = keywords("telephone number", "telephone", "phone", "tel")

var fileNumberRe = regexp.MustCompile(`(?i)\b(?:commission\s+file\s+(?:number|no\.?)|company\s+(?:registration\s+)?(?:number|no\.?))\s*:?\s*([0-9]{1,3}-[0-9]{4,6}|[A-Z]{0,2}[0-9]{6,8})\b`)

var einRe = regexp.MustCompile(`\b\d{2}-\d{7}\b`)

var einLabel = keywords("employer identification", "irs employer identification", "i.r.s. employer identification")

var tradingSymbolLabel = regexp.MustCompile(`(?i)\b(?:trading|ticker)\s+symbol(?:\(s\)|s)?`)

var symbolRe = regexp.MustCompile(`\b[A-Z]{1,5}(?:\.[A-Z])?\b`)

var shareClassRe = regexp.MustCompile(`(?i)\b(?:class|series)\s+$`)

// symbolNoise are all-caps words in the registration table that are not
// ticker symbols.
var symbolNoise = setOf("llc", "inc", "plc", "lp", "ltd", "corp", "co", "nyse", "usd", "us", "usa", "the", "and", "of", "i", "ii")

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December`

var incorporationRe = regexp.MustCompile(`(?i)\b(?:incorporated|organized|organised|founded|formed|established)\b[^.]{0,80}?\b(?:in|on)\s+((?:` +
	monthNames + `)\s+\d{1,2},\s+\d{4}|\d{1,2}\s+(?:` + monthNames + `)\s+\d{4}|(?:` + monthNames + `)\s+\d{4}|(?:19|20)\d{2})\b`)

// dateLayouts are tried in order when normalizing a date to ISO form.
var dateLayouts = []struct {
	layout string
	iso    string
}{
	{"January 2, 2006", "2006-01-02"},
	{"2 January 2006", "2006-01-02"},
	{"January 2006", "2006-01"},
	{"2006", "2006"},
}

// ContactNumber finds telephone-number shaped text, preferring the Cover
// section and numbers next to a telephone label.
func ContactNumber(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, toks *tokens) {
		labels := findKeywords(sec.Text, toks, phoneLabel)
		for _, loc := range phoneRe.FindAllStringIndex(sec.Text, -1) {
			score := ElsewherePatternBase
			if sec.Kind == filing.SectionCover {
				score = CoverPatternBase
			}
			first, last := toks.span(loc[0], loc[1])
			if p, ok := proximity(first, last, labels, LabelWindow, Either); ok {
				score += LabelBoost * p
			}
			value := filing.CollapseSpace(sec.Text[loc[0]:loc[1]])
			out = append(out, textCandidate(filing.FieldContactNumber, sec, loc[0], loc[1], value, digitsOnly(value), score))
		}
	})
	return out
}

// CompanyNumber prefers a labelled Commission File Number (or registry
// company number) and falls back to an IRS employer identification number
// near its label.
func CompanyNumber(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, toks *tokens) {
		for _, m := range fileNumberRe.FindAllStringSubmatchIndex(sec.Text, -1) {
			value := sec.Text[m[2]:m[3]]
			out = append(out, textCandidate(filing.FieldCompanyNumber, sec, m[2], m[3], value, strings.ToUpper(value), FileNumberScore))
		}

		labels := findKeywords(sec.Text, toks, einLabel)
		if len(labels) == 0 {
			return
		}
		for _, loc := range einRe.FindAllStringIndex(sec.Text, -1) {
			first, last := toks.span(loc[0], loc[1])
			p, ok := proximity(first, last, labels, LabelWindow, Either)
			if !ok {
				continue
			}
			value := sec.Text[loc[0]:loc[1]]
			out = append(out, textCandidate(filing.FieldCompanyNumber, sec, loc[0], loc[1], value, value, 0.6*p))
		}
	})
	return out
}

// IncorporationDate finds "incorporated in <date>" style statements and
// normalizes the date to ISO 8601 at the precision given.
func IncorporationDate(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, _ *tokens) {
		for _, m := range incorporationRe.FindAllStringSubmatchIndex(sec.Text, -1) {
			value := filing.CollapseSpace(sec.Text[m[2]:m[3]])
			iso, ok := isoDate(value)
			if !ok {
				continue
			}
			out = append(out, textCandidate(filing.FieldIncorporationDate, sec, m[2], m[3], value, iso, IncorporationScore))
		}
	})
	return out
}

// ListingProof reads the ticker symbol from the "Trading Symbol(s)" column
// of the securities registration table: the first all-caps word after the
// label that is not a share class letter.
func ListingProof(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, _ *tokens) {
		score := SymbolElsewhereScore
		if sec.Kind == filing.SectionCover {
			score = SymbolCoverScore
		}
		for _, label := range tradingSymbolLabel.FindAllStringIndex(sec.Text, -1) {
			end := min(label[1]+SymbolReach, len(sec.Text))
			for _, m := range symbolRe.FindAllStringIndex(sec.Text[label[1]:end], -1) {
				start, stop := label[1]+m[0], label[1]+m[1]
				symbol := sec.Text[start:stop]
				if symbolNoise[strings.ToLower(symbol)] {
					continue
				}
				if len(symbol) == 1 && shareClassRe.MatchString(sec.Text[label[1]:start]) {
					continue
				}
				out = append(out, textCandidate(filing.FieldListingProof, sec, start, stop, symbol, symbol, score))
				break
			}
		}
	})
	return out
}

func isoDate(s string) (string, bool) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t.Format(l.iso), true
		}
	}
	return "", false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
