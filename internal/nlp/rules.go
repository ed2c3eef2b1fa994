package nlp

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// Annotator-native labels produced by the rule annotator. They follow the
// OntoNotes names used by common NER models so both back ends map the same way.
const (
	LabelOrg      = "ORG"
	LabelPerson   = "PERSON"
	LabelGPE      = "GPE"
	LabelFacility = "FAC"
	LabelMoney    = "MONEY"
	LabelCardinal = "CARDINAL"
)

// pattern is one labelled rule. Rules are applied in slice order and a later
// rule never claims text already claimed by an earlier one.
type pattern struct {
	label string
	re    *regexp.Regexp
	group int

	// trim narrows a match to the part worth keeping; ok=false drops it.
	trim func(text string, start, end int) (int, int, bool)
}

var usStates = `Alabama|Alaska|Arizona|Arkansas|California|Colorado|Connecticut|Delaware|Florida|Georgia|Hawaii|Idaho|Illinois|Indiana|Iowa|Kansas|Kentucky|Louisiana|Maine|Maryland|Massachusetts|Michigan|Minnesota|Mississippi|Missouri|Montana|Nebraska|Nevada|New Hampshire|New Jersey|New Mexico|New York|North Carolina|North Dakota|Ohio|Oklahoma|Oregon|Pennsylvania|Rhode Island|South Carolina|South Dakota|Tennessee|Texas|Utah|Vermont|Virginia|Washington|West Virginia|Wisconsin|Wyoming`

const capWord = `[A-Z][A-Za-z0-9'&.\-]*`

var moneyRe = regexp.MustCompile(`(?:US\$|\$|USD\s?)\s?\d[\d,]*(?:\.\d+)?(?:\s+(?:million|billion|thousand|trillion)\b)?`)

var orgRe = regexp.MustCompile(capWord + `(?:[ \t]+(?:&[ \t]+)?` + capWord + `){0,5},?[ \t]+` +
	`(?:Incorporated\b|INCORPORATED\b|Inc\b\.?|INC\b\.?|Corporation\b|CORPORATION\b|Corp\b\.?|CORP\b\.?|` +
	`Limited\b|LIMITED\b|Ltd\b\.?|LTD\b\.?|PLC\b|plc\b|LLP\b|LLC\b|L\.L\.C\.|L\.L\.P\.|` +
	`Company\b|COMPANY\b|Co\.|CO\.|Holdings\b|HOLDINGS\b|Group\b|GROUP\b)`)

var streetRe = regexp.MustCompile(`\b\d{1,6}[ \t]+(?:` + capWord + `[ \t]+){0,4}` +
	`(?:Street|St\.|Avenue|Ave\.|Road|Rd\.|Boulevard|Blvd\.|Way|Drive|Dr\.|Plaza|Parkway|Pkwy\.?|Court|Ct\.|Lane|Ln\.|Place|Circle|Square)`)

var cityZipRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){0,2},[ \t]+(?:[A-Z]{2}|` + usStates + `)[ \t]+\d{5}(?:-\d{4})?\b`)

var cityStateRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){0,2},[ \t]+(?:` + usStates + `)\b`)

var personRe = regexp.MustCompile(`(?:\b(?:Mr|Mrs|Ms|Dr)\.[ \t]+)?\b([A-Z][a-z]+(?:[ \t]+[A-Z]\.)?(?:[ \t]+[A-Z][a-z]+(?:-[A-Z][a-z]+)?){1,2})\b`)

var cardinalRe = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+(?:\.\d+)?(?:\s+(?:million|billion|thousand)\b)?|\b\d+(?:\.\d+)?(?:\s+(?:million|billion|thousand)\b)?`)

var defaultPatterns = []pattern{
	{label: LabelMoney, re: moneyRe},
	{label: LabelOrg, re: orgRe},
	{label: LabelFacility, re: streetRe},
	{label: LabelGPE, re: cityZipRe},
	{label: LabelGPE, re: cityStateRe},
	{label: LabelPerson, re: personRe, group: 1, trim: trimName},
	{label: LabelCardinal, re: cardinalRe},
}

// nonNameWords are capitalized words that rule out a person-name match.
var nonNameWords = map[string]bool{
	"The": true, "This": true, "Item": true, "Part": true, "Form": true, "Annual": true, "Report": true,
	"United": true, "States": true, "Securities": true, "Exchange": true, "Commission": true,
	"Board": true, "Directors": true, "Director": true, "Committee": true, "Chair": true, "Officer": true,
	"Chief": true, "Executive": true, "Financial": true, "Total": true, "Net": true, "Revenue": true,
	"Sales": true, "Company": true, "Corporation": true, "Statements": true, "Consolidated": true,
	"Street": true, "Avenue": true, "Road": true, "Suite": true, "Independent": true, "Registered": true,
	"Public": true, "Accounting": true, "Firm": true, "January": true, "February": true, "March": true,
	"April": true, "May": true, "June": true, "July": true, "August": true, "September": true,
	"October": true, "November": true, "December": true, "Our": true, "We": true, "In": true, "As": true,
	"New": true, "York": true, "Business": true, "Governance": true, "Information": true, "Notes": true,
	"Table": true, "Contents": true, "Fiscal": true, "Year": true, "Common": true, "Stock": true,
}

// trimName drops capitalized non-name words from either end of a match, so
// "Director John Smith" yields "John Smith". At least two words must remain.
func trimName(text string, start, end int) (int, int, bool) {
	type word struct{ start, end int }
	var words []word
	s := text[start:end]
	for i := 0; i < len(s); {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		j := i
		for j < len(s) && s[j] != ' ' && s[j] != '\t' {
			j++
		}
		if j > i {
			words = append(words, word{start + i, start + j})
		}
		i = j
	}
	isNoise := func(w word) bool {
		return nonNameWords[strings.TrimSuffix(text[w.start:w.end], ".")]
	}
	for len(words) > 0 && isNoise(words[0]) {
		words = words[1:]
	}
	for len(words) > 0 && isNoise(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	if len(words) < 2 {
		return 0, 0, false
	}
	for _, w := range words {
		if isNoise(w) {
			return 0, 0, false
		}
	}
	return words[0].start, words[len(words)-1].end, true
}

// RuleAnnotator is a deterministic, dependency-free annotator built from
// regular expressions. It stands in for an NLP model when none is configured.
type RuleAnnotator struct {
	patterns []pattern
}

// NewRuleAnnotator creates the built-in annotator.
func NewRuleAnnotator() *RuleAnnotator {
	return &RuleAnnotator{patterns: defaultPatterns}
}

// Annotate implements Annotator.
func (a *RuleAnnotator) Annotate(ctx context.Context, text string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var spans []Span
	claimed := func(start, end int) bool {
		for _, s := range spans {
			if start < s.End && s.Start < end {
				return true
			}
		}
		return false
	}

	for _, p := range a.patterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2*p.group], m[2*p.group+1]
			if start < 0 || end <= start {
				continue
			}
			if p.trim != nil {
				var ok bool
				if start, end, ok = p.trim(text, start, end); !ok {
					continue
				}
			}
			if claimed(start, end) {
				continue
			}
			spans = append(spans, Span{Label: p.label, Start: start, End: end})
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans, nil
}
