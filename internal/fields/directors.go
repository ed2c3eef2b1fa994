package fields

import (
	"strings"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// Director scoring.
const (
	DirectorBase   = 0.6
	DirectorBoost  = 0.3
	DirectorWindow = 20
)

// Senior management scoring. Officers are only taken from text following a
// management heading.
const (
	ManagementBase  = 0.5
	ManagementBoost = 0.4
	ManagementReach = 400
	OfficerWindow   = 12
)

var directorKeywords = keywords("director", "directors", "board", "chairman", "chairwoman", "chair", "trustee", "non-executive")

var managementKeywords = keywords(
	"executive officers of the registrant", "information about our executive officers",
	"information about executive officers", "executive officers", "senior management", "executive management",
)

var officerTitles = keywords(
	"chief executive officer", "chief financial officer", "chief operating officer", "chief accounting officer",
	"chief technology officer", "president", "executive vice president", "senior vice president", "vice president",
	"general counsel", "treasurer", "controller", "corporate secretary",
)

// directorNoise are words that mark a Person span as a title or body rather
// than a name.
var directorNoise = setOf("committee", "chair", "chairman", "director", "directors", "officer", "board", "secretary", "executive")

// people collects one mention per normalized name. The first mention is the
// evidence; the score is the best seen for that name.
type people struct {
	mentions []personMention
	index    map[string]int
}

type personMention struct {
	sec   *filing.Section
	span  filing.EntitySpan
	norm  string
	score float64
}

func (p *people) add(sec *filing.Section, sp filing.EntitySpan, norm string, score float64) {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	if i, ok := p.index[norm]; ok {
		p.mentions[i].score = max(p.mentions[i].score, score)
		return
	}
	p.index[norm] = len(p.mentions)
	p.mentions = append(p.mentions, personMention{sec: sec, span: sp, norm: norm, score: score})
}

func (p *people) candidates(field filing.FieldKind) []filing.FieldCandidate {
	out := make([]filing.FieldCandidate, 0, len(p.mentions))
	for _, m := range p.mentions {
		out = append(out, spanCandidate(field, m.sec, m.span, m.norm, m.score))
	}
	return out
}

// Directors returns one candidate per distinct person named in Governance
// sections, in order of first mention. Repeated mentions keep the highest
// score.
func Directors(in *Input) []filing.FieldCandidate {
	var found people
	in.sectionsOf(func(sec *filing.Section, toks *tokens) {
		hits := findKeywords(sec.Text, toks, directorKeywords)
		for _, sp := range in.spansOf(sec, filing.EntityPerson) {
			norm := NormalizeName(sp.Text)
			if !plausibleName(norm) {
				continue
			}
			first, last := toks.span(sp.Start, sp.End)
			score := DirectorBase
			if p, ok := proximity(first, last, hits, DirectorWindow, Either); ok {
				score += DirectorBoost * p
			}
			found.add(sec, sp, norm, score)
		}
	}, filing.SectionGovernance)
	return found.candidates(filing.FieldDirectors)
}

// SeniorManagement returns the people named within ManagementReach tokens
// after an executive-officers heading, in any section. Directors are left
// out; names next to an officer title score higher.
func SeniorManagement(in *Input) []filing.FieldCandidate {
	directors := make(map[string]bool)
	for _, c := range Directors(in) {
		directors[c.Normalized] = true
	}

	var found people
	in.sectionsOf(func(sec *filing.Section, toks *tokens) {
		headings := findKeywords(sec.Text, toks, managementKeywords)
		if len(headings) == 0 {
			return
		}
		titles := findKeywords(sec.Text, toks, officerTitles)
		for _, sp := range in.spansOf(sec, filing.EntityPerson) {
			norm := NormalizeName(sp.Text)
			if !plausibleName(norm) || directors[norm] {
				continue
			}
			first, last := toks.span(sp.Start, sp.End)
			if _, ok := proximity(first, last, headings, ManagementReach, Before); !ok {
				continue
			}
			score := ManagementBase
			if p, ok := proximity(first, last, titles, OfficerWindow, Either); ok {
				score += ManagementBoost * p
			}
			found.add(sec, sp, norm, score)
		}
	})
	return found.candidates(filing.FieldSeniorManagement)
}

func plausibleName(norm string) bool {
	words := strings.Fields(norm)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		if directorNoise[w] {
			return false
		}
	}
	return true
}
