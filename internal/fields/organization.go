package fields

import (
	"regexp"
	"strings"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// Company name scoring.
const (
	CoverWeight       = 1.0
	ElsewhereWeight   = 0.5
	PositionHalfLife  = 2000 // bytes from document start at which the decay halves the score
	ConsistencyBonus  = 0.2
	ConsistencyCount  = 2
	RegistrantBonus   = 0.2
	RegistrantWindow  = 6
	AuditorWindow     = 40
	KnownAuditorBonus = 0.05
	FormerNameWindow  = 8
)

var registrantLabel = keywords("exact name of registrant", "name of registrant", "exact name of the registrant")

var auditorKeywords = keywords(
	"independent registered public accounting firm",
	"independent auditors", "independent auditor",
	"auditors", "auditor", "audited by", "accounting firm",
)

var formerNameKeywords = keywords("formerly known as", "formerly", "former name", "previously known as")

// notCompanies are organizations that show up on filing covers but never
// name the registrant.
var notCompanies = setOf(
	"securities and exchange commission",
	"the securities and exchange commission",
	"nasdaq stock market llc",
	"the nasdaq stock market llc",
	"new york stock exchange",
	"the new york stock exchange",
)

// companyTypes map legal-form suffixes to a company type. Longer forms come
// first so "limited liability company" is not read as a corporation.
var companyTypes = []struct {
	suffix *regexp.Regexp
	kind   string
}{
	{regexp.MustCompile(`(?i)(?:\bplc|\bp\.l\.c|\bpublic\s+limited\s+company)\.?$`), "Public Limited Company"},
	{regexp.MustCompile(`(?i)(?:\bllc|\bl\.l\.c|\blimited\s+liability\s+company)\.?$`), "Limited Liability Company"},
	{regexp.MustCompile(`(?i)(?:\blp|\bl\.p|\blimited\s+partnership)\.?$`), "Limited Partnership"},
	{regexp.MustCompile(`(?i)\b(?:inc|incorporated|corp|corporation|co|company)\.?$`), "Corporation"},
	{regexp.MustCompile(`(?i)\b(?:ltd|limited)\.?$`), "Private Limited Company"},
}

// CompanyType returns the company type named by the legal suffix of name.
func CompanyType(name string) (string, bool) {
	name = strings.TrimRight(filing.CollapseSpace(name), " ,")
	for _, t := range companyTypes {
		if t.suffix.MatchString(name) {
			return t.kind, true
		}
	}
	return "", false
}

// KnownAuditors are audit firm name fragments, in normalized form.
var KnownAuditors = []string{
	"ernst & young", "pricewaterhousecoopers", "deloitte", "kpmg", "grant thornton", "bdo",
	"rsm", "mazars", "baker tilly", "moss adams", "bdo usa",
}

func isKnownAuditor(normalized string) bool {
	padded := " " + normalized + " "
	for _, a := range KnownAuditors {
		if strings.Contains(padded, " "+a+" ") {
			return true
		}
	}
	return false
}

// CompanyName scores Organization spans: Cover spans outrank the rest, the
// score decays with distance from the start of the document, and names seen
// repeatedly or next to the registrant label get a bonus.
func CompanyName(in *Input) []filing.FieldCandidate {
	seen := make(map[string]int)
	for _, spans := range in.Spans {
		for _, sp := range spans {
			if sp.Kind == filing.EntityOrganization {
				seen[NormalizeOrg(sp.Text)]++
			}
		}
	}

	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, toks *tokens) {
		labels := findKeywords(sec.Text, toks, registrantLabel)
		former := findKeywords(sec.Text, toks, formerNameKeywords)
		for _, sp := range in.spansOf(sec, filing.EntityOrganization) {
			norm := NormalizeOrg(sp.Text)
			if norm == "" || notCompanies[norm] {
				continue
			}
			first, last := toks.span(sp.Start, sp.End)
			if _, ok := proximity(first, last, former, FormerNameWindow, Before); ok {
				continue
			}
			weight := ElsewhereWeight
			if sec.Kind == filing.SectionCover {
				weight = CoverWeight
			}
			pos := float64(sec.DocOffset + sp.Start)
			score := weight / (1 + pos/PositionHalfLife)

			if seen[norm] >= ConsistencyCount {
				score += ConsistencyBonus
			}
			if _, ok := proximity(first, last, labels, RegistrantWindow, Either); ok {
				score += RegistrantBonus
			}
			out = append(out, spanCandidate(filing.FieldCompanyName, sec, sp, norm, score))
		}
	})
	return out
}

// TypeOfCompany derives the company type from the legal suffix of every
// company-name candidate, scored like the name it came from, so the type of
// the best-supported name wins.
func TypeOfCompany(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	for _, c := range CompanyName(in) {
		kind, ok := CompanyType(c.Value)
		if !ok || len(c.Spans) == 0 {
			continue
		}
		cand := spanCandidate(filing.FieldTypeOfCompany, &in.Sections[c.Section], c.Spans[0], strings.ToLower(kind), c.Score)
		cand.Value = kind
		out = append(out, cand)
	}
	return out
}

// Auditor keeps Organization spans in Financials and Governance that sit
// within AuditorWindow tokens of an auditor keyword; the score is the
// keyword proximity.
func Auditor(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, toks *tokens) {
		hits := findKeywords(sec.Text, toks, auditorKeywords)
		if len(hits) == 0 {
			return
		}
		for _, sp := range in.spansOf(sec, filing.EntityOrganization) {
			first, last := toks.span(sp.Start, sp.End)
			score, ok := proximity(first, last, hits, AuditorWindow, Either)
			if !ok {
				continue
			}
			norm := NormalizeOrg(sp.Text)
			if isKnownAuditor(norm) {
				score += KnownAuditorBonus
			}
			out = append(out, spanCandidate(filing.FieldAuditor, sec, sp, norm, score))
		}
	}, filing.SectionFinancials, filing.SectionGovernance)
	return out
}

// FormerName keeps Organization spans that follow a former-name keyword.
func FormerName(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, toks *tokens) {
		hits := findKeywords(sec.Text, toks, formerNameKeywords)
		if len(hits) == 0 {
			return
		}
		for _, sp := range in.spansOf(sec, filing.EntityOrganization) {
			first, last := toks.span(sp.Start, sp.End)
			score, ok := proximity(first, last, hits, FormerNameWindow, Before)
			if !ok {
				continue
			}
			out = append(out, spanCandidate(filing.FieldFormerName, sec, sp, NormalizeOrg(sp.Text), score))
		}
	})
	return out
}
