package fields

import (
	"github.com/a3tai/filing-extractor/internal/filing"
)

// Amount scoring.
const (
	RevenueWindow    = 30
	RevenueProximity = 0.7
	RevenueRecency   = 0.3
	SharesWindow     = 30
	EmployeesWindow  = 12
)

var revenueKeywords = keywords(
	"total revenues", "total revenue", "net revenues", "net revenue", "revenues", "revenue",
	"total net sales", "net sales", "turnover",
)

var sharesKeywords = keywords(
	"shares outstanding", "outstanding shares", "shares of common stock outstanding",
	"shares issued and outstanding", "shares traded", "trading volume", "shares of common stock",
)

var employeeKeywords = keywords("employees", "full-time employees", "colleagues", "employee headcount", "headcount")

// Revenue keeps Money spans in Financials sections near a revenue keyword.
// The score weighs keyword proximity with how late the mention appears in
// its section, so summary tables outrank narrative mentions.
func Revenue(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, toks *tokens) {
		hits := findKeywords(sec.Text, toks, revenueKeywords)
		if len(hits) == 0 {
			return
		}
		stated := StatedScale(sec.Text)
		for _, sp := range in.spansOf(sec, filing.EntityMoney) {
			first, last := toks.span(sp.Start, sp.End)
			p, ok := proximity(first, last, hits, RevenueWindow, Either)
			if !ok {
				continue
			}
			v, ok := amountIn(sec, sp, stated)
			if !ok {
				continue
			}
			recency := 0.0
			if len(sec.Text) > 0 {
				recency = float64(sp.Start) / float64(len(sec.Text))
			}
			out = append(out, amountCandidate(filing.FieldRevenue, sec, sp, v, RevenueProximity*p+RevenueRecency*recency))
		}
	}, filing.SectionFinancials)
	return out
}

// SharesTraded keeps Cardinal and Money spans in Financials and Cover
// sections near a share-count keyword.
func SharesTraded(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, toks *tokens) {
		hits := findKeywords(sec.Text, toks, sharesKeywords)
		if len(hits) == 0 {
			return
		}
		stated := StatedScale(sec.Text)
		for _, sp := range in.spansOf(sec, filing.EntityCardinal, filing.EntityMoney) {
			if isYear(sp.Text) || isDatePart(sec.Text, sp.Start) {
				continue
			}
			first, last := toks.span(sp.Start, sp.End)
			p, ok := proximity(first, last, hits, SharesWindow, Either)
			if !ok {
				continue
			}
			v, ok := amountIn(sec, sp, stated)
			if !ok {
				continue
			}
			out = append(out, amountCandidate(filing.FieldSharesTraded, sec, sp, v, p))
		}
	}, filing.SectionFinancials, filing.SectionCover)
	return out
}

// Employees keeps Cardinal spans near an employee keyword outside the Cover
// section. Years and day-of-month numbers are skipped.
func Employees(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, toks *tokens) {
		if sec.Kind == filing.SectionCover {
			return
		}
		hits := findKeywords(sec.Text, toks, employeeKeywords)
		if len(hits) == 0 {
			return
		}
		for _, sp := range in.spansOf(sec, filing.EntityCardinal) {
			if isYear(sp.Text) || isDatePart(sec.Text, sp.Start) {
				continue
			}
			first, last := toks.span(sp.Start, sp.End)
			p, ok := proximity(first, last, hits, EmployeesWindow, Either)
			if !ok {
				continue
			}
			v, ok := amountIn(sec, sp, 1)
			if !ok {
				continue
			}
			out = append(out, amountCandidate(filing.FieldEmployees, sec, sp, v, p))
		}
	})
	return out
}

// amountIn parses the number of a span. A scale word inside the span or
// right after it wins; otherwise the section's stated scale applies.
func amountIn(sec *filing.Section, sp filing.EntitySpan, stated float64) (float64, bool) {
	v, scaled, ok := ParseAmount(sp.Text)
	if !ok {
		return 0, false
	}
	if !scaled {
		if m := FollowingScale(sec.Text, sp.End); m != 1 {
			v *= m
		} else {
			v *= stated
		}
	}
	return v, true
}
