package fields

import (
	"regexp"
	"strings"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// Auditor report excerpt.
const (
	OpinionScore      = 0.9
	ReportScore       = 0.6
	ReportExcerptSize = 600
)

var auditReportHeading = regexp.MustCompile(`(?i)\b(?:report\s+of\s+independent\s+registered\s+public\s+accounting\s+firm|independent\s+auditors?['’]?\s+report|report\s+of\s+independent\s+auditors?)\b`)

var opinionHeading = regexp.MustCompile(`(?i)\bopinions?\s+on\s+the\s+(?:consolidated\s+)?financial\s+statements\b`)

// AuditorReport excerpts the auditor's opinion from Financials sections: the
// paragraph after "Opinion on the Financial Statements" when the report has
// one, otherwise the first paragraph after the report heading. The excerpt
// ends on a sentence boundary within ReportExcerptSize bytes.
func AuditorReport(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, _ *tokens) {
		heads := auditReportHeading.FindAllStringIndex(sec.Text, -1)
		for i, h := range heads {
			limit := len(sec.Text)
			if i+1 < len(heads) {
				limit = heads[i+1][0]
			}
			from, score := h[1], ReportScore
			if loc := opinionHeading.FindStringIndex(sec.Text[from:limit]); loc != nil {
				from, score = from+loc[1], OpinionScore
			}
			r, ok := excerpt(sec, from)
			if !ok {
				continue
			}
			text := filing.CollapseSpace(sec.Text[r.start:r.end])
			out = append(out, textCandidate(filing.FieldAuditorReport, sec, r.start, r.end, text, strings.ToLower(text), score))
		}
	}, filing.SectionFinancials)
	return out
}

// excerpt returns whole sentences of the first paragraph that starts at or
// after from, up to ReportExcerptSize bytes. At least one sentence of
// MinSentenceTokens tokens is required.
func excerpt(sec *filing.Section, from int) (textRange, bool) {
	for _, para := range paragraphs(sec) {
		if para.end <= from {
			continue
		}
		var (
			r     textRange
			found bool
		)
		for _, s := range sentences(sec.Text[:para.end], max(para.start, from)) {
			if found && s.end-r.start > ReportExcerptSize {
				break
			}
			if !found {
				r = s
				found = true
				continue
			}
			r.end = s.end
		}
		if !found {
			continue
		}
		if len(tokenRe.FindAllString(sec.Text[r.start:r.end], -1)) < MinSentenceTokens {
			return textRange{}, false
		}
		return r, true
	}
	return textRange{}, false
}
