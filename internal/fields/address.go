package fields

import (
	"regexp"
	"strings"

	"github.com/a3tai/filing-extractor/internal/filing"
)

// Address scoring.
const (
	AddressBase          = 0.6
	StreetBonus          = 0.3
	ExecutiveOfficeBonus = 0.1
	maxAddressBlock      = 120
)

// postalCodeRe matches US ZIP codes and UK postcodes.
var postalCodeRe = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b|\b[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}\b`)

var streetRe = regexp.MustCompile(`(?i)\b(?:street|st\.|avenue|ave\.|road|rd\.|boulevard|blvd\.|drive|dr\.|way|lane|ln\.|plaza|parkway|pkwy|court|ct\.|place|suite|floor|square|circle|highway|hwy)`)

var executiveOfficeRe = regexp.MustCompile(`(?i)principal\s+executive\s+offices?|registered\s+office|headquarters`)

// Address keeps Location spans in Cover and Governance sections whose block,
// or the block after it, holds a postal code. The value is the address line
// itself when the block is short enough to be one.
func Address(in *Input) []filing.FieldCandidate {
	var out []filing.FieldCandidate
	in.sectionsOf(func(sec *filing.Section, _ *tokens) {
		for _, sp := range in.spansOf(sec, filing.EntityLocation) {
			cur, next := blockOf(sec, sp.Start)
			var lines []string
			switch {
			case postalCodeRe.MatchString(cur):
				lines = []string{cur}
			case postalCodeRe.MatchString(next):
				lines = []string{cur, next}
			default:
				continue
			}

			score := AddressBase
			if streetRe.MatchString(sp.Text) || streetRe.MatchString(cur) {
				score += StreetBonus
			}
			if executiveOfficeRe.MatchString(cur) || executiveOfficeRe.MatchString(next) ||
				executiveOfficeRe.MatchString(previousBlock(sec, sp.Start)) {
				score += ExecutiveOfficeBonus
			}

			value := sp.Text
			if joined := joinAddress(lines); len(joined) <= maxAddressBlock {
				value = joined
			}
			c := spanCandidate(filing.FieldAddress, sec, sp, strings.ToLower(value), score)
			c.Value = value
			out = append(out, c)
		}
	}, filing.SectionCover, filing.SectionGovernance)
	return out
}

func previousBlock(sec *filing.Section, offset int) string {
	return sec.BlockText(sec.BlockAt(offset) - 1)
}

// joinAddress joins address lines with ", " and drops label noise such as
// "(Address of principal executive offices)".
func joinAddress(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		l = executiveOfficeLabelRe.ReplaceAllString(l, "")
		l = strings.Trim(filing.CollapseSpace(l), " ,;")
		if l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, ", ")
}

var executiveOfficeLabelRe = regexp.MustCompile(`(?i)\(\s*address[^)]*\)`)
