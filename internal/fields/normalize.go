package fields

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// honorifics are dropped from the front of person names.
var honorifics = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true, "dr": true, "prof": true,
	"sir": true, "dame": true, "lord": true, "lady": true, "hon": true,
}

// foldName applies NFKC and Unicode case folding and reduces punctuation to
// spaces. Ampersands are kept; apostrophes are dropped.
func foldName(s string) []string {
	s = cases.Fold().String(norm.NFKC.String(s))
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '&':
			return r
		case r == '\'' || r == '’':
			return -1
		default:
			return ' '
		}
	}, s)
	return strings.Fields(s)
}

// NormalizeName folds a person name for comparison: "Mr. JOHN  Smith" and
// "john smith" normalize to the same value.
func NormalizeName(s string) string {
	words := foldName(s)
	for len(words) > 1 && honorifics[words[0]] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// NormalizeOrg folds an organization name for comparison.
func NormalizeOrg(s string) string {
	return strings.Join(foldName(s), " ")
}

// ScaleWords are the multipliers applied to amounts.
var ScaleWords = map[string]float64{
	"thousand": 1e3,
	"million":  1e6,
	"billion":  1e9,
	"trillion": 1e12,
}

var (
	numberRe      = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	scaleRe       = regexp.MustCompile(`(?i)\b(thousand|million|billion|trillion)s?\b`)
	nextScaleRe   = regexp.MustCompile(`(?i)^\s*(thousand|million|billion|trillion)s?\b`)
	statedScaleRe = regexp.MustCompile(`(?i)\(\s*(?:amounts\s+|dollars\s+|figures\s+)?in\s+(thousands|millions|billions)\b`)
	yearRe        = regexp.MustCompile(`^(19|20)\d{2}$`)
)

// ParseAmount reads the first number in text, strips currency symbols and
// thousands separators, and applies a scale word that follows the number
// ("$1.2 million" is 1200000). scaled reports whether a scale word was found.
func ParseAmount(text string) (value float64, scaled bool, ok bool) {
	loc := numberRe.FindStringIndex(text)
	if loc == nil {
		return 0, false, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(text[loc[0]:loc[1]], ",", ""), 64)
	if err != nil {
		return 0, false, false
	}
	if m := scaleRe.FindStringSubmatch(text[loc[1]:]); m != nil {
		v *= ScaleWords[strings.ToLower(m[1])]
		scaled = true
	}
	return v, scaled, true
}

// FollowingScale returns the multiplier of a scale word that immediately
// follows offset in text, or 1.
func FollowingScale(text string, offset int) float64 {
	if offset < 0 || offset > len(text) {
		return 1
	}
	if m := nextScaleRe.FindStringSubmatch(text[offset:]); m != nil {
		return ScaleWords[strings.ToLower(m[1])]
	}
	return 1
}

// StatedScale detects a statement-level unit note such as "(in millions)"
// and returns its multiplier, or 1.
func StatedScale(text string) float64 {
	m := statedScaleRe.FindStringSubmatch(text)
	if m == nil {
		return 1
	}
	return ScaleWords[strings.TrimSuffix(strings.ToLower(m[1]), "s")]
}

// RoundAmount rounds to cents.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount renders a normalized amount without exponent or trailing zeros.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// isYear reports whether a bare number looks like a calendar year.
func isYear(text string) bool {
	return yearRe.MatchString(strings.TrimSpace(text))
}
