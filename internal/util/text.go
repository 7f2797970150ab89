package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces   = regexp.MustCompile(`\s+`)
	reNonToken = regexp.MustCompile(`[^A-Z0-9/\s.\-]`)
)

// ColumnKey is the comparison key for column headers: NFKC folded, all
// whitespace (newlines included) removed, lower-cased.
func ColumnKey(input string) string {
	s := norm.NFKC.String(input)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.ToLower(s)
}

// NormalizeText upper-cases and collapses whitespace for free-text comparison.
func NormalizeText(input string) string {
	s := strings.ToUpper(norm.NFKC.String(input))
	s = reNonToken.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeID strips brackets and whitespace from a rule reference
// ("[LSLF1139C]" -> "LSLF1139C").
func NormalizeID(input string) string {
	s := strings.ToUpper(input)
	out := strings.Builder{}
	for _, r := range s {
		if r == '[' || r == ']' || unicode.IsSpace(r) {
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

func Tokenize(input string) []string {
	norm := NormalizeText(input)
	parts := strings.Split(norm, " ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len([]rune(p)) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}

func StringPtr(v string) *string { return &v }
