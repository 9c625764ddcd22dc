/*
Package normalize canonicalizes company names and news text so the two can be
compared by substring or fuzzy score.
*/
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// Characters stripped from company names before matching: full-width and
// half-width parentheses and middle dots. Whitespace (including U+3000) is
// stripped alongside these.
const nameNoise = "（）()・･"

// One trailing corporate-suffix token is removed, case-insensitively. The
// list intentionally mirrors the data files already in circulation; note that
// （株） can never match because the bracket strip runs first.
var suffixRe = regexp.MustCompile(`(?i)(株式会社|（株）|Co\.?,?Ltd\.?|ホールディングス|HD)$`)

func isNoise(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(nameNoise, r)
}

// Name normalizes a company display name into its matching key. It is pure
// and total: empty or all-noise input yields the empty string.
func Name(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if !isNoise(r) {
			b.WriteRune(r)
		}
	}
	// Applied once, not recursively: a name with stacked suffixes keeps the
	// inner one.
	return suffixRe.ReplaceAllString(b.String(), "")
}

// Text normalizes free text for substring matching by removing every
// whitespace run entirely (not collapsing to a single space).
func Text(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
