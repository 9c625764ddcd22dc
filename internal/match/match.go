/*
Package match decides whether a news item's text concerns a company in the
universe. Two interchangeable strategies exist: exact substring containment
and a fuzzy partial-ratio score. Both return at most one record.
*/
package match

import (
	"fmt"
	"strings"
	"unicode/utf8"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/snagasawa/kabupost/internal/normalize"
	"github.com/snagasawa/kabupost/internal/types"
)

// Result references the single best-matching record. Score is the fuzzy
// partial ratio (0-100); exact matches carry no score and leave it at zero.
type Result struct {
	Record *types.CompanyRecord
	Score  int
}

type Strategy interface {
	// Match returns the best match for text, or nil. It never modifies the
	// universe; an empty universe is simply no match.
	Match(text string, universe []types.CompanyRecord) *Result
}

// NewStrategy selects a strategy by configured mode. The threshold only
// applies to fuzzy mode.
func NewStrategy(mode string, threshold int) (Strategy, error) {
	switch mode {
	case "exact":
		return exactStrategy{}, nil
	case "fuzzy":
		return fuzzyStrategy{threshold: threshold}, nil
	default:
		return nil, fmt.Errorf("unknown matcher mode %q", mode)
	}
}

type exactStrategy struct{}

// Match tests each non-empty key for containment in the normalized text.
// When several keys are contained, the longest wins: a longer name is less
// likely to be a coincidental hit.
func (exactStrategy) Match(text string, universe []types.CompanyRecord) *Result {
	norm := normalize.Text(text)
	if norm == "" {
		return nil
	}

	var best *types.CompanyRecord
	bestLen := 0
	for i := range universe {
		r := &universe[i]
		if r.Key == "" {
			// Records whose name normalizes away entirely can never match
			// by substring.
			continue
		}
		if keyLen := utf8.RuneCountInString(r.Key); keyLen > bestLen && strings.Contains(norm, r.Key) {
			best = r
			bestLen = keyLen
		}
	}

	if best == nil {
		return nil
	}
	return &Result{Record: best}
}

type fuzzyStrategy struct {
	threshold int
}

// Match scores every record and keeps the single highest. Ties go to the
// record encountered first in universe order; callers must not rely on more
// than that. Below the threshold there is no match at all.
func (s fuzzyStrategy) Match(text string, universe []types.CompanyRecord) *Result {
	norm := normalize.Text(text)

	var best *types.CompanyRecord
	bestScore := 0
	for i := range universe {
		r := &universe[i]
		if score := fuzzy.PartialRatio(r.Key, norm); score > bestScore {
			best = r
			bestScore = score
		}
	}

	if best == nil || bestScore < s.threshold {
		return nil
	}
	return &Result{Record: best, Score: bestScore}
}
