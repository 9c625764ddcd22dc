package post

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/snagasawa/kabupost/internal/config"
	"github.com/snagasawa/kabupost/internal/types"
)

func newSynth() *Synthesizer {
	return NewSynthesizer(config.Default().Post)
}

func TestClassify(t *testing.T) {
	s := newSynth()

	assert.Equal(t, SentimentPositive, s.Classify("A社、上方修正を発表"))
	assert.Equal(t, SentimentNegative, s.Classify("B社、減配を発表"))
	assert.Equal(t, SentimentNeutral, s.Classify("C社、新しい社屋に移転"))
}

func TestClassifyPositivePrecedence(t *testing.T) {
	s := newSynth()
	// Both vocabularies hit; positive is checked first and wins.
	assert.Equal(t, SentimentPositive, s.Classify("増配と減損損失を同時に発表"))
}

func TestRenderWithinBudget(t *testing.T) {
	s := newSynth()
	c := types.Candidate{
		Title:   "トヨタ自動車、増配を発表",
		Summary: "トヨタ自動車は本日、増配を発表した。詳細は以下の通り。",
		Link:    "https://example.com/news/1",
	}

	out := s.Render(c, SentimentPositive)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 280)
	assert.Contains(t, out, "トヨタ自動車、増配を発表。")
	assert.Contains(t, out, "https://example.com/news/1")
	assert.Contains(t, out, "#日本株")
	assert.Contains(t, out, "#好材料")
}

func TestRenderTruncatesBodyOnly(t *testing.T) {
	s := newSynth()
	c := types.Candidate{
		Title:   strings.Repeat("長いタイトル", 40),
		Summary: strings.Repeat("長い概要", 40) + "。続き。",
		Link:    "https://example.com/news/2",
	}

	out := s.Render(c, SentimentNeutral)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 280, "output never exceeds the budget")
	assert.Contains(t, out, "https://example.com/news/2", "link must survive truncation verbatim")
	assert.Contains(t, out, "…", "truncation marks the cut point")
	assert.Contains(t, out, "#材料整理")
}

func TestRenderHashtagsPerSentiment(t *testing.T) {
	s := newSynth()
	c := types.Candidate{Title: "t", Summary: "s", Link: "https://example.com"}

	assert.Contains(t, s.Render(c, SentimentPositive), "#好材料")
	assert.Contains(t, s.Render(c, SentimentNegative), "#悪材料")
	assert.Contains(t, s.Render(c, SentimentNeutral), "#材料整理")
}

func TestBuildUsesFirstSentenceForSentiment(t *testing.T) {
	s := newSynth()
	c := types.Candidate{
		Title:   "D社に関するお知らせ",
		Summary: "上方修正を発表。その他の話題。",
		Link:    "https://example.com/news/3",
	}

	pc, sentiment := s.Build(context.Background(), c)
	assert.Equal(t, SentimentPositive, sentiment)
	assert.Contains(t, pc.Post, "上方修正を発表")
	assert.Equal(t, c.UID, pc.UID)
}

func TestBuildCommenterOverridesRemark(t *testing.T) {
	s := newSynth().WithCommenter(func(_ context.Context, _ types.Candidate, _ Sentiment) (string, error) {
		return "独自のコメントです。", nil
	})
	c := types.Candidate{Title: "E社、増配", Summary: "詳細。", Link: "https://example.com/4"}

	pc, _ := s.Build(context.Background(), c)
	assert.Contains(t, pc.Post, "独自のコメントです。")
}

func TestBuildCommenterFailureFallsBack(t *testing.T) {
	s := newSynth().WithCommenter(func(_ context.Context, _ types.Candidate, _ Sentiment) (string, error) {
		return "", errors.New("model unavailable")
	})
	c := types.Candidate{Title: "F社、増配", Summary: "詳細。", Link: "https://example.com/5"}

	pc, _ := s.Build(context.Background(), c)
	assert.Contains(t, pc.Post, "プラス材料", "canned positive remark expected")
}
