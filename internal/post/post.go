/*
Package post turns a matched news candidate into a short public post:
keyword-based sentiment, a sentiment-appropriate remark, link and hashtags,
all inside a fixed character budget.
*/
package post

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/phuslu/log"

	"github.com/snagasawa/kabupost/internal/config"
	"github.com/snagasawa/kabupost/internal/types"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// CommentFunc optionally generates the remark for a candidate. Any error
// falls back to the canned remark for the sentiment.
type CommentFunc func(ctx context.Context, c types.Candidate, sentiment Sentiment) (string, error)

type Synthesizer struct {
	positive  []string
	negative  []string
	baseTags  []string
	budget    int
	commenter CommentFunc
}

func NewSynthesizer(cfg config.PostConfig) *Synthesizer {
	return &Synthesizer{
		positive: cfg.PositiveKeywords,
		negative: cfg.NegativeKeywords,
		baseTags: cfg.BaseHashtags,
		budget:   cfg.Budget,
	}
}

// WithCommenter installs an optional remark generator (e.g. the AI one).
func (s *Synthesizer) WithCommenter(fn CommentFunc) *Synthesizer {
	s.commenter = fn
	return s
}

// Classify tests keyword membership, positive vocabulary first: a text
// containing both a positive and a negative keyword is positive. That
// precedence is deliberate and long-standing, not an accident.
func (s *Synthesizer) Classify(text string) Sentiment {
	for _, kw := range s.positive {
		if strings.Contains(text, kw) {
			return SentimentPositive
		}
	}
	for _, kw := range s.negative {
		if strings.Contains(text, kw) {
			return SentimentNegative
		}
	}
	return SentimentNeutral
}

func comment(sentiment Sentiment) string {
	switch sentiment {
	case SentimentPositive:
		return "中長期ではプラス材料となる可能性があり、成長や株主還元にポジティブに働きそうです。"
	case SentimentNegative:
		return "中長期ではややマイナス材料となる可能性があり、業績やバリュエーションへの注意が必要と考えられます。"
	default:
		return "中長期への影響は現時点では中立〜限定的と見ており、今後の継続的な開示や業績推移を注視したい内容です。"
	}
}

func (s *Synthesizer) hashtags(sentiment Sentiment) string {
	tags := make([]string, 0, len(s.baseTags)+1)
	tags = append(tags, s.baseTags...)
	switch sentiment {
	case SentimentPositive:
		tags = append(tags, "好材料")
	case SentimentNegative:
		tags = append(tags, "悪材料")
	default:
		tags = append(tags, "材料整理")
	}

	var b strings.Builder
	for i, tag := range tags {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString("#")
		b.WriteString(tag)
	}
	return b.String()
}

// firstSentence returns the summary up to the first 。.
func firstSentence(summary string) string {
	if i := strings.Index(summary, "。"); i >= 0 {
		return summary[:i]
	}
	return summary
}

// Build classifies the candidate and renders its post, using the installed
// commenter when one is set.
func (s *Synthesizer) Build(ctx context.Context, c types.Candidate) (types.PostCandidate, Sentiment) {
	first := firstSentence(c.Summary)
	sentiment := s.Classify(c.Title + " " + first)

	remark := comment(sentiment)
	if s.commenter != nil {
		if text, err := s.commenter(ctx, c, sentiment); err == nil && text != "" {
			remark = text
		} else if err != nil {
			log.Warn().Err(err).Msg("comment generation failed, using canned remark")
		}
	}

	return types.PostCandidate{
		Candidate: c,
		Post:      s.render(c, first, remark, sentiment),
	}, sentiment
}

// Render composes the post with the canned remark for the sentiment.
func (s *Synthesizer) Render(c types.Candidate, sentiment Sentiment) string {
	return s.render(c, firstSentence(c.Summary), comment(sentiment), sentiment)
}

// render enforces the budget by trimming the free-text portion only. The
// link-and-hashtags suffix is never cut; the trim point gets an ellipsis.
// The budget counts runes, not bytes.
func (s *Synthesizer) render(c types.Candidate, first, remark string, sentiment Sentiment) string {
	main := c.Title + "。" + first + "。"
	suffix := " 詳しく: " + c.Link + " " + s.hashtags(sentiment)

	text := main + remark + suffix
	if utf8.RuneCountInString(text) <= s.budget {
		return text
	}

	maxBody := s.budget - utf8.RuneCountInString(suffix) - 1
	body := main + remark
	if utf8.RuneCountInString(body) > maxBody {
		body = truncateRunes(body, maxBody-1) + "…"
	}
	return body + suffix
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
