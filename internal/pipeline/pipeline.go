/*
Package pipeline wires one batch run: fetch feeds, keep recent unseen items
that match the universe, write the candidate file, synthesize and publish at
most a handful of posts, then persist the seen set.
*/
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phuslu/log"

	"github.com/snagasawa/kabupost/internal/config"
	"github.com/snagasawa/kabupost/internal/feed"
	"github.com/snagasawa/kabupost/internal/match"
	"github.com/snagasawa/kabupost/internal/post"
	"github.com/snagasawa/kabupost/internal/seen"
	"github.com/snagasawa/kabupost/internal/types"
	"github.com/snagasawa/kabupost/internal/universe"
)

type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]types.NewsItem, error)
}

// Poster publishes one text payload and returns an opaque post id.
type Poster interface {
	Post(ctx context.Context, text string) (string, error)
}

type Pipeline struct {
	cfg      config.Config
	fetcher  Fetcher
	strategy match.Strategy
	seenSet  *seen.Manager
	synth    *post.Synthesizer
	// poster is nil in dry-run mode: posts are rendered and written but
	// nothing is sent and nothing is marked seen.
	poster Poster

	now func() time.Time
}

func New(cfg config.Config, fetcher Fetcher, strategy match.Strategy, seenSet *seen.Manager, synth *post.Synthesizer, poster Poster) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		strategy: strategy,
		seenSet:  seenSet,
		synth:    synth,
		poster:   poster,
		now:      time.Now,
	}
}

type Result struct {
	Candidates []types.Candidate
	Rendered   []types.PostCandidate
	PostedIDs  []string
}

// Run executes one batch to completion. A missing universe is fatal; a
// failing feed or a failing post is logged and skipped. A run with zero
// candidates is a normal, quiet success.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var result Result

	records, err := universe.Load(p.cfg.Data.UniversePath)
	if err != nil {
		return result, err
	}
	log.Info().Int("records", len(records)).Msg("universe loaded")

	loc := p.cfg.Location()
	window := p.cfg.RecencyWindow()
	now := p.now()

	for _, feedURL := range p.cfg.Feeds.URLs {
		items, err := p.fetcher.Fetch(ctx, feedURL)
		if err != nil {
			log.Warn().Str("feed", feedURL).Err(err).Msg("skipping feed")
			continue
		}

		for _, item := range items {
			if !feed.IsRecent(item, now, window, loc) {
				continue
			}
			if p.seenSet.Contains(item.UID) {
				continue
			}

			res := p.strategy.Match(item.Title+" "+item.Summary, records)
			if res == nil {
				continue
			}

			result.Candidates = append(result.Candidates, types.Candidate{
				UID:     item.UID,
				Code:    res.Record.Code,
				Name:    res.Record.Name,
				Title:   item.Title,
				Link:    item.Link,
				Summary: item.Summary,
			})
		}
	}

	if err := writeJSON(p.cfg.Data.CandidatesPath, candidatesOrEmpty(result.Candidates)); err != nil {
		return result, err
	}
	log.Info().Int("count", len(result.Candidates)).Msg("news candidates written")

	for _, c := range result.Candidates {
		if len(result.Rendered) >= p.cfg.Post.Limit {
			break
		}
		pc, sentiment := p.synth.Build(ctx, c)
		log.Info().Str("code", c.Code).Str("sentiment", string(sentiment)).Msg("post rendered")
		result.Rendered = append(result.Rendered, pc)
	}

	if err := writeJSON(p.cfg.Data.PostsPath, renderedOrEmpty(result.Rendered)); err != nil {
		return result, err
	}

	for _, pc := range result.Rendered {
		if p.poster == nil {
			log.Info().Str("code", pc.Code).Msg("dry run, not posting")
			continue
		}

		// Fixed pause before each publish, honoring the API's rate limits.
		select {
		case <-time.After(p.cfg.PostPause()):
		case <-ctx.Done():
			return result, ctx.Err()
		}

		id, err := p.poster.Post(ctx, pc.Post)
		if err != nil {
			log.Warn().Str("code", pc.Code).Err(err).Msg("post failed, skipping item")
			continue
		}

		log.Info().Str("id", id).Str("title", pc.Title).Msg("posted")
		p.seenSet.Add(pc.UID)
		result.PostedIDs = append(result.PostedIDs, id)
	}

	if err := p.seenSet.Save(); err != nil {
		return result, err
	}

	log.Info().
		Int("candidates", len(result.Candidates)).
		Int("posted", len(result.PostedIDs)).
		Msg("run complete")
	return result, nil
}

func candidatesOrEmpty(c []types.Candidate) []types.Candidate {
	if c == nil {
		return []types.Candidate{}
	}
	return c
}

func renderedOrEmpty(r []types.PostCandidate) []types.PostCandidate {
	if r == nil {
		return []types.PostCandidate{}
	}
	return r
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
