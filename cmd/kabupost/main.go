package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"github.com/snagasawa/kabupost/internal/ai"
	"github.com/snagasawa/kabupost/internal/config"
	"github.com/snagasawa/kabupost/internal/feed"
	"github.com/snagasawa/kabupost/internal/match"
	"github.com/snagasawa/kabupost/internal/notify"
	"github.com/snagasawa/kabupost/internal/pipeline"
	"github.com/snagasawa/kabupost/internal/post"
	"github.com/snagasawa/kabupost/internal/seen"
	"github.com/snagasawa/kabupost/internal/types"
)

var (
	configPath = flag.String("config", "kabupost.toml", "path to the TOML config file")
	dryRun     = flag.Bool("dry-run", false, "render posts without publishing or marking anything seen")
	daemon     = flag.Bool("daemon", false, "keep running on the configured cron schedule")
	mode       = flag.String("mode", "", "override the matcher mode (exact|fuzzy)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Fatal error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Matcher.Mode = *mode
		if err := cfg.Validate(); err != nil {
			fmt.Printf("Fatal error: %v\n", err)
			os.Exit(1)
		}
	}

	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(cfg.Logging.Level),
		TimeFormat: "15:04:05",
		Writer:     &log.ConsoleWriter{ColorOutput: true, EndWithMessage: true},
	}

	if *daemon {
		c := cron.New(cron.WithLocation(cfg.Location()))
		if _, err := c.AddFunc(cfg.Post.Schedule, func() {
			if err := runOnce(cfg, *dryRun); err != nil {
				log.Error().Err(err).Msg("scheduled run failed")
			}
		}); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Post.Schedule).Msg("invalid cron schedule")
		}
		log.Info().Str("schedule", cfg.Post.Schedule).Str("tz", cfg.Timezone).Msg("daemon started")
		c.Run()
		return
	}

	if err := runOnce(cfg, *dryRun); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func runOnce(cfg config.Config, dryRun bool) error {
	ctx := context.Background()
	runLogger := log.DefaultLogger
	runLogger.Context = log.NewContext(nil).Str("run", uuid.NewString()[:8]).Value()
	log.DefaultLogger = runLogger

	strategy, err := match.NewStrategy(cfg.Matcher.Mode, cfg.Matcher.Threshold)
	if err != nil {
		return err
	}

	seenSet, err := seen.NewManager(cfg.Data.SeenPath)
	if err != nil {
		return err
	}

	synth := post.NewSynthesizer(cfg.Post)
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		synth.WithCommenter(func(ctx context.Context, c types.Candidate, s post.Sentiment) (string, error) {
			return ai.GenerateComment(ctx, cfg.AI.APIKey, cfg.AI.Model, c, string(s))
		})
	}

	var poster pipeline.Poster
	switch {
	case dryRun:
		log.Info().Msg("dry run: posts will be rendered but not published")
	case !cfg.X.Enabled():
		log.Warn().Msg("X credentials missing, falling back to dry run")
	default:
		poster = post.NewXClient(cfg.X)
	}

	result, err := pipeline.New(cfg, feed.NewFetcher(), strategy, seenSet, synth, poster).Run(ctx)
	if err != nil {
		return err
	}

	notify.EmailDigest(cfg.Notify, result.Candidates, result.Rendered, result.PostedIDs)
	return nil
}
