package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/snagasawa/kabupost/internal/config"
	"github.com/snagasawa/kabupost/internal/fmp"
	"github.com/snagasawa/kabupost/internal/jpx"
	"github.com/snagasawa/kabupost/internal/refresh"
	"github.com/snagasawa/kabupost/internal/types"
	"github.com/snagasawa/kabupost/internal/universe"
)

var (
	configPath  = flag.String("config", "kabupost.toml", "path to the TOML config file")
	buildMaster = flag.Bool("master", false, "rebuild the JPX master list and exit")
	forceFull   = flag.Bool("force-full", false, "refresh every record regardless of weekday")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Fatal error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(cfg.Logging.Level),
		TimeFormat: "15:04:05",
		Writer:     &log.ConsoleWriter{ColorOutput: true, EndWithMessage: true},
		Context:    log.NewContext(nil).Str("run", uuid.NewString()[:8]).Value(),
	}

	ctx := context.Background()

	if *buildMaster {
		if err := rebuildMaster(ctx, cfg); err != nil {
			log.Error().Err(err).Msg("master rebuild failed")
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, *forceFull); err != nil {
		log.Error().Err(err).Msg("refresh failed")
		os.Exit(1)
	}
}

func rebuildMaster(ctx context.Context, cfg config.Config) error {
	records, err := jpx.NewBuilder(cfg.Refresh.ListingURL).BuildMaster(ctx)
	if err != nil {
		return err
	}
	if err := universe.Save(cfg.Data.MasterPath, records); err != nil {
		return err
	}
	log.Info().Int("records", len(records)).Str("path", cfg.Data.MasterPath).Msg("master rebuilt")
	return nil
}

func run(ctx context.Context, cfg config.Config, forceFull bool) error {
	master, err := universe.LoadMaster(cfg.Data.MasterPath)
	if err != nil {
		// No master list means there is nothing to refresh against.
		return err
	}

	cached, err := universe.Load(cfg.Data.UniversePath)
	if err != nil {
		if !errors.Is(err, types.ErrDataUnavailable) {
			return err
		}
		log.Info().Str("path", cfg.Data.UniversePath).Msg("no cached universe, starting cold")
		cached = nil
	}

	if cfg.FMP.APIKey == "" {
		log.Warn().Msg("FMP_API_KEY is not set, fetches will fail and cached values carry forward")
	}

	client := fmp.NewClient(cfg.FMP.BaseURL, cfg.FMP.APIKey)
	refresher := refresh.New(client, cfg.Refresh.FullWeekday, cfg.FetchDelay(), cfg.Location())

	now := time.Now()
	result, checked := refresher.Run(ctx, master, cached, now, forceFull)

	if err := universe.Save(cfg.Data.UniversePath, result); err != nil {
		return err
	}

	hi := universe.HighYield(result, cfg.Refresh.MinYield)
	log.Info().
		Int("checked", checked).
		Int("total", len(master)).
		Int("high_yield", len(hi)).
		Float64("min_yield", cfg.Refresh.MinYield).
		Msg("refresh complete")

	for i, r := range hi {
		if i >= 10 {
			break
		}
		log.Info().Str("code", r.Code).Str("name", r.Name).Float64("yield", *r.Yield).Msg("high-yield")
	}
	return nil
}
