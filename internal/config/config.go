/*
Package config loads the TOML configuration for the pipeline and refresh
binaries. Defaults reproduce the constants the bot has always run with, so an
empty file (or none at all) gives a working setup; secrets are only ever read
from the environment.
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Timezone string `toml:"timezone" validate:"required"`

	Data    DataConfig    `toml:"data"`
	Feeds   FeedsConfig   `toml:"feeds"`
	Matcher MatcherConfig `toml:"matcher"`
	Refresh RefreshConfig `toml:"refresh"`
	Post    PostConfig    `toml:"post"`
	X       XConfig       `toml:"x"`
	FMP     FMPConfig     `toml:"fmp"`
	AI      AIConfig      `toml:"ai"`
	Notify  NotifyConfig  `toml:"notify"`
	Logging LoggingConfig `toml:"logging"`
}

type DataConfig struct {
	MasterPath     string `toml:"master_path" validate:"required"`
	UniversePath   string `toml:"universe_path" validate:"required"`
	SeenPath       string `toml:"seen_path" validate:"required"`
	CandidatesPath string `toml:"candidates_path" validate:"required"`
	PostsPath      string `toml:"posts_path" validate:"required"`
}

type FeedsConfig struct {
	URLs   []string `toml:"urls" validate:"required,min=1,dive,url"`
	Window string   `toml:"window" validate:"required"` // e.g. "24h"
}

type MatcherConfig struct {
	Mode      string `toml:"mode" validate:"required,oneof=exact fuzzy"`
	Threshold int    `toml:"threshold" validate:"min=0,max=100"`
}

type RefreshConfig struct {
	MinYield float64 `toml:"min_yield" validate:"min=0"`
	// Weekday of the full refresh, Monday=0 .. Sunday=6 (the indexing the
	// cached data files were partitioned with).
	FullWeekday int    `toml:"full_weekday" validate:"min=0,max=6"`
	FetchDelay  string `toml:"fetch_delay" validate:"required"` // delay between yield fetches
	ListingURL  string `toml:"listing_url" validate:"required,url"`
}

type PostConfig struct {
	Limit            int      `toml:"limit" validate:"min=0"`
	Budget           int      `toml:"budget" validate:"min=50"` // rune budget per post
	Pause            string   `toml:"pause" validate:"required"`
	PositiveKeywords []string `toml:"positive_keywords"`
	NegativeKeywords []string `toml:"negative_keywords"`
	BaseHashtags     []string `toml:"base_hashtags"`
	// Daemon-mode cron schedule, in the configured timezone.
	Schedule string `toml:"schedule" validate:"required"`
}

// XConfig carries the OAuth 1.0a credentials for the X API. All four values
// come from the environment; posting is disabled when any is missing.
type XConfig struct {
	APIKey       string `toml:"-"`
	APISecret    string `toml:"-"`
	AccessToken  string `toml:"-"`
	AccessSecret string `toml:"-"`
}

func (x XConfig) Enabled() bool {
	return x.APIKey != "" && x.APISecret != "" && x.AccessToken != "" && x.AccessSecret != ""
}

type FMPConfig struct {
	BaseURL string `toml:"base_url" validate:"required,url"`
	APIKey  string `toml:"-"`
}

type AIConfig struct {
	Enabled bool   `toml:"enabled"`
	Model   string `toml:"model"`
	APIKey  string `toml:"-"`
}

type NotifyConfig struct {
	SMTPServer string `toml:"smtp_server"`
	SMTPPort   int    `toml:"smtp_port"`
	SMTPUser   string `toml:"smtp_user"`
	SMTPPass   string `toml:"-"`
	FromEmail  string `toml:"from_email"`
	ToEmail    string `toml:"to_email"`
}

func (n NotifyConfig) Enabled() bool {
	return n.SMTPServer != "" && n.SMTPUser != "" && n.SMTPPass != "" && n.ToEmail != ""
}

type LoggingConfig struct {
	Level string `toml:"level" validate:"required,oneof=trace debug info warn error"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Timezone: "Asia/Tokyo",
		Data: DataConfig{
			MasterPath:     "data/jpx_master.json",
			UniversePath:   "data/high_yield.json",
			SeenPath:       "data/cache/seen.json",
			CandidatesPath: "data/news_candidates.json",
			PostsPath:      "data/to_post.json",
		},
		Feeds: FeedsConfig{
			URLs: []string{
				"https://prtimes.jp/index.rdf",
				"https://www.atpress.ne.jp/rss/index.rdf",
			},
			Window: "24h",
		},
		Matcher: MatcherConfig{
			Mode:      "fuzzy",
			Threshold: 85,
		},
		Refresh: RefreshConfig{
			MinYield:    0.04,
			FullWeekday: 6, // Sunday
			FetchDelay:  "200ms",
			ListingURL:  "https://www.jpx.co.jp/markets/statistics-equities/misc/01.html",
		},
		Post: PostConfig{
			Limit:  1,
			Budget: 280,
			Pause:  "2s",
			PositiveKeywords: []string{
				"増配", "上方修正", "上方修", "最高益", "過去最高", "増益",
				"自社株買い", "自己株式取得", "株主還元強化",
				"大型受注", "長期契約", "新工場", "生産能力増強",
				"黒字転換", "通期予想据え置きで上期好調",
			},
			NegativeKeywords: []string{
				"減配", "無配", "配当中止",
				"下方修正", "下方修", "業績悪化",
				"赤字", "最終赤字", "営業赤字", "不正会計",
				"リコール", "火災", "事故",
				"公募増資", "新株発行", "希薄化",
				"特別損失", "減損損失",
			},
			BaseHashtags: []string{"日本株", "高配当株", "株式投資"},
			Schedule:     "0 8 * * *",
		},
		FMP: FMPConfig{
			BaseURL: "https://financialmodelingprep.com/stable",
		},
		AI: AIConfig{
			Model: "gemini-2.0-flash",
		},
		Notify: NotifyConfig{
			SMTPPort: 587,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path over the defaults, pulls secrets from the
// environment and validates the result. A missing file is fine; a malformed
// one is not.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Run on defaults.
		case err != nil:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.FMP.APIKey = os.Getenv("FMP_API_KEY")
	cfg.X.APIKey = os.Getenv("X_API_KEY")
	cfg.X.APISecret = os.Getenv("X_API_SECRET")
	cfg.X.AccessToken = os.Getenv("X_ACCESS_TOKEN")
	cfg.X.AccessSecret = os.Getenv("X_ACCESS_TOKEN_SECRET")
	cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.Notify.SMTPPass = os.Getenv("SMTP_PASSWORD")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	for name, raw := range map[string]string{
		"feeds.window":        c.Feeds.Window,
		"refresh.fetch_delay": c.Refresh.FetchDelay,
		"post.pause":          c.Post.Pause,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}
	return nil
}

// Location returns the configured reference time zone. Validate has already
// checked it parses.
func (c Config) Location() *time.Location {
	loc, _ := time.LoadLocation(c.Timezone)
	return loc
}

func (c Config) RecencyWindow() time.Duration {
	d, _ := time.ParseDuration(c.Feeds.Window)
	return d
}

func (c Config) FetchDelay() time.Duration {
	d, _ := time.ParseDuration(c.Refresh.FetchDelay)
	return d
}

func (c Config) PostPause() time.Duration {
	d, _ := time.ParseDuration(c.Post.Pause)
	return d
}
