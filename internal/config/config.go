// Package config loads and validates extractor configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/JakeFAU/orgextract/internal/enrich"
	"github.com/JakeFAU/orgextract/internal/logging"
	"github.com/JakeFAU/orgextract/internal/navigator"
	"github.com/JakeFAU/orgextract/internal/people"
	"github.com/JakeFAU/orgextract/internal/sink/postgres"
	"github.com/JakeFAU/orgextract/internal/sink/sheets"
	"github.com/JakeFAU/orgextract/internal/storage/gcs"
	"github.com/JakeFAU/orgextract/internal/storage/local"
	"github.com/JakeFAU/orgextract/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g. ORGEXTRACT_AUTH_EMAIL.
const EnvPrefix = "ORGEXTRACT"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging   logging.Config   `mapstructure:"logging"`
	Auth      AuthConfig       `mapstructure:"auth"`
	Browser   BrowserConfig    `mapstructure:"browser"`
	Pacing    PacingConfig     `mapstructure:"pacing"`
	People    PeopleConfig     `mapstructure:"people"`
	Patterns  PatternsConfig   `mapstructure:"patterns"`
	Translate TranslateConfig  `mapstructure:"translate"`
	Sink      SinkConfig       `mapstructure:"sink"`
	Snapshot  SnapshotConfig   `mapstructure:"snapshot"`
	Publish   PublishConfig    `mapstructure:"publish"`
	Enrich    EnrichConfig     `mapstructure:"enrich"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
	Tracing   telemetry.Config `mapstructure:"tracing"`
	Targets   []string         `mapstructure:"targets" validate:"dive,url"`
}

// AuthConfig holds the account credentials and login flow timing.
type AuthConfig struct {
	Email        string        `mapstructure:"email" validate:"omitempty,email"`
	Password     string        `mapstructure:"password"`
	LoginURL     string        `mapstructure:"login_url" validate:"required,url"`
	SubmitWait   time.Duration `mapstructure:"submit_wait" validate:"gte=0"`
	FieldTimeout time.Duration `mapstructure:"field_timeout" validate:"gt=0"`
}

// BrowserConfig configures the headless Chrome session.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"`
	UserAgent         string        `mapstructure:"user_agent"`
	AcceptLanguage    string        `mapstructure:"accept_language"`
	WindowWidth       int           `mapstructure:"window_width" validate:"gt=0"`
	WindowHeight      int           `mapstructure:"window_height" validate:"gt=0"`
	ExecPath          string        `mapstructure:"exec_path"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" validate:"gt=0"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" validate:"gt=0"`
	ReadyTimeout      time.Duration `mapstructure:"ready_timeout" validate:"gt=0"`
}

// RangeConfig bounds one pacing delay.
type RangeConfig struct {
	Min time.Duration `mapstructure:"min" validate:"gte=0"`
	Max time.Duration `mapstructure:"max" validate:"gte=0"`
}

// PacingConfig controls human-like delays and the navigation rate limit.
type PacingConfig struct {
	Enabled   bool                   `mapstructure:"enabled"`
	PerMinute float64                `mapstructure:"per_minute" validate:"gte=0"`
	Burst     int                    `mapstructure:"burst" validate:"gte=0"`
	Ranges    map[string]RangeConfig `mapstructure:"ranges" validate:"dive"`
}

// PeopleConfig tunes the role-holder searches.
type PeopleConfig struct {
	FounderKeywords     []string `mapstructure:"founder_keywords"`
	EngineeringKeywords []string `mapstructure:"engineering_keywords"`
	PerKeyword          int      `mapstructure:"per_keyword" validate:"gt=0"`
	Max                 int      `mapstructure:"max" validate:"gt=0"`
}

// PatternsConfig tunes text heuristics.
type PatternsConfig struct {
	EmailSkip         []string `mapstructure:"email_skip"`
	MinParagraph      int      `mapstructure:"min_paragraph" validate:"gt=0"`
	Paragraphs        int      `mapstructure:"paragraphs" validate:"gt=0"`
	JobCardsInspected int      `mapstructure:"job_cards_inspected" validate:"gt=0"`
}

// RedisConfig addresses the translation cache server.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// TranslateConfig configures description translation.
type TranslateConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BaseURL  string        `mapstructure:"base_url" validate:"omitempty,url"`
	Source   string        `mapstructure:"source"`
	Target   string        `mapstructure:"target"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Cache    string        `mapstructure:"cache" validate:"oneof=none memory redis"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	Redis    RedisConfig   `mapstructure:"redis"`
}

// FileSinkConfig points a file sink at a path.
type FileSinkConfig struct {
	Path string `mapstructure:"path"`
}

// SinkConfig selects one or more record sinks.
type SinkConfig struct {
	Types    []string        `mapstructure:"types" validate:"min=1,dive,oneof=csv jsonl sheets postgres"`
	CSV      FileSinkConfig  `mapstructure:"csv"`
	JSONL    FileSinkConfig  `mapstructure:"jsonl"`
	Sheets   sheets.Config   `mapstructure:"sheets"`
	Postgres postgres.Config `mapstructure:"postgres"`
}

// Has reports whether the named sink is enabled.
func (s SinkConfig) Has(name string) bool {
	for _, t := range s.Types {
		if t == name {
			return true
		}
	}
	return false
}

// SnapshotConfig controls page snapshot archiving.
type SnapshotConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Backend string       `mapstructure:"backend" validate:"oneof=local gcs memory"`
	Prefix  string       `mapstructure:"prefix"`
	Local   local.Config `mapstructure:"local"`
	GCS     gcs.Config   `mapstructure:"gcs"`
}

// PublishConfig controls per-record event publishing.
type PublishConfig struct {
	Backend   string `mapstructure:"backend" validate:"oneof=none memory pubsub"`
	Topic     string `mapstructure:"topic"`
	ProjectID string `mapstructure:"project_id"`
}

// EnrichConfig controls website contact enrichment.
type EnrichConfig struct {
	enrich.Config `mapstructure:",squash"`

	Enabled bool `mapstructure:"enabled"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

// Load builds a Config from defaults, an optional file and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")

	v.SetDefault("auth.email", "")
	v.SetDefault("auth.password", "")
	v.SetDefault("auth.login_url", "https://www.linkedin.com/login")
	v.SetDefault("auth.submit_wait", "8s")
	v.SetDefault("auth.field_timeout", "10s")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.accept_language", "en-US,en;q=0.9")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.navigation_timeout", "45s")
	v.SetDefault("browser.action_timeout", "15s")
	v.SetDefault("browser.ready_timeout", "20s")

	v.SetDefault("pacing.enabled", true)
	v.SetDefault("pacing.per_minute", 20)
	v.SetDefault("pacing.burst", 2)
	for c, r := range navigator.DefaultRanges() {
		v.SetDefault("pacing.ranges."+c.String()+".min", r.Min.String())
		v.SetDefault("pacing.ranges."+c.String()+".max", r.Max.String())
	}

	v.SetDefault("people.founder_keywords", people.FounderKeywords)
	v.SetDefault("people.engineering_keywords", people.EngineeringKeywords)
	v.SetDefault("people.per_keyword", 5)
	v.SetDefault("people.max", 10)

	v.SetDefault("patterns.email_skip", []string{"noreply", "no-reply", "support", "help", "info@linkedin"})
	v.SetDefault("patterns.min_paragraph", 30)
	v.SetDefault("patterns.paragraphs", 2)
	v.SetDefault("patterns.job_cards_inspected", 10)

	v.SetDefault("translate.enabled", true)
	v.SetDefault("translate.base_url", "https://translate.google.com")
	v.SetDefault("translate.source", "auto")
	v.SetDefault("translate.target", "en")
	v.SetDefault("translate.timeout", "10s")
	v.SetDefault("translate.cache", "memory")
	v.SetDefault("translate.cache_ttl", "168h")
	v.SetDefault("translate.redis.addr", "localhost:6379")
	v.SetDefault("translate.redis.password", "")
	v.SetDefault("translate.redis.db", 0)

	v.SetDefault("sink.types", []string{"csv"})
	v.SetDefault("sink.csv.path", "data/organizations.csv")
	v.SetDefault("sink.jsonl.path", "data/organizations.jsonl")
	v.SetDefault("sink.sheets.spreadsheet_id", "")
	v.SetDefault("sink.sheets.sheet", "Sheet1")
	v.SetDefault("sink.sheets.credentials_file", "")
	v.SetDefault("sink.postgres.dsn", "")
	v.SetDefault("sink.postgres.table", "organization_records")
	v.SetDefault("sink.postgres.create_table", true)
	v.SetDefault("sink.postgres.max_conns", 2)
	v.SetDefault("sink.postgres.max_conn_lifetime", "30m")

	v.SetDefault("snapshot.enabled", false)
	v.SetDefault("snapshot.backend", "local")
	v.SetDefault("snapshot.prefix", "snapshots")
	v.SetDefault("snapshot.local.base_dir", "data")
	v.SetDefault("snapshot.gcs.bucket", "")
	v.SetDefault("snapshot.gcs.prefix", "")

	v.SetDefault("publish.backend", "none")
	v.SetDefault("publish.topic", "org-records")
	v.SetDefault("publish.project_id", "")

	v.SetDefault("enrich.enabled", false)
	v.SetDefault("enrich.max_pages", 3)
	v.SetDefault("enrich.timeout", "10s")
	v.SetDefault("enrich.user_agent", "")
	v.SetDefault("enrich.link_keywords", enrich.DefaultLinkKeywords)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "orgextract")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.exporter", "none")

	v.SetDefault("targets", []string{})
}

// Validate checks struct tags and the rules that span fields.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	var errs []error
	for name, r := range c.Pacing.Ranges {
		if r.Max < r.Min {
			errs = append(errs, fmt.Errorf("pacing.ranges.%s.max must be >= min", name))
		}
	}
	if c.Sink.Has("csv") && c.Sink.CSV.Path == "" {
		errs = append(errs, errors.New("sink.csv.path is required when the csv sink is enabled"))
	}
	if c.Sink.Has("jsonl") && c.Sink.JSONL.Path == "" {
		errs = append(errs, errors.New("sink.jsonl.path is required when the jsonl sink is enabled"))
	}
	if c.Sink.Has("sheets") && c.Sink.Sheets.SpreadsheetID == "" {
		errs = append(errs, errors.New("sink.sheets.spreadsheet_id is required when the sheets sink is enabled"))
	}
	if c.Sink.Has("postgres") && c.Sink.Postgres.DSN == "" {
		errs = append(errs, errors.New("sink.postgres.dsn is required when the postgres sink is enabled"))
	}
	if c.Snapshot.Enabled {
		switch c.Snapshot.Backend {
		case "local":
			if c.Snapshot.Local.BaseDir == "" {
				errs = append(errs, errors.New("snapshot.local.base_dir is required for the local backend"))
			}
		case "gcs":
			if c.Snapshot.GCS.Bucket == "" {
				errs = append(errs, errors.New("snapshot.gcs.bucket is required for the gcs backend"))
			}
		}
	}
	if c.Publish.Backend == "pubsub" && (c.Publish.ProjectID == "" || c.Publish.Topic == "") {
		errs = append(errs, errors.New("publish.project_id and publish.topic are required for the pubsub backend"))
	}
	if c.Translate.Enabled && c.Translate.Cache == "redis" && c.Translate.Redis.Addr == "" {
		errs = append(errs, errors.New("translate.redis.addr is required for the redis cache"))
	}
	return errors.Join(errs...)
}

// DelayRanges converts the configured ranges to navigator ranges. Unknown keys
// are ignored; missing contexts keep their defaults.
func (p PacingConfig) DelayRanges() map[navigator.Context]navigator.Range {
	ranges := navigator.DefaultRanges()
	for c := range ranges {
		if r, ok := p.Ranges[c.String()]; ok {
			ranges[c] = navigator.Range{Min: r.Min, Max: r.Max}
		}
	}
	return ranges
}
