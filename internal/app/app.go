// Package app builds the long-lived services of one extraction run from
// configuration and owns their shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/aggregator"
	"github.com/JakeFAU/orgextract/internal/browser/headless"
	"github.com/JakeFAU/orgextract/internal/clock/system"
	"github.com/JakeFAU/orgextract/internal/config"
	"github.com/JakeFAU/orgextract/internal/enrich"
	"github.com/JakeFAU/orgextract/internal/extractor"
	"github.com/JakeFAU/orgextract/internal/id/uuid"
	"github.com/JakeFAU/orgextract/internal/metrics"
	"github.com/JakeFAU/orgextract/internal/navigator"
	"github.com/JakeFAU/orgextract/internal/orchestrator"
	"github.com/JakeFAU/orgextract/internal/patterns"
	"github.com/JakeFAU/orgextract/internal/people"
	"github.com/JakeFAU/orgextract/internal/policy/ratelimit"
	pubmemory "github.com/JakeFAU/orgextract/internal/publisher/memory"
	"github.com/JakeFAU/orgextract/internal/publisher/pubsub"
	"github.com/JakeFAU/orgextract/internal/selector"
	"github.com/JakeFAU/orgextract/internal/session"
	"github.com/JakeFAU/orgextract/internal/sink"
	"github.com/JakeFAU/orgextract/internal/sink/file"
	"github.com/JakeFAU/orgextract/internal/sink/postgres"
	"github.com/JakeFAU/orgextract/internal/sink/sheets"
	"github.com/JakeFAU/orgextract/internal/storage/gcs"
	"github.com/JakeFAU/orgextract/internal/storage/local"
	blobmemory "github.com/JakeFAU/orgextract/internal/storage/memory"
	"github.com/JakeFAU/orgextract/internal/telemetry"
	"github.com/JakeFAU/orgextract/internal/translate"
)

// Option customizes App construction.
type Option func(*options)

type options struct {
	browser extractor.Browser
	delays  navigator.DelayPolicy
}

// WithBrowser replaces the headless Chrome browser. The caller owns b.
func WithBrowser(b extractor.Browser) Option {
	return func(o *options) { o.browser = b }
}

// WithDelays replaces the configured pacing policy.
func WithDelays(p navigator.DelayPolicy) Option {
	return func(o *options) { o.delays = p }
}

// App holds all services of a run.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	orchestrator *orchestrator.Orchestrator
	session      *session.Controller
	sinks        *sink.Multi

	closers []func() error
	metrics *metrics.Server
}

// New wires every component from cfg. On error, anything already opened is
// released.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if cfg.Metrics.Enabled {
		srv, err := metrics.Start(cfg.Metrics.Addr, logger.Named("metrics"))
		if err != nil {
			return nil, err
		}
		a.metrics = srv
	}

	if cfg.Tracing.Enabled {
		if err := a.startTracing(ctx); err != nil {
			return nil, err
		}
	}

	browser := o.browser
	if browser == nil {
		chrome, err := headless.New(browserConfig(cfg.Browser), logger.Named("browser"))
		if err != nil {
			return nil, fmt.Errorf("start browser: %w", err)
		}
		a.closers = append(a.closers, func() error { chrome.Close(); return nil })
		browser = chrome
	}

	delays := o.delays
	if delays == nil {
		delays = navigator.ZeroPolicy{}
		if cfg.Pacing.Enabled {
			delays = navigator.NewRandomPolicy(cfg.Pacing.DelayRanges())
		}
	}
	navOpts := navigator.Options{
		ReadyTimeout: cfg.Browser.ReadyTimeout,
		Delays:       delays,
		Limiter:      ratelimit.New(ratelimit.Config{PerMinute: cfg.Pacing.PerMinute, Burst: cfg.Pacing.Burst}),
		Logger:       logger.Named("navigator"),
	}

	loginNav := navigator.New(browser, nil, navOpts)
	a.session = session.New(browser, loginNav, session.Credentials{
		Email:    cfg.Auth.Email,
		Password: cfg.Auth.Password,
	}, session.Config{
		LoginURL:     cfg.Auth.LoginURL,
		SubmitWait:   cfg.Auth.SubmitWait,
		FieldTimeout: cfg.Auth.FieldTimeout,
	}, logger.Named("session"))
	nav := navigator.New(browser, a.session, navOpts)

	resolver := selector.New(browser, logger.Named("selector"), selector.WithMissHook(func(f extractor.Field) {
		metrics.ObserveLookupAbsent(string(f))
	}))
	engine := people.New(browser, nav, resolver, logger.Named("people"))

	translator, err := a.buildTranslator(ctx)
	if err != nil {
		return nil, err
	}
	var enricher aggregator.Enricher
	if cfg.Enrich.Enabled {
		enricher = enrich.New(cfg.Enrich.Config, patterns.NewScanner(cfg.Patterns.EmailSkip), logger.Named("enrich"))
	}

	clock := system.New()
	agg := aggregator.New(browser, nav, resolver, engine, aggregator.Options{
		FounderKeywords:     cfg.People.FounderKeywords,
		EngineeringKeywords: cfg.People.EngineeringKeywords,
		People:              people.Options{PerKeyword: cfg.People.PerKeyword, Max: cfg.People.Max},
		MinParagraph:        cfg.Patterns.MinParagraph,
		Paragraphs:          cfg.Patterns.Paragraphs,
		JobCardsInspected:   cfg.Patterns.JobCardsInspected,
		EmailSkip:           cfg.Patterns.EmailSkip,
		Translator:          translator,
		Enricher:            enricher,
		Clock:               clock,
		Logger:              logger.Named("aggregator"),
	})

	if a.sinks, err = a.buildSinks(ctx); err != nil {
		return nil, err
	}
	snapshots, err := a.buildSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	publisher, err := a.buildPublisher(ctx)
	if err != nil {
		return nil, err
	}

	a.orchestrator = orchestrator.New(a.session, agg, nav, orchestrator.Options{
		Sink:           a.sinks,
		SinkName:       strings.Join(a.sinks.Names(), "+"),
		Snapshots:      snapshots,
		SnapshotPrefix: cfg.Snapshot.Prefix,
		Publisher:      publisher,
		Topic:          cfg.Publish.Topic,
		Clock:          clock,
		IDs:            uuid.New(),
		Logger:         logger.Named("orchestrator"),
	})
	return a, nil
}

// Run processes targets with one authenticated session.
func (a *App) Run(ctx context.Context, targets []extractor.Target) (orchestrator.Summary, error) {
	return a.orchestrator.Run(ctx, targets)
}

// SessionState reports the login state machine position.
func (a *App) SessionState() extractor.SessionState {
	return a.session.State()
}

// SessionReason explains a failed session.
func (a *App) SessionReason() string {
	return a.session.Reason()
}

// Close releases every opened resource in reverse order of creation.
func (a *App) Close() {
	if a.sinks != nil {
		if err := a.sinks.Close(); err != nil {
			a.logger.Warn("close sinks", zap.Error(err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close resource", zap.Error(err))
		}
	}
	a.closers = nil
	if a.metrics != nil {
		if err := a.metrics.Shutdown(context.Background()); err != nil {
			a.logger.Warn("metrics server shutdown", zap.Error(err))
		}
		a.metrics = nil
	}
}

func (a *App) startTracing(ctx context.Context) error {
	var extra []sdktrace.TracerProviderOption
	exporter, err := telemetry.Exporter(a.cfg.Tracing, os.Stderr)
	if err != nil {
		return err
	}
	if exporter != nil {
		extra = append(extra, exporter)
	}
	tp, err := telemetry.InitTracerProvider(ctx, a.cfg.Tracing, extra...)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, func() error { return tp.Shutdown(context.Background()) })
	return nil
}

func browserConfig(c config.BrowserConfig) headless.Config {
	return headless.Config{
		Headless:          c.Headless,
		UserAgent:         c.UserAgent,
		AcceptLanguage:    c.AcceptLanguage,
		WindowWidth:       c.WindowWidth,
		WindowHeight:      c.WindowHeight,
		ExecPath:          c.ExecPath,
		NavigationTimeout: c.NavigationTimeout,
		ActionTimeout:     c.ActionTimeout,
	}
}

func (a *App) buildTranslator(ctx context.Context) (extractor.Translator, error) {
	tc := a.cfg.Translate
	if !tc.Enabled {
		return nil, nil
	}
	google := translate.NewGoogle(translate.Config{
		BaseURL:   tc.BaseURL,
		Source:    tc.Source,
		Target:    tc.Target,
		Timeout:   tc.Timeout,
		UserAgent: a.cfg.Browser.UserAgent,
	})
	var cache translate.Cache
	switch tc.Cache {
	case "memory":
		cache = translate.NewMemoryCache()
	case "redis":
		redisCache, err := translate.DialRedis(ctx, tc.Redis.Addr, tc.Redis.Password, tc.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("connect translation cache: %w", err)
		}
		a.closers = append(a.closers, redisCache.Close)
		cache = redisCache
	default:
		return google, nil
	}
	return translate.WithCache(google, cache, tc.CacheTTL, "translate:"+google.Target(), a.logger.Named("translate")), nil
}

func (a *App) buildSinks(ctx context.Context) (*sink.Multi, error) {
	sc := a.cfg.Sink
	var named []sink.Named
	closeOpened := func() {
		_ = sink.NewMulti(named...).Close()
	}
	add := func(name string, s extractor.Sink, err error) error {
		if err != nil {
			closeOpened()
			return fmt.Errorf("open %s sink: %w", name, err)
		}
		named = append(named, sink.Named{Name: name, Sink: s})
		a.logger.Info("sink ready", zap.String("sink", name))
		return nil
	}
	for _, t := range sc.Types {
		var err error
		switch t {
		case "csv":
			s, openErr := file.OpenCSV(sc.CSV.Path)
			err = add(t, s, openErr)
		case "jsonl":
			s, openErr := file.OpenJSONL(sc.JSONL.Path)
			err = add(t, s, openErr)
		case "sheets":
			s, openErr := sheets.Open(ctx, sc.Sheets, a.logger.Named("sheets"))
			err = add(t, s, openErr)
		case "postgres":
			s, openErr := postgres.Open(ctx, sc.Postgres)
			err = add(t, s, openErr)
		default:
			closeOpened()
			err = fmt.Errorf("unknown sink type %q", t)
		}
		if err != nil {
			return nil, err
		}
	}
	if len(named) == 0 {
		return nil, errors.New("no sink configured")
	}
	return sink.NewMulti(named...), nil
}

func (a *App) buildSnapshots(ctx context.Context) (extractor.BlobStore, error) {
	sc := a.cfg.Snapshot
	if !sc.Enabled {
		return nil, nil
	}
	switch sc.Backend {
	case "local":
		store, err := local.New(sc.Local)
		if err != nil {
			return nil, fmt.Errorf("open snapshot directory: %w", err)
		}
		return store, nil
	case "gcs":
		store, err := gcs.Dial(ctx, sc.GCS)
		if err != nil {
			return nil, fmt.Errorf("open snapshot bucket: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case "memory":
		return blobmemory.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", sc.Backend)
	}
}

func (a *App) buildPublisher(ctx context.Context) (extractor.Publisher, error) {
	pc := a.cfg.Publish
	switch pc.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return pubmemory.New(), nil
	case "pubsub":
		pub, err := pubsub.Dial(ctx, pc.ProjectID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pub.Close)
		return pub, nil
	default:
		return nil, fmt.Errorf("unknown publish backend %q", pc.Backend)
	}
}
