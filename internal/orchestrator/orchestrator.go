// Package orchestrator runs one extraction session over an ordered list of
// targets.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/aggregator"
	"github.com/JakeFAU/orgextract/internal/extractor"
	"github.com/JakeFAU/orgextract/internal/metrics"
	"github.com/JakeFAU/orgextract/internal/navigator"
)

// EventRecordExtracted is the topic event emitted per record.
const EventRecordExtracted = "record.extracted"

const tracerName = "github.com/JakeFAU/orgextract/internal/orchestrator"

var slugUnsafe = regexp.MustCompile(`[^a-z0-9-]+`)

// Authenticator establishes the session.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}

// Builder aggregates one target.
type Builder interface {
	Build(ctx context.Context, target extractor.Target) aggregator.Result
}

// Pacer pauses between run phases.
type Pacer interface {
	Pause(ctx context.Context, c navigator.Context) error
}

// Options wire the optional collaborators of a run.
type Options struct {
	Sink     extractor.Sink
	SinkName string

	Snapshots      extractor.BlobStore
	SnapshotPrefix string

	Publisher extractor.Publisher
	Topic     string

	Clock  extractor.Clock
	IDs    extractor.IDGenerator
	Logger *zap.Logger
	Tracer trace.Tracer
}

// Row summarizes one target.
type Row struct {
	Target   string
	Name     string
	Error    string
	Written  bool
	Snapshot string
	Duration time.Duration
}

// Summary describes a finished run.
type Summary struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Processed    int
	Written      int
	SinkFailures int
	Rows         []Row
}

// Failed counts targets whose record carries an error marker.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Rows {
		if r.Error != "" {
			n++
		}
	}
	return n
}

// Event is the payload published per record.
type Event struct {
	Type        string    `json:"type"`
	RunID       string    `json:"run_id"`
	Target      string    `json:"target"`
	Name        string    `json:"company_name"`
	Error       string    `json:"error,omitempty"`
	Written     bool      `json:"written"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Orchestrator sequences authentication, aggregation and persistence.
type Orchestrator struct {
	auth    Authenticator
	builder Builder
	pacer   Pacer
	opts    Options
	logger  *zap.Logger
	tracer  trace.Tracer
}

// New builds an Orchestrator.
func New(auth Authenticator, builder Builder, pacer Pacer, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SinkName == "" {
		opts.SinkName = "sink"
	}
	if opts.Topic == "" {
		opts.Topic = EventRecordExtracted
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	return &Orchestrator{auth: auth, builder: builder, pacer: pacer, opts: opts, logger: opts.Logger, tracer: opts.Tracer}
}

// Run authenticates once and processes targets in order. An authentication
// failure returns extractor.ErrAuthenticationFailed before any target is
// visited. A single target's failure never stops the run.
func (o *Orchestrator) Run(ctx context.Context, targets []extractor.Target) (Summary, error) {
	run, err := o.newRun()
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{RunID: run.ID, StartedAt: run.StartedAt}
	logger := o.logger.With(zap.String("run_id", run.ID))
	logger.Info("run started", zap.Int("targets", len(targets)))

	ctx, span := o.tracer.Start(ctx, "orchestrator.run", trace.WithAttributes(
		attribute.String("run.id", run.ID),
		attribute.Int("run.targets", len(targets)),
	))
	defer span.End()

	if err := o.auth.Authenticate(ctx); err != nil {
		summary.FinishedAt = o.now()
		span.SetStatus(codes.Error, "authentication failed")
		logger.Error("run aborted", zap.Error(err))
		if !errors.Is(err, extractor.ErrAuthenticationFailed) {
			err = fmt.Errorf("%w: %v", extractor.ErrAuthenticationFailed, err)
		}
		return summary, err
	}
	if err := o.pacer.Pause(ctx, navigator.PostLogin); err != nil {
		summary.FinishedAt = o.now()
		return summary, err
	}

	var runErr error
	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		summary.Rows = append(summary.Rows, o.process(ctx, run, i, target, logger, &summary))
		if i < len(targets)-1 {
			if err := o.pacer.Pause(ctx, navigator.Target); err != nil {
				runErr = err
				break
			}
		}
	}
	summary.FinishedAt = o.now()
	span.SetAttributes(
		attribute.Int("run.processed", summary.Processed),
		attribute.Int("run.written", summary.Written),
	)
	if runErr != nil {
		span.SetStatus(codes.Error, runErr.Error())
	}
	logger.Info("run finished",
		zap.Int("processed", summary.Processed),
		zap.Int("written", summary.Written),
		zap.Int("sink_failures", summary.SinkFailures),
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, runErr
}

func (o *Orchestrator) process(ctx context.Context, run extractor.Run, index int, target extractor.Target, logger *zap.Logger, summary *Summary) Row {
	start := time.Now()
	logger = logger.With(zap.String("target", target.String()))
	logger.Info("processing target", zap.Int("index", index+1))

	ctx, span := o.tracer.Start(ctx, "orchestrator.target", trace.WithAttributes(
		attribute.String("target.url", target.String()),
		attribute.Int("target.index", index+1),
	))
	defer span.End()

	res := o.builder.Build(ctx, target)
	rec := res.Record
	rec.RunID = run.ID
	summary.Processed++

	row := Row{Target: target.String(), Name: rec.Name, Error: rec.Err}
	row.Snapshot = o.archive(ctx, run, index, target, res.ProfileHTML, logger)

	if o.opts.Sink != nil {
		if err := o.opts.Sink.Append(ctx, rec); err != nil {
			summary.SinkFailures++
			metrics.ObserveSinkFailure(o.opts.SinkName)
			logger.Error("sink append failed", zap.Error(err))
		} else {
			row.Written = true
			summary.Written++
			metrics.ObserveRecordWritten(o.opts.SinkName)
		}
	}
	o.publish(ctx, run, rec, row.Written, logger)

	row.Duration = time.Since(start)
	outcome := "ok"
	if rec.Failed() {
		outcome = "error"
		span.SetStatus(codes.Error, rec.Err)
	}
	span.SetAttributes(attribute.Bool("record.written", row.Written))
	metrics.ObserveTarget(outcome, row.Duration)
	logger.Info("target done",
		zap.String("name", rec.Name),
		zap.Bool("written", row.Written),
		zap.String("error", rec.Err),
		zap.Duration("elapsed", row.Duration),
	)
	return row
}

func (o *Orchestrator) archive(ctx context.Context, run extractor.Run, index int, target extractor.Target, html string, logger *zap.Logger) string {
	if o.opts.Snapshots == nil || html == "" {
		return ""
	}
	name := fmt.Sprintf("%03d-%s.html", index+1, Slug(target))
	key := path.Join(o.opts.SnapshotPrefix, run.ID, name)
	uri, err := o.opts.Snapshots.PutObject(ctx, key, "text/html; charset=utf-8", strings.NewReader(html))
	if err != nil {
		logger.Warn("snapshot upload failed", zap.Error(err))
		return ""
	}
	return uri
}

func (o *Orchestrator) publish(ctx context.Context, run extractor.Run, rec extractor.Record, written bool, logger *zap.Logger) {
	if o.opts.Publisher == nil {
		return
	}
	event := Event{
		Type:        EventRecordExtracted,
		RunID:       run.ID,
		Target:      rec.SourceURL,
		Name:        rec.Name,
		Error:       rec.Err,
		Written:     written,
		ExtractedAt: rec.ExtractedAt,
	}
	if _, err := o.opts.Publisher.Publish(ctx, o.opts.Topic, event); err != nil {
		logger.Warn("publish failed", zap.Error(err))
	}
}

func (o *Orchestrator) newRun() (extractor.Run, error) {
	run := extractor.Run{StartedAt: o.now()}
	if o.opts.IDs == nil {
		run.ID = run.StartedAt.Format("20060102T150405Z")
		return run, nil
	}
	id, err := o.opts.IDs.NewID()
	if err != nil {
		return extractor.Run{}, fmt.Errorf("generate run id: %w", err)
	}
	run.ID = id
	return run, nil
}

func (o *Orchestrator) now() time.Time {
	if o.opts.Clock != nil {
		return o.opts.Clock.Now()
	}
	return time.Now().UTC()
}

// Slug returns a filesystem-safe name for target, derived from the last
// path segment of its main URL.
func Slug(target extractor.Target) string {
	main := strings.TrimSuffix(target.MainURL(), "/")
	slug := strings.ToLower(path.Base(main))
	slug = strings.Trim(slugUnsafe.ReplaceAllString(slug, "-"), "-")
	if slug == "" || slug == "." {
		return "target"
	}
	return slug
}
