package telemetry

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/sqtriage/sqsync/internal/sonarqube"
	"github.com/sqtriage/sqsync/internal/triage"
)

const trackerScopeName = "github.com/sqtriage/sqsync/sonarqube"

// InstrumentedTracker wraps triage.Tracker with OTel tracing and metrics.
// Every method gets a span and is counted in sqsync.sonarqube.* metrics.
// Use WrapTracker to create one; it returns the original tracker unchanged
// when telemetry is disabled.
type InstrumentedTracker struct {
	inner   triage.Tracker
	tracer  trace.Tracer
	ops     metric.Int64Counter
	dur     metric.Float64Histogram
	errs    metric.Int64Counter
	fetched metric.Int64Counter
}

// WrapTracker returns t decorated with OTel instrumentation.
func WrapTracker(t triage.Tracker) triage.Tracker {
	if !Enabled() {
		return t
	}
	m := Meter(trackerScopeName)
	ops, _ := m.Int64Counter("sqsync.sonarqube.operations",
		metric.WithDescription("Total SonarQube operations executed"),
	)
	dur, _ := m.Float64Histogram("sqsync.sonarqube.operation.duration",
		metric.WithDescription("SonarQube operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("sqsync.sonarqube.errors",
		metric.WithDescription("Total SonarQube operation errors"),
	)
	fetched, _ := m.Int64Counter("sqsync.issues.fetched",
		metric.WithDescription("Issues retrieved from SonarQube"),
	)
	return &InstrumentedTracker{
		inner:   t,
		tracer:  Tracer(trackerScopeName),
		ops:     ops,
		dur:     dur,
		errs:    errs,
		fetched: fetched,
	}
}

// op starts a span and records a metric for the named operation.
func (t *InstrumentedTracker) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("sonarqube.operation", name)}, attrs...)
	ctx, span := t.tracer.Start(ctx, "sonarqube."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	t.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (t *InstrumentedTracker) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	t.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func (t *InstrumentedTracker) FetchAllIssues(ctx context.Context, projectKey string, filter sonarqube.Filter) ([]sonarqube.Issue, error) {
	attrs := []attribute.KeyValue{
		attribute.String("sonarqube.project", projectKey),
		attribute.String("sonarqube.branch", filter.Branch),
	}
	ctx, span, start := t.op(ctx, "FetchAllIssues", attrs...)
	issues, err := t.inner.FetchAllIssues(ctx, projectKey, filter)
	span.SetAttributes(attribute.Int("sonarqube.issue.count", len(issues)))
	t.fetched.Add(ctx, int64(len(issues)), metric.WithAttributes(attrs...))
	t.done(ctx, span, start, err, attrs...)
	return issues, err
}

func (t *InstrumentedTracker) UpdateIssueResolution(ctx context.Context, issueKey string, resolution sonarqube.Resolution, comments []sonarqube.Comment, note string) error {
	attrs := []attribute.KeyValue{
		attribute.String("sonarqube.resolution", string(resolution)),
	}
	ctx, span, start := t.op(ctx, "UpdateIssueResolution", attrs...)
	span.SetAttributes(
		attribute.String("sonarqube.issue.key", issueKey),
		attribute.Int("sonarqube.comment.count", len(comments)),
	)
	err := t.inner.UpdateIssueResolution(ctx, issueKey, resolution, comments, note)
	t.done(ctx, span, start, err, attrs...)
	return err
}

func (t *InstrumentedTracker) AssignIssue(ctx context.Context, issueKey, assignee string) error {
	ctx, span, start := t.op(ctx, "AssignIssue")
	span.SetAttributes(
		attribute.String("sonarqube.issue.key", issueKey),
		attribute.String("sonarqube.assignee", assignee),
	)
	err := t.inner.AssignIssue(ctx, issueKey, assignee)
	t.done(ctx, span, start, err)
	return err
}

// HTTPTransport wraps base so every SonarQube request gets a client span.
// It returns base unchanged when telemetry is disabled.
func HTTPTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if !Enabled() {
		return base
	}
	return otelhttp.NewTransport(base)
}
