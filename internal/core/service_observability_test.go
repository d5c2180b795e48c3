package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"recipebox/pkg/domain"
)

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

type spanRecord struct {
	op  string
	err error
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	for _, record := range c.ended {
		if record.op == op && (record.err == nil) == success {
			return true
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

type logRecord struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	records []logRecord
}

func (l *captureLogger) log(level, msg string, args []any) {
	l.records = append(l.records, logRecord{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.log("error", msg, args) }

func (l *captureLogger) count(level string) int {
	n := 0
	for _, r := range l.records {
		if r.level == level {
			n++
		}
	}
	return n
}

func TestServiceObservabilityCompliance(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	svc := newTestService(t,
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
	)

	mustAuthor(t, svc, "Ada", "ada@x.io")
	mustIngredient(t, svc, "Flour")
	mustRecipe(t, svc, "Bread", "Ada", "Flour")
	if _, err := svc.EditRecipe(ctx, "Bread", "Loaf", "", "Ada", []string{"Flour"}); err != nil {
		t.Fatalf("edit recipe: %v", err)
	}
	if _, err := svc.EditAuthor(ctx, "Ada", "Ada L", "ada@x.io"); err != nil {
		t.Fatalf("edit author: %v", err)
	}
	if _, err := svc.EditIngredient(ctx, "Flour", "Rye"); err != nil {
		t.Fatalf("edit ingredient: %v", err)
	}
	if _, err := svc.RemoveRecipe(ctx, "Loaf"); err != nil {
		t.Fatalf("remove recipe: %v", err)
	}
	if _, err := svc.RemoveIngredient(ctx, "Rye"); err != nil {
		t.Fatalf("remove ingredient: %v", err)
	}
	if _, err := svc.RemoveAuthor(ctx, "Ada L"); err != nil {
		t.Fatalf("remove author: %v", err)
	}

	expectations := []struct {
		op     string
		key    string
		entity EntityType
		action Action
	}{
		{OpAddAuthor, "Ada", EntityAuthor, ActionCreate},
		{OpAddIngredient, "Flour", EntityIngredient, ActionCreate},
		{OpAddRecipe, "Bread", EntityRecipe, ActionCreate},
		{OpEditRecipe, "Loaf", EntityRecipe, ActionUpdate},
		{OpEditAuthor, "Ada L", EntityAuthor, ActionUpdate},
		{OpEditIngredient, "Rye", EntityIngredient, ActionUpdate},
		{OpRemoveRecipe, "Loaf", EntityRecipe, ActionDelete},
		{OpRemoveIngredient, "Rye", EntityIngredient, ActionDelete},
		{OpRemoveAuthor, "Ada L", EntityAuthor, ActionDelete},
	}
	for _, exp := range expectations {
		if !audit.has(exp.op, AuditStatusSuccess, func(e AuditEntry) bool {
			return e.EntityKey == exp.key && e.Entity == exp.entity && e.Action == exp.action && e.ID != ""
		}) {
			t.Fatalf("expected audit entry for %s on %s", exp.op, exp.key)
		}
		if !metrics.has(exp.op, true) {
			t.Fatalf("expected metrics for %s", exp.op)
		}
		if !tracer.has(exp.op, true) {
			t.Fatalf("expected span for %s", exp.op)
		}
	}

	if _, err := svc.ListRecipes(ctx, RecipeFilter{}); err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if !metrics.has(OpListRecipes, true) || !tracer.has(OpListRecipes, true) {
		t.Fatalf("expected queries to be observed")
	}
	if audit.has(OpListRecipes, AuditStatusSuccess, nil) {
		t.Fatalf("queries must not be audited")
	}
	if len(tracer.started) != len(tracer.ended) {
		t.Fatalf("every span must end: %d started, %d ended", len(tracer.started), len(tracer.ended))
	}
}

func TestServiceObservabilityFailures(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	logger := &captureLogger{}
	svc := newTestService(t,
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(logger),
	)

	if _, err := svc.RemoveAuthor(ctx, "Ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !audit.has(OpRemoveAuthor, AuditStatusError, func(e AuditEntry) bool {
		return e.EntityKey == "Ghost" && e.Error != ""
	}) {
		t.Fatalf("expected failed audit entry, got %+v", audit.entries)
	}
	if !metrics.has(OpRemoveAuthor, false) || !tracer.has(OpRemoveAuthor, false) {
		t.Fatalf("expected failure to be observed")
	}

	if _, err := svc.AddIngredient(ctx, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if !metrics.has(OpAddIngredient, false) {
		t.Fatalf("validation failures must be observed")
	}
	if logger.count("warn") != 2 {
		t.Fatalf("expected one warning per failure, got %+v", logger.records)
	}

	_, err := svc.AuthorOf(ctx, Recipe{Author: "Ghost"})
	if err == nil || !tracer.has(OpAuthorOf, false) {
		t.Fatalf("expected failed query span, got %v", err)
	}
}

func TestServiceLogsSuccessAtDebug(t *testing.T) {
	logger := &captureLogger{}
	svc := newTestService(t, WithLogger(logger))
	mustAuthor(t, svc, "Ada", "ada@x.io")
	if logger.count("debug") != 1 || logger.count("warn") != 0 {
		t.Fatalf("unexpected log records %+v", logger.records)
	}
	rec := logger.records[0]
	if fmt.Sprint(rec.args[:4]) != "[operation add_author key Ada]" {
		t.Fatalf("unexpected log args %v", rec.args)
	}
}

func TestRecordAuditSuccessUsesMetadata(t *testing.T) {
	fixed := time.Date(2024, 10, 1, 8, 30, 0, 0, time.UTC)
	recorder := &captureAuditRecorder{}
	svc := NewService(NewMemoryStore(NewDefaultRulesEngine()),
		WithAuditRecorder(recorder),
		WithClock(ClockFunc(func() time.Time { return fixed })),
	)

	duration := 42 * time.Millisecond
	svc.recordAuditSuccess(context.Background(), OpAddAuthor, "Ada", duration)

	if len(recorder.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.Entity != domain.EntityAuthor || entry.Action != domain.ActionCreate {
		t.Fatalf("unexpected metadata %+v", entry)
	}
	if entry.EntityKey != "Ada" || entry.Status != AuditStatusSuccess || entry.Duration != duration {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if !entry.Timestamp.Equal(fixed) {
		t.Fatalf("expected timestamp %v, got %v", fixed, entry.Timestamp)
	}
}

func TestRecordAuditIgnoresUnknownOperation(t *testing.T) {
	recorder := &captureAuditRecorder{}
	svc := NewService(NewMemoryStore(nil), WithAuditRecorder(recorder))
	svc.recordAuditSuccess(context.Background(), "unknown_operation", "entity", time.Second)
	if len(recorder.entries) != 0 {
		t.Fatalf("expected no audit entries for unknown operation, got %d", len(recorder.entries))
	}
}

func TestNilOptionsKeepDefaults(t *testing.T) {
	svc := NewService(NewMemoryStore(nil),
		WithLogger(nil),
		WithClock(nil),
		WithAuditRecorder(nil),
		WithMetricsRecorder(nil),
		WithTracer(nil),
	)
	if svc.logger == nil || svc.clock == nil || svc.audit == nil || svc.metrics == nil || svc.tracer == nil {
		t.Fatalf("nil options must not clear defaults")
	}
	if _, err := svc.AddAuthor(context.Background(), "Ada", ""); err != nil {
		t.Fatalf("add author with defaults: %v", err)
	}
}

func TestNoopLogger(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("noop logger panicked: %v", r)
		}
	}()
	logger := noopLogger{}
	logger.Debug("msg", "k", "v")
	logger.Info("msg", "k", "v")
	logger.Warn("msg", "k", "v")
	logger.Error("msg", "k", "v")
}
