package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	authdomain "github.com/smallbiznis/storefront/internal/auth/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type recordedAudit struct {
	action    string
	actorType string
	metadata  map[string]any
}

type fakeAuditSvc struct {
	entries []recordedAudit
}

func (f *fakeAuditSvc) AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error {
	actorType, _ := obscontext.ActorFromContext(ctx)
	f.entries = append(f.entries, recordedAudit{action: action, actorType: actorType, metadata: metadata})
	return nil
}

func (f *fakeAuditSvc) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

func newTestScheduler(t *testing.T, cfg Config) (*Scheduler, *gorm.DB, *fakeAuditSvc) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&authdomain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	audit := &fakeAuditSvc{}
	s, err := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(testNow),
		AuditSvc: audit,
		Config:   cfg,
	})
	require.NoError(t, err)
	return s, conn, audit
}

func seedSession(t *testing.T, conn *gorm.DB, id int64, expiresAt time.Time, revokedAt *time.Time) {
	t.Helper()
	require.NoError(t, conn.Create(&authdomain.Session{
		ID:        snowflake.ID(id),
		UserID:    1001,
		TokenHash: snowflake.ID(id).String(),
		ExpiresAt: expiresAt,
		RevokedAt: revokedAt,
		CreatedAt: expiresAt.Add(-24 * time.Hour),
	}).Error)
}

func remainingSessionIDs(t *testing.T, conn *gorm.DB) []int64 {
	t.Helper()
	var ids []int64
	require.NoError(t, conn.Raw(`SELECT id FROM sessions ORDER BY id`).Scan(&ids).Error)
	return ids
}

func TestPurgeSessionsJobDeletesStaleSessions(t *testing.T) {
	s, conn, audit := newTestScheduler(t, Config{BatchSize: 2, SessionRetention: 24 * time.Hour})

	longAgo := testNow.Add(-72 * time.Hour)
	recent := testNow.Add(-2 * time.Hour)

	seedSession(t, conn, 1, longAgo, nil)
	seedSession(t, conn, 2, longAgo.Add(time.Hour), nil)
	seedSession(t, conn, 3, longAgo.Add(2*time.Hour), nil)
	seedSession(t, conn, 4, testNow.Add(24*time.Hour), &longAgo)
	seedSession(t, conn, 5, recent, nil)
	seedSession(t, conn, 6, testNow.Add(24*time.Hour), &recent)
	seedSession(t, conn, 7, testNow.Add(24*time.Hour), nil)

	err := s.runJob(context.Background(), jobPurgeSessions, s.cfg.BatchSize, time.Minute, s.PurgeSessionsJob)
	require.NoError(t, err)

	assert.Equal(t, []int64{5, 6, 7}, remainingSessionIDs(t, conn))
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "session.purge", audit.entries[0].action)
	assert.Equal(t, "system", audit.entries[0].actorType)
	assert.Equal(t, 4, audit.entries[0].metadata["count"])
}

func TestPurgeSessionsJobNothingToDo(t *testing.T) {
	s, conn, audit := newTestScheduler(t, Config{})
	seedSession(t, conn, 1, testNow.Add(time.Hour), nil)

	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, []int64{1}, remainingSessionIDs(t, conn))
	assert.Empty(t, audit.entries)
}

func TestRunOnceSkipsDisabledJobs(t *testing.T) {
	s, conn, _ := newTestScheduler(t, Config{EnabledJobs: []string{"something_else"}})
	seedSession(t, conn, 1, testNow.Add(-30*24*time.Hour), nil)

	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, []int64{1}, remainingSessionIDs(t, conn))
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{SessionRetention: -time.Hour}.withDefaults()
	assert.Equal(t, 5*time.Minute, cfg.RunInterval)
	assert.Equal(t, 500, cfg.BatchSize)
	assert.Equal(t, 72*time.Hour, cfg.SessionRetention)
}

func TestRunJobWrapsErrors(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	s := newBareScheduler(t)
	err := s.runJob(context.Background(), "failing_job", 0, time.Second, func(ctx context.Context) error {
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing_job: boom")
}

func TestRunJobTimeoutDoesNotReturnErrorAndIncrementsTimeout(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	obsmetrics.ResetSchedulerMetricsForTest()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{
		ServiceName: "storefront",
		Environment: "test",
	})

	s := newBareScheduler(t)
	err := s.runJob(context.Background(), "timeout_job", 0, 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	labels := map[string]string{
		"service": "storefront",
		"env":     "test",
		"job":     "timeout_job",
	}
	if got := getCounterValue(t, registry, "storefront_scheduler_job_timeouts_total", labels); got != 1 {
		t.Fatalf("expected timeout count 1, got %v", got)
	}

	errorLabels := map[string]string{
		"service": "storefront",
		"env":     "test",
		"job":     "timeout_job",
		"reason":  obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}
	if got := getCounterValue(t, registry, "storefront_scheduler_job_errors_total", errorLabels); got != 1 {
		t.Fatalf("expected error count 1, got %v", got)
	}
}

func newBareScheduler(t *testing.T) *Scheduler {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Scheduler{log: zap.NewNop(), genID: node, clock: clock.NewFakeClock(testNow)}
}

func swapPrometheusRegistry(registry *prometheus.Registry) func() {
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	obsmetrics.ResetSchedulerMetricsForTest()
	return func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		obsmetrics.ResetSchedulerMetricsForTest()
	}
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			if metric.Counter == nil {
				t.Fatalf("metric %s is not a counter", name)
			}
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
