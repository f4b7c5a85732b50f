package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/smallbiznis/fieldwatch/internal/clock"
	obsmetrics "github.com/smallbiznis/fieldwatch/internal/observability/metrics"
	sensordomain "github.com/smallbiznis/fieldwatch/internal/sensor/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sensorSvcStub struct {
	mu     sync.Mutex
	calls  int
	result sensordomain.RefreshResult
	err    error
	block  bool
}

func (s *sensorSvcStub) Refresh(ctx context.Context) (sensordomain.RefreshResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return sensordomain.RefreshResult{}, ctx.Err()
	}
	return s.result, s.err
}

func (s *sensorSvcStub) SeedCheckpoint(context.Context, *gorm.DB, snowflake.ID) ([]*sensordomain.Sensor, error) {
	return nil, nil
}

func (s *sensorSvcStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestScheduler(t *testing.T, svc sensordomain.Service, cfg Config) *Scheduler {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	s, err := New(Params{
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		SensorSvc: svc,
		Config:    cfg,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	if _, err := New(Params{Log: zap.NewNop()}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunJobTimeoutDoesNotReturnErrorAndIncrementsTimeout(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	obsmetrics.ResetSchedulerMetricsForTest()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{
		ServiceName: "fieldwatch",
		Environment: "test",
	})

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	s := &Scheduler{log: zap.NewNop(), genID: node, clock: clock.NewFakeClock(time.Time{})}
	err = s.runJob(context.Background(), "timeout_job", 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	labels := map[string]string{
		"service": "fieldwatch",
		"env":     "test",
		"job":     "timeout_job",
	}
	if got := getCounterValue(t, registry, "fieldwatch_scheduler_job_timeouts_total", labels); got != 1 {
		t.Fatalf("expected timeout count 1, got %v", got)
	}

	errorLabels := map[string]string{
		"service": "fieldwatch",
		"env":     "test",
		"job":     "timeout_job",
		"reason":  obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}
	if got := getCounterValue(t, registry, "fieldwatch_scheduler_job_errors_total", errorLabels); got != 1 {
		t.Fatalf("expected error count 1, got %v", got)
	}
}

func TestRunOnceRecordsProcessedReadings(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{ServiceName: "fieldwatch", Environment: "test"})

	stub := &sensorSvcStub{result: sensordomain.RefreshResult{Checkpoints: 2, Updated: 6, Created: 2}}
	s := newTestScheduler(t, stub, Config{})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if stub.Calls() != 1 {
		t.Fatalf("expected one refresh, got %d", stub.Calls())
	}

	labels := map[string]string{"service": "fieldwatch", "env": "test", "job": JobSensorRefresh, "resource": "sensor_updated"}
	if got := getCounterValue(t, registry, "fieldwatch_scheduler_batch_processed_total", labels); got != 6 {
		t.Fatalf("expected 6 updated readings, got %v", got)
	}
	runLabels := map[string]string{"service": "fieldwatch", "env": "test", "job": JobSensorRefresh}
	if got := getCounterValue(t, registry, "fieldwatch_scheduler_job_runs_total", runLabels); got != 1 {
		t.Fatalf("expected 1 run, got %v", got)
	}
}

func TestRunOnceWithoutCheckpointsDefers(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{ServiceName: "fieldwatch", Environment: "test"})

	s := newTestScheduler(t, &sensorSvcStub{}, Config{})
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	labels := map[string]string{"service": "fieldwatch", "env": "test", "job": JobSensorRefresh, "reason": obsmetrics.SchedulerBatchDeferredReasonNoWork}
	if got := getCounterValue(t, registry, "fieldwatch_scheduler_batch_deferred_total", labels); got != 1 {
		t.Fatalf("expected 1 deferred tick, got %v", got)
	}
}

func TestRunOnceReturnsRefreshError(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	boom := errors.New("db down")
	s := newTestScheduler(t, &sensorSvcStub{err: boom}, Config{})

	err := s.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped refresh error, got %v", err)
	}
}

func TestRunOnceSkipsDisabledJobs(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	stub := &sensorSvcStub{}
	s := newTestScheduler(t, stub, Config{EnabledJobs: []string{"something_else"}})
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if stub.Calls() != 0 {
		t.Fatalf("expected refresh to be skipped, got %d calls", stub.Calls())
	}
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	stub := &sensorSvcStub{}
	s := newTestScheduler(t, stub, Config{RunInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RunForever(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for stub.Calls() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least two ticks, got %d", stub.Calls())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not stop")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.RunInterval != 10*time.Second {
		t.Fatalf("expected 10s interval, got %v", cfg.RunInterval)
	}
	if cfg.LockTTL <= 0 {
		t.Fatalf("expected positive lock ttl, got %+v", cfg)
	}
	if cfg.JobTimeout != 0 {
		t.Fatalf("expected no job timeout by default, got %v", cfg.JobTimeout)
	}
}

func TestStartStop(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	stub := &sensorSvcStub{}
	s := newTestScheduler(t, stub, Config{RunInterval: time.Millisecond})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for stub.Calls() < 1 {
		select {
		case <-deadline:
			t.Fatal("expected at least one tick")
		case <-time.After(time.Millisecond):
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}

	calls := stub.Calls()
	time.Sleep(10 * time.Millisecond)
	if stub.Calls() != calls {
		t.Fatalf("expected no ticks after stop, got %d then %d", calls, stub.Calls())
	}
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
