package scheduler

import (
	"context"

	obsmetrics "github.com/smallbiznis/fieldwatch/internal/observability/metrics"
	"go.uber.org/zap"
)

// RefreshLockKey serialises refresh ticks across sensor-service replicas.
const RefreshLockKey = "fieldwatch:sensor_refresh:lock"

// acquireRefreshLock returns false when another replica holds the lock.
// Without redis, or when redis is unreachable, the tick proceeds unlocked.
func (s *Scheduler) acquireRefreshLock(ctx context.Context, run *jobRun) (func(), bool) {
	noop := func() {}
	if !s.locker.Enabled() {
		return noop, true
	}

	schedMetrics := obsmetrics.Scheduler()
	token, ok, err := s.locker.TryLock(ctx, RefreshLockKey, s.cfg.LockTTL)
	if err != nil {
		schedMetrics.IncBatchDeferred(JobSensorRefresh, obsmetrics.SchedulerBatchDeferredReasonLockFailure)
		s.logger(ctx).Warn("scheduler.lock.failed",
			zap.String("job", JobSensorRefresh),
			zap.String("key", RefreshLockKey),
			zap.Error(err),
		)
		return noop, true
	}
	if !ok {
		schedMetrics.IncBatchDeferred(JobSensorRefresh, obsmetrics.SchedulerBatchDeferredReasonLockHeld)
		s.logger(ctx).Debug("scheduler.lock.held",
			zap.String("job", JobSensorRefresh),
			zap.String("run_id", run.runID),
		)
		return noop, false
	}

	return func() {
		// release must outlive a timed-out job context
		releaseCtx := context.WithoutCancel(ctx)
		if err := s.locker.Release(releaseCtx, RefreshLockKey, token); err != nil {
			s.logger(ctx).Warn("scheduler.lock.release_failed", zap.Error(err))
		}
	}, true
}
