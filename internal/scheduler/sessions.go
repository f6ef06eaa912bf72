package scheduler

import (
	"context"
	"time"

	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	"go.uber.org/zap"
)

// PurgeSessionsJob deletes bearer sessions that expired or were revoked
// longer than the retention window ago.
func (s *Scheduler) PurgeSessionsJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)
	cutoff := s.clock.Now().Add(-s.cfg.SessionRetention)

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		deleted, err := s.purgeSessionBatch(ctx, cutoff, s.cfg.BatchSize)
		if err != nil {
			s.logSchedulerError(ctx, run, "scheduler.sessions.purge_failed", err,
				zap.Time("cutoff", cutoff),
			)
			return err
		}
		total += deleted
		run.AddProcessed(deleted)
		obsmetrics.Scheduler().AddBatchProcessed(jobPurgeSessions, "sessions", deleted)
		if deleted < s.cfg.BatchSize {
			break
		}
	}

	if total == 0 {
		return nil
	}
	s.recordPurge(ctx, total, cutoff)
	return nil
}

func (s *Scheduler) purgeSessionBatch(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT id FROM sessions
		WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)
		ORDER BY id
		LIMIT ?`,
		cutoff, cutoff, limit,
	).Scan(&ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).Exec(`DELETE FROM sessions WHERE id IN ?`, ids).Error; err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *Scheduler) recordPurge(ctx context.Context, count int, cutoff time.Time) {
	s.logger(ctx).Info("scheduler.sessions.purged",
		zap.Int("count", count),
		zap.Time("cutoff", cutoff),
	)
	if s.auditSvc == nil {
		return
	}
	err := s.auditSvc.AuditLog(ctx, "session.purge", "session", nil, map[string]any{
		"count":  count,
		"cutoff": cutoff.Format(time.RFC3339),
	})
	if err != nil {
		s.logger(ctx).Warn("scheduler.sessions.audit_failed", zap.Error(err))
	}
}
