package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	cleanupJobTimeout  = 2 * time.Minute
	auditRetentionDays = 90
)

// OTPCleaner removes expired password reset codes
type OTPCleaner interface {
	CleanupExpiredOTPs(ctx context.Context) (int64, error)
}

// AuditCleaner removes audit records past retention
type AuditCleaner interface {
	CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CronService manages scheduled background jobs
type CronService struct {
	cron   *cron.Cron
	otps   OTPCleaner
	audit  AuditCleaner
	logger *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(otps OTPCleaner, audit AuditCleaner, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:   cron.New(cron.WithSeconds()),
		otps:   otps,
		audit:  audit,
		logger: logger,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	// Cron format: second minute hour day month weekday
	if _, err := s.cron.AddFunc("0 */15 * * * *", s.cleanupExpiredOTPsJob); err != nil {
		return fmt.Errorf("failed to schedule OTP cleanup job: %w", err)
	}
	s.logger.Info("Scheduled: cleanup expired OTPs (every 15 minutes)")

	if _, err := s.cron.AddFunc("0 0 4 * * 0", s.cleanupAuditLogsJob); err != nil {
		return fmt.Errorf("failed to schedule audit cleanup job: %w", err)
	}
	s.logger.Info("Scheduled: cleanup old audit logs (Sundays at 4:00 AM)")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) cleanupExpiredOTPsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupJobTimeout)
	defer cancel()

	startTime := time.Now()
	deleted, err := s.otps.CleanupExpiredOTPs(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Failed to cleanup expired OTPs")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"deleted":  deleted,
		"duration": time.Since(startTime).String(),
	}).Info("[CRON] Cleaned up expired OTPs")
}

func (s *CronService) cleanupAuditLogsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupJobTimeout)
	defer cancel()

	startTime := time.Now()
	deleted, err := s.audit.CleanupOldAuditLogs(ctx, auditRetentionDays*24*time.Hour)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Failed to cleanup old audit logs")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"deleted":  deleted,
		"duration": time.Since(startTime).String(),
	}).Info("[CRON] Cleaned up old audit logs")
}

// RunCleanupNow runs both cleanup jobs immediately
func (s *CronService) RunCleanupNow() {
	s.logger.Info("[MANUAL] Running cleanup jobs now")
	s.cleanupExpiredOTPsJob()
	s.cleanupAuditLogsJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
