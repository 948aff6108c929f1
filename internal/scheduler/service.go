package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/threadscout/engagement-bot/internal/models"
	"github.com/threadscout/engagement-bot/internal/notifications"
)

// DigestBuilder summarizes saved reply drafts for a period
type DigestBuilder interface {
	BuildDigest(ctx context.Context, period string) (*models.Digest, error)
}

// Service schedules the reply drafts digest. Discussion searches are never scheduled.
type Service struct {
	schedule string
	location *time.Location
	digests  DigestBuilder
	notifier notifications.NotificationInterface
	cron     *cron.Cron
}

// NewService creates a new scheduler service
func NewService(schedule string, location *time.Location, digests DigestBuilder, notifier notifications.NotificationInterface) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		schedule: schedule,
		location: location,
		digests:  digests,
		notifier: notifier,
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(location)),
	}
}

// cronExpression returns the cron expression for a schedule, or "" when disabled
func cronExpression(schedule string) string {
	switch schedule {
	case "daily":
		// Run daily at 9 AM
		return "0 0 9 * * *"
	case "weekly":
		// Run weekly on Monday at 9 AM
		return "0 0 9 * * MON"
	default:
		return ""
	}
}

// Start begins the scheduled digest. It does nothing when the schedule is off.
func (s *Service) Start() error {
	expression := cronExpression(s.schedule)
	if expression == "" {
		logrus.Info("Digest schedule disabled")
		return nil
	}

	_, err := s.cron.AddFunc(expression, func() {
		logrus.Info("Starting scheduled reply digest")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := s.RunDigest(ctx); err != nil {
			logrus.Errorf("Scheduled reply digest failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s digest schedule (%s)", s.schedule, s.location)
	return nil
}

// RunDigest builds and sends the digest for the configured period.
// Empty periods are skipped.
func (s *Service) RunDigest(ctx context.Context) error {
	digest, err := s.digests.BuildDigest(ctx, s.schedule)
	if err != nil {
		return fmt.Errorf("failed to build digest: %w", err)
	}

	if digest.TotalDrafts == 0 {
		logrus.Info("No reply drafts saved this period, skipping digest")
		return nil
	}

	if err := s.notifier.SendDigest(digest); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}

	logrus.Infof("Sent %s digest with %d reply drafts", s.schedule, digest.TotalDrafts)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
