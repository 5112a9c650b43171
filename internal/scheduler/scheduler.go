package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/fueldepot/internal/config"
	"github.com/mamadbah2/fueldepot/internal/domain/models"
	"github.com/mamadbah2/fueldepot/internal/service/reporting"
)

const jobTimeout = 2 * time.Minute

// Reporter builds the end-of-day report and snapshot.
type Reporter interface {
	DailyReport(date time.Time) string
	SaveSnapshot(ctx context.Context, date time.Time) (models.StockSnapshot, error)
}

// Messenger delivers the daily report to the depot manager.
type Messenger interface {
	SendToManager(ctx context.Context, message string) error
}

// Scheduler runs the daily depot jobs.
type Scheduler struct {
	cron      *cron.Cron
	reporter  Reporter
	messenger Messenger
	schedule  string
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a scheduler firing on the configured cron schedule in
// the configured timezone. messenger may be nil when WhatsApp is disabled.
func NewScheduler(cfg config.ReportingConfig, reporter Reporter, messenger Messenger, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		reporter:  reporter,
		messenger: messenger,
		schedule:  cfg.CronSchedule,
		location:  loc,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start registers the daily job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDaily); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.location.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.RunDaily(ctx); err != nil {
		s.logger.Error("daily job failed", zap.Error(err))
	}
}

// RunDaily saves today's snapshot and sends the daily report. A missing
// snapshot store or manager number only skips that step.
func (s *Scheduler) RunDaily(ctx context.Context) error {
	today := s.now().In(s.location)
	s.logger.Info("running daily job", zap.String("date", today.Format("2006-01-02")))

	var errs []error

	if _, err := s.reporter.SaveSnapshot(ctx, today); err != nil {
		if errors.Is(err, reporting.ErrSnapshotsDisabled) {
			s.logger.Debug("snapshot skipped", zap.Error(err))
		} else {
			errs = append(errs, fmt.Errorf("snapshot: %w", err))
		}
	}

	if s.messenger == nil {
		s.logger.Debug("daily report not sent: messaging disabled")
		return errors.Join(errs...)
	}

	if err := s.messenger.SendToManager(ctx, s.reporter.DailyReport(today)); err != nil {
		errs = append(errs, fmt.Errorf("send daily report: %w", err))
	} else {
		s.logger.Info("daily report sent successfully")
	}

	return errors.Join(errs...)
}
