package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"salesInsight/pkg/logger"
)

type Runner interface {
	Run(ctx context.Context) (Result, error)
}

// Scheduler triggers a Runner on a cron spec. A run that is still going when
// the next tick fires makes that tick a no-op.
type Scheduler struct {
	cronEngine *cron.Cron
	runner     Runner
	spec       string
}

// NewScheduler returns a scheduler; an empty spec disables it.
func NewScheduler(runner Runner, spec string) *Scheduler {
	cl := cronLogger{log: logger.With("component", "cron")}
	return &Scheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		spec:   spec,
	}
}

func (s *Scheduler) Enabled() bool {
	return s.spec != ""
}

func (s *Scheduler) Start() error {
	if !s.Enabled() {
		logger.Info("refresh scheduler disabled")
		return nil
	}

	_, err := s.cronEngine.AddFunc(s.spec, func() {
		logger.Info("refresh triggered by schedule", "spec", s.spec)
		if _, err := s.runner.Run(context.Background()); err != nil {
			logger.Error("scheduled refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid REFRESH_CRON %q: %w", s.spec, err)
	}

	s.cronEngine.Start()
	logger.Info("refresh scheduler started", "spec", s.spec)
	return nil
}

// Stop waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	if !s.Enabled() {
		return
	}
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	logger.Info("refresh scheduler stopped")
}

// cronLogger routes cron's own messages into the process logger.
type cronLogger struct {
	log *logger.Scoped
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
