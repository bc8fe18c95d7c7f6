package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is a background task run on a cron cadence.
type Job interface {
	Name() string
	Run() error
}

// Scheduler manages background jobs. A job failure is logged, never fatal.
type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// Stop waits for any running job to finish before returning.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// AddJob registers the job under a standard cron spec, e.g. "0 3 * * *"
// for every day at 03:00.
func (s *Scheduler) AddJob(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job.Run(); err != nil {
			slog.Error("scheduled job failed", "job", job.Name(), "error", err)
			return
		}

		slog.Debug("scheduled job completed", "job", job.Name())
	})
	if err != nil {
		return err
	}

	slog.Info("scheduled job registered", "job", job.Name(), "spec", spec)

	return nil
}
