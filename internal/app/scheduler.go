/**
 * @description
 * Cron scheduler setup for the housekeeping jobs.
 */
package app

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// SchedulerConfig carries the cron expressions for the jobs.
type SchedulerConfig struct {
	ActivationPurgeSchedule string
	StaleReceiptSchedule    string
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	config SchedulerConfig
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, cfg SchedulerConfig) *Scheduler {
	cronLogger := cron.PrintfLogger(log.Default())
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.ActivationPurgeSchedule, s.jobs.PurgeExpiredActivations); err != nil {
		log.Printf("level=error component=scheduler msg=\"failed to schedule activation purge job\" err=%v", err)
	} else {
		log.Printf("level=info component=scheduler msg=\"scheduled activation purge job\" schedule=%q", s.config.ActivationPurgeSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.StaleReceiptSchedule, s.jobs.FlagStaleReceipts); err != nil {
		log.Printf("level=error component=scheduler msg=\"failed to schedule stale receipt job\" err=%v", err)
	} else {
		log.Printf("level=info component=scheduler msg=\"scheduled stale receipt job\" schedule=%q", s.config.StaleReceiptSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
