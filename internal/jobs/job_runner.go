package jobs

import (
	"fleet-rental-backend/internal/config"
	"fleet-rental-backend/internal/logger"
	"fleet-rental-backend/internal/repository"
	"fleet-rental-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	rental  service.RentalService
	history repository.HistoryRepository
	clock   service.Clock
	config  *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(rental service.RentalService, history repository.HistoryRepository, clock service.Clock, cfg *config.Config) *JobRunner {
	if clock == nil {
		clock = service.SystemClock{}
	}
	return &JobRunner{
		rental:  rental,
		history: history,
		clock:   clock,
		config:  cfg,
	}
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllDailyJobs runs every daily job once (for manual execution)
func (jr *JobRunner) RunAllDailyJobs() {
	jr.ExtendAvailabilityWindow()
	jr.ReportOverdueRentals()
}
