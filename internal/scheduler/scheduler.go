package scheduler

import (
	"hostmaster/internal/services"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron           *cron.Cron
	renewalService *services.RenewalService
}

// NewScheduler creates a new scheduler
func NewScheduler(renewalService *services.RenewalService) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		renewalService: renewalService,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(checkInterval string) error {
	// Add scheduled job to scan all records
	_, err := s.cron.AddFunc(checkInterval, func() {
		log.Println("Starting scheduled renewal scan...")
		if err := s.renewalService.ScanAll(); err != nil {
			log.Printf("Scheduled scan failed: %v", err)
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Scheduler started with interval: %s", checkInterval)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}
