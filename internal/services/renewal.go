package services

import (
	"fmt"
	"hostmaster/internal/database"
	"hostmaster/internal/models"
	"log"
	"time"
)

// RenewalService watches hosting records for approaching and missed
// renewal dates.
type RenewalService struct {
	dueSoonDays int
}

// NewRenewalService creates a new renewal service
func NewRenewalService(dueSoonDays int) *RenewalService {
	if dueSoonDays <= 0 {
		dueSoonDays = 30
	}
	return &RenewalService{dueSoonDays: dueSoonDays}
}

// ScanAll walks every record, marks past-due unpaid ones as overdue and
// logs how many renewals fall inside the due-soon window. Invoice
// numbers are never assigned here; that stays behind the invoice policy.
func (s *RenewalService) ScanAll() error {
	db := database.GetDB()

	var records []models.HostingRecord
	if err := db.Find(&records).Error; err != nil {
		return fmt.Errorf("failed to fetch records: %w", err)
	}

	log.Printf("Scanning %d records for renewals...", len(records))

	now := time.Now()
	dueSoon := 0
	marked := 0

	for i := range records {
		record := &records[i]
		days, err := s.DaysUntilRenewal(record, now)
		if err != nil {
			continue
		}

		if days < 0 && record.PaymentStatus == models.PaymentUnpaid {
			record.PaymentStatus = models.PaymentOverdue
			if err := db.Save(record).Error; err != nil {
				log.Printf("Error marking record %s overdue: %v", record.ID, err)
				continue
			}
			marked++
			log.Printf("Record %s (%s) marked overdue: renewal was %s", record.ID, record.ClientName, record.ValidationDate)
			continue
		}

		if days >= 0 && days <= s.dueSoonDays {
			dueSoon++
		}
	}

	log.Printf("Renewal scan completed: %d due within %d days, %d marked overdue", dueSoon, s.dueSoonDays, marked)
	return nil
}

// DaysUntilRenewal returns whole days between now and the record's
// renewal date, negative when past due.
func (s *RenewalService) DaysUntilRenewal(record *models.HostingRecord, now time.Time) (int, error) {
	renewal, err := time.Parse("2006-01-02", record.ValidationDate)
	if err != nil {
		return 0, fmt.Errorf("invalid renewal date %q: %w", record.ValidationDate, err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(renewal.Sub(today).Hours() / 24), nil
}

// DueSoonWindow returns the configured window in days.
func (s *RenewalService) DueSoonWindow() int {
	return s.dueSoonDays
}
