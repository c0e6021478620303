// Package state is the in-memory source of truth for a UI session. It
// reconciles with the record store opportunistically: mutations apply
// locally first and persist in the background, and a failed persist
// never rolls the local copy back; it only raises a notification.
package state

import (
	"context"
	"fmt"
	"hostmaster/internal/localstore"
	"hostmaster/internal/models"
	"hostmaster/internal/services"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// persistTimeout bounds each background sync call.
const persistTimeout = 15 * time.Second

// Snapshots is the local cache consulted when the store is unreachable.
// localstore.Store satisfies it.
type Snapshots interface {
	Write(key string, v any) error
	Read(key string, v any) error
}

// State holds the session's records, settings, team, dropdown options
// and notifications.
type State struct {
	mu    sync.Mutex
	wg    sync.WaitGroup
	store Store
	cache Snapshots

	assistant *services.AssistantService
	policy    services.InvoicePolicy

	records       []models.HostingRecord
	settings      models.AppSettings
	options       models.DropdownOptions
	team          []models.User
	notifications []models.Notification

	now func() time.Time
}

// New creates a state layer backed by the given store and snapshot
// cache. The policy drives GenerateAutoInvoices.
func New(store Store, cache Snapshots, assistant *services.AssistantService, policy services.InvoicePolicy) *State {
	if policy == nil {
		policy = services.DueSoonPolicy{WindowDays: 30}
	}
	return &State{
		store:     store,
		cache:     cache,
		assistant: assistant,
		policy:    policy,
		settings:  models.DefaultSettings(),
		options:   models.DefaultDropdownOptions(),
		now:       time.Now,
	}
}

// Load fetches records and settings from the store. On failure it falls
// back to the last cached snapshot and logs a warning; it never fails
// the caller.
func (s *State) Load(ctx context.Context) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		log.Printf("Warning: record sync failed, using local snapshot: %v", err)
		var cached []models.HostingRecord
		if cacheErr := s.cache.Read(localstore.KeyRecordsCache, &cached); cacheErr == nil {
			records = cached
		}
	} else {
		if err := s.cache.Write(localstore.KeyRecordsCache, records); err != nil {
			log.Printf("Failed to cache records: %v", err)
		}
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil || settings == nil {
		if err != nil {
			log.Printf("Warning: settings sync failed, using local snapshot: %v", err)
		}
		var cached models.AppSettings
		if cacheErr := s.cache.Read(localstore.KeySettingsCache, &cached); cacheErr == nil {
			settings = &cached
		}
	} else {
		if err := s.cache.Write(localstore.KeySettingsCache, settings); err != nil {
			log.Printf("Failed to cache settings: %v", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if records != nil {
		s.records = records
	}
	if settings != nil {
		s.settings = *settings
	}
}

// Flush waits for all background persistence calls to finish. Call it
// before shutdown or in tests.
func (s *State) Flush() {
	s.wg.Wait()
}

// Records returns a copy of the cached records.
func (s *State) Records() []models.HostingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.HostingRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Record returns the record with the given id, or nil.
func (s *State) Record(id string) *models.HostingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			r := s.records[i]
			return &r
		}
	}
	return nil
}

// Settings returns the current settings value.
func (s *State) Settings() models.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Options returns the current dropdown option lists.
func (s *State) Options() models.DropdownOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// AddRecord assigns an id, applies the record locally and persists it in
// the background. The optimistic copy is kept even when the persist
// fails.
func (s *State) AddRecord(record models.HostingRecord) models.HostingRecord {
	record.ID = newTimestampID()

	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
	s.writeRecordsSnapshot()

	s.persist(func(ctx context.Context) {
		if err := s.store.CreateRecord(ctx, &record); err != nil {
			log.Printf("Failed to persist record %s: %v", record.ID, err)
			s.AddNotification("Sync Warning", "Saved locally, but server sync failed.", "warning")
			return
		}
		s.AddNotification("Success", "Record saved to database.", "success")
	})

	return record
}

// UpdateRecord merges the patch onto the record with the given id and
// fires a best-effort persist. Unknown ids are a no-op.
func (s *State) UpdateRecord(id string, patch RecordPatch) {
	s.mu.Lock()
	var updated *models.HostingRecord
	for i := range s.records {
		if s.records[i].ID == id {
			patch.Apply(&s.records[i])
			r := s.records[i]
			updated = &r
			break
		}
	}
	s.mu.Unlock()
	if updated == nil {
		return
	}
	s.writeRecordsSnapshot()

	s.persist(func(ctx context.Context) {
		if err := s.store.UpdateRecord(ctx, id, updated); err != nil {
			log.Printf("Failed to sync update for record %s: %v", id, err)
			s.AddNotification("Error", "Failed to sync update with server.", "error")
		}
	})
}

// DeleteRecord removes the record locally; a failed persist is logged
// only, never surfaced.
func (s *State) DeleteRecord(id string) {
	s.mu.Lock()
	kept := s.records[:0]
	for _, r := range s.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.records = kept
	s.mu.Unlock()
	s.writeRecordsSnapshot()

	s.persist(func(ctx context.Context) {
		if err := s.store.DeleteRecord(ctx, id); err != nil {
			log.Printf("Failed to delete record %s on server: %v", id, err)
		}
	})
}

// UpdateSettings merges the patch, snapshots the result synchronously
// and persists in the background; failures are logged only.
func (s *State) UpdateSettings(patch SettingsPatch) models.AppSettings {
	s.mu.Lock()
	patch.Apply(&s.settings)
	updated := s.settings
	s.mu.Unlock()

	if err := s.cache.Write(localstore.KeySettingsCache, updated); err != nil {
		log.Printf("Failed to cache settings: %v", err)
	}

	s.persist(func(ctx context.Context) {
		if err := s.store.PutSettings(ctx, &updated); err != nil {
			log.Printf("Failed to sync settings: %v", err)
		}
	})

	return updated
}

// UpdateOptions merges the patch onto the dropdown option lists. The
// lists are session-local and reset on reload.
func (s *State) UpdateOptions(patch OptionsPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patch.Apply(&s.options)
}

// TeamMembers returns a copy of the in-memory team list.
func (s *State) TeamMembers() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, len(s.team))
	copy(out, s.team)
	return out
}

// AddTeamMember appends a member with a generated id.
func (s *State) AddTeamMember(member models.User) models.User {
	member.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.team = append(s.team, member)
	return member
}

// RemoveTeamMember drops the member with the given id.
func (s *State) RemoveTeamMember(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.team[:0]
	for _, m := range s.team {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	s.team = kept
}

// Notifications returns a copy of the notification list, most recent
// first.
func (s *State) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// AddNotification prepends an unread notification.
func (s *State) AddNotification(title, message, typ string) models.Notification {
	n := models.Notification{
		ID:      uuid.NewString(),
		Title:   title,
		Message: message,
		Type:    typ,
		Date:    s.now().Format(time.RFC3339),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append([]models.Notification{n}, s.notifications...)
	return n
}

// MarkNotificationRead flips the read flag for the given id.
func (s *State) MarkNotificationRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return
		}
	}
}

// GenerateAutoInvoices runs the invoice policy over the current records
// and applies the resulting assignments. Already-numbered and
// already-sent records are skipped by the policy, so repeated runs do
// not re-invoice.
func (s *State) GenerateAutoInvoices() int {
	s.mu.Lock()
	records := make([]models.HostingRecord, len(s.records))
	copy(records, s.records)
	settings := s.settings
	s.mu.Unlock()

	assignments := s.policy.Generate(s.now(), records, &settings)
	for _, a := range assignments {
		num := a.InvoiceNumber
		date := a.InvoiceDate
		s.UpdateRecord(a.RecordID, RecordPatch{
			InvoiceNumber: &num,
			InvoiceDate:   &date,
		})
	}

	if len(assignments) == 0 {
		s.AddNotification("Auto-Gen", "No records due for invoicing.", "info")
	} else {
		s.AddNotification("Auto-Gen", fmt.Sprintf("Generated %d invoice(s).", len(assignments)), "info")
	}

	return len(assignments)
}

// AnalyzeData asks the assistant a free-form question about the current
// records.
func (s *State) AnalyzeData(query string) string {
	return s.assistant.AnalyzeHostingData(query, s.Records())
}

// DraftInvoiceEmail returns the drafted email text for a record,
// subject line included when the assistant provides one.
func (s *State) DraftInvoiceEmail(id string) (string, error) {
	record := s.Record(id)
	if record == nil {
		return "", fmt.Errorf("record %s not found", id)
	}
	settings := s.Settings()
	return s.assistant.DraftInvoiceEmail(record, &settings), nil
}

// SendInvoice drafts the renewal email, delivers it through the store's
// email endpoint and on success marks the record sent.
func (s *State) SendInvoice(ctx context.Context, id string) error {
	record := s.Record(id)
	if record == nil {
		return fmt.Errorf("record %s not found", id)
	}
	settings := s.Settings()

	draft := s.assistant.DraftInvoiceEmail(record, &settings)
	fallback := fmt.Sprintf("Invoice %s - %s", invoiceSubjectLabel(record), record.Website)
	subject, body := services.SplitSubject(draft, fallback)

	senderName := settings.SenderName
	if senderName == "" {
		senderName = settings.CompanyName
	}
	senderEmail := settings.SenderEmail
	if senderEmail == "" {
		senderEmail = settings.CompanyEmail
	}

	req := &services.EmailRequest{
		To:      record.Email,
		Subject: subject,
		Body:    body,
		Config: services.SMTPConfig{
			SMTPHost:       settings.SMTPHost,
			SMTPPort:       settings.SMTPPort,
			SMTPEncryption: settings.SMTPEncryption,
			SMTPUser:       settings.SMTPUser,
			SMTPPass:       settings.SMTPPass,
			SenderName:     senderName,
			SenderEmail:    senderEmail,
		},
	}

	if err := s.store.SendEmail(ctx, req); err != nil {
		s.AddNotification("Delivery Error", err.Error(), "error")
		return err
	}

	sent := models.InvoiceStatusSent
	today := s.now().Format("2006-01-02")
	s.UpdateRecord(id, RecordPatch{
		InvoiceStatus: &sent,
		SendingDate:   &today,
	})

	s.AddNotification("Delivered", fmt.Sprintf("Invoice successfully sent to %s.", record.ClientName), "success")
	return nil
}

func invoiceSubjectLabel(record *models.HostingRecord) string {
	if record.InvoiceNumber == "" {
		return "Draft"
	}
	return record.InvoiceNumber
}

// persist runs fn in the background with a bounded context.
func (s *State) persist(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// writeRecordsSnapshot caches the current record list for offline
// startup.
func (s *State) writeRecordsSnapshot() {
	s.mu.Lock()
	records := make([]models.HostingRecord, len(s.records))
	copy(records, s.records)
	s.mu.Unlock()
	if err := s.cache.Write(localstore.KeyRecordsCache, records); err != nil {
		log.Printf("Failed to cache records: %v", err)
	}
}

var (
	idMu   sync.Mutex
	lastID int64
)

// newTimestampID mints a millisecond-timestamp token, matching the ids
// the store has always been keyed by. Tokens are bumped past the last
// one issued so back-to-back adds never collide.
func newTimestampID() string {
	idMu.Lock()
	defer idMu.Unlock()
	now := time.Now().UnixMilli()
	if now <= lastID {
		now = lastID + 1
	}
	lastID = now
	return strconv.FormatInt(now, 10)
}
