package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hostmaster/internal/models"
	"hostmaster/internal/services"
	"net/http"
	"time"
)

// Store is the durable record store the state layer syncs against. The
// production implementation talks to the REST API; tests substitute a
// fake.
type Store interface {
	ListRecords(ctx context.Context) ([]models.HostingRecord, error)
	CreateRecord(ctx context.Context, record *models.HostingRecord) error
	UpdateRecord(ctx context.Context, id string, record *models.HostingRecord) error
	DeleteRecord(ctx context.Context, id string) error
	GetSettings(ctx context.Context) (*models.AppSettings, error)
	PutSettings(ctx context.Context, settings *models.AppSettings) error
	SendEmail(ctx context.Context, req *services.EmailRequest) error
}

// APIClient implements Store over the JSON REST surface.
type APIClient struct {
	BaseURL string
	client  *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		BaseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// ListRecords fetches all records, sorted by serial number descending.
func (c *APIClient) ListRecords(ctx context.Context) ([]models.HostingRecord, error) {
	var records []models.HostingRecord
	if err := c.do(ctx, http.MethodGet, "/api/records", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateRecord stores a new record keyed by its client-supplied id.
func (c *APIClient) CreateRecord(ctx context.Context, record *models.HostingRecord) error {
	return c.do(ctx, http.MethodPost, "/api/records", record, nil)
}

// UpdateRecord replaces the full row for id.
func (c *APIClient) UpdateRecord(ctx context.Context, id string, record *models.HostingRecord) error {
	return c.do(ctx, http.MethodPut, "/api/records/"+id, record, nil)
}

// DeleteRecord removes the row for id; absent ids are not an error.
func (c *APIClient) DeleteRecord(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/records/"+id, nil, nil)
}

// GetSettings fetches the settings singleton, nil when never saved.
func (c *APIClient) GetSettings(ctx context.Context) (*models.AppSettings, error) {
	var settings *models.AppSettings
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// PutSettings upserts the settings singleton.
func (c *APIClient) PutSettings(ctx context.Context, settings *models.AppSettings) error {
	return c.do(ctx, http.MethodPost, "/api/settings", settings, nil)
}

// SendEmail asks the server to deliver an email over SMTP.
func (c *APIClient) SendEmail(ctx context.Context, req *services.EmailRequest) error {
	return c.do(ctx, http.MethodPost, "/api/send-email", req, nil)
}

// do performs one JSON round trip.
func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
