package api

import (
	"bytes"
	"encoding/json"
	"hostmaster/internal/config"
	"hostmaster/internal/database"
	"hostmaster/internal/models"
	"hostmaster/internal/services"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.InitDB(&config.DatabaseConfig{Type: "sqlite", Path: dbPath}))

	assistant := services.NewAssistantService("http://unused", "", "test-model", time.Second)
	handler := NewHandler(services.NewMailerService(), services.NewRenewalService(30), assistant)
	r := gin.New()
	SetupRoutes(r, handler)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func listRecords(t *testing.T, r *gin.Engine) []models.HostingRecord {
	t.Helper()
	w := doJSON(t, r, http.MethodGet, "/api/records", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []models.HostingRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	return records
}

func TestRecordLifecycle(t *testing.T) {
	r := newTestRouter(t)

	record := models.HostingRecord{
		ID:            "r1",
		SerialNumber:  1,
		ClientName:    "Acme",
		Amount:        120,
		PaymentStatus: models.PaymentUnpaid,
	}
	w := doJSON(t, r, http.MethodPost, "/api/records", record)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	records := listRecords(t, r)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0].ClientName)

	// Full-row replace keeps the path id
	record.PaymentStatus = models.PaymentPaid
	record.PaidDate = "2026-08-28"
	w = doJSON(t, r, http.MethodPut, "/api/records/r1", record)
	require.Equal(t, http.StatusOK, w.Code)

	records = listRecords(t, r)
	require.Len(t, records, 1)
	assert.Equal(t, models.PaymentPaid, records[0].PaymentStatus)
	assert.Equal(t, "2026-08-28", records[0].PaidDate)
	assert.Equal(t, "r1", records[0].ID)

	w = doJSON(t, r, http.MethodDelete, "/api/records/r1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, listRecords(t, r))
}

func TestUpdateClearsFieldsToZero(t *testing.T) {
	r := newTestRouter(t)

	record := models.HostingRecord{
		ID:            "r1",
		SerialNumber:  1,
		ClientName:    "Acme",
		Amount:        120,
		Notes:         "legacy plan",
		PaymentStatus: models.PaymentUnpaid,
	}
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/api/records", record).Code)

	// Full-row replace must persist zero values, not skip them
	record.Amount = 0
	record.Notes = ""
	w := doJSON(t, r, http.MethodPut, "/api/records/r1", record)
	require.Equal(t, http.StatusOK, w.Code)

	records := listRecords(t, r)
	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].Amount)
	assert.Empty(t, records[0].Notes)
	assert.Equal(t, "Acme", records[0].ClientName)
}

func TestCreateDuplicateIDRejectedWithoutMutation(t *testing.T) {
	r := newTestRouter(t)

	first := models.HostingRecord{ID: "r1", ClientName: "Original", Amount: 100}
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/api/records", first).Code)

	dup := models.HostingRecord{ID: "r1", ClientName: "Impostor", Amount: 999}
	w := doJSON(t, r, http.MethodPost, "/api/records", dup)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")

	records := listRecords(t, r)
	require.Len(t, records, 1)
	assert.Equal(t, "Original", records[0].ClientName)
	assert.Equal(t, 100.0, records[0].Amount)
}

func TestCreateRequiresID(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/records", models.HostingRecord{ClientName: "NoID"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAbsentIDIsNoop(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodDelete, "/api/records/never-existed", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestListOrdersBySerialDescending(t *testing.T) {
	r := newTestRouter(t)

	for i, id := range []string{"a", "b", "c"} {
		record := models.HostingRecord{ID: id, SerialNumber: i + 1}
		require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/api/records", record).Code)
	}

	records := listRecords(t, r)
	require.Len(t, records, 3)
	assert.Equal(t, 3, records[0].SerialNumber)
	assert.Equal(t, 2, records[1].SerialNumber)
	assert.Equal(t, 1, records[2].SerialNumber)
}

func TestSettingsSingleton(t *testing.T) {
	r := newTestRouter(t)

	// Never saved: null
	w := doJSON(t, r, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	settings := models.DefaultSettings()
	settings.TaxRate = 18
	w = doJSON(t, r, http.MethodPost, "/api/settings", settings)
	require.Equal(t, http.StatusOK, w.Code)

	// Upsert replaces wholesale
	settings.Currency = "€"
	w = doJSON(t, r, http.MethodPost, "/api/settings", settings)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.AppSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 18.0, got.TaxRate)
	assert.Equal(t, "€", got.Currency)
}

func TestSendEmailWithoutHostFails(t *testing.T) {
	r := newTestRouter(t)

	req := services.EmailRequest{To: "a@b.c", Subject: "s", Body: "b"}
	w := doJSON(t, r, http.MethodPost, "/api/send-email", req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "smtp host not configured")
}

func TestAssistantAnalyzeWithoutKey(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/assistant/analyze", map[string]string{"query": "who is overdue?"})
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "AI Features Disabled: No API Key found in environment.", got.Text)
}

func TestDashboardStats(t *testing.T) {
	r := newTestRouter(t)

	soon := time.Now().AddDate(0, 0, 5).Format("2006-01-02")
	far := time.Now().AddDate(0, 0, 120).Format("2006-01-02")

	seed := []models.HostingRecord{
		{ID: "1", SerialNumber: 1, Amount: 100, PaymentStatus: models.PaymentPaid, ValidationDate: far},
		{ID: "2", SerialNumber: 2, Amount: 50, PaymentStatus: models.PaymentUnpaid, ValidationDate: soon},
		{ID: "3", SerialNumber: 3, Amount: 75, PaymentStatus: models.PaymentOverdue, ValidationDate: far},
	}
	for _, record := range seed {
		require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/api/records", record).Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		TotalClients     int     `json:"totalClients"`
		TotalRevenue     float64 `json:"totalRevenue"`
		UpcomingRenewals int     `json:"upcomingRenewals"`
		Outstanding      int     `json:"outstanding"`
		PaymentStatus    struct {
			Paid    int `json:"paid"`
			Unpaid  int `json:"unpaid"`
			Overdue int `json:"overdue"`
		} `json:"paymentStatus"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))

	assert.Equal(t, 3, stats.TotalClients)
	assert.Equal(t, 225.0, stats.TotalRevenue)
	assert.Equal(t, 1, stats.UpcomingRenewals)
	assert.Equal(t, 2, stats.Outstanding)
	assert.Equal(t, 1, stats.PaymentStatus.Paid)
	assert.Equal(t, 1, stats.PaymentStatus.Unpaid)
	assert.Equal(t, 1, stats.PaymentStatus.Overdue)
}

func TestUpcomingRenewalsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	soon := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	later := time.Now().AddDate(0, 0, 20).Format("2006-01-02")
	far := time.Now().AddDate(0, 0, 200).Format("2006-01-02")

	seed := []models.HostingRecord{
		{ID: "1", SerialNumber: 1, ValidationDate: later},
		{ID: "2", SerialNumber: 2, ValidationDate: soon},
		{ID: "3", SerialNumber: 3, ValidationDate: far},
	}
	for _, record := range seed {
		require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/api/records", record).Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/dashboard/renewals", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var due []models.HostingRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &due))
	require.Len(t, due, 2)
	assert.Equal(t, "2", due[0].ID, "soonest renewal first")
	assert.Equal(t, "1", due[1].ID)
}
