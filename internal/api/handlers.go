package api

import (
	"errors"
	"hostmaster/internal/database"
	"hostmaster/internal/models"
	"hostmaster/internal/services"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler holds service dependencies
type Handler struct {
	mailerService    *services.MailerService
	renewalService   *services.RenewalService
	assistantService *services.AssistantService
}

// NewHandler creates a new API handler
func NewHandler(mailerService *services.MailerService, renewalService *services.RenewalService, assistantService *services.AssistantService) *Handler {
	return &Handler{
		mailerService:    mailerService,
		renewalService:   renewalService,
		assistantService: assistantService,
	}
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, handler *Handler) {
	api := r.Group("/api")
	{
		// Hosting records
		api.GET("/records", handler.ListRecords)
		api.POST("/records", handler.CreateRecord)
		api.PUT("/records/:id", handler.UpdateRecord)
		api.DELETE("/records/:id", handler.DeleteRecord)

		// Settings singleton
		api.GET("/settings", handler.GetSettings)
		api.POST("/settings", handler.UpdateSettings)

		// Outbound email
		api.POST("/send-email", handler.SendEmail)

		// AI assistant
		api.POST("/assistant/analyze", handler.AnalyzeData)

		// Dashboard statistics
		api.GET("/dashboard/stats", handler.GetStats)
		api.GET("/dashboard/renewals", handler.GetUpcomingRenewals)
	}
}

// ListRecords retrieves all records, newest serial first
func (h *Handler) ListRecords(c *gin.Context) {
	db := database.GetDB()

	records := []models.HostingRecord{}
	if err := db.Order("serial_number desc").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

// CreateRecord stores a new record keyed by its client-supplied id.
// A duplicate id hits the primary key and fails without touching the
// existing row.
func (h *Handler) CreateRecord(c *gin.Context) {
	var record models.HostingRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if record.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record id is required"})
		return
	}

	db := database.GetDB()
	if err := db.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateRecord replaces the full row. The contract has no existence
// check; updating an absent id succeeds silently.
func (h *Handler) UpdateRecord(c *gin.Context) {
	var record models.HostingRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record.ID = c.Param("id")

	db := database.GetDB()
	if err := db.Model(&models.HostingRecord{}).Where("id = ?", record.ID).Select("*").Omit("id").Updates(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteRecord removes a record; deleting an absent id is a no-op
func (h *Handler) DeleteRecord(c *gin.Context) {
	db := database.GetDB()

	if err := db.Delete(&models.HostingRecord{}, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSettings retrieves the settings singleton, null when never saved
func (h *Handler) GetSettings(c *gin.Context) {
	db := database.GetDB()

	var settings models.AppSettings
	err := db.First(&settings, models.SettingsRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, nil)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateSettings upserts the settings singleton wholesale
func (h *Handler) UpdateSettings(c *gin.Context) {
	var settings models.AppSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings.ID = models.SettingsRowID

	db := database.GetDB()
	if err := db.Save(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SendEmail delivers an invoice email using the SMTP config embedded in
// the request
func (h *Handler) SendEmail(c *gin.Context) {
	var req services.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.mailerService.Send(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AnalyzeData answers a free-form question about the stored records via
// the assistant. Assistant failures degrade to canned text, never errors.
func (h *Handler) AnalyzeData(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()
	var records []models.HostingRecord
	if err := db.Order("serial_number desc").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": h.assistantService.AnalyzeHostingData(req.Query, records)})
}

// GetStats retrieves dashboard statistics
func (h *Handler) GetStats(c *gin.Context) {
	db := database.GetDB()

	var records []models.HostingRecord
	if err := db.Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	window := h.renewalService.DueSoonWindow()

	totalRevenue := 0.0
	paid, unpaid, overdue, upcoming := 0, 0, 0, 0
	for i := range records {
		r := &records[i]
		totalRevenue += r.Amount

		switch r.PaymentStatus {
		case models.PaymentPaid:
			paid++
		case models.PaymentUnpaid:
			unpaid++
		case models.PaymentOverdue:
			overdue++
		}

		if days, err := h.renewalService.DaysUntilRenewal(r, now); err == nil && days >= 0 && days <= window {
			upcoming++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"totalClients":     len(records),
		"totalRevenue":     totalRevenue,
		"upcomingRenewals": upcoming,
		"outstanding":      unpaid + overdue,
		"paymentStatus": gin.H{
			"paid":    paid,
			"unpaid":  unpaid,
			"overdue": overdue,
		},
	})
}

// GetUpcomingRenewals retrieves records due within the renewal window,
// soonest first
func (h *Handler) GetUpcomingRenewals(c *gin.Context) {
	db := database.GetDB()

	var records []models.HostingRecord
	if err := db.Order("validation_date asc").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	window := h.renewalService.DueSoonWindow()

	due := []models.HostingRecord{}
	for i := range records {
		if days, err := h.renewalService.DaysUntilRenewal(&records[i], now); err == nil && days >= 0 && days <= window {
			due = append(due, records[i])
		}
	}

	c.JSON(http.StatusOK, due)
}
