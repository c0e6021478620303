package main

import (
	"hostmaster/internal/api"
	"hostmaster/internal/config"
	"hostmaster/internal/database"
	"hostmaster/internal/scheduler"
	"hostmaster/internal/services"
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	if err := database.InitDB(&cfg.Database); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully")

	// Initialize services
	mailerService := services.NewMailerService()
	renewalService := services.NewRenewalService(cfg.Renewal.DueSoonDays)

	assistantTimeout, err := time.ParseDuration(cfg.Assistant.Timeout)
	if err != nil || assistantTimeout <= 0 {
		assistantTimeout = 30 * time.Second
	}
	assistantService := services.NewAssistantService(
		cfg.Assistant.APIURL,
		cfg.Assistant.APIKey,
		cfg.Assistant.Model,
		assistantTimeout,
	)

	// Initialize scheduler
	sched := scheduler.NewScheduler(renewalService)
	if err := sched.Start(cfg.Renewal.CheckInterval); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Setup Gin
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// Enable CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Setup API routes
	handler := api.NewHandler(mailerService, renewalService, assistantService)
	api.SetupRoutes(r, handler)

	// Serve static files
	r.Static("/static", "./web/dist")

	// Serve frontend
	r.GET("/", func(c *gin.Context) {
		c.File("./web/dist/index.html")
	})

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
