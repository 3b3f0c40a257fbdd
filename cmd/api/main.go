package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"caiso-pipeline/internal/api/handlers"
	"caiso-pipeline/internal/api/middleware"
	"caiso-pipeline/internal/config"
	"caiso-pipeline/internal/data"
	"caiso-pipeline/internal/pipeline"
	"caiso-pipeline/internal/service"
	"caiso-pipeline/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	cfg, err := config.Load(os.Getenv("PIPELINE_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var db *store.Store
	if cfg.Store.Path != "" {
		db, err = store.Open(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to open run store: %v", err)
		}
		defer db.Close()
	}

	pipe := pipeline.CAISOFeeds(cfg.Nodes(), cfg.HubLabels())
	pipe.Fetcher = data.NewOASISClient(cfg.OASIS.BaseURL)
	runner := &service.Runner{
		Pipeline: pipe,
		OutDir:   cfg.Output.Dir,
		Store:    db,
		Lookback: time.Duration(cfg.Pipeline.LookbackMinutes) * time.Minute,
	}

	// Set up Gin router
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Apply middleware
	router.Use(middleware.CORS())
	router.Use(middleware.ErrorHandler())

	pipelineHandler := handlers.NewPipelineHandler(runner)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/pipeline/run", pipelineHandler.RunPipeline)

		if db != nil {
			runsHandler := handlers.NewRunsHandler(db)
			api.GET("/runs", runsHandler.ListRuns)
			api.GET("/runs/:id", runsHandler.GetRun)
		}
	}

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
