package main

import (
	"context"
	"log"

	"opncheck-backend/cache"
	"opncheck-backend/config"
	"opncheck-backend/handlers"
	"opncheck-backend/knowledge"
	"opncheck-backend/repository"
	"opncheck-backend/service"
	"opncheck-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg := config.Load()

	// Initialize database connection
	db, err := initPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize Postgres:", err)
	}
	defer db.Close()

	// Initialize storage
	fileStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Println("Storage initialized")

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(db)
	revisionRepo := repository.NewRevisionRepository(db)

	// Initialize Gemini client
	geminiClient, err := initGemini(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}

	// Knowledge catalogs and session cache
	knowledgeStore := knowledge.NewStore(cfg.KnowledgeDir)
	sessionCache := cache.NewSessionCache(cfg.SessionTTL)
	progress := service.NewProgressTracker(sessionCache)

	// Initialize services
	judge := service.NewGeminiJudge(geminiClient, cfg.AnalysisModel, cfg.AnalysisConcurrency)

	analysisService := service.NewAnalysisService(
		service.WithSessionCache(sessionCache),
		service.WithCatalogProvider(knowledgeStore),
		service.WithJudge(judge),
		service.WithProgressTracker(progress),
		service.WithFileStorage(fileStorage),
		service.WithChunkSize(cfg.ChunkSize),
	)

	sessionService := service.NewSessionService(
		service.WithSessionServiceCache(sessionCache),
		service.WithSessionRepository(sessionRepo),
	)

	revisionService := service.NewRevisionService(
		service.WithRevisionCache(sessionCache),
		service.WithRevisionStorage(fileStorage),
		service.WithRevisionRepository(revisionRepo),
	)

	// Initialize handlers
	analysisHandler := handlers.NewAnalysisHandler(analysisService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	revisionHandler := handlers.NewRevisionHandler(revisionService)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	api.Use(handlers.APIKeyAuth(cfg.APIKeyHash))
	{
		// Evidence and sessions
		api.POST("/evidence", sessionHandler.CreateSession)
		api.GET("/sessions", sessionHandler.ListSessions)
		api.POST("/sessions/:id/save", sessionHandler.SaveSession)
		api.POST("/sessions/:id/restore", sessionHandler.RestoreSession)
		api.DELETE("/sessions/:id", sessionHandler.DeleteSession)

		// Analysis
		api.POST("/analyze", analysisHandler.StartAnalysis)
		api.GET("/analyze/:id/status", analysisHandler.Status)

		// Revisions
		api.POST("/revisions", revisionHandler.AddRevision)
		api.GET("/sessions/:id/revisions", revisionHandler.History)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Postgres connection established")
	return pool, nil
}

func initGemini(apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	log.Println("Gemini client initialized")
	return client, nil
}
