package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leanvibe/leanvibe-ai/internal/agent"
	"github.com/leanvibe/leanvibe-ai/internal/api"
	"github.com/leanvibe/leanvibe-ai/internal/approval"
	"github.com/leanvibe/leanvibe-ai/internal/config"
	"github.com/leanvibe/leanvibe-ai/internal/repository"
	"github.com/leanvibe/leanvibe-ai/internal/taskstore"
	"github.com/leanvibe/leanvibe-ai/internal/voice"
	"github.com/leanvibe/leanvibe-ai/internal/ws"
	"github.com/leanvibe/leanvibe-ai/pkg/database"
	"github.com/leanvibe/leanvibe-ai/pkg/logger"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting LeanVibe decision core",
		zap.Int("port", cfg.Server.Port),
		zap.Strings("wake_phrases", cfg.Voice.WakePhrases))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.NewMigrator(db, log).Run(); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	taskRepo := repository.NewTaskRepository(db.DB, log)
	decisionRepo := repository.NewDecisionRepository(db.DB, log)

	tasks := taskstore.New(taskRepo, log)
	if persisted, err := taskRepo.LoadAll(); err != nil {
		log.Error("Failed to load persisted tasks", zap.Error(err))
	} else {
		tasks.Load(persisted)
		log.Info("Loaded persisted tasks", zap.Int("count", len(persisted)))
	}

	gate := approval.NewGate(cfg.Approval.ConfidenceThreshold, cfg.Approval.RiskActions)
	engine := approval.NewEngine(gate, approval.NewStore(), tasks, decisionRepo, log)

	processor := voice.NewProcessor(cfg.Voice.WakePhrases, log)

	var recommender agent.Recommender
	if cfg.Agent.APIKey != "" {
		recommender = agent.NewOpenAIRecommender(cfg.Agent.APIKey, cfg.Agent.Model, cfg.Agent.Temperature, log)
	} else {
		log.Warn("No agent API key configured, decision proposals are disabled")
	}

	service := api.NewService(processor, tasks, engine, recommender, nil, log)
	hub := ws.NewHub(service, log)
	service.SetBroadcaster(hub)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.LoggingMiddleware(log))
	router.Use(api.CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "leanvibe-ai",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/ws", hub.ServeWS)

	api.NewHandler(service, log).Register(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	stopHub()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
