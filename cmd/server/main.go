package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/carebridge-ai/symptom-core/appconfig"
	"github.com/carebridge-ai/symptom-core/audit"
	"github.com/carebridge-ai/symptom-core/conversation"
	"github.com/carebridge-ai/symptom-core/corpus"
	"github.com/carebridge-ai/symptom-core/embedding"
	"github.com/carebridge-ai/symptom-core/generation"
	"github.com/carebridge-ai/symptom-core/httpapi"
	"github.com/carebridge-ai/symptom-core/llm"
	"github.com/carebridge-ai/symptom-core/pipeline"
	"github.com/carebridge-ai/symptom-core/retrieval"
	"github.com/carebridge-ai/symptom-core/triage"
)

func main() {
	dotenv.LoadEnv()

	ccfgg := &appconfig.AppConfig{}
	err := config.LoadConfig("config.ini", ccfgg)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		logger.Fatal("GEMINI_API_KEY is not set")
	}
	groqKey := os.Getenv("GROQ_API_KEY")
	if groqKey == "" {
		logger.Fatal("GROQ_API_KEY is not set")
	}
	jinaKey := os.Getenv("JINA_API_KEY")
	if jinaKey == "" {
		logger.Fatal("JINA_API_KEY is not set")
	}

	db, err := sql.Open("postgres", ccfgg.PostgresURI)
	if err != nil {
		logger.Fatal("Failed to open Postgres connection", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to reach Postgres", zap.Error(err))
	}
	runMigrations(ccfgg.PostgresURI)

	store := buildCorpusStore(ccfgg)
	defer store.Close()

	embedder := embedding.NewJinaClient(jinaKey, ccfgg.EmbeddingModel, providerTimeout(ccfgg))
	ranker := retrieval.NewRanker(embedder, store, ccfgg.TopK, float32(ccfgg.SimilarityThreshold))

	orchestrator := generation.NewOrchestrator(
		llm.NewGeminiClient(geminiKey, ccfgg.PrimaryModel),
		llm.NewGroqClient(groqKey, ccfgg.FallbackModel),
		providerTimeout(ccfgg),
	)

	sessions := conversation.NewManager(
		conversation.NewPostgresRepository(db),
		ccfgg.ContextTurns,
		ccfgg.MaxTurns,
		time.Duration(ccfgg.SessionTimeoutSeconds)*time.Second,
	)
	recorder := audit.NewPostgresRecorder(db)

	classifier := triage.NewClassifier(ccfgg.EmergencyThreshold, ccfgg.UrgentThreshold, ccfgg.SeverityWeight)
	coordinator := pipeline.NewCoordinator(sessions, classifier, ranker, orchestrator, recorder,
		time.Duration(ccfgg.MessageDeadlineSeconds)*time.Second)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	httpapi.RegisterRoutes(router, httpapi.NewHandler(coordinator, sessions, ccfgg.MaxMessageLength))

	srv := &http.Server{
		Addr:    ":" + ccfgg.HTTPPort,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting symptom analysis server", zap.String("port", ccfgg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func runMigrations(postgresURI string) {
	m, err := migrate.New("file://migrations", postgresURI)
	if err != nil {
		logger.Fatal("Migration init failed", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Fatal("Migration up failed", zap.Error(err))
	}
	logger.Info("Migrations applied")
}

// buildCorpusStore prefers qdrant; falls back to the in-memory store
// loaded from the pre-built knowledge file when no qdrant host is
// configured.
func buildCorpusStore(ccfgg *appconfig.AppConfig) corpus.Store {
	if ccfgg.QdrantHost != "" {
		store, err := corpus.NewQdrantStore(ccfgg.QdrantHost, ccfgg.QdrantPort, ccfgg.QdrantCollection)
		if err != nil {
			logger.Fatal("Failed to connect to qdrant", zap.Error(err))
		}
		logger.Info("Using qdrant corpus store",
			zap.String("host", ccfgg.QdrantHost), zap.String("collection", ccfgg.QdrantCollection))
		return store
	}

	store, err := corpus.LoadMemoryStore(ccfgg.KnowledgeFile)
	if err != nil {
		logger.Fatal("Failed to load knowledge file", zap.Error(err))
	}
	logger.Info("Using in-memory corpus store",
		zap.String("file", ccfgg.KnowledgeFile), zap.Int("entries", store.Len()))
	return store
}

func providerTimeout(ccfgg *appconfig.AppConfig) time.Duration {
	return time.Duration(ccfgg.ProviderTimeoutSeconds) * time.Second
}
