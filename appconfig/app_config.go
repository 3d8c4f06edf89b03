package appconfig

import (
	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	HTTPPort    string `env:"HTTP-PORT" ini:"http_port"`
	PostgresURI string `env:"POSTGRES-URI" ini:"postgres_uri"`

	QdrantHost       string `env:"QDRANT-HOST" ini:"qdrant_host"`
	QdrantPort       int    `ini:"qdrant_port"`
	QdrantCollection string `ini:"qdrant_collection"`
	KnowledgeFile    string `ini:"knowledge_file"`

	PrimaryModel   string `ini:"primary_model"`
	FallbackModel  string `ini:"fallback_model"`
	EmbeddingModel string `ini:"embedding_model"`

	EmergencyThreshold  float64 `ini:"emergency_threshold"`
	UrgentThreshold     float64 `ini:"urgent_threshold"`
	SeverityWeight      float64 `ini:"severity_weight"`
	TopK                int     `ini:"top_k"`
	SimilarityThreshold float64 `ini:"similarity_threshold"`

	ContextTurns          int `ini:"context_turns"`
	MaxTurns              int `ini:"max_turns"`
	SessionTimeoutSeconds int `ini:"session_timeout_seconds"`
	MaxMessageLength      int `ini:"max_message_length"`

	MessageDeadlineSeconds int `ini:"message_deadline_seconds"`
	ProviderTimeoutSeconds int `ini:"provider_timeout_seconds"`
}
