package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	OpenAIAPIKey      string
	ChatModel         string
	EmbeddingModel    string
	GuidanceModel     string
	DBPath            string
	DBEnabled         bool
	APIPort           string
	LogLevel          slog.Level
	LogFormat         string
	ChunkTargetChars  int
	ChunkOverlapChars int
	GuidanceMaxChunks int
	IngestConcurrency int
	MaxQueries        int
	MaxRebuilds       int
	CORSOrigins       []string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates numeric ones.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		ChatModel:      getEnv("CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		GuidanceModel:  getEnv("GUIDANCE_MODEL", "gpt-4o-mini"),
		APIPort:        getEnv("API_PORT", "8000"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	// DB_PATH uses LookupEnv so that an explicitly empty value disables
	// persistence, while an unset variable falls back to the default path.
	dbPath, dbSet := os.LookupEnv("DB_PATH")
	if !dbSet {
		dbPath = "./data/earnings-ai.db"
	}
	cfg.DBPath = dbPath

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.DBEnabled = cfg.DBPath != ""

	intVars := []struct {
		name string
		def  int
		min  int
		dst  *int
	}{
		{"CHUNK_TARGET_CHARS", 1200, 1, &cfg.ChunkTargetChars},
		{"CHUNK_OVERLAP_CHARS", 200, 0, &cfg.ChunkOverlapChars},
		{"GUIDANCE_MAX_CHUNKS", 12, 1, &cfg.GuidanceMaxChunks},
		{"INGEST_CONCURRENCY", 6, 1, &cfg.IngestConcurrency},
		{"BUDGET_MAX_QUERIES", 50, 0, &cfg.MaxQueries},
		{"BUDGET_MAX_GUIDANCE_REBUILDS", 0, 0, &cfg.MaxRebuilds},
	}
	for _, v := range intVars {
		raw := getEnv(v.name, strconv.Itoa(v.def))
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be a valid integer: %w", v.name, err)
		}
		if n < v.min {
			return nil, fmt.Errorf("%s must be >= %d", v.name, v.min)
		}
		*v.dst = n
	}

	if cfg.ChunkOverlapChars >= cfg.ChunkTargetChars {
		return nil, fmt.Errorf("CHUNK_OVERLAP_CHARS must be smaller than CHUNK_TARGET_CHARS")
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	if cfg.DBEnabled {
		dataDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// parseLogLevel converts a log level string to slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (expected debug, info, warn, or error)", level)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
