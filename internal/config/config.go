package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is loaded once at startup and read-only afterwards. Every
// component receives it (or the fields it needs) through its constructor.
type Config struct {
	Port     string
	LogLevel string

	// Vision provider (any OpenAI-compatible endpoint)
	VisionAPIKey    string
	VisionBaseURL   string
	VisionModel     string
	VisionMaxTokens int
	RequestTimeout  time.Duration

	// Upload and normalization limits
	MaxFileSize       int64
	MaxPDFPages       int
	RenderDPI         int
	MaxImageDimension int

	DefaultLanguage string
}

func Load() (*Config, error) {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		VisionAPIKey:      getEnv("VISION_API_KEY", ""),
		VisionBaseURL:     getEnv("VISION_BASE_URL", ""),
		VisionModel:       getEnv("VISION_MODEL", "gpt-4o"),
		VisionMaxTokens:   getEnvInt("VISION_MAX_TOKENS", 4096),
		RequestTimeout:    time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 120)) * time.Second,
		MaxFileSize:       int64(getEnvInt("MAX_FILE_SIZE_MB", 20)) * 1024 * 1024,
		MaxPDFPages:       getEnvInt("MAX_PDF_PAGES", 10),
		RenderDPI:         getEnvInt("PDF_RENDER_DPI", 200),
		MaxImageDimension: getEnvInt("MAX_IMAGE_DIMENSION", 1568),
		DefaultLanguage:   getEnv("DEFAULT_LANGUAGE", "swedish"),
	}

	if cfg.VisionAPIKey == "" {
		return nil, fmt.Errorf("VISION_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
