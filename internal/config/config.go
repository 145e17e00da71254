package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	APIHost     string
	APIPort     string
	LogLevel    string

	APIMaxInFlight      int
	APIMaxConnections   int
	APIBackpressureWait time.Duration
	MaxUploadBytes      int64
	TempDir             string
	CORSAllowedOrigins  []string

	CompareReportBoth bool
	LatexMaxDepth     int
	LatexMaxLength    int

	OCRBackend          string
	Pix2TexURL          string
	OllamaURL           string
	OllamaOCRModel      string
	OCRTimeout          time.Duration
	OCRMaxConcurrency   int
	OCRMaxImageSide     int
	OCRRetryMaxAttempts int
	OCRBreakerEnabled   bool
}

func Load() Config {
	return Config{
		ServiceName: mustEnv("SERVICE_NAME", "latex-similarity"),
		APIHost:     mustEnv("API_HOST", "0.0.0.0"),
		APIPort:     mustEnv("API_PORT", "5000"),
		LogLevel:    mustEnv("LOG_LEVEL", "info"),

		APIMaxInFlight:      mustEnvInt("API_MAX_IN_FLIGHT", 64),
		APIMaxConnections:   mustEnvInt("API_MAX_CONNECTIONS", 256),
		APIBackpressureWait: mustEnvDuration("API_BACKPRESSURE_WAIT", 50*time.Millisecond),
		MaxUploadBytes:      mustEnvInt64("MAX_UPLOAD_BYTES", 20<<20),
		TempDir:             mustEnv("TEMP_DIR", os.TempDir()),
		CORSAllowedOrigins:  splitList(mustEnv("CORS_ALLOWED_ORIGINS", "*")),

		CompareReportBoth: mustEnvBool("COMPARE_REPORT_BOTH", false),
		LatexMaxDepth:     mustEnvInt("LATEX_MAX_DEPTH", 200),
		LatexMaxLength:    mustEnvInt("LATEX_MAX_LENGTH", 8192),

		OCRBackend:          strings.ToLower(mustEnv("OCR_BACKEND", "pix2tex")),
		Pix2TexURL:          mustEnv("PIX2TEX_URL", "http://localhost:8502"),
		OllamaURL:           mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaOCRModel:      mustEnv("OLLAMA_OCR_MODEL", "llama3.2-vision"),
		OCRTimeout:          mustEnvDuration("OCR_TIMEOUT", 60*time.Second),
		OCRMaxConcurrency:   mustEnvInt("OCR_MAX_CONCURRENCY", 1),
		OCRMaxImageSide:     mustEnvInt("OCR_MAX_IMAGE_SIDE", 1600),
		OCRRetryMaxAttempts: mustEnvInt("OCR_RETRY_MAX_ATTEMPTS", 2),
		OCRBreakerEnabled:   mustEnvBool("OCR_BREAKER_ENABLED", true),
	}
}

func (c Config) ListenAddr() string {
	return c.APIHost + ":" + c.APIPort
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
