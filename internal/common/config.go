package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all engine configuration
type Config struct {
	Cloud  CloudConfig
	OCR    OCRConfig
	Locale LocaleConfig
	Hybrid HybridConfig
}

// CloudConfig holds cloud document engine configuration
type CloudConfig struct {
	Endpoint  string // full URL of the document-analysis API
	Processor string // opaque processor identity sent with each request
	APIKey    string
	Timeout   time.Duration
}

// OCRConfig holds local OCR configuration
type OCRConfig struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Language  string // default "eng"
	PSM       int    // page segmentation mode, default 6
	Timeout   time.Duration
}

// LocaleConfig holds the fallback locale used when detection finds nothing.
type LocaleConfig struct {
	FallbackRegion   string
	FallbackCurrency string
}

// HybridConfig holds orchestrator tuning knobs.
type HybridConfig struct {
	// DualCompareMaxBytes is the image-size cutoff above which DualCompare
	// degrades to LocalPrimary.
	DualCompareMaxBytes int64
	// SecondaryScoreCutoff gates the secondary-currency scan: secondary
	// currencies are searched only when the primary currency's best amount
	// score is below this value.
	SecondaryScoreCutoff int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Cloud: CloudConfig{
			Endpoint:  getEnv("DOCAI_ENDPOINT", ""),
			Processor: getEnv("DOCAI_PROCESSOR", ""),
			APIKey:    getEnv("DOCAI_API_KEY", ""),
			Timeout:   getEnvAsDuration("DOCAI_TIMEOUT", 45*time.Second),
		},
		OCR: OCRConfig{
			Tesseract: getEnv("TESSERACT_CMD", "tesseract"),
			Language:  getEnv("TESSERACT_LANG", "eng"),
			PSM:       getEnvAsInt("TESSERACT_PSM", 6),
			Timeout:   getEnvAsDuration("OCR_TIMEOUT", 30*time.Second),
		},
		Locale: LocaleConfig{
			FallbackRegion:   getEnv("FALLBACK_REGION", "US"),
			FallbackCurrency: getEnv("FALLBACK_CURRENCY", "USD"),
		},
		Hybrid: HybridConfig{
			DualCompareMaxBytes:  getEnvAsInt64("DUAL_COMPARE_MAX_BYTES", 5<<20),
			SecondaryScoreCutoff: getEnvAsInt("SECONDARY_SCORE_CUTOFF", 800),
		},
	}
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.OCR.Timeout <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_TIMEOUT must be positive", ErrValidation)
	}
	if c.Hybrid.DualCompareMaxBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "DUAL_COMPARE_MAX_BYTES must be positive", ErrValidation)
	}
	if c.Locale.FallbackRegion == "" || c.Locale.FallbackCurrency == "" {
		return NewAppError("CONFIG_ERROR", "fallback locale is required", ErrValidation)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
