package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	assert.Equal(t, "tesseract", cfg.OCR.Tesseract)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 6, cfg.OCR.PSM)
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, "US", cfg.Locale.FallbackRegion)
	assert.Equal(t, "USD", cfg.Locale.FallbackCurrency)
	assert.Equal(t, int64(5<<20), cfg.Hybrid.DualCompareMaxBytes)
	assert.Equal(t, 800, cfg.Hybrid.SecondaryScoreCutoff)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DOCAI_ENDPOINT", "https://docai.example/v1/analyze")
	t.Setenv("OCR_TIMEOUT", "5s")
	t.Setenv("TESSERACT_PSM", "4")
	t.Setenv("DUAL_COMPARE_MAX_BYTES", "1048576")

	cfg := LoadConfig()
	assert.Equal(t, "https://docai.example/v1/analyze", cfg.Cloud.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 4, cfg.OCR.PSM)
	assert.Equal(t, int64(1<<20), cfg.Hybrid.DualCompareMaxBytes)
}

func TestLoadConfigIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("TESSERACT_PSM", "not-a-number")
	t.Setenv("OCR_TIMEOUT", "soon")

	cfg := LoadConfig()
	assert.Equal(t, 6, cfg.OCR.PSM)
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	cfg.OCR.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.Locale.FallbackRegion = ""
	assert.Error(t, cfg.Validate())
}
