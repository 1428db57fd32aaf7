// Package ocr wraps the tesseract binary as the local text-extraction
// engine. The binary is invoked per request with the image on stdin; a
// configured wall-clock timeout bounds every call.
package ocr

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/vritti-ai/invoice-extractor/internal/common"
)

// Engine is the local OCR backend.
type Engine struct {
	binary   string
	language string
	psm      int
	timeout  time.Duration
	runner   Runner
	logger   *slog.Logger
}

// NewEngine builds an Engine from config. A nil runner gets the production
// exec-backed one.
func NewEngine(cfg common.OCRConfig, runner Runner, logger *slog.Logger) *Engine {
	if runner == nil {
		runner = NewExecRunner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	binary := cfg.Tesseract
	if binary == "" {
		binary = "tesseract"
	}
	language := cfg.Language
	if language == "" {
		language = "eng"
	}
	psm := cfg.PSM
	if psm == 0 {
		psm = 6
	}
	return &Engine{
		binary:   binary,
		language: language,
		psm:      psm,
		timeout:  cfg.Timeout,
		runner:   runner,
		logger:   logger,
	}
}

// Available reports whether the engine is configured with a binary name.
func (e *Engine) Available() bool {
	return e.binary != ""
}

// ExtractText runs OCR over image bytes. Exceeding the configured timeout
// cancels the underlying process and returns an engine-timeout error. An
// empty recognition is a successful empty string, not an error.
func (e *Engine) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", common.ValidationError("empty image passed to OCR")
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := []string{"stdin", "stdout", "-l", e.language, "--psm", strconv.Itoa(e.psm)}
	start := time.Now()
	out, err := e.runner.Run(ctx, image, e.binary, args...)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return "", common.EngineTimeoutError("ocr timed out", err)
		}
		return "", common.EngineFailureError("ocr run failed", err)
	}

	text := strings.TrimSpace(string(out))
	e.logger.Debug("ocr.extracted",
		"textLength", len(text),
		"durationMs", time.Since(start).Milliseconds(),
	)
	return text, nil
}
