// Package hybrid orchestrates the full extraction flow: input validation,
// strategy selection, backend calls with fallback, locale detection, and
// the scored vendor and amount extractors.
package hybrid

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vritti-ai/invoice-extractor/constants"
	"github.com/vritti-ai/invoice-extractor/internal/amount"
	"github.com/vritti-ai/invoice-extractor/internal/common"
	"github.com/vritti-ai/invoice-extractor/internal/docai"
	"github.com/vritti-ai/invoice-extractor/internal/imageprep"
	"github.com/vritti-ai/invoice-extractor/internal/locale"
	"github.com/vritti-ai/invoice-extractor/internal/metrics"
	"github.com/vritti-ai/invoice-extractor/internal/vendor"
)

// DualCompare keeps the cloud reading only when it is meaningfully richer
// than the local one.
const dualCompareCloudAdvantage = 1.2

// Sparse cloud text below this length gets the flattened tables appended.
const sparseTextLength = 40

const cloudEntityScore = 80

// CloudBackend is the cloud engine surface the orchestrator needs.
type CloudBackend interface {
	Enabled() bool
	Analyze(ctx context.Context, data []byte, mimeType string) (*docai.Analysis, error)
}

// LocalBackend is the local OCR surface the orchestrator needs.
type LocalBackend interface {
	Available() bool
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Orchestrator wires the backends and extractors into one Extract call.
// Safe for concurrent use.
type Orchestrator struct {
	cfg      *common.Config
	cloud    CloudBackend
	local    LocalBackend
	enhancer *imageprep.Enhancer
	detector *locale.Detector
	amounts  *amount.Extractor
	vendors  *vendor.Extractor
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewOrchestrator(
	cfg *common.Config,
	cloud CloudBackend,
	local LocalBackend,
	enhancer *imageprep.Enhancer,
	detector *locale.Detector,
	amounts *amount.Extractor,
	vendors *vendor.Extractor,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	return &Orchestrator{
		cfg:      cfg,
		cloud:    cloud,
		local:    local,
		enhancer: enhancer,
		detector: detector,
		amounts:  amounts,
		vendors:  vendors,
		metrics:  m,
		logger:   logger,
	}
}

// reading is one backend's text plus the structured extras cloud provides.
type reading struct {
	text     string
	analysis *docai.Analysis
	method   string
}

// Extract runs the full pipeline over one document. The returned result is
// always non-nil; engine and validation failures come back as Success=false
// with a message rather than an error.
func (o *Orchestrator) Extract(ctx context.Context, data []byte, filename string) *ExtractionResult {
	start := time.Now()
	requestID := uuid.NewString()
	log := o.logger.With("requestId", requestID, "filename", filepath.Base(filename))

	result, strategy := o.extract(ctx, data, filename, log)
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	outcome := "failure"
	if result.Success {
		outcome = "success"
	}
	o.metrics.Requests.WithLabelValues(string(strategy), outcome).Inc()
	o.metrics.Duration.Observe(time.Since(start).Seconds())

	log.Info("extract.done",
		"strategy", string(strategy),
		"method", result.MethodUsed,
		"success", result.Success,
		"vendor", result.Vendor.Name,
		"amount", result.Totals.Amount,
		"currency", result.Totals.Currency,
		"durationMs", result.ProcessingTimeMs,
	)
	return result
}

func (o *Orchestrator) extract(ctx context.Context, data []byte, filename string, log *slog.Logger) (*ExtractionResult, Strategy) {
	if len(data) == 0 {
		return failedResult("empty document"), StrategyUnavailable
	}
	ext := filepath.Ext(filename)
	format := constants.MapExtToFormat(ext)
	mimeType := constants.ExtToMime(ext)
	if format == "" {
		return failedResult(fmt.Sprintf("unsupported file type %q", ext)), StrategyUnavailable
	}

	strategy := decideStrategy(format, int64(len(data)), o.cloud.Enabled(), o.local.Available(), o.cfg.Hybrid.DualCompareMaxBytes)
	log.Debug("extract.strategy", "format", format, "size", len(data), "strategy", string(strategy))

	if format == constants.IMAGE {
		q := o.enhancer.AnalyzeQuality(data)
		log.Debug("extract.quality",
			"brightness", q.Brightness, "contrast", q.Contrast,
			"resolution", q.Resolution, "overall", q.Overall)
	}

	var r reading
	switch strategy {
	case StrategyUnavailable:
		return failedResult("no extraction engine available for this document"), strategy
	case StrategyCloudPrimary:
		got, err := o.cloudRead(ctx, data, format, mimeType)
		switch {
		case err == nil && strings.TrimSpace(got.text) != "":
			r = got
		case o.local.Available():
			// One fallback, no retry loop. Covers both an erroring cloud
			// call and a successful call that read nothing.
			log.Warn("extract.cloud_falling_back", "error", err)
			o.metrics.Fallbacks.Inc()
			text, ferr := o.localRead(ctx, data)
			if ferr != nil {
				if err == nil {
					// Keep the cloud's empty-but-successful reading.
					r = got
					break
				}
				return failedResult("cloud engine failed and local fallback failed: " + ferr.Error()), strategy
			}
			r = reading{text: text, analysis: got.analysis, method: MethodLocalFallback}
		case err != nil:
			return failedResult(err.Error()), strategy
		default:
			r = got
		}
	case StrategyLocalPrimary:
		text, err := o.localRead(ctx, data)
		if err != nil {
			return failedResult(err.Error()), strategy
		}
		r = reading{text: text, method: MethodLocalPrimary}
	case StrategyDualCompare:
		got, err := o.dualRead(ctx, data, mimeType, log)
		if err != nil {
			return failedResult(err.Error()), strategy
		}
		r = got
	}

	return o.assemble(r, log), strategy
}

func (o *Orchestrator) cloudRead(ctx context.Context, data []byte, format, mimeType string) (reading, error) {
	payload := data
	if format == constants.IMAGE {
		payload = o.enhancer.ForCloud(data)
		if mimeType != constants.MimePDF {
			// ForCloud re-encodes successfully processed images as PNG.
			mimeType = constants.MimePNG
		}
	}
	analysis, err := o.cloud.Analyze(ctx, payload, mimeType)
	if err != nil {
		return reading{}, err
	}
	text := analysis.FullText
	if len(strings.TrimSpace(text)) < sparseTextLength && len(analysis.Tables) > 0 {
		text = text + "\n" + docai.FlattenTables(analysis.Tables)
	}
	return reading{text: text, analysis: analysis, method: MethodCloudPrimary}, nil
}

func (o *Orchestrator) localRead(ctx context.Context, data []byte) (string, error) {
	return o.local.ExtractText(ctx, o.enhancer.ForOCR(data))
}

// dualRead runs both engines concurrently over independent copies and keeps
// the cloud reading only when it is clearly richer.
func (o *Orchestrator) dualRead(ctx context.Context, data []byte, mimeType string, log *slog.Logger) (reading, error) {
	cloudCopy := make([]byte, len(data))
	copy(cloudCopy, data)
	localCopy := make([]byte, len(data))
	copy(localCopy, data)

	var (
		wg        sync.WaitGroup
		cloudR    reading
		cloudErr  error
		localText string
		localErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cloudR, cloudErr = o.cloudRead(ctx, cloudCopy, constants.IMAGE, mimeType)
	}()
	go func() {
		defer wg.Done()
		localText, localErr = o.localRead(ctx, localCopy)
	}()
	wg.Wait()

	switch {
	case cloudErr != nil && localErr != nil:
		return reading{}, common.EngineFailureError(
			fmt.Sprintf("both engines failed: cloud: %v; ocr: %v", cloudErr, localErr), nil)
	case cloudErr != nil:
		log.Warn("extract.dual_cloud_failed", "error", cloudErr)
		return reading{text: localText, method: MethodDualCompareOCR}, nil
	case localErr != nil:
		log.Warn("extract.dual_ocr_failed", "error", localErr)
		cloudR.method = MethodDualCompareCloud
		return cloudR, nil
	}

	cloudLen := len(strings.TrimSpace(cloudR.text))
	ocrLen := len(strings.TrimSpace(localText))
	log.Debug("extract.dual_compare", "cloudLength", cloudLen, "ocrLength", ocrLen)
	if float64(cloudLen) > float64(ocrLen)*dualCompareCloudAdvantage {
		cloudR.method = MethodDualCompareCloud
		return cloudR, nil
	}
	return reading{text: localText, method: MethodDualCompareOCR}, nil
}

// assemble runs locale detection and the extractors over the chosen reading
// and builds the final result.
func (o *Orchestrator) assemble(r reading, log *slog.Logger) *ExtractionResult {
	det := o.detector.Detect(r.text)
	amounts := o.amounts.Extract(r.text, det)
	vendors := o.vendors.Extract(r.text, det.Region)

	// The cloud entity is a last resort, consulted only when the text
	// strategies found nothing and the winning branch carried an analysis.
	if len(vendors) == 0 && r.analysis != nil {
		if e, ok := docai.VendorEntity(r.analysis.Entities); ok {
			vendors = append(vendors, vendor.Candidate{
				Name:   e.Text,
				Score:  cloudEntityScore,
				Source: "cloud_entity",
			})
		}
	}

	// The result carries the best candidate plus at most two alternates;
	// the long tail is diagnostic noise.
	const maxCandidates = 3
	if len(amounts) > maxCandidates {
		amounts = amounts[:maxCandidates]
	}
	if len(vendors) > maxCandidates {
		vendors = vendors[:maxCandidates]
	}

	res := &ExtractionResult{
		Success:    true,
		MethodUsed: r.method,
		Vendor:     VendorResult{Candidates: vendors},
		Totals: TotalsResult{
			Region:     det.Region,
			Currency:   det.Currency,
			Candidates: amounts,
		},
	}
	if len(vendors) > 0 {
		res.Vendor.Name = vendors[0].Name
		res.Vendor.Score = vendors[0].Score
	}
	if len(amounts) > 0 {
		res.Totals.Amount = amounts[0].Value
		res.Totals.Currency = amounts[0].Currency
	}
	if len(vendors) == 0 && len(amounts) == 0 {
		res.Message = "no fields recognized"
	}
	res.ConfidenceScore = confidence(det, amounts, vendors)

	log.Debug("extract.assembled",
		"region", det.Region,
		"currency", res.Totals.Currency,
		"amountCandidates", len(amounts),
		"vendorCandidates", len(vendors),
		"confidence", res.ConfidenceScore,
	)
	return res
}

// confidence blends the extractor scores with the locale detection
// confidence into a 0..1 figure.
func confidence(det locale.Detection, amounts []amount.Candidate, vendors []vendor.Candidate) float64 {
	var amountConf, vendorConf float64
	if len(amounts) > 0 {
		amountConf = capUnit(float64(amounts[0].Score) / 2500)
	}
	if len(vendors) > 0 {
		vendorConf = capUnit(float64(vendors[0].Score) / 250)
	}
	return capUnit(0.5*amountConf + 0.3*vendorConf + 0.2*det.CurrencyConfidence)
}

func capUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
