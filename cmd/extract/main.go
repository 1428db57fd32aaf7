package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vritti-ai/invoice-extractor/internal/amount"
	"github.com/vritti-ai/invoice-extractor/internal/common"
	"github.com/vritti-ai/invoice-extractor/internal/docai"
	"github.com/vritti-ai/invoice-extractor/internal/export"
	"github.com/vritti-ai/invoice-extractor/internal/hybrid"
	"github.com/vritti-ai/invoice-extractor/internal/imageprep"
	"github.com/vritti-ai/invoice-extractor/internal/locale"
	"github.com/vritti-ai/invoice-extractor/internal/lookup"
	"github.com/vritti-ai/invoice-extractor/internal/metrics"
	"github.com/vritti-ai/invoice-extractor/internal/ocr"
	"github.com/vritti-ai/invoice-extractor/internal/vendor"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	xlsxPath := flag.String("xlsx", "", "also write results to this XLSX file")
	selfTest := flag.Bool("selftest", false, "run the OCR self-test before extracting")
	flag.Parse()
	files := flag.Args()
	if len(files) == 0 {
		logger.Error("usage", "cmd", "extract [-xlsx out.xlsx] [-selftest] <file>...")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	tables, err := lookup.Load()
	if err != nil {
		logger.Error("load lookup tables", "error", err)
		os.Exit(1)
	}

	cloud := docai.NewClient(cfg.Cloud.Endpoint, cfg.Cloud.Processor, cfg.Cloud.APIKey, cfg.Cloud.Timeout, logger)
	local := ocr.NewEngine(cfg.OCR, nil, logger)
	orch := hybrid.NewOrchestrator(
		cfg,
		cloud,
		local,
		imageprep.NewEnhancer(logger),
		locale.NewDetector(tables, cfg.Locale.FallbackRegion, cfg.Locale.FallbackCurrency, logger),
		amount.NewExtractor(tables, cfg.Hybrid.SecondaryScoreCutoff, logger),
		vendor.NewExtractor(tables, logger),
		metrics.New(prometheus.DefaultRegisterer),
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *selfTest {
		if err := local.SelfTest(ctx); err != nil {
			logger.Error("ocr self-test failed", "error", err)
			os.Exit(1)
		}
		logger.Info("ocr self-test OK")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	var rows []export.Row
	failed := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read file", "path", path, "error", err)
			failed++
			continue
		}

		res := orch.Extract(ctx, data, path)
		if !res.Success {
			failed++
		}
		if err := enc.Encode(res); err != nil {
			logger.Error("encode result", "path", path, "error", err)
		}
		rows = append(rows, export.Row{Filename: path, Result: res})
	}

	if *xlsxPath != "" {
		xlsx, err := export.NewService(logger).ExportXLSX(rows)
		if err != nil {
			logger.Error("export xlsx", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxPath, xlsx, 0o644); err != nil {
			logger.Error("write xlsx", "path", *xlsxPath, "error", err)
			os.Exit(1)
		}
		logger.Info("xlsx written", "path", *xlsxPath, "rows", len(rows))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
