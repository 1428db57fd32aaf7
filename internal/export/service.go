// Package export renders batches of extraction results as XLSX workbooks.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vritti-ai/invoice-extractor/internal/hybrid"
)

// Row pairs a source filename with its extraction result.
type Row struct {
	Filename string
	Result   *hybrid.ExtractionResult
}

// Service produces XLSX bytes from extraction results.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportXLSX returns an XLSX workbook (as bytes) for the given rows.
func (s *Service) ExportXLSX(rows []Row) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Extractions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet excelize creates.
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"File",
		"Vendor",
		"Amount",
		"Currency",
		"Region",
		"Confidence",
		"Method",
		"Status",
		"Message",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range rows {
		rowNum := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			_ = f.SetCellValue(sheet, cell, v)
		}

		status := "OK"
		if !r.Result.Success {
			status = "FAILED"
		}

		write(1, r.Filename)
		write(2, r.Result.Vendor.Name)
		if len(r.Result.Totals.Candidates) > 0 {
			write(3, r.Result.Totals.Amount)
		}
		write(4, r.Result.Totals.Currency)
		write(5, r.Result.Totals.Region)
		write(6, fmt.Sprintf("%.2f", r.Result.ConfidenceScore))
		write(7, r.Result.MethodUsed)
		write(8, status)
		write(9, truncate(r.Result.Message, 140))
	}

	_ = f.SetColWidth(sheet, "A", "A", 40)
	_ = f.SetColWidth(sheet, "B", "B", 32)
	_ = f.SetColWidth(sheet, "C", "E", 12)
	_ = f.SetColWidth(sheet, "F", "H", 16)
	_ = f.SetColWidth(sheet, "I", "I", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
