package hybrid

import (
	"github.com/vritti-ai/invoice-extractor/internal/amount"
	"github.com/vritti-ai/invoice-extractor/internal/vendor"
)

// Method tags reported in ExtractionResult.MethodUsed.
const (
	MethodCloudPrimary     = "CloudPrimary"
	MethodLocalPrimary     = "LocalPrimary"
	MethodLocalFallback    = "LocalPrimary(fallback)"
	MethodDualCompareCloud = "DualCompare(cloud)"
	MethodDualCompareOCR   = "DualCompare(ocr)"
)

// VendorResult is the vendor portion of an extraction.
type VendorResult struct {
	Name       string             `json:"name"`
	Candidates []vendor.Candidate `json:"candidates"`
	Score      int                `json:"score"`
}

// TotalsResult is the monetary portion of an extraction.
type TotalsResult struct {
	Amount     float64            `json:"amount"`
	Currency   string             `json:"currency"`
	Region     string             `json:"region"`
	Candidates []amount.Candidate `json:"candidates"`
}

// ExtractionResult is the engine's complete answer for one document.
// Success false carries a non-empty Message and empty candidate lists.
type ExtractionResult struct {
	Success          bool         `json:"success"`
	Message          string       `json:"message,omitempty"`
	Vendor           VendorResult `json:"vendor"`
	Totals           TotalsResult `json:"totals"`
	ConfidenceScore  float64      `json:"confidenceScore"`
	MethodUsed       string       `json:"methodUsed"`
	ProcessingTimeMs int64        `json:"processingTimeMs"`
}

func failedResult(message string) *ExtractionResult {
	return &ExtractionResult{
		Success: false,
		Message: message,
		Vendor:  VendorResult{Candidates: []vendor.Candidate{}},
		Totals:  TotalsResult{Candidates: []amount.Candidate{}},
	}
}
