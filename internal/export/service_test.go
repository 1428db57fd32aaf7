package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vritti-ai/invoice-extractor/internal/amount"
	"github.com/vritti-ai/invoice-extractor/internal/hybrid"
)

func TestExportXLSX(t *testing.T) {
	s := NewService(nil)
	rows := []Row{
		{
			Filename: "invoice-1.pdf",
			Result: &hybrid.ExtractionResult{
				Success:         true,
				Vendor:          hybrid.VendorResult{Name: "Acme Logistics LLC"},
				ConfidenceScore: 0.91,
				MethodUsed:      hybrid.MethodCloudPrimary,
			},
		},
		{
			Filename: "blurry.png",
			Result: &hybrid.ExtractionResult{
				Success: false,
				Message: "no extraction engine available for this document",
			},
		},
	}
	rows[0].Result.Totals = hybrid.TotalsResult{
		Amount:   1234.56,
		Currency: "USD",
		Region:   "US",
		Candidates: []amount.Candidate{
			{Value: 1234.56, Currency: "USD", Pattern: "amount_due"},
		},
	}

	data, err := s.ExportXLSX(rows)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Extractions")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "File", got[0][0])
	assert.Equal(t, "invoice-1.pdf", got[1][0])
	assert.Equal(t, "Acme Logistics LLC", got[1][1])
	assert.Equal(t, "FAILED", got[2][7])
}

func TestExportXLSXEmpty(t *testing.T) {
	s := NewService(nil)
	data, err := s.ExportXLSX(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
