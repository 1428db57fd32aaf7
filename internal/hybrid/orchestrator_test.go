package hybrid

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vritti-ai/invoice-extractor/internal/amount"
	"github.com/vritti-ai/invoice-extractor/internal/common"
	"github.com/vritti-ai/invoice-extractor/internal/docai"
	"github.com/vritti-ai/invoice-extractor/internal/imageprep"
	"github.com/vritti-ai/invoice-extractor/internal/locale"
	"github.com/vritti-ai/invoice-extractor/internal/lookup"
	"github.com/vritti-ai/invoice-extractor/internal/metrics"
	"github.com/vritti-ai/invoice-extractor/internal/vendor"
)

type stubCloud struct {
	enabled  bool
	analysis *docai.Analysis
	err      error
	calls    int
}

func (s *stubCloud) Enabled() bool { return s.enabled }

func (s *stubCloud) Analyze(ctx context.Context, data []byte, mimeType string) (*docai.Analysis, error) {
	s.calls++
	return s.analysis, s.err
}

type stubLocal struct {
	available bool
	text      string
	err       error
	calls     int
}

func (s *stubLocal) Available() bool { return s.available }

func (s *stubLocal) ExtractText(ctx context.Context, image []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

const sampleText = `Acme Logistics LLC
742 Evergreen Terrace
Invoice #1024
Total Amount Due: $1,234.56`

func newTestOrchestrator(t *testing.T, cloud *stubCloud, local *stubLocal) *Orchestrator {
	t.Helper()
	tables, err := lookup.Load()
	require.NoError(t, err)

	cfg := &common.Config{
		Locale: common.LocaleConfig{FallbackRegion: "US", FallbackCurrency: "USD"},
		Hybrid: common.HybridConfig{DualCompareMaxBytes: 5 << 20, SecondaryScoreCutoff: 800},
	}
	return NewOrchestrator(
		cfg,
		cloud,
		local,
		imageprep.NewEnhancer(nil),
		locale.NewDetector(tables, cfg.Locale.FallbackRegion, cfg.Locale.FallbackCurrency, nil),
		amount.NewExtractor(tables, cfg.Hybrid.SecondaryScoreCutoff, nil),
		vendor.NewExtractor(tables, nil),
		metrics.New(prometheus.NewRegistry()),
		nil,
	)
}

func TestExtractValidation(t *testing.T) {
	o := newTestOrchestrator(t, &stubCloud{}, &stubLocal{})

	res := o.Extract(context.Background(), nil, "invoice.pdf")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)

	res = o.Extract(context.Background(), []byte("data"), "notes.txt")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
	assert.Empty(t, res.Vendor.Candidates)
	assert.Empty(t, res.Totals.Candidates)
}

func TestExtractUnavailableSkipsBackends(t *testing.T) {
	cloud := &stubCloud{enabled: false}
	local := &stubLocal{available: false}
	o := newTestOrchestrator(t, cloud, local)

	res := o.Extract(context.Background(), []byte("imagebytes"), "scan.png")
	assert.False(t, res.Success)
	assert.Zero(t, cloud.calls)
	assert.Zero(t, local.calls)
}

func TestExtractCloudPrimaryPDF(t *testing.T) {
	cloud := &stubCloud{enabled: true, analysis: &docai.Analysis{FullText: sampleText}}
	local := &stubLocal{available: true}
	o := newTestOrchestrator(t, cloud, local)

	res := o.Extract(context.Background(), []byte("%PDF-1.4"), "invoice.pdf")
	require.True(t, res.Success)
	assert.Equal(t, MethodCloudPrimary, res.MethodUsed)
	assert.Equal(t, "Acme Logistics LLC", res.Vendor.Name)
	assert.InDelta(t, 1234.56, res.Totals.Amount, 1e-9)
	assert.Equal(t, "USD", res.Totals.Currency)
	assert.Zero(t, local.calls)
	assert.Greater(t, res.ConfidenceScore, 0.0)
}

func TestExtractLargeImageUsesLocalPrimary(t *testing.T) {
	cloud := &stubCloud{enabled: true}
	local := &stubLocal{available: true, text: sampleText}
	o := newTestOrchestrator(t, cloud, local)

	big := make([]byte, (5<<20)+1)
	res := o.Extract(context.Background(), big, "scan.jpg")
	require.True(t, res.Success)
	assert.Equal(t, MethodLocalPrimary, res.MethodUsed)
	assert.Zero(t, cloud.calls)
}

func TestExtractCloudErrorWithoutOCRSurfaces(t *testing.T) {
	cloud := &stubCloud{enabled: true, err: common.EngineUnavailableError("cloud down")}
	o := newTestOrchestrator(t, cloud, &stubLocal{available: false})

	res := o.Extract(context.Background(), []byte("img"), "scan.jpg")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "cloud down")
}

func TestExtractCloudFailureFallsBackOnce(t *testing.T) {
	cloud := &stubCloud{enabled: true, err: common.EngineUnavailableError("cloud down")}
	local := &stubLocal{available: true, text: sampleText}
	o := newTestOrchestrator(t, cloud, local)

	res := o.Extract(context.Background(), []byte("%PDF-1.4"), "invoice.pdf")
	require.True(t, res.Success)
	assert.Equal(t, MethodLocalFallback, res.MethodUsed)
	assert.Equal(t, 1, cloud.calls)
	assert.Equal(t, 1, local.calls)
	assert.Equal(t, "Acme Logistics LLC", res.Vendor.Name)
}

func TestExtractPDFWithOCROnlyUsesLocalPrimary(t *testing.T) {
	cloud := &stubCloud{enabled: false}
	local := &stubLocal{available: true, text: sampleText}
	o := newTestOrchestrator(t, cloud, local)

	res := o.Extract(context.Background(), []byte("%PDF-1.4"), "invoice.pdf")
	require.True(t, res.Success)
	assert.Equal(t, MethodLocalPrimary, res.MethodUsed)
	assert.Zero(t, cloud.calls)
	assert.Equal(t, 1, local.calls)
}

func TestExtractEmptyCloudTextFallsBack(t *testing.T) {
	cloud := &stubCloud{enabled: true, analysis: &docai.Analysis{FullText: "  "}}
	local := &stubLocal{available: true, text: sampleText}
	o := newTestOrchestrator(t, cloud, local)

	res := o.Extract(context.Background(), []byte("%PDF-1.4"), "invoice.pdf")
	require.True(t, res.Success)
	assert.Equal(t, MethodLocalFallback, res.MethodUsed)
	assert.InDelta(t, 1234.56, res.Totals.Amount, 1e-9)
}

func TestExtractImageFallback(t *testing.T) {
	// Image small enough for DualCompare but with cloud erroring: the
	// local reading must carry the result.
	cloud := &stubCloud{enabled: true, err: common.EngineFailureError("boom", nil)}
	local := &stubLocal{available: true, text: sampleText}
	o := newTestOrchestrator(t, cloud, local)

	res := o.Extract(context.Background(), []byte("imagebytes"), "scan.png")
	require.True(t, res.Success)
	assert.Equal(t, MethodDualCompareOCR, res.MethodUsed)
	assert.Equal(t, 1, local.calls)
}

func TestExtractDualCompareCloudWins(t *testing.T) {
	longText := sampleText + "\nLine items follow with plenty of additional recognized text to outweigh the local reading."
	cloud := &stubCloud{enabled: true, analysis: &docai.Analysis{FullText: longText}}
	local := &stubLocal{available: true, text: "Total $12"}
	o := newTestOrchestrator(t, cloud, local)

	res := o.Extract(context.Background(), []byte("imagebytes"), "scan.png")
	require.True(t, res.Success)
	assert.Equal(t, MethodDualCompareCloud, res.MethodUsed)
	assert.Equal(t, 1, cloud.calls)
	assert.Equal(t, 1, local.calls)
}

func TestExtractDualCompareOCRWinsOnComparableLength(t *testing.T) {
	cloud := &stubCloud{enabled: true, analysis: &docai.Analysis{FullText: sampleText}}
	local := &stubLocal{available: true, text: sampleText}
	o := newTestOrchestrator(t, cloud, local)

	res := o.Extract(context.Background(), []byte("imagebytes"), "scan.png")
	require.True(t, res.Success)
	assert.Equal(t, MethodDualCompareOCR, res.MethodUsed)
}

func TestExtractCloudEntityVendorFallback(t *testing.T) {
	cloud := &stubCloud{enabled: true, analysis: &docai.Analysis{
		FullText: "Total Amount Due: $50.00",
		Entities: []docai.Entity{{Type: "supplier_name", Text: "Initech Corp", Confidence: 0.9}},
	}}
	o := newTestOrchestrator(t, cloud, &stubLocal{available: false})

	res := o.Extract(context.Background(), []byte("%PDF-1.4"), "invoice.pdf")
	require.True(t, res.Success)
	assert.Equal(t, "Initech Corp", res.Vendor.Name)
	require.NotEmpty(t, res.Vendor.Candidates)
	assert.Equal(t, "cloud_entity", res.Vendor.Candidates[0].Source)
}

func TestExtractCloudEntityIgnoredWhenTextHasVendor(t *testing.T) {
	cloud := &stubCloud{enabled: true, analysis: &docai.Analysis{
		FullText: sampleText,
		Entities: []docai.Entity{{Type: "supplier_name", Text: "Initech Corp", Confidence: 0.9}},
	}}
	o := newTestOrchestrator(t, cloud, &stubLocal{available: false})

	res := o.Extract(context.Background(), []byte("%PDF-1.4"), "invoice.pdf")
	require.True(t, res.Success)
	assert.Equal(t, "Acme Logistics LLC", res.Vendor.Name)
	for _, c := range res.Vendor.Candidates {
		assert.NotEqual(t, "cloud_entity", c.Source)
	}
}

func TestExtractCloudEntityDroppedWhenOCRWinsDual(t *testing.T) {
	// Neither reading yields a text vendor, but only the cloud branch
	// carries an entity. The local reading wins the comparison, so the
	// entity must not leak into the result.
	cloud := &stubCloud{enabled: true, analysis: &docai.Analysis{
		FullText: "Total",
		Entities: []docai.Entity{{Type: "supplier_name", Text: "Initech Corp", Confidence: 0.9}},
	}}
	local := &stubLocal{available: true, text: "Total Amount Due: $50.00"}
	o := newTestOrchestrator(t, cloud, local)

	res := o.Extract(context.Background(), []byte("imagebytes"), "scan.png")
	require.True(t, res.Success)
	assert.Equal(t, MethodDualCompareOCR, res.MethodUsed)
	assert.Empty(t, res.Vendor.Candidates)
}

func TestExtractEmptyTextIsSuccessWithMessage(t *testing.T) {
	cloud := &stubCloud{enabled: true, analysis: &docai.Analysis{FullText: ""}}
	o := newTestOrchestrator(t, cloud, &stubLocal{available: false})

	res := o.Extract(context.Background(), []byte("%PDF-1.4"), "invoice.pdf")
	require.True(t, res.Success)
	assert.Empty(t, res.Vendor.Candidates)
	assert.Empty(t, res.Totals.Candidates)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, "US", res.Totals.Region)
	assert.Equal(t, "USD", res.Totals.Currency)
}

func TestExtractSparseCloudTextUsesTables(t *testing.T) {
	cloud := &stubCloud{enabled: true, analysis: &docai.Analysis{
		FullText: "Invoice",
		Tables: []docai.Table{{Rows: []docai.Row{
			{Cells: []string{"Total Amount Due", "$321.00"}},
		}}},
	}}
	o := newTestOrchestrator(t, cloud, &stubLocal{available: false})

	res := o.Extract(context.Background(), []byte("%PDF-1.4"), "invoice.pdf")
	require.True(t, res.Success)
	assert.InDelta(t, 321.00, res.Totals.Amount, 1e-9)
}

func TestNewOrchestratorDefaultsNilMetrics(t *testing.T) {
	tables, err := lookup.Load()
	require.NoError(t, err)

	cfg := &common.Config{
		Locale: common.LocaleConfig{FallbackRegion: "US", FallbackCurrency: "USD"},
		Hybrid: common.HybridConfig{DualCompareMaxBytes: 5 << 20, SecondaryScoreCutoff: 800},
	}
	cloud := &stubCloud{enabled: true, analysis: &docai.Analysis{FullText: sampleText}}
	o := NewOrchestrator(
		cfg,
		cloud,
		&stubLocal{},
		imageprep.NewEnhancer(nil),
		locale.NewDetector(tables, cfg.Locale.FallbackRegion, cfg.Locale.FallbackCurrency, nil),
		amount.NewExtractor(tables, cfg.Hybrid.SecondaryScoreCutoff, nil),
		vendor.NewExtractor(tables, nil),
		nil,
		nil,
	)

	assert.NotPanics(t, func() {
		res := o.Extract(context.Background(), []byte("%PDF-1.4"), "invoice.pdf")
		assert.True(t, res.Success)
	})
}

func TestExtractReportsTimeoutFailure(t *testing.T) {
	local := &stubLocal{available: true, err: common.EngineTimeoutError("ocr timed out", errors.New("deadline"))}
	o := newTestOrchestrator(t, &stubCloud{enabled: false}, local)

	res := o.Extract(context.Background(), []byte("imagebytes"), "scan.png")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "timed out")
}
