package docai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vritti-ai/invoice-extractor/constants"
	"github.com/vritti-ai/invoice-extractor/internal/common"
)

func newTestClient(url string) *Client {
	return NewClient(url, "invoice-parser", "test-key", 5*time.Second, nil)
}

func TestAnalyzeSuccess(t *testing.T) {
	var gotReq analyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(Analysis{
			FullText: "Total Amount Due: $42.00",
			Entities: []Entity{{Type: "supplier_name", Text: "Acme LLC", Confidence: 0.97}},
		})
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("pdfbytes"), constants.MimePDF)
	require.NoError(t, err)
	assert.Equal(t, "Total Amount Due: $42.00", got.FullText)
	assert.Equal(t, "invoice-parser", gotReq.Processor)
	assert.Equal(t, constants.MimePDF, gotReq.MimeType)
}

func TestAnalyzeEmptyTextIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Analysis{FullText: ""})
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("x"), constants.MimePNG)
	require.NoError(t, err)
	assert.Empty(t, got.FullText)
}

func TestAnalyzeCredentialRejection(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		_, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("x"), constants.MimePNG)
		srv.Close()
		assert.ErrorIs(t, err, common.ErrCredential)
	}
}

func TestAnalyzeServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("x"), constants.MimePNG)
	assert.ErrorIs(t, err, common.ErrEngineUnavailable)
}

func TestAnalyzeConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("x"), constants.MimePNG)
	assert.ErrorIs(t, err, common.ErrEngineUnavailable)
}

func TestAnalyzeBadJSONIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("x"), constants.MimePNG)
	assert.ErrorIs(t, err, common.ErrEngineFailure)
}

func TestAnalyzeDisabled(t *testing.T) {
	c := NewClient("", "", "", time.Second, nil)
	assert.False(t, c.Enabled())
	_, err := c.Analyze(context.Background(), []byte("x"), constants.MimePNG)
	assert.ErrorIs(t, err, common.ErrEngineUnavailable)
}

func TestFlattenTables(t *testing.T) {
	got := FlattenTables([]Table{{Rows: []Row{
		{Cells: []string{"Item", "Amount"}},
		{Cells: []string{"Total", "$99.00"}},
	}}})
	assert.Equal(t, "Item\tAmount\nTotal\t$99.00\n", got)
}

func TestVendorEntityPreference(t *testing.T) {
	entities := []Entity{
		{Type: "remit_to_name", Text: "Remit Corp"},
		{Type: "supplier_name", Text: "Acme LLC"},
	}
	e, ok := VendorEntity(entities)
	require.True(t, ok)
	assert.Equal(t, "Acme LLC", e.Text)

	_, ok = VendorEntity([]Entity{{Type: "total_amount", Text: "42"}})
	assert.False(t, ok)
}
