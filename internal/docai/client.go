// Package docai is the HTTP client for the cloud document-analysis engine.
package docai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vritti-ai/invoice-extractor/internal/common"
)

// Entity is one typed field the engine recognized in the document.
type Entity struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Table is a detected table, rows of cell strings.
type Table struct {
	Rows []Row `json:"rows"`
}

type Row struct {
	Cells []string `json:"cells"`
}

// Analysis is the engine's full response for one document. An empty
// FullText with a nil error means the engine genuinely found no text.
type Analysis struct {
	FullText string   `json:"fullText"`
	Entities []Entity `json:"entities"`
	Tables   []Table  `json:"tables"`
}

type analyzeRequest struct {
	Processor string `json:"processor"`
	MimeType  string `json:"mimeType"`
	Content   string `json:"content"`
}

// Client talks to one configured processor endpoint.
type Client struct {
	endpoint  string
	processor string
	apiKey    string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient builds a client. Enabled() is false when no endpoint is
// configured, which the orchestrator treats as "engine absent".
func NewClient(endpoint, processor, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:  endpoint,
		processor: processor,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

func (c *Client) Enabled() bool {
	return c.endpoint != ""
}

// Analyze submits document bytes and returns the engine's reading.
// Credential rejections, unreachable engines, timeouts, and malformed
// responses map to the corresponding error kinds.
func (c *Client) Analyze(ctx context.Context, data []byte, mimeType string) (*Analysis, error) {
	if !c.Enabled() {
		return nil, common.EngineUnavailableError("document engine is not configured")
	}

	body, err := json.Marshal(analyzeRequest{
		Processor: c.processor,
		MimeType:  mimeType,
		Content:   base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, common.WrapError(err, "encode analyze request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, common.WrapError(err, "build analyze request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, common.EngineTimeoutError("document engine timed out", err)
		}
		return nil, common.EngineUnavailableError(fmt.Sprintf("document engine unreachable: %v", err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, common.EngineFailureError("read analyze response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, common.CredentialError(fmt.Sprintf("document engine rejected credentials (status %d)", resp.StatusCode))
	case resp.StatusCode >= 500:
		return nil, common.EngineUnavailableError(fmt.Sprintf("document engine error (status %d)", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, common.EngineFailureError(
			fmt.Sprintf("document engine rejected request (status %d)", resp.StatusCode), nil)
	}

	var result Analysis
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, common.EngineFailureError("decode analyze response", err)
	}

	c.logger.Debug("docai.analyzed",
		"status", resp.StatusCode,
		"textLength", len(result.FullText),
		"entities", len(result.Entities),
		"tables", len(result.Tables),
		"durationMs", time.Since(start).Milliseconds(),
	)
	return &result, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// FlattenTables renders detected tables as tab-separated lines so the text
// extractors can scan amounts trapped in table cells.
func FlattenTables(tables []Table) string {
	var b strings.Builder
	for _, t := range tables {
		for _, r := range t.Rows {
			b.WriteString(strings.Join(r.Cells, "\t"))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// VendorEntityTypes are the entity types whose text names the document
// issuer, in preference order.
var VendorEntityTypes = []string{"supplier_name", "vendor_name", "remit_to_name"}

// VendorEntity returns the best issuer-naming entity, if any.
func VendorEntity(entities []Entity) (Entity, bool) {
	for _, want := range VendorEntityTypes {
		for _, e := range entities {
			if e.Type == want && strings.TrimSpace(e.Text) != "" {
				return e, true
			}
		}
	}
	return Entity{}, false
}
