package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
	"github.com/BerylCAtieno/storycraft-agent/internal/models"
)

var (
	ErrNotConfigured   = errors.New("export script URL is not configured")
	ErrNoRecords       = errors.New("story data is required and must be a non-empty array")
	ErrNonJSONResponse = errors.New("non-JSON response")
)

type scriptReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Exporter posts record batches to the document-generation script as a
// single form field named "data".
type Exporter struct {
	log        *logger.Logger
	scriptURL  string
	httpClient *http.Client
}

func NewExporter(log *logger.Logger, scriptURL string, timeout time.Duration) *Exporter {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Exporter{
		log:        log.With("component", "exporter"),
		scriptURL:  strings.TrimSpace(scriptURL),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (e *Exporter) Configured() bool { return e.scriptURL != "" }

func (e *Exporter) Export(ctx context.Context, records []models.ExportRecord) (models.ExportResult, error) {
	if len(records) == 0 {
		return models.ExportResult{}, ErrNoRecords
	}
	if !e.Configured() {
		return models.ExportResult{}, ErrNotConfigured
	}

	batchID := uuid.NewString()
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Description
	}
	e.log.Info("exporting stories", "batch_id", batchID, "total", len(records), "use_cases", names)

	data, err := json.Marshal(records)
	if err != nil {
		return models.ExportResult{}, fmt.Errorf("encode records: %w", err)
	}
	form := url.Values{}
	form.Set("data", string(data))

	status, body, err := e.post(ctx, e.scriptURL, form)
	if err != nil {
		return models.ExportResult{}, fmt.Errorf("export failed: %w", err)
	}
	if status < 200 || status > 299 {
		return models.ExportResult{}, fmt.Errorf("export failed: HTTP %d: %s. Response: %s", status, http.StatusText(status), body)
	}

	var reply scriptReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return models.ExportResult{}, fmt.Errorf("export failed: %w: %s", ErrNonJSONResponse, body)
	}
	if reply.Status != "success" {
		msg := reply.Message
		if msg == "" {
			msg = "Unknown error occurred"
		}
		return models.ExportResult{}, fmt.Errorf("export failed: %s", msg)
	}

	e.log.Info("export succeeded", "batch_id", batchID, "url", reply.URL)
	return models.ExportResult{Success: true, TotalExported: len(records), URL: reply.URL}, nil
}

func (e *Exporter) post(ctx context.Context, target string, form url.Values) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(raw), nil
}
