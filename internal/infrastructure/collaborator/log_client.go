package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/perfumery/sales/internal/domain/shared"
)

// LogClient implements sales.LogPort against the central log service. Every
// sale emits progress and failure entries through it.
type LogClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewLogClient creates a new LogClient
func NewLogClient(baseURL string, timeout time.Duration) *LogClient {
	return &LogClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type logEntryPayload struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

// Record sends a log entry to the log service
func (c *LogClient) Record(ctx context.Context, level, message string) error {
	payload, err := json.Marshal(logEntryPayload{
		Level:     level,
		Message:   message,
		Service:   "sales",
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("log: failed to encode entry: %w", err)
	}

	endpoint := c.baseURL + "/api/v1/logs"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("log: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError("log", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: log service returned HTTP %d", shared.ErrCollaboratorUnavailable, resp.StatusCode)
	}
	return nil
}
