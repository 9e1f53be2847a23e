package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/perfumery/sales/internal/domain/dispatch"
	"github.com/perfumery/sales/internal/domain/shared"
)

// PackagingClient implements dispatch.PackagingPort against the processing
// service's packaging API. Each call hands over one delivery batch of
// packaged units from the given site.
type PackagingClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPackagingClient creates a new PackagingClient
func NewPackagingClient(baseURL string, timeout time.Duration) *PackagingClient {
	return &PackagingClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type retrieveBatchRequest struct {
	Count int `json:"count"`
}

type packagePayload struct {
	ID           uuid.UUID `json:"id"`
	SerialNumber string    `json:"serial_number"`
	Name         string    `json:"name"`
}

// RetrieveBatch retrieves count packaged units from the site's stock
func (c *PackagingClient) RetrieveBatch(ctx context.Context, siteID uuid.UUID, count int) ([]dispatch.Package, error) {
	endpoint := fmt.Sprintf("%s/api/v1/sites/%s/packages/retrieve", c.baseURL, siteID)

	payload, err := json.Marshal(retrieveBatchRequest{Count: count})
	if err != nil {
		return nil, fmt.Errorf("packaging: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("packaging: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("packaging", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, shared.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return nil, shared.ErrInsufficientCapacity
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: packaging returned HTTP %d", shared.ErrCollaboratorUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("packaging: failed to read response: %w", err)
	}

	var payloads []packagePayload
	if err := json.Unmarshal(body, &payloads); err != nil {
		return nil, fmt.Errorf("packaging: failed to decode response: %w", err)
	}

	packages := make([]dispatch.Package, 0, len(payloads))
	for _, p := range payloads {
		packages = append(packages, dispatch.Package{
			ID:           p.ID,
			SerialNumber: p.SerialNumber,
			Name:         p.Name,
		})
	}
	return packages, nil
}
