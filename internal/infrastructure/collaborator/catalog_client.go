package collaborator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/perfumery/sales/internal/domain/sales"
	"github.com/perfumery/sales/internal/domain/shared"
)

// CatalogClient implements sales.CatalogPort against the processing
// service's perfume catalog API.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCatalogClient creates a new CatalogClient
func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// catalogItemPayload is the processing service's wire form of a perfume
type catalogItemPayload struct {
	ID           uuid.UUID `json:"id"`
	SerialNumber string    `json:"serial_number"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Quantity     int       `json:"quantity"`
	UnitSizeML   int       `json:"unit_size_ml"`
}

func (p catalogItemPayload) toDomain() sales.CatalogItem {
	return sales.CatalogItem{
		ID:           p.ID,
		SerialNumber: p.SerialNumber,
		Name:         p.Name,
		Type:         sales.PerfumeType(p.Type),
		Quantity:     p.Quantity,
		UnitSizeML:   p.UnitSizeML,
	}
}

// GetItem retrieves a single perfume by serial number
func (c *CatalogClient) GetItem(ctx context.Context, serialNumber string) (*sales.CatalogItem, error) {
	endpoint := fmt.Sprintf("%s/api/v1/perfumes/%s", c.baseURL, url.PathEscape(serialNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("catalog", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, shared.ErrNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: catalog returned HTTP %d", shared.ErrCollaboratorUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read response: %w", err)
	}

	var payload catalogItemPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("catalog: failed to decode response: %w", err)
	}

	item := payload.toDomain()
	return &item, nil
}

// ListAvailable retrieves all perfumes currently in stock
func (c *CatalogClient) ListAvailable(ctx context.Context) ([]sales.CatalogItem, error) {
	endpoint := c.baseURL + "/api/v1/perfumes"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("catalog", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: catalog returned HTTP %d", shared.ErrCollaboratorUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read response: %w", err)
	}

	var payloads []catalogItemPayload
	if err := json.Unmarshal(body, &payloads); err != nil {
		return nil, fmt.Errorf("catalog: failed to decode response: %w", err)
	}

	items := make([]sales.CatalogItem, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, p.toDomain())
	}
	return items, nil
}
