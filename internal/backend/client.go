// Package backend is the HTTP client for the orchestrator's REST
// surface: demo customers, scripted scenarios, and health. These feed
// the pickers; the pipeline itself runs over the WebSocket stream.
package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/qslice/pipedeck/internal/domain"
	"github.com/qslice/pipedeck/internal/logging"
)

// Client fetches collaborator data from the backend's REST endpoints.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
	log    *logging.Logger
}

// NewClient creates a client for the given base URL (no trailing slash).
func NewClient(base, apiKey string, log *logging.Logger) *Client {
	return &Client{
		base:   base,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
		log:    log.Sub("backend"),
	}
}

// Customers returns the demo customer list. Any failure degrades to an
// empty list: the picker goes blank, the pipeline is unaffected.
func (c *Client) Customers() []domain.Customer {
	var payload struct {
		Customers []domain.Customer `json:"customers"`
	}
	if err := c.getJSON("/customers", &payload); err != nil {
		c.log.Warn().Err(err).Msg("customer list unavailable")
		return nil
	}
	return payload.Customers
}

// Scenarios returns the scripted demo scenarios, or an empty list on
// any failure.
func (c *Client) Scenarios() []domain.Scenario {
	var payload struct {
		Scenarios []domain.Scenario `json:"scenarios"`
	}
	if err := c.getJSON("/scenarios", &payload); err != nil {
		c.log.Warn().Err(err).Msg("scenario list unavailable")
		return nil
	}
	return payload.Scenarios
}

// Health reports whether the backend answers its health endpoint.
func (c *Client) Health() error {
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.getJSON("/health", &payload); err != nil {
		return err
	}
	if payload.Status != "healthy" {
		return fmt.Errorf("backend status %q", payload.Status)
	}
	return nil
}

func (c *Client) getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
