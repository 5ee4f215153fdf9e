package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mgsim/internal/api"
	"mgsim/internal/rules"
	"mgsim/internal/stats"
)

// APIError is a non-2xx response from the simulation API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *Client) Health(ctx context.Context) error {
	return c.jsonRequest(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) Rules(ctx context.Context) (rules.Sheet, error) {
	var out rules.Sheet
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/rules", nil, &out)
	return out, err
}

func (c *Client) RunSimulation(ctx context.Context, in api.SimulationRequest) (api.SimulationResponse, error) {
	var out api.SimulationResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/simulations", in, &out)
	return out, err
}

func (c *Client) RunBatch(ctx context.Context, in api.BatchRequest) (stats.Summary, error) {
	var out stats.Summary
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/batches", in, &out)
	return out, err
}

func (c *Client) LatestStats(ctx context.Context) (stats.Summary, error) {
	var out stats.Summary
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/stats/latest", nil, &out)
	return out, err
}

func (c *Client) ListStats(ctx context.Context, limit int) ([]stats.Summary, error) {
	var out struct {
		Summaries []stats.Summary `json:"summaries"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/stats?limit=%d", limit), nil, &out)
	return out.Summaries, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
