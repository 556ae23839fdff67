package seedevents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client submits seed events and reads back the leaderboard.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the service at baseURL.
func NewClient(cfg *Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type batchAck struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// SubmitBatch posts one batch of events and returns the ack counts.
func (c *Client) SubmitBatch(ctx context.Context, events []Event) (inserted, skipped int, err error) {
	payload, err := json.Marshal(map[string]any{"events": events})
	if err != nil {
		return 0, 0, fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/trust/events/batch", bytes.NewReader(payload))
	if err != nil {
		return 0, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrSubmit, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, 0, fmt.Errorf("%w: status %d: %s", ErrSubmit, resp.StatusCode, body)
	}

	var ack batchAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return 0, 0, fmt.Errorf("decode ack: %w", err)
	}
	return ack.Inserted, ack.Skipped, nil
}

// LeaderboardRow mirrors the service's leaderboard read shape.
type LeaderboardRow struct {
	Rank      int      `json:"rank"`
	AgentID   string   `json:"agent_id"`
	Composite float64  `json:"composite"`
	Badges    []string `json:"badges"`
}

// Leaderboard fetches the current top agents.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	url := fmt.Sprintf("%s/leaderboard?limit=%d", c.baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch leaderboard: status %d", resp.StatusCode)
	}

	var decoded struct {
		Rows []LeaderboardRow `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return decoded.Rows, nil
}
