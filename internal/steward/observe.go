// Package steward is an out-of-process match steward. Each cycle it
// observes a running match over the HTTP API, triages its pressure,
// decides on zero or one director event, and forces it through the
// admin endpoint.
package steward

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/contagion/internal/engine"
)

// Observation holds everything fetched in one cycle.
type Observation struct {
	Status   MatchStatus     `json:"status"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

// MatchStatus mirrors GET /api/v1/status.
type MatchStatus struct {
	Difficulty  string         `json:"difficulty"`
	Seed        int64          `json:"seed"`
	Tick        uint64         `json:"tick"`
	Elapsed     float64        `json:"elapsed"`
	Speed       float64        `json:"speed"`
	Outcome     engine.Outcome `json:"outcome"`
	Paused      bool           `json:"paused"`
	Frozen      bool           `json:"frozen"`
	Population  int            `json:"population"`
	ActiveEvent string         `json:"active_event,omitempty"`
	NextEventIn float64        `json:"next_event_in"`
	MatchID     string         `json:"match_id,omitempty"`
}

// Observer fetches match state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Observe fetches status and the latest snapshot.
func (o *Observer) Observe(ctx context.Context) (*Observation, error) {
	obs := &Observation{}
	if err := o.fetchJSON(ctx, "/api/v1/status", &obs.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/snapshot", &obs.Snapshot); err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	return obs, nil
}

// Ready reports whether the status endpoint answers 200.
func (o *Observer) Ready(ctx context.Context) bool {
	var st MatchStatus
	return o.fetchJSON(ctx, "/api/v1/status", &st) == nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
