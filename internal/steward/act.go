package steward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result is the outcome of one forced event.
type Result struct {
	Started bool
	Details string
}

// Actor forces director events through the admin API.
type Actor struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL with admin auth.
func NewActor(baseURL, adminKey string) *Actor {
	return &Actor{
		BaseURL:    baseURL,
		AdminKey:   adminKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Act sends POST /api/v1/event. A 409 means the match refused the event
// (slot busy or match over) and is reported as not started, not as an
// error.
func (a *Actor) Act(ctx context.Context, eventID string) (Result, error) {
	body, err := json.Marshal(map[string]string{"id": eventID})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/api/v1/event", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.AdminKey)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("POST event: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	details := strings.TrimSpace(string(respBody))
	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Started: true, Details: details}, nil
	case http.StatusConflict:
		return Result{Details: details}, nil
	default:
		return Result{}, fmt.Errorf("force event %s failed (%d): %s", eventID, resp.StatusCode, details)
	}
}
