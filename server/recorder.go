package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lguibr/pongduel/game"
)

// HTTPResultRecorder hands finished match outcomes to the tournament
// service. Failures are the caller's to log; recording is best effort.
type HTTPResultRecorder struct {
	baseURL string
	client  *http.Client
}

// NewHTTPResultRecorder builds a recorder for the given tournament service
// base URL.
func NewHTTPResultRecorder(baseURL string) *HTTPResultRecorder {
	return &HTTPResultRecorder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// RecordMatchResult posts the result as JSON.
func (r *HTTPResultRecorder) RecordMatchResult(result game.MatchResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshalling match result: %w", err)
	}

	resp, err := r.client.Post(r.baseURL+"/api/match-results", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting match result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("tournament service rejected result (status %d)", resp.StatusCode)
	}
	return nil
}
