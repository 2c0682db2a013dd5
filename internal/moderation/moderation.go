package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Verdict is the classification result for a piece of user text.
type Verdict struct {
	IsClean     bool     `json:"isClean"`
	ShouldBlock bool     `json:"shouldBlock"`
	ShouldWarn  bool     `json:"shouldWarn"`
	Violations  []string `json:"violations"`
	Categories  []string `json:"categories"`
}

// ContentFilter is the external text-classification collaborator.
type ContentFilter interface {
	FilterContent(ctx context.Context, text, usage string) (*Verdict, error)
}

// HTTPFilter calls the moderation service over HTTP
type HTTPFilter struct {
	endpoint string
	client   *http.Client
}

// NewHTTPFilter creates a filter against the given moderation endpoint
func NewHTTPFilter(endpoint string) *HTTPFilter {
	return &HTTPFilter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// FilterContent submits text for classification
func (f *HTTPFilter) FilterContent(ctx context.Context, text, usage string) (*Verdict, error) {
	payload, err := json.Marshal(map[string]string{"text": text, "context": usage})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moderation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("moderation service returned status %d", resp.StatusCode)
	}

	var verdict Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("failed to decode moderation response: %w", err)
	}
	return &verdict, nil
}

// AllowAll is a pass-through filter for environments without a moderation
// service configured.
type AllowAll struct{}

// FilterContent approves everything
func (AllowAll) FilterContent(ctx context.Context, text, usage string) (*Verdict, error) {
	return &Verdict{IsClean: true}, nil
}
