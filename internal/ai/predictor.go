package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PredictorClient forwards feature vectors to the hosted mental-health model.
type PredictorClient struct {
	url        string
	httpClient *http.Client
}

func NewPredictorClient(url string, timeout time.Duration) *PredictorClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PredictorClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Predict posts features as JSON and returns the upstream body untouched.
func (c *PredictorClient) Predict(ctx context.Context, features any) (json.RawMessage, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("marshal predictor request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build predictor request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predictor request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read predictor response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("predictor response status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("predictor returned invalid json")
	}
	return json.RawMessage(raw), nil
}
