package vton

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	replicateDefaultBaseURL = "https://api.replicate.com/v1"
	replicateModelPath      = "mmezhov/catvton-flux"
	replicateCostPerCall    = 0.046
)

// ReplicateClient runs CatVTON-Flux on Replicate as a synchronous-call
// provider: the request blocks server-side until the prediction is done
// (bounded by the caller's context deadline).
type ReplicateClient struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

func NewReplicateClient(apiToken string) *ReplicateClient {
	return &ReplicateClient{
		apiToken:   apiToken,
		baseURL:    replicateDefaultBaseURL,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

func (r *ReplicateClient) Generate(ctx context.Context, personImageURL, garmentImageURL string) (*Result, error) {
	startTime := time.Now()

	payload, err := json.Marshal(map[string]interface{}{
		"input": map[string]interface{}{
			"image":   personImageURL,
			"garment": garmentImageURL,
			"seed":    42,
			"steps":   30,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/models/%s/predictions", r.baseURL, replicateModelPath),
		bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiToken)
	req.Header.Set("Content-Type", "application/json")
	// Hold the connection open until the prediction finishes.
	req.Header.Set("Prefer", "wait")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("replicate API error: %d - %s", resp.StatusCode, string(body))
	}

	var prediction replicatePrediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("replicate decode: %w", err)
	}

	if prediction.Status != "succeeded" {
		if prediction.Error != "" {
			return nil, fmt.Errorf("replicate prediction failed: %s", prediction.Error)
		}
		return nil, fmt.Errorf("replicate prediction not completed (status=%s)", prediction.Status)
	}

	imageURL, err := parseReplicateOutput(prediction.Output)
	if err != nil {
		return nil, err
	}

	return &Result{
		ImageURL:       imageURL,
		ProcessingTime: int(time.Since(startTime).Seconds()),
	}, nil
}

// Output is either a single URL string or an array of URLs depending on the
// model version.
func parseReplicateOutput(raw json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 && many[0] != "" {
		return many[0], nil
	}

	return "", fmt.Errorf("replicate prediction returned no output image")
}

func (r *ReplicateClient) CostPerCall() float64 { return replicateCostPerCall }

func (r *ReplicateClient) ProviderName() string { return "replicate-catvton-flux" }
