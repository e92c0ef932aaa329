package vton

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	pixazoDefaultBaseURL = "https://gateway.appypie.com/kling-ai-vton/v1"
	pixazoCostPerCall    = 0.05
)

// PixazoClient drives the Kolors virtual try-on behind Pixazo's gateway.
// The provider is submit-then-poll: submission returns a task id, and the
// task is polled at a fixed interval until it succeeds, fails, or the
// attempt ceiling is hit.
type PixazoClient struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	maxAttempts  int
}

func NewPixazoClient(apiKey string) *PixazoClient {
	return &PixazoClient{
		apiKey:       apiKey,
		baseURL:      pixazoDefaultBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: 3 * time.Second,
		maxAttempts:  60, // 60 x 3s = 3 minute ceiling
	}
}

type pixazoTaskResponse struct {
	TaskID     string `json:"task_id"`
	TaskStatus string `json:"task_status"`
	TaskResult *struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"task_result,omitempty"`
}

func (p *PixazoClient) Generate(ctx context.Context, personImageURL, garmentImageURL string) (*Result, error) {
	startTime := time.Now()

	payload, err := json.Marshal(map[string]string{
		"human_image":  personImageURL,
		"cloth_image":  garmentImageURL,
		"callback_url": "",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/getVirtualTryOnTask", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pixazo submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("pixazo API error: %d - %s", resp.StatusCode, string(body))
	}

	var created pixazoTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("pixazo submit decode: %w", err)
	}
	if created.TaskID == "" {
		return nil, fmt.Errorf("no task_id returned from pixazo API")
	}

	log.Printf("pixazo task created: %s", created.TaskID)

	resultURL, err := p.pollTaskResult(ctx, created.TaskID)
	if err != nil {
		return nil, err
	}

	return &Result{
		ImageURL:       resultURL,
		ProcessingTime: int(time.Since(startTime).Seconds()),
	}, nil
}

// pollTaskResult polls until the task is terminal or the attempt ceiling is
// reached. Transient poll errors are retried up to the same ceiling; only
// the last attempt's error is surfaced.
func (p *PixazoClient) pollTaskResult(ctx context.Context, taskID string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		url, done, err := p.pollOnce(ctx, taskID)
		if err == nil && done {
			log.Printf("pixazo task completed: %s", taskID)
			return url, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("pixazo poll: %w", ctx.Err())
			}
			log.Printf("pixazo poll attempt %d failed: %v", attempt+1, err)
			lastErr = err
			if attempt == p.maxAttempts-1 {
				return "", lastErr
			}
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("pixazo poll: %w", ctx.Err())
		case <-time.After(p.pollInterval):
		}
	}

	return "", fmt.Errorf("%w: pixazo task did not finish after %d attempts", ErrGenerationTimeout, p.maxAttempts)
}

func (p *PixazoClient) pollOnce(ctx context.Context, taskID string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/getVirtualTryOnTask?task_id=%s", p.baseURL, taskID), nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false, fmt.Errorf("poll failed: %d", resp.StatusCode)
	}

	var task pixazoTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return "", false, err
	}

	switch task.TaskStatus {
	case "succeed":
		if task.TaskResult != nil && len(task.TaskResult.Images) > 0 && task.TaskResult.Images[0].URL != "" {
			return task.TaskResult.Images[0].URL, true, nil
		}
		return "", false, fmt.Errorf("pixazo task succeeded without result image")
	case "failed":
		return "", false, fmt.Errorf("pixazo task failed")
	default:
		// still pending
		return "", false, nil
	}
}

func (p *PixazoClient) CostPerCall() float64 { return pixazoCostPerCall }

func (p *PixazoClient) ProviderName() string { return "pixazo-kolors-vton" }
