package runpod

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Job statuses reported by the serverless endpoints.
const (
	StatusQueued     = "IN_QUEUE"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// SubmitInput is the generation payload handed to a serverless endpoint.
type SubmitInput struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Steps  int    `json:"num_inference_steps"`
	Seed   *int64 `json:"seed,omitempty"`
}

type submitRequest struct {
	Input SubmitInput `json:"input"`
}

type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// StatusResponse carries the raw output payload; its shape varies by
// endpoint (bare URL string or an {image: ...} object), see ParseOutput.
type StatusResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ErrRejected marks a request the endpoint refused outright; retrying the
// same payload cannot succeed.
var ErrRejected = errors.New("request rejected")

const submitAttempts = 3

// Submit queues a generation job and returns the endpoint's job id. Transport
// failures and 5xx responses are retried with backoff; a rejection is returned
// immediately.
func (c *Client) Submit(endpointID string, input SubmitInput) (string, error) {
	var jobID string
	err := c.RetryWithBackoff(func() error {
		id, err := c.submitOnce(endpointID, input)
		if err != nil {
			return err
		}
		jobID = id
		return nil
	}, submitAttempts)
	if err != nil {
		return "", err
	}
	return jobID, nil
}

func (c *Client) submitOnce(endpointID string, input SubmitInput) (string, error) {
	jsonData, err := json.Marshal(submitRequest{Input: input})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.baseURL, "/") + "/" + endpointID + "/run"
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", fmt.Errorf("%w: status %d, body: %s", ErrRejected, resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("failed to submit job: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result SubmitResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	if result.ID == "" {
		return "", fmt.Errorf("%w: job id is empty in response, body: %s", ErrRejected, string(body))
	}

	return result.ID, nil
}

// Status queries an in-flight job.
func (c *Client) Status(endpointID, jobID string) (*StatusResponse, error) {
	url := strings.TrimSuffix(c.baseURL, "/") + "/" + endpointID + "/status/" + jobID
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get job status: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// ParseOutput normalizes a completed job's output to a single media locator.
// Endpoints return either a bare string or a nested {"image": "..."} object.
func ParseOutput(output json.RawMessage) (string, error) {
	if len(output) == 0 {
		return "", fmt.Errorf("output is empty")
	}

	var direct string
	if err := json.Unmarshal(output, &direct); err == nil && direct != "" {
		return direct, nil
	}

	var nested struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(output, &nested); err == nil && nested.Image != "" {
		return nested.Image, nil
	}

	return "", fmt.Errorf("unrecognized output shape: %s", string(output))
}

// RetryWithBackoff executes a function with exponential backoff retry logic.
// An error wrapping ErrRejected stops the retries immediately.
func (c *Client) RetryWithBackoff(fn func() error, maxRetries int) error {
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if errors.Is(err, ErrRejected) {
			return lastErr
		}
		if i < maxRetries-1 && i < len(backoffs) {
			time.Sleep(backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}
