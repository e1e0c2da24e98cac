// Package gemini performs single generate calls against the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"
)

// JSONMimeType is requested for structured calls.
const JSONMimeType = "application/json"

// Client issues one request per Generate call. SDK clients are cached per API
// key; retries and failover are left to the caller.
type Client struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
	timeout time.Duration
	newSDK  func(ctx context.Context, apiKey string) (*genai.Client, error)
}

// NewClient creates a client. A zero timeout leaves calls bounded only by ctx.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		clients: make(map[string]*genai.Client),
		timeout: timeout,
		newSDK: func(ctx context.Context, apiKey string) (*genai.Client, error) {
			return genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  apiKey,
				Backend: genai.BackendGeminiAPI,
			})
		},
	}
}

func (c *Client) sdk(ctx context.Context, apiKey string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.clients[apiKey]; ok {
		return cl, nil
	}
	cl, err := c.newSDK(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.clients[apiKey] = cl
	return cl, nil
}

// Generate sends prompt to model and returns the response text.
func (c *Client) Generate(ctx context.Context, apiKey, model, prompt string, jsonOutput bool) (string, error) {
	cl, err := c.sdk(ctx, apiKey)
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var cfg *genai.GenerateContentConfig
	if jsonOutput {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: JSONMimeType}
	}

	resp, err := cl.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", wrapError(model, err)
	}
	return resp.Text(), nil
}

// Forget drops the cached SDK client of a credential.
func (c *Client) Forget(apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clients, apiKey)
}

// apiError carries the HTTP status of a Gemini API failure.
type apiError struct {
	model string
	code  int
	err   error
}

func (e *apiError) Error() string {
	return fmt.Sprintf("gemini %s: %v", e.model, e.err)
}

func (e *apiError) Unwrap() error { return e.err }

// StatusCode exposes the HTTP status to the error classifier.
func (e *apiError) StatusCode() int { return e.code }

func wrapError(model string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return &apiError{model: model, code: apiErr.Code, err: err}
	}
	return fmt.Errorf("gemini %s: %w", model, err)
}
