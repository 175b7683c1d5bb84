// Package groq implements the completion port against the Groq
// OpenAI-compatible chat completions API.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chaingate/chaingate/internal/port/outbound"
)

// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// DefaultModel is the completion model used when none is configured.
const DefaultModel = "llama3-8b-8192"

// minRequestInterval is the minimum spacing between dispatches.
// Process-wide: the adapter represents one shared outbound credential.
const minRequestInterval = 100 * time.Millisecond

// DefaultTimeout bounds one completion call.
const DefaultTimeout = 30 * time.Second

const systemPrompt = "You are an expert SQL generator for process chain monitoring. Generate only valid SQLite SQL queries."

// Config holds the completion client settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client calls the Groq chat completions API.
// Implements outbound.CompletionClient.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger

	// mu serializes dispatch to enforce the inter-call spacing.
	mu       sync.Mutex
	lastCall time.Time
}

// NewClient creates a Groq completion client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the prompt and returns the raw completion text.
// Dispatch is spaced at least minRequestInterval apart across all
// callers; the wait happens before the request leaves.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.waitForSlot(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", outbound.ErrCompletionUnavailable, err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", outbound.ErrCompletionUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", outbound.ErrCompletionUnavailable, err)
	}

	if err := classifyStatus(resp.StatusCode); err != nil {
		c.logger.Warn("completion request failed",
			"status", resp.StatusCode,
			"body_len", len(respBody))
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", outbound.ErrCompletionUnavailable, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", outbound.ErrCompletionUnavailable, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", outbound.ErrCompletionUnavailable)
	}

	return parsed.Choices[0].Message.Content, nil
}

// waitForSlot blocks until the inter-call spacing allows a dispatch.
// The lock is held across the sleep so concurrent callers queue up.
func (c *Client) waitForSlot(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wait := minRequestInterval - time.Since(c.lastCall); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastCall = time.Now()
	return nil
}

// classifyStatus maps HTTP statuses onto the completion error taxonomy.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", outbound.ErrAuthFailure, status)
	case status == http.StatusTooManyRequests || status == http.StatusPaymentRequired:
		return fmt.Errorf("%w: status %d", outbound.ErrQuotaExceeded, status)
	default:
		return fmt.Errorf("%w: status %d", outbound.ErrCompletionUnavailable, status)
	}
}

// Compile-time interface verification.
var _ outbound.CompletionClient = (*Client)(nil)
