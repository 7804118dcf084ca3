// Package oracle talks to the external assistants API that grades
// translations and generates practice sentences.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/olehkravets/satzwerk/pkg/config"
)

const betaHeader = "assistants=v2"

// Client is a thin HTTP transport for the assistants API. One conversation
// (thread) is created per request and torn down afterwards.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *zap.Logger
}

// NewClient builds a transport from the oracle configuration.
func NewClient(cfg config.OracleConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 90 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: timeout},
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		logger:       logger,
	}
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type assistantResponse struct {
	ID string `json:"id"`
}

type threadResponse struct {
	ID string `json:"id"`
}

type runResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type messageListResponse struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// CreateAssistant provisions a named assistant and returns its id.
func (c *Client) CreateAssistant(ctx context.Context, name, model, instructions string) (string, error) {
	payload := map[string]interface{}{
		"name":         name,
		"model":        model,
		"instructions": instructions,
	}
	var resp assistantResponse
	if err := c.do(ctx, http.MethodPost, "/assistants", payload, &resp); err != nil {
		return "", fmt.Errorf("create assistant %q: %w", name, err)
	}
	return resp.ID, nil
}

// CreateThread opens a fresh conversation context.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var resp threadResponse
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]interface{}{}, &resp); err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return resp.ID, nil
}

// AddMessage appends a user message to the thread.
func (c *Client) AddMessage(ctx context.Context, threadID, content string) error {
	payload := map[string]interface{}{
		"role":    "user",
		"content": content,
	}
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", payload, nil); err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

// CreateRun starts assistant processing on the thread.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (string, error) {
	payload := map[string]interface{}{
		"assistant_id": assistantID,
	}
	var resp runResponse
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", payload, &resp); err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return resp.ID, nil
}

// WaitForRun polls until the run reaches a terminal status or the bounded
// polling window elapses.
func (c *Client) WaitForRun(ctx context.Context, threadID, runID string) error {
	deadline := time.Now().Add(c.pollTimeout)
	for {
		var resp runResponse
		if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &resp); err != nil {
			return fmt.Errorf("poll run: %w", err)
		}
		switch resp.Status {
		case "completed":
			return nil
		case "failed", "cancelled", "expired", "incomplete":
			if resp.LastError != nil {
				return fmt.Errorf("run %s: %s (%s)", resp.Status, resp.LastError.Message, resp.LastError.Code)
			}
			return fmt.Errorf("run %s", resp.Status)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("run %s did not complete within %s", runID, c.pollTimeout)
		}
		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// LatestAssistantMessage returns the text of the newest assistant reply.
func (c *Client) LatestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	var resp messageListResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages?order=desc&limit=5", nil, &resp); err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}
	for _, msg := range resp.Data {
		if msg.Role != "assistant" {
			continue
		}
		for _, part := range msg.Content {
			if part.Type == "text" && part.Text.Value != "" {
				return part.Text.Value, nil
			}
		}
	}
	return "", fmt.Errorf("no assistant reply in thread %s", threadID)
}

// DeleteThread tears the conversation down. Failures are logged, not
// escalated; threads also expire server-side.
func (c *Client) DeleteThread(ctx context.Context, threadID string) {
	if threadID == "" {
		return
	}
	if err := c.do(ctx, http.MethodDelete, "/threads/"+threadID, nil, nil); err != nil {
		c.logger.Warn("failed to delete oracle thread", zap.String("thread_id", threadID), zap.Error(err))
	}
}

// Ask runs one full conversation round trip: thread, message, run, poll,
// read reply. The thread is removed regardless of outcome.
func (c *Client) Ask(ctx context.Context, assistantID, prompt string) (string, error) {
	threadID, err := c.CreateThread(ctx)
	if err != nil {
		return "", err
	}
	defer c.DeleteThread(context.WithoutCancel(ctx), threadID)

	if err := c.AddMessage(ctx, threadID, prompt); err != nil {
		return "", err
	}
	runID, err := c.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		return "", err
	}
	if err := c.WaitForRun(ctx, threadID, runID); err != nil {
		return "", err
	}
	return c.LatestAssistantMessage(ctx, threadID)
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", betaHeader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("oracle api %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("oracle api %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
