package rasa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/8adimka/chat-gateway/internal/chat/model"
	"github.com/8adimka/chat-gateway/internal/httpx"
)

const webhookPath = "/webhooks/rest/webhook"

// DefaultTimeout bounds a single webhook call. The engine either answers
// within it or the call surfaces as a transport error with no status.
const DefaultTimeout = 3 * time.Second

// StatusError is returned when the engine answers with a non-2xx status.
// Body always holds valid JSON: a non-JSON upstream payload is wrapped as a
// JSON string.
type StatusError struct {
	Code int
	Body json.RawMessage
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bot engine returned status %d", e.Code)
}

func (e *StatusError) StatusCode() int {
	return e.Code
}

// Client calls the Rasa REST webhook.
type Client struct {
	client  *http.Client
	baseURL string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type webhookRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// Send forwards one user message to the engine and returns the reply
// fragments in the order the engine produced them. The request identifier is
// carried on the X-Request-ID header for cross-service correlation.
func (c *Client) Send(ctx context.Context, sender, message, requestID string) ([]model.BotReply, error) {
	payload, err := json.Marshal(webhookRequest{Sender: sender, Message: message})
	if err != nil {
		return nil, fmt.Errorf("encode webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+webhookPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpx.RequestIDHeader, requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call bot engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if !json.Valid(body) {
			body, _ = json.Marshal(string(body))
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: body}
	}

	var replies []model.BotReply
	if err := json.NewDecoder(resp.Body).Decode(&replies); err != nil {
		return nil, fmt.Errorf("decode bot engine response: %w", err)
	}

	return replies, nil
}
