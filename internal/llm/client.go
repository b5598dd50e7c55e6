// Package llm talks to any OpenAI-compatible chat completion endpoint. The
// engine depends only on the small Chat/ChatStream surface here, so local
// runtimes (Ollama, LM Studio, vLLM) and hosted APIs are interchangeable via
// configuration.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Message is one chat turn sent to or received from the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ClientError wraps any failure to obtain a completion: transport errors,
// non-2xx statuses, and unusable response bodies all surface as this type so
// callers can distinguish "the model call failed" from their own errors.
type ClientError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ClientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

// Client calls a single configured endpoint and model.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	log      *zap.Logger
}

// New builds a client for the given base URL and model. The base URL may be
// the API root (".../v1") or already include the /chat/completions path; both
// forms resolve to the same endpoint. An empty apiKey means no Authorization
// header is sent, which local runtimes expect.
func New(baseURL, apiKey, model string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		endpoint: normalizeEndpoint(baseURL),
		apiKey:   apiKey,
		model:    model,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Model reports the configured model name.
func (c *Client) Model() string { return c.model }

func normalizeEndpoint(baseURL string) string {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.HasSuffix(u, "/chat/completions") {
		return u
	}
	return u + "/chat/completions"
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
		Delta   Message `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends the conversation and returns the assistant's full reply text.
// A connection failure or timeout before any response is retried once; every
// other failure returns immediately as a *ClientError.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			c.log.Warn("retrying chat completion", zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", &ClientError{Op: "chat", Err: ctx.Err()}
			case <-time.After(500 * time.Millisecond):
			}
		}

		text, err := c.chatOnce(ctx, messages)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isTransient(err) {
			return "", err
		}
	}
	return "", lastErr
}

func (c *Client) chatOnce(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.post(ctx, chatRequest{Model: c.model, Messages: messages, Temperature: 0.8})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError("chat", resp)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &ClientError{Op: "chat", Err: fmt.Errorf("decoding response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &ClientError{Op: "chat", Err: errors.New(parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", &ClientError{Op: "chat", Err: errors.New("response has no choices")}
	}
	return parsed.Choices[0].Message.Content, nil
}

// ChatStream sends the conversation with streaming enabled and invokes onDelta
// for each content fragment as it arrives, returning the accumulated full
// text. Streaming requests are never retried; a stream that dies mid-reply is
// an error even if some fragments were delivered.
func (c *Client) ChatStream(ctx context.Context, messages []Message, onDelta func(string)) (string, error) {
	resp, err := c.post(ctx, chatRequest{Model: c.model, Messages: messages, Temperature: 0.8, Stream: true})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError("chat stream", resp)
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var parsed chatResponse
		if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
			// Skip malformed keep-alive chunks; real protocol breakage
			// shows up as a scanner error or an empty reply below.
			continue
		}
		for _, choice := range parsed.Choices {
			if choice.Delta.Content != "" {
				full.WriteString(choice.Delta.Content)
				if onDelta != nil {
					onDelta(choice.Delta.Content)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", &ClientError{Op: "chat stream", Err: fmt.Errorf("reading stream: %w", err)}
	}
	if full.Len() == 0 {
		return "", &ClientError{Op: "chat stream", Err: errors.New("stream produced no content")}
	}
	return full.String(), nil
}

func (c *Client) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ClientError{Op: "chat", Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &ClientError{Op: "chat", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ClientError{Op: "chat", Err: err}
	}
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return &ClientError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
}

// isTransient reports whether the failure happened before a usable response
// existed: connection refused, DNS failure, or a timeout. HTTP-level errors
// (any status code) are never transient here.
func isTransient(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) && ce.StatusCode != 0 {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// http.Client wraps transport errors in *url.Error, which implements
	// net.Error; anything that got this far without a status code and is
	// not a decode error is a failed connection.
	var urlErr interface{ Temporary() bool }
	return errors.As(err, &urlErr)
}
