package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"text2sql-chat/internal/domain"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:3000/api"

// maxResponseBytes bounds a 2xx response body.
const maxResponseBytes = 1 << 20

// ErrResponseTooLarge is returned when a 2xx body exceeds maxResponseBytes.
var ErrResponseTooLarge = errors.New("backend: response too large")

// chatRequest is the request shape for POST {base}/chat.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse is the minimal response shape returned by POST {base}/chat.
type chatResponse struct {
	Response *string `json:"response"`
}

// feedbackRequest is the request shape for POST {base}/feedback.
type feedbackRequest struct {
	MessageID string          `json:"messageId"`
	Feedback  domain.Feedback `json:"feedback"`
}

// HTTPStatusError captures non-2xx backend responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to the text-to-SQL backend. It holds no retry or backoff logic:
// each call runs once to completion or failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
	newID      func() string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithIDGenerator overrides how answer message identifiers are produced.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewClient creates a Client for the backend rooted at baseURL. An empty
// baseURL falls back to DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("backend: base URL %q must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{},
		newID:      NewAnswerID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NewAnswerID returns a collision-resistant identifier for an answer message.
func NewAnswerID() string {
	return "answer-" + uuid.NewString()
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return http.DefaultClient
}

// SendMessage posts the raw question text and builds the answer message from
// the backend's reply. The identifier is generated locally; the backend does
// not echo one.
func (c *Client) SendMessage(ctx context.Context, text string) (domain.Message, error) {
	body, err := json.Marshal(chatRequest{Message: text})
	if err != nil {
		return domain.Message{}, fmt.Errorf("backend: marshal chat request: %w", err)
	}

	url := c.baseURL + "/chat"
	raw, err := c.postJSON(ctx, url, body)
	if err != nil {
		return domain.Message{}, fmt.Errorf("backend: chat request failed: %w", err)
	}

	var payload chatResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return domain.Message{}, fmt.Errorf("backend: decode chat response: %w", decErr)
	}
	if payload.Response == nil {
		return domain.Message{}, errors.New("backend: chat response has no response field")
	}

	return domain.Message{
		ID:       c.newID(),
		Content:  *payload.Response,
		IsAnswer: true,
		Feedback: &domain.Feedback{},
	}, nil
}

// SendFeedback posts the rating for messageID. The response body is ignored;
// any 2xx status counts as success.
func (c *Client) SendFeedback(ctx context.Context, messageID string, feedback domain.Feedback) (bool, error) {
	if strings.TrimSpace(messageID) == "" {
		return false, errors.New("backend: message id must not be empty")
	}

	body, err := json.Marshal(feedbackRequest{MessageID: messageID, Feedback: feedback})
	if err != nil {
		return false, fmt.Errorf("backend: marshal feedback request: %w", err)
	}

	if _, err := c.postJSON(ctx, c.baseURL+"/feedback", body); err != nil {
		return false, fmt.Errorf("backend: feedback request failed: %w", err)
	}
	return true, nil
}

func (c *Client) postJSON(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(buf) > maxResponseBytes {
		return nil, fmt.Errorf("%w from %s (over %d bytes)", ErrResponseTooLarge, url, maxResponseBytes)
	}
	return buf, nil
}
