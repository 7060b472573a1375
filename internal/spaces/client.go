// Package spaces queries the hosted Hugging Face Spaces that answer the
// remotely routed modes.
package spaces

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AllowedPrefix is the only URL prefix accepted as a Space address.
const AllowedPrefix = "https://huggingface.co/spaces/"

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// NoTextReply is the content used when a Space answers without generated text.
const NoTextReply = "No response text found."

// ErrNoSpace is returned when a mode has no valid Space URL configured.
var ErrNoSpace = errors.New("no valid space configured")

// Error represents a failed Space request.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("space error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("space error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Reply is the JSON body a Space answers with. Every field is optional.
type Reply struct {
	GeneratedText *string `json:"generated_text"`
	ImageURL      string  `json:"image_url"`
	SourceURL     string  `json:"source_url"`
}

// Content returns the generated text, or NoTextReply when it is absent.
func (r *Reply) Content() string {
	if r.GeneratedText == nil {
		return NoTextReply
	}
	return *r.GeneratedText
}

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
}

type parameters struct {
	SystemPrompt string `json:"system_prompt"`
}

// Options configures the client.
type Options struct {
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	// AllowedPrefix overrides the accepted Space URL prefix.
	AllowedPrefix string
}

// Client posts questions to Spaces.
type Client struct {
	http   *http.Client
	apiKey string
	prefix string
}

// NewClient creates a Space client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	prefix := opts.AllowedPrefix
	if prefix == "" {
		prefix = AllowedPrefix
	}
	return &Client{http: httpClient, apiKey: opts.APIKey, prefix: prefix}
}

// Endpoint validates a Space URL and rewrites it to its chat API endpoint:
// https://huggingface.co/spaces/o/n becomes https://huggingface.co/spaces/api/o/n/chat.
func (c *Client) Endpoint(spaceURL string) (string, error) {
	if spaceURL == "" || !strings.HasPrefix(spaceURL, c.prefix) {
		return "", ErrNoSpace
	}
	rest := strings.TrimRight(strings.TrimPrefix(spaceURL, c.prefix), "/")
	if rest == "" {
		return "", ErrNoSpace
	}
	return strings.Replace(c.prefix, "spaces/", "spaces/api/", 1) + rest + "/chat", nil
}

// Query sends the question and system prompt to the Space at spaceURL.
// Returns ErrNoSpace for an invalid URL and *Error for transport, status or
// decoding failures.
func (c *Client) Query(ctx context.Context, spaceURL, question, systemPrompt string) (*Reply, error) {
	endpoint, err := c.Endpoint(spaceURL)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(request{
		Inputs:     question,
		Parameters: parameters{SystemPrompt: systemPrompt},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &Error{
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	var reply Reply
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&reply); err != nil {
		return nil, &Error{URL: endpoint, StatusCode: resp.StatusCode, Message: "invalid JSON response", Cause: err}
	}
	return &reply, nil
}
