package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/parley"
	"github.com/sirupsen/logrus"
)

// Interface compliance checks.
var (
	_ parley.Provider     = (*Client)(nil)
	_ parley.ModelCatalog = (*Client)(nil)
)

// StatusError is returned when the server answers with a non-2xx status.
// It wraps [parley.ErrTransport].
type StatusError struct {
	StatusCode int
	Message    string // server-supplied error text, may be empty
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ollama: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("ollama: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error { return parley.ErrTransport }

// Client talks to a single Ollama server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the server base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for decode diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a new [Client].
func New(opts ...Option) *Client {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		log:        discard,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream posts a chat request and returns a [parley.Stream] of content
// deltas. A non-empty req.BaseURL takes precedence over the client's.
func (c *Client) Stream(ctx context.Context, req parley.Request) (parley.Stream, error) {
	body, err := json.Marshal(buildChatRequest(req))
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	url := c.endpoint(req.BaseURL, chatPath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: %w", parley.ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: %w", parley.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	return newStream(ctx, resp.Body, c.log.WithField("model", req.Model)), nil
}

// Models lists the names of locally available models.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	return c.ModelsAt(ctx, "")
}

// ModelsAt lists the models of the server at baseURL. An empty baseURL
// selects the client's.
func (c *Client) ModelsAt(ctx context.Context, baseURL string) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(baseURL, tagsPath), nil)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: %w", parley.ErrTransport, err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: %w", parley.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseHTTPError(resp)
	}

	var tags apiTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("ollama: decode model list: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (c *Client) endpoint(override, path string) string {
	base := c.baseURL
	if override != "" {
		base = override
	}
	return strings.TrimRight(base, "/") + path
}

func buildChatRequest(req parley.Request) apiChatRequest {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	msgs := make([]apiMessage, len(req.Messages))
	for i, t := range req.Messages {
		msgs[i] = apiMessage{Role: string(t.Role), Content: t.Content}
	}
	return apiChatRequest{Model: model, Messages: msgs, Stream: true}
}

func parseHTTPError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return statusErr
	}
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		statusErr.Message = apiErr.Error
	} else {
		statusErr.Message = strings.TrimSpace(string(body))
	}
	return statusErr
}
