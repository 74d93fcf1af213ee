// Package api talks to the remote task service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/api/googleapi"

	"github.com/harrisonrobin/tasklist/pkg/model"
)

// APIKeyHeader carries the service key on every request.
const APIKeyHeader = "X-Api-Key"

// Client is a task service client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	schema     *jsonschema.Schema
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSchema validates fetched payloads against schema before decoding.
func WithSchema(schema *jsonschema.Schema) Option {
	return func(c *Client) {
		c.schema = schema
	}
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type updateRequest struct {
	IsComplete bool `json:"isComplete"`
}

// FetchTasks returns the full task list.
func (c *Client) FetchTasks(ctx context.Context) ([]model.Task, error) {
	res, err := c.do(ctx, http.MethodGet, "/get", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: read body: %w", err)
	}

	if c.schema != nil {
		if err := validatePayload(c.schema, body); err != nil {
			return nil, fmt.Errorf("fetch tasks: %w", err)
		}
	}

	tasks, err := ParseTasks(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	return tasks, nil
}

// SetComplete sends the desired completion state for the task with id.
// Callers wanting toggle behavior pass the negation of the current value.
func (c *Client) SetComplete(ctx context.Context, id string, isComplete bool) error {
	payload, err := json.Marshal(updateRequest{IsComplete: isComplete})
	if err != nil {
		return err
	}

	res, err := c.do(ctx, http.MethodPatch, "/patch/"+url.PathEscape(id), payload)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

// do sends a request and fails unless the service answers 200.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if err := googleapi.CheckResponse(res); err != nil {
		res.Body.Close()
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, &googleapi.Error{
			Code:    res.StatusCode,
			Message: fmt.Sprintf("unexpected status %s", res.Status),
			Header:  res.Header,
		}
	}
	return res, nil
}

// ParseTasks decodes a JSON array of tasks. A null payload is an empty list.
func ParseTasks(r io.Reader) ([]model.Task, error) {
	var tasks []model.Task
	if err := json.NewDecoder(r).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks json: %w", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}
