// Package client talks to the form submission HTTP API.
//
// Usage:
//
//	c, err := client.New("http://localhost:8080")
//	schema, err := c.FormSchema(ctx)
//	res, err := c.Submit(ctx, values)
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	// Errors holds the per-field messages of a rejected submission.
	Errors dynform.ValidationResult
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, dynform.NewValidationFailedError(e.Errors).Error())
	}
	if e.Message == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Client is a thin typed wrapper over the REST endpoints.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SubmitResult is the acknowledgement of a stored submission.
type SubmitResult struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

type envelope struct {
	Success    bool                     `json:"success"`
	Data       json.RawMessage          `json:"data,omitempty"`
	Error      string                   `json:"error,omitempty"`
	Errors     dynform.ValidationResult `json:"errors,omitempty"`
	Message    string                   `json:"message,omitempty"`
	Pagination *dynform.Pagination      `json:"pagination,omitempty"`
}

// FormSchema fetches the active form definition.
func (c *Client) FormSchema(ctx context.Context) (*dynform.Schema, error) {
	var schema dynform.Schema
	if err := c.do(ctx, http.MethodGet, "/api/form-schema", nil, nil, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// Validate checks values without storing them. A rejected value set is
// reported through the result, not as an error.
func (c *Client) Validate(ctx context.Context, values dynform.ValueSet) (dynform.ValidationResult, error) {
	err := c.do(ctx, http.MethodPost, "/api/validate", nil, values, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Errors) > 0 {
		return apiErr.Errors, nil
	}
	if err != nil {
		return nil, err
	}
	return dynform.ValidationResult{}, nil
}

// Submit stores a new submission. Validation failures come back as an
// *APIError carrying the per-field messages.
func (c *Client) Submit(ctx context.Context, values dynform.ValueSet) (*SubmitResult, error) {
	var res SubmitResult
	if err := c.do(ctx, http.MethodPost, "/api/submissions", nil, values, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListSubmissions fetches one page of submissions.
func (c *Client) ListSubmissions(ctx context.Context, req *dynform.QueryRequest) (*dynform.QueryResult, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/api/submissions", queryParams(req), nil, &env); err != nil {
		return nil, err
	}
	result := &dynform.QueryResult{Data: []*dynform.Submission{}}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &result.Data); err != nil {
			return nil, fmt.Errorf("decode submissions: %w", err)
		}
	}
	if env.Pagination != nil {
		result.Pagination = *env.Pagination
	}
	return result, nil
}

// GetSubmission fetches one submission.
func (c *Client) GetSubmission(ctx context.Context, id uuid.UUID) (*dynform.Submission, error) {
	return c.submission(ctx, http.MethodGet, id, nil)
}

// UpdateSubmission replaces the values of a stored submission.
func (c *Client) UpdateSubmission(ctx context.Context, id uuid.UUID, values dynform.ValueSet) (*dynform.Submission, error) {
	return c.submission(ctx, http.MethodPut, id, values)
}

// DeleteSubmission removes a submission.
func (c *Client) DeleteSubmission(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/submissions/"+id.String(), nil, nil, nil)
}

func (c *Client) submission(ctx context.Context, method string, id uuid.UUID, body any) (*dynform.Submission, error) {
	var env envelope
	if err := c.do(ctx, method, "/api/submissions/"+id.String(), nil, body, &env); err != nil {
		return nil, err
	}
	var sub dynform.Submission
	if err := json.Unmarshal(env.Data, &sub); err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}
	return &sub, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path += path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env envelope
		if json.Unmarshal(data, &env) == nil {
			apiErr.Message = env.Error
			apiErr.Errors = env.Errors
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func queryParams(req *dynform.QueryRequest) url.Values {
	q := url.Values{}
	if req == nil {
		return q
	}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.SortBy != "" {
		q.Set("sortBy", req.SortBy)
	}
	if req.SortOrder != "" {
		q.Set("sortOrder", string(req.SortOrder))
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	return q
}
