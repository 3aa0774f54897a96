package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/model"
)

// Client talks to the learning-platform REST backend that owns categories,
// assessments, content, progress and assignment persistence.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retries    int
	retryWait  time.Duration
	log        zerolog.Logger
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetries sets how many times a failed GET is retried and the base wait
// between attempts. POST requests are never retried.
func WithRetries(n int, wait time.Duration) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retries = n
		c.retryWait = wait
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log.With().Str("component", "upstream_client").Logger()
	}
}

// NewClient creates a new upstream client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retries:   2,
		retryWait: 250 * time.Millisecond,
		log:       zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// ErrNotFound is matched by a 404 StatusError.
var ErrNotFound = errors.New("upstream resource not found")

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ListCategories returns the categories available at a reading level.
func (c *Client) ListCategories(ctx context.Context, level model.ReadingLevel) ([]model.Category, error) {
	q := url.Values{}
	if level != "" {
		q.Set("level", string(level))
	}

	raw, err := c.get(ctx, "/categories", q)
	if err != nil {
		return nil, err
	}

	var out []model.Category
	if err := decodeData(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return out, nil
}

// ListAssessments returns assessments, optionally filtered by category and level.
func (c *Client) ListAssessments(ctx context.Context, categoryID *int, level model.ReadingLevel) ([]model.Assessment, error) {
	q := url.Values{}
	if categoryID != nil {
		q.Set("categoryId", strconv.Itoa(*categoryID))
	}
	if level != "" {
		q.Set("level", string(level))
	}

	raw, err := c.get(ctx, "/assessments", q)
	if err != nil {
		return nil, err
	}

	var out []model.Assessment
	if err := decodeData(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode assessments: %w", err)
	}
	return out, nil
}

// ListContent returns every item of one content kind.
func (c *Client) ListContent(ctx context.Context, kind model.ContentKind) ([]model.ContentItem, error) {
	raw, err := c.get(ctx, "/content/"+url.PathEscape(string(kind)), nil)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := decodeData(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
	}

	out := make([]model.ContentItem, 0, len(items))
	for _, item := range items {
		decoded, err := model.DecodeContent(kind, item)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// ResolveContent fetches the single item a reference points at.
func (c *Client) ResolveContent(ctx context.Context, ref model.ContentRef) (model.ContentItem, error) {
	kind, err := ref.Kind()
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("collection", ref.Collection)
	q.Set("contentId", ref.ContentID)

	raw, err := c.get(ctx, "/content/resolve", q)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", model.ErrContentNotFound, err)
	}
	if err != nil {
		return nil, err
	}

	var item json.RawMessage
	if err := decodeData(raw, &item); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	return model.DecodeContent(kind, item)
}

// StudentProgress returns the per-category status of one student.
func (c *Client) StudentProgress(ctx context.Context, studentID string) (*model.StudentProgress, error) {
	raw, err := c.get(ctx, "/progress/"+url.PathEscape(studentID), nil)
	if err != nil {
		return nil, err
	}

	// The backend answers either with the full report or a bare category list.
	var rows []model.CategoryProgress
	if err := decodeData(raw, &rows); err == nil {
		return &model.StudentProgress{StudentID: studentID, Categories: rows}, nil
	}

	var out model.StudentProgress
	if err := decodeData(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode progress: %w", err)
	}
	if out.StudentID == "" {
		out.StudentID = studentID
	}
	return &out, nil
}

// SubmitAssignment posts a payload once. The response is returned even when
// the backend reports success=false so the caller can surface its message.
func (c *Client) SubmitAssignment(ctx context.Context, payload *model.AssignmentPayload) (*model.AssignmentResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := c.doRequest(ctx, http.MethodPost, "/assignments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result model.AssignmentResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !result.Success && result.Message == "" {
		var wrapped struct {
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &wrapped) == nil && wrapped.Error != nil {
			result.Message = wrapped.Error.Message
		}
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.withRetry(ctx, path, func() ([]byte, error) {
		return c.doRequest(ctx, http.MethodGet, path, nil)
	})
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// decodeData accepts either a bare JSON value or an object wrapping it in "data".
func decodeData(raw []byte, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			trimmed = env.Data
		}
	}
	return json.Unmarshal(trimmed, v)
}
