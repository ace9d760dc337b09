package station

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/labelgen/internal/api"
	"github.com/muurk/labelgen/internal/discovery"
	"github.com/muurk/labelgen/internal/logging"
	"github.com/muurk/labelgen/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 10 * time.Second

	// DefaultPollInterval is how often WaitForJob checks a running job
	DefaultPollInterval = 250 * time.Millisecond
)

// Client talks to a label station over HTTP.
type Client struct {
	// BaseURL is the station root (e.g., "http://192.168.0.20:8780")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for idempotent requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	log *zap.Logger
}

// NewClientWithURL creates a client for a station base URL. A URL without
// a scheme is treated as http.
func NewClientWithURL(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
		log:           logging.Named("station"),
	}
}

// NewClient creates a client for a discovered station.
func NewClient(st *discovery.Station) *Client {
	return NewClientWithURL(st.BaseURL())
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// do sends one request and decodes a JSON response into out (if non-nil).
// GET requests are retried with exponential backoff on retryable errors.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.MaxRetries
	}

	var lastErr error
	delay := c.RetryDelay
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			c.log.Debug("Retrying request",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
			if c.MaxRetryDelay > 0 && delay > c.MaxRetryDelay {
				delay = c.MaxRetryDelay
			}
		}

		lastErr = c.attempt(ctx, method, path, payload, out)
		if lastErr == nil || !IsRetryable(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return NewNetworkError("failed to create request", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError(method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewParseError("failed to parse JSON response", err)
	}
	return nil
}

// checkResponse converts a non-2xx response into a StationError.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var body api.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
	}
	return NewHTTPError(resp.StatusCode, body.Error, body.Hint)
}

// Health checks that the station is reachable and returns its status.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Version returns the station build.
func (c *Client) Version(ctx context.Context) (*api.VersionResponse, error) {
	var out api.VersionResponse
	if err := c.do(ctx, http.MethodGet, "/api/version", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories lists the station's categories.
func (c *Client) Categories(ctx context.Context) ([]api.Category, error) {
	var out []api.Category
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, &out)
	return out, err
}

// AddCategory adds a category. A nil id lets the station assign one.
func (c *Client) AddCategory(ctx context.Context, name string, id *int) (*api.Category, error) {
	var out api.Category
	if err := c.do(ctx, http.MethodPost, "/api/categories", api.CreateCategoryRequest{Name: name, ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategory renames and/or renumbers a category given by name or ID.
func (c *Client) UpdateCategory(ctx context.Context, ref string, req api.UpdateCategoryRequest) (*api.Category, error) {
	var out api.Category
	if err := c.do(ctx, http.MethodPatch, "/api/categories/"+url.PathEscape(ref), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory deletes an unused category given by name or ID.
func (c *Client) DeleteCategory(ctx context.Context, ref string) error {
	return c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(ref), nil, nil)
}

// Products lists products, optionally only those of one category.
func (c *Client) Products(ctx context.Context, category string) ([]api.Product, error) {
	path := "/api/products"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}
	var out []api.Product
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func productPath(category string, id int) string {
	return "/api/products/" + url.PathEscape(category) + "/" + strconv.Itoa(id)
}

// Product returns one product.
func (c *Client) Product(ctx context.Context, category string, id int) (*api.Product, error) {
	var out api.Product
	if err := c.do(ctx, http.MethodGet, productPath(category, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddProduct adds a product.
func (c *Client) AddProduct(ctx context.Context, req api.CreateProductRequest) (*api.Product, error) {
	var out api.Product
	if err := c.do(ctx, http.MethodPost, "/api/products", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct changes the fields set in req.
func (c *Client) UpdateProduct(ctx context.Context, category string, id int, req api.UpdateProductRequest) (*api.Product, error) {
	var out api.Product
	if err := c.do(ctx, http.MethodPatch, productPath(category, id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct deletes a product.
func (c *Client) DeleteProduct(ctx context.Context, category string, id int) error {
	return c.do(ctx, http.MethodDelete, productPath(category, id), nil, nil)
}

// Undo reverts the station's last workbook change.
func (c *Client) Undo(ctx context.Context) (*api.UndoResponse, error) {
	var out api.UndoResponse
	if err := c.do(ctx, http.MethodPost, "/api/undo", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Templates lists the label templates on the station.
func (c *Client) Templates(ctx context.Context) ([]api.Template, error) {
	var out []api.Template
	err := c.do(ctx, http.MethodGet, "/api/templates", nil, &out)
	return out, err
}

// Logs returns recent station log entries.
func (c *Client) Logs(ctx context.Context, level, module string, limit int) ([]api.LogEntry, error) {
	q := url.Values{}
	if level != "" {
		q.Set("level", level)
	}
	if module != "" {
		q.Set("module", module)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []api.LogEntry
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Barcode fetches the PNG image for a label code.
func (c *Client) Barcode(ctx context.Context, code string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.download(ctx, "/api/barcodes/"+url.PathEscape(code)+".png", &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SubmitLabels queues a generation job.
func (c *Client) SubmitLabels(ctx context.Context, req api.LabelRequest) (*api.Job, error) {
	var out api.Job
	if err := c.do(ctx, http.MethodPost, "/api/labels", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Job returns the current state of a job.
func (c *Client) Job(ctx context.Context, id string) (*api.Job, error) {
	var out api.Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitForJob polls a job until it finishes. onUpdate, if not nil, sees
// every poll result. A job that ends in failure returns a job error.
func (c *Client) WaitForJob(ctx context.Context, id string, onUpdate func(*api.Job)) (*api.Job, error) {
	ticker := time.NewTicker(DefaultPollInterval)
	defer ticker.Stop()

	for {
		job, err := c.Job(ctx, id)
		if err != nil {
			return nil, err
		}
		if onUpdate != nil {
			onUpdate(job)
		}
		switch job.Status {
		case api.JobDone:
			return job, nil
		case api.JobFailed:
			return job, NewJobError(id, job.Error)
		}

		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Download saves one output file of a finished job into dir and returns the
// written path.
func (c *Client) Download(ctx context.Context, jobID, name, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, filepath.Base(name))
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	path := "/api/jobs/" + url.PathEscape(jobID) + "/files/" + url.PathEscape(name)
	if err := c.download(ctx, path, tmp); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}
	c.log.Info("Downloaded label document", zap.String("job", jobID), zap.String("file", dest))
	return dest, nil
}

func (c *Client) download(ctx context.Context, path string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return NewNetworkError("failed to create request", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError("GET "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return NewNetworkError("failed to read response body", err)
	}
	return nil
}
