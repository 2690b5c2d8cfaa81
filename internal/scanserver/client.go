package scanserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/scandesk/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Scandesk/1.0"
)

// API paths on the scan server
const (
	pathPhotos  = "/api/photos"
	pathRename  = "/api/rename"
	pathPhoto   = "/api/photo"
	pathDelete  = "/api/delete"
	pathConfirm = "/api/confirm"
)

// Client implements domain.PhotoRepository against the scan server REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new scan server API client. A zero timeout selects the
// default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the normalized server URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ViewerURL returns the URL of the full-size image for a photo
func (c *Client) ViewerURL(name string) string {
	return c.baseURL + "/" + url.PathEscape(name)
}

// response is the common body shape of every endpoint
type response struct {
	Message string          `json:"message"`
	Photos  json.RawMessage `json:"photos,omitempty"` // nil when the key is absent
}

// renameRequest is the body of POST /api/rename
type renameRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

// deletePhotoRequest is the body of DELETE /api/photo
type deletePhotoRequest struct {
	PhotoName string `json:"photoName"`
}

// doRequest performs a request and decodes the JSON body. Any failure
// (transport, status, decoding) is returned as a classified error.
func (c *Client) doRequest(ctx context.Context, method, path string, payload interface{}) (*response, error) {
	reqURL := c.baseURL + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)

	c.logger.Debug("scan server request", "method", method, "url", reqURL, "requestID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("scan server request failed", "error", err, "requestID", requestID)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrServerOffline, err)
	}

	var parsed response
	parseErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("scan server request error", "status", resp.StatusCode, "body", string(raw), "requestID", requestID)
		if parseErr == nil && parsed.Message != "" {
			return nil, fmt.Errorf("%w: %d: %s", domain.ErrUnexpectedStatus, resp.StatusCode, parsed.Message)
		}
		return nil, fmt.Errorf("%w: %d", domain.ErrUnexpectedStatus, resp.StatusCode)
	}

	if parseErr != nil {
		c.logger.Error("JSON parse error", "error", parseErr, "bodyLen", len(raw), "requestID", requestID)
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, parseErr)
	}

	return &parsed, nil
}

// do wraps doRequest into a tagged result
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) domain.ActionResult {
	resp, err := c.doRequest(ctx, method, path, payload)
	if err != nil {
		return domain.ActionResult{Err: err}
	}
	return domain.ActionResult{Message: resp.Message}
}

// ListPhotos fetches the authoritative photo list
func (c *Client) ListPhotos(ctx context.Context) domain.ActionResult {
	resp, err := c.doRequest(ctx, http.MethodGet, pathPhotos, nil)
	if err != nil {
		return domain.ActionResult{Err: err}
	}
	if len(resp.Photos) == 0 {
		return domain.ActionResult{Err: fmt.Errorf("%w: missing photos field", domain.ErrMalformedResponse)}
	}
	// An empty batch may be encoded as null
	photos := []string{}
	if !bytes.Equal(bytes.TrimSpace(resp.Photos), []byte("null")) {
		if err := json.Unmarshal(resp.Photos, &photos); err != nil {
			return domain.ActionResult{Err: fmt.Errorf("%w: photos: %v", domain.ErrMalformedResponse, err)}
		}
	}
	return domain.ActionResult{Message: resp.Message, Photos: photos}
}

// Rename renames a single photo
func (c *Client) Rename(ctx context.Context, oldName, newName string) domain.ActionResult {
	return c.do(ctx, http.MethodPost, pathRename, renameRequest{OldName: oldName, NewName: newName})
}

// DeletePhoto removes a single photo
func (c *Client) DeletePhoto(ctx context.Context, name string) domain.ActionResult {
	return c.do(ctx, http.MethodDelete, pathPhoto, deletePhotoRequest{PhotoName: name})
}

// DeleteAll removes every photo in the batch
func (c *Client) DeleteAll(ctx context.Context) domain.ActionResult {
	return c.do(ctx, http.MethodDelete, pathDelete, nil)
}

// Confirm submits the batch
func (c *Client) Confirm(ctx context.Context) domain.ActionResult {
	return c.do(ctx, http.MethodPost, pathConfirm, nil)
}
