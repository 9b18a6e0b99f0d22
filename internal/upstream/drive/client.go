package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/logging"
	"github.com/pysugar/drive-nexus/internal/metrics"
	"github.com/pysugar/drive-nexus/internal/upstream"
	"github.com/pysugar/drive-nexus/internal/util"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100

	// ListFields and FileFields project responses down to what the client renders.
	ListFields = "nextPageToken, files(id, name, mimeType, size, thumbnailLink, webViewLink, webContentLink, iconLink, modifiedTime, parents)"
	FileFields = "id,name,mimeType,size,thumbnailLink,webViewLink,webContentLink,iconLink,modifiedTime,parents"

	// OrderFoldersFirst lists folders before files, then by name.
	OrderFoldersFirst = "folder,name"

	maxErrorBody = 64 << 10
)

// ListRequest is one files.list call.
type ListRequest struct {
	Query     string
	PageToken string
	PageSize  int
	OrderBy   string
}

// FileList is a page of results. Entries are passed through exactly as the provider sent them.
type FileList struct {
	Files         []json.RawMessage `json:"files"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}

// ClampPageSize bounds n to [1, MaxPageSize]; non-positive values mean DefaultPageSize.
func ClampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}

// Client calls the Drive v3 files endpoints with a caller-supplied access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a client for baseURL (e.g. https://www.googleapis.com/drive/v3).
func NewClient(baseURL string, httpClient *http.Client, m *metrics.Metrics) *Client {
	if httpClient == nil {
		httpClient = upstream.NewHTTPClient(upstream.DefaultTimeout)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		metrics:    m,
	}
}

// ListFiles runs files.list. A 401 from the provider yields apperr.TokenExpired.
func (c *Client) ListFiles(ctx context.Context, accessToken string, req ListRequest) (*FileList, error) {
	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("pageSize", strconv.Itoa(ClampPageSize(req.PageSize)))
	params.Set("fields", ListFields)
	if req.OrderBy != "" {
		params.Set("orderBy", req.OrderBy)
	}
	if req.PageToken != "" {
		params.Set("pageToken", req.PageToken)
	}

	body, err := c.get(ctx, "files.list", accessToken, c.baseURL+"/files?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var list FileList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, apperr.Provider(http.StatusBadGateway, "Invalid response from Drive API", err)
	}
	if list.Files == nil {
		list.Files = []json.RawMessage{}
	}
	return &list, nil
}

// GetFile fetches one file's metadata with the same projection as listings.
func (c *Client) GetFile(ctx context.Context, accessToken, fileID string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("fields", FileFields)
	endpoint := fmt.Sprintf("%s/files/%s?%s", c.baseURL, url.PathEscape(fileID), params.Encode())

	body, err := c.get(ctx, "files.get", accessToken, endpoint)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, apperr.Provider(http.StatusBadGateway, "Invalid response from Drive API", nil)
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, op, accessToken, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to build Drive request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ProviderCall(op, "error", start)
		logging.Printf(ctx, "❌ Drive %s request failed: %v", op, err)
		return nil, apperr.Wrap(apperr.ExternalAPIFailure, "Drive API unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			c.metrics.ProviderCall(op, "error", start)
			return nil, apperr.Provider(http.StatusBadGateway, "Failed to read Drive API response", err)
		}
		c.metrics.ProviderCall(op, "ok", start)
		return body, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode == http.StatusUnauthorized {
		c.metrics.ProviderCall(op, "token_expired", start)
		logging.Printf(ctx, "⚠️ Drive %s rejected the access token (401)", op)
		return nil, apperr.New(apperr.TokenExpired, "Token expired")
	}

	c.metrics.ProviderCall(op, "error", start)
	pe := upstream.ParseProviderError(resp.Header, body, "Drive API error")
	if pe.RetryAfter > 0 {
		logging.Printf(ctx, "❌ Drive %s returned %d (%s), retry after %s: %s", op, resp.StatusCode, pe.Reason, pe.RetryAfter, util.TruncateBytes(body))
	} else {
		logging.Printf(ctx, "❌ Drive %s returned %d: %s", op, resp.StatusCode, util.TruncateBytes(body))
	}
	return nil, apperr.Provider(resp.StatusCode, pe.Message, fmt.Errorf("drive %s: status %d", op, resp.StatusCode))
}
