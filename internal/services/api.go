// API service for making raw HTTP requests to the NeteaseCloudMusicApi proxy
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/ncmx/internal/shared"
)

const defaultBaseURL = "http://127.0.0.1:3000"

// APIOptions configures an [APIService].
type APIOptions struct {
	Cookie            string  // sent as the Cookie header on every request
	RequestsPerSecond float64 // zero disables throttling
	NoCacheBust       bool    // omit the timestamp query parameter the proxy uses to skip its cache
}

// APIService provides methods for making raw HTTP requests to the proxy.
//
// Requests share one rate limiter, so concurrent callers (track loads, lyric fetches, the CLI) are throttled together.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	cookie     string
	limiter    *rate.Limiter
	cacheBust  bool
}

// NewAPIService creates a new API service instance for the proxy.
func NewAPIService(baseURL string, client *http.Client, opts APIOptions) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
		cookie:     opts.Cookie,
		limiter:    limiter,
		cacheBust:  !opts.NoCacheBust,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to path with the given query and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, nil, data)
}

// GetJSON performs a GET request and decodes the body into out.
//
// Transport failures and 5xx/429 statuses wrap [shared.ErrAPIRequest]. Proxy envelopes with code 301 wrap
// [shared.ErrNotAuthenticated]; other non-200 codes wrap [shared.ErrAPIRequest].
func (a *APIService) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := a.Get(ctx, path, query)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, path, err)
	}
	if err := checkResponse(path, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %s: failed to decode response: %w", shared.ErrAPIRequest, path, err)
	}
	return nil
}

func (a *APIService) do(ctx context.Context, method, path string, query url.Values, data []byte) (*APIResponse, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	fullURL := a.baseURL + path
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if a.cacheBust {
		q.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	}
	if len(q) > 0 {
		fullURL += "?" + q.Encode()
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.cookie != "" {
		req.Header.Set("Cookie", a.cookie)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// envelope is the status wrapper every proxy response carries.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func checkResponse(path string, resp *APIResponse) error {
	var env envelope
	if resp.IsJSON {
		_ = json.Unmarshal(resp.Body, &env)
	}
	msg := env.Message
	if msg == "" {
		msg = env.Msg
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s: status %d", shared.ErrAPIRequest, path, resp.StatusCode)
	case env.Code == 301 || resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s: %s", shared.ErrNotAuthenticated, path, msg)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s: status %d %s", shared.ErrAPIRequest, path, resp.StatusCode, msg)
	case !resp.IsJSON:
		return fmt.Errorf("%w: %s: response is not JSON", shared.ErrAPIRequest, path)
	case env.Code != 0 && env.Code != http.StatusOK:
		return fmt.Errorf("%w: %s: code %d %s", shared.ErrAPIRequest, path, env.Code, msg)
	}
	return nil
}
