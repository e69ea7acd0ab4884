// Package transport holds the HTTP plumbing shared by provider adapters:
// URL resolution, header merging, request ids, and status errors carrying
// the response body for classification upstream.
//
// The transport performs single attempts only. Adapters classify failures
// and drive the retry loop, so re-attempt decisions are always made on a
// classified error.
package transport

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const maxErrorBodyBytes = 1 << 20

type Client struct {
	HTTPClient *http.Client
	BaseURL    *url.URL

	DefaultHeaders http.Header
	UserAgent      string
	Logger         *slog.Logger
}

func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		HTTPClient:     httpClient,
		BaseURL:        u,
		DefaultHeaders: make(http.Header),
		UserAgent:      "ferrous-llm/1",
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

func (c *Client) Clone() *Client {
	out := *c
	out.DefaultHeaders = c.DefaultHeaders.Clone()
	return &out
}

func (c *Client) Resolve(path string) string {
	// url.JoinPath would clean too aggressively for base URLs with paths.
	u := *c.BaseURL
	u.Path = joinPath(u.Path, path)
	return u.String()
}

func joinPath(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if a[len(a)-1] == '/' {
		if b[0] == '/' {
			return a + b[1:]
		}
		return a + b
	}
	if b[0] == '/' {
		return a + b
	}
	return a + "/" + b
}

// DoJSON posts a JSON body and reads the whole response. Non-2xx responses
// return a *StatusError holding the body and any Retry-After hint.
func (c *Client) DoJSON(ctx context.Context, method, path string, hdr http.Header, reqBody any) ([]byte, error) {
	resp, err := c.send(ctx, method, path, hdr, reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// DoStream posts a JSON body and hands the open response to the caller.
// The caller owns resp.Body and must close it.
func (c *Client) DoStream(ctx context.Context, method, path string, hdr http.Header, reqBody any) (*http.Response, error) {
	return c.send(ctx, method, path, hdr, reqBody)
}

// DoRaw posts an arbitrary body (e.g. multipart) and reads the whole
// response, with the same error contract as DoJSON.
func (c *Client) DoRaw(ctx context.Context, method, path string, hdr http.Header, body []byte) ([]byte, error) {
	resp, err := c.sendBytes(ctx, method, path, hdr, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) send(ctx context.Context, method, path string, hdr http.Header, reqBody any) (*http.Response, error) {
	var bodyBytes []byte
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, err
		}
		bodyBytes = b
	}
	return c.sendBytes(ctx, method, path, hdr, bodyBytes)
}

func (c *Client) sendBytes(ctx context.Context, method, path string, hdr http.Header, bodyBytes []byte) (*http.Response, error) {
	urlStr := c.Resolve(path)
	req, err := http.NewRequestWithContext(ctx, method, urlStr, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}

	mergeHeaders(req.Header, c.DefaultHeaders)
	mergeHeaders(req.Header, hdr)
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", randomID())
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	c.Logger.Debug("llm http error", "status", resp.StatusCode, "url", urlStr)
	return nil, &StatusError{
		StatusCode: resp.StatusCode,
		Body:       raw,
		Header:     resp.Header.Clone(),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// StatusError is a non-2xx response. It carries enough for the adapter to
// classify and to honor backend pacing hints.
type StatusError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	s := "http status " + strconv.Itoa(e.StatusCode)
	if text := http.StatusText(e.StatusCode); text != "" {
		s += " " + text
	}
	return s
}

// parseRetryAfter supports both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func mergeHeaders(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}
