package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/CalTopSoft/backend-devhub/internal/config"
)

// httpClient implements Client against the scanning service's REST API:
//
//	GET  {base}/files/{sha256}     -> report (404 when hash unknown)
//	POST {base}/files              -> {"scan_id": "..."} (multipart field "file")
//	GET  {base}/analyses/{scanID}  -> report
//
// Transient failures (429 and 5xx) are retried a bounded number of times
// with a short pause; everything else is the caller's problem.
type httpClient struct {
	base       string
	apiKey     string
	hc         *http.Client
	maxRetries int
	retryPause time.Duration
}

// NewHTTPClient creates a Client for the configured scanning service.
func NewHTTPClient(cfg config.ScanConfig) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("scan base url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("scan api key is required")
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &httpClient{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey: cfg.APIKey,
		hc: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries: retries,
		retryPause: time.Second,
	}, nil
}

func (c *httpClient) Lookup(ctx context.Context, sha256 string) (*Report, error) {
	var rep Report
	err := c.getJSON(ctx, c.base+"/files/"+sha256, &rep)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (c *httpClient) Submit(ctx context.Context, r io.Reader, fileName string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("copy file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	body := buf.Bytes()
	var out struct {
		ScanID string `json:"scan_id"`
	}
	err = c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/files", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	}, &out)
	if err != nil {
		return "", err
	}
	if out.ScanID == "" {
		return "", fmt.Errorf("scan service returned empty scan id")
	}
	return out.ScanID, nil
}

func (c *httpClient) Report(ctx context.Context, scanID string) (*Report, error) {
	var rep Report
	if err := c.getJSON(ctx, c.base+"/analyses/"+scanID, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (c *httpClient) getJSON(ctx context.Context, url string, out any) error {
	return c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}, out)
}

// do executes the request built by mk, retrying 429/5xx responses.
func (c *httpClient) do(ctx context.Context, mk func() (*http.Request, error), out any) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryPause):
			}
		}

		req, err := mk()
		if err != nil {
			return err
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.hc.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode scan response: %w", err)
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return ErrHashNotFound
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("scan service returned %d", resp.StatusCode)
			continue
		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("scan service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return fmt.Errorf("scan request failed after %d attempts: %w", c.maxRetries, lastErr)
}
