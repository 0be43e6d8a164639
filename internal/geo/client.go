package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the NCBI host serving GEO series files.
const DefaultBaseURL = "https://ftp.ncbi.nlm.nih.gov"

// HTTPError is a non-retryable (or finally failed) HTTP response.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// Client downloads GEO series files with retry on transient failures.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	log              *zap.Logger
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
// Zero values fall back to defaults; an empty baseURL means DefaultBaseURL.
func NewClient(baseURL string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, log *zap.Logger) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 120 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient:       &http.Client{Timeout: httpTimeout},
		baseURL:          strings.TrimRight(baseURL, "/"),
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
		log:              log,
	}
}

// BaseURL returns the host the client downloads from.
func (c *Client) BaseURL() string { return c.baseURL }

// Get downloads url into w. 429 and 5xx responses and network timeouts are retried
// with capped exponential backoff; Retry-After is honoured when present.
func (c *Client) Get(ctx context.Context, url string, w io.Writer) (int64, error) {
	backoff := c.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		n, retry, wait, err := c.try(ctx, url, w)
		if err == nil {
			return n, nil
		}
		lastErr = err
		if !retry || attempt == c.retryMaxAttempts {
			break
		}
		sleep := wait
		if sleep <= 0 {
			sleep = withJitter(backoff)
			if sleep > c.retryMaxDelay {
				sleep = c.retryMaxDelay
			}
			backoff *= 2
		}
		c.log.Warn("download failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("wait", sleep),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(sleep):
		}
	}
	return 0, lastErr
}

// try performs one request. It reports whether a failure is worth retrying and,
// for throttled responses, how long the server asked us to wait.
func (c *Client) try(ctx context.Context, url string, w io.Writer) (int64, bool, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, false, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "metaclean-cli")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, isRetryableNetErr(err), 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		herr := &HTTPError{URL: url, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		var wait time.Duration
		if ra := resp.Header.Get("Retry-After"); ra != "" && retry {
			if secs, err := parseRetryAfterSeconds(ra); err == nil && secs > 0 {
				wait = time.Duration(secs) * time.Second
			}
		}
		return 0, retry, wait, herr
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		// a partial body has already reached w, so the caller must start over
		return n, false, 0, fmt.Errorf("read body: %w", err)
	}
	return n, false, 0, nil
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfterSeconds interprets a Retry-After header as seconds or an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	// +/-20%
	j := time.Duration(rand.Int63n(int64(d)/5*2+1)) - d/5
	return d + j
}
