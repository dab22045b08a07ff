// Package amocrm provides OAuth2-authenticated access to the amoCRM v4
// REST API: paginated lead listing and the pipeline-status and
// loss-reason reference dimensions.
package amocrm

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Options tunes the HTTP behavior of the client.
type Options struct {
	AccountDomain string        // https://<account>.amocrm.ru, no trailing slash
	Timeout       time.Duration // per-request timeout, default 30s
	MaxRetries    int           // attempts per request, default 3
	RateLimit     float64       // requests per second, default 6 (amoCRM caps at 7)
	PageLimit     int           // leads per page, default 250 (API maximum)
}

// Client calls the amoCRM v4 API with bearer auth, a rate limiter and
// retry on 429/5xx.
type Client struct {
	httpc      *http.Client
	base       string
	limiter    *rate.Limiter
	maxRetries int
	pageLimit  int
}

// errNoContent marks an HTTP 204, which the leads listing returns for an
// empty page instead of an empty _embedded array.
var errNoContent = eris.New("amocrm: no content")

// NewClient builds a Client authenticating through the given token
// source (see NewFileTokenSource).
func NewClient(ts oauth2.TokenSource, opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 6
	}
	if opts.PageLimit == 0 {
		opts.PageLimit = 250
	}

	httpc := oauth2.NewClient(context.Background(), ts)
	httpc.Timeout = opts.Timeout

	return &Client{
		httpc:      httpc,
		base:       strings.TrimRight(opts.AccountDomain, "/"),
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), max(int(opts.RateLimit), 1)),
		maxRetries: opts.MaxRetries,
		pageLimit:  opts.PageLimit,
	}
}

// getJSON fetches url and decodes the response into out. Returns
// errNoContent on HTTP 204.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	var lastErr error
	for attempt := range c.maxRetries {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "amocrm: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return eris.Wrapf(err, "amocrm: create request %s", url)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("amocrm request failed, retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("amocrm: HTTP %d from %s", resp.StatusCode, url)
			zap.L().Warn("amocrm server pushed back, retrying",
				zap.String("url", url),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return eris.Wrapf(err, "amocrm: read response %s", url)
		}

		if resp.StatusCode == http.StatusNoContent {
			return errNoContent
		}
		if resp.StatusCode != http.StatusOK {
			return eris.Errorf("amocrm: HTTP %d from %s: %s", resp.StatusCode, url, truncate(body, 512))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return eris.Wrapf(err, "amocrm: decode response %s", url)
		}
		return nil
	}

	return eris.Wrap(lastErr, "amocrm: all retries exhausted")
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
