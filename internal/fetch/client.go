package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Statuses worth retrying; everything else non-2xx is handed back to the
// caller as-is.
var retryStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

type Config struct {
	UserAgent      string
	ConnectTimeout time.Duration // dial budget
	ReadTimeout    time.Duration // whole-request budget
	RetryMax       int
}

// Client is a plain GET client with bounded retry. It does no pacing of its
// own; the walker and resolver own the inter-request delay.
type Client struct {
	rc *resty.Client
}

func New(cfg Config) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 12 * time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}

	c := resty.New()
	c.SetTransport(&http.Transport{
		DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
	})
	c.SetTimeout(cfg.ReadTimeout)
	c.SetRetryCount(cfg.RetryMax)
	c.SetRetryWaitTime(500 * time.Millisecond)
	c.SetRetryMaxWaitTime(8 * time.Second)
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return retryStatus[r.StatusCode()]
	})
	if cfg.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.UserAgent)
	}
	c.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return &Client{rc: c}
}

// Get fetches url and returns the final status code and body. A non-2xx
// status is not an error; err is non-nil only when the transport failed or
// every retry was exhausted without a response.
func (c *Client) Get(ctx context.Context, url string) (int, []byte, error) {
	resp, err := c.rc.R().SetContext(ctx).Get(url)
	if err != nil {
		return 0, nil, fmt.Errorf("get %s: %w", url, err)
	}
	return resp.StatusCode(), resp.Body(), nil
}
