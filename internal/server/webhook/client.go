// Package webhook fetches the campaign list from the workflow-automation
// webhook and normalizes its loosely shaped answers.
package webhook

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/dmitrijs2005/docrelay/internal/logging"
	"github.com/dmitrijs2005/docrelay/internal/netx"
)

const service = "campaign webhook"

// Client reads campaigns from a single webhook URL.
type Client struct {
	url  string
	http *http.Client
	log  logging.Logger
}

// NewClient returns a client; an empty url is reported per call as
// common.ErrWebhookNotSet.
func NewClient(url string, timeout time.Duration, log logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  log.With("module", "webhook"),
	}
}

// FetchCampaigns performs one GET without retries.
func (c *Client) FetchCampaigns(ctx context.Context) (Payload, error) {
	if c.url == "" {
		c.log.Error(ctx, "campaign webhook URL not configured")
		return Payload{}, common.ErrWebhookNotSet
	}

	body, err := netx.Get(ctx, c.http, c.url)
	if err != nil {
		c.log.Error(ctx, "campaign webhook call failed", "error", err)
		return Payload{}, &common.UpstreamError{Service: service, Err: err}
	}

	p, err := Normalize(body)
	if err != nil {
		c.log.Error(ctx, "campaign webhook returned invalid JSON", "prefix", prefix(body, 100))
		return p, &common.UpstreamError{Service: service, Err: err}
	}
	if p.Kind == KindEmpty {
		c.log.Warn(ctx, "campaign webhook returned no campaigns")
	}
	return p, nil
}

func prefix(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
