// Package netx wraps the outbound HTTP calls made by the relay.
package netx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/docrelay/internal/common"
)

// MaxBodyBytes caps how much of an upstream response is read.
const MaxBodyBytes = 4 << 20

// ErrBodyTooLarge is returned when a response exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response too large")

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// Get issues a GET to url and returns the response body. Non-2xx answers are
// reported as *StatusError. The request id from ctx, when present, is forwarded.
func Get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if id, ok := ctx.Value(RequestIDKey{}).(string); ok && id != "" {
		req.Header.Set(common.RequestIDHeaderName, id)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body[:min(len(body), MaxBodyBytes)])}
	}
	if len(body) > MaxBodyBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, MaxBodyBytes)
	}
	return body, nil
}

// RequestIDKey is the context key under which the HTTP layer stores the
// inbound request id.
type RequestIDKey struct{}
