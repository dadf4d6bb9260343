package lastfm

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// envelope is the root <lfm> element wrapping every API response.
type envelope struct {
	XMLName xml.Name `xml:"lfm"`
	Status  string   `xml:"status,attr"`
	Inner   []byte   `xml:",innerxml"`
}

// apiFault is the <error> element inside a failed envelope.
type apiFault struct {
	Code    int    `xml:"code,attr"`
	Message string `xml:",chardata"`
}

const statusFailed = "failed"

const (
	maxAttempts    = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// get issues a signed GET request (read and auth methods).
func (c *Client) get(ctx context.Context, method string, params map[string]string, authed bool) ([]byte, error) {
	return c.call(ctx, http.MethodGet, method, params, authed)
}

// post issues a signed POST request (write methods).
func (c *Client) post(ctx context.Context, method string, params map[string]string, authed bool) ([]byte, error) {
	return c.call(ctx, http.MethodPost, method, params, authed)
}

// call performs one signed API call, retrying transient failures with
// exponential backoff. Retried: API error codes marked Temporary, HTTP
// 5xx responses, and transport-level network errors. Everything else
// fails the call on the first attempt.
func (c *Client) call(ctx context.Context, httpMethod, apiMethod string, params map[string]string, authed bool) ([]byte, error) {
	reqParams := make(map[string]string, len(params)+3)
	for k, v := range params {
		reqParams[k] = v
	}
	reqParams["method"] = apiMethod
	reqParams["api_key"] = c.apiKey
	if authed {
		if c.sessionKey == "" {
			return nil, ErrNoSessionKey
		}
		reqParams["sk"] = c.sessionKey
	}

	// The signature covers everything except api_sig itself.
	form := url.Values{}
	for k, v := range reqParams {
		form.Set(k, v)
	}
	form.Set("api_sig", signRequest(reqParams, c.apiSecret))

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.debugf("lastfm: %s %s (attempt %d/%d)", httpMethod, apiMethod, attempt, maxAttempts)

		req, err := c.newRequest(ctx, httpMethod, form)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if !retryableNetworkError(err) || attempt == maxAttempts {
				return nil, fmt.Errorf("http request failed: %w", err)
			}
			c.debugf("lastfm: network error, retrying: %v", err)
			lastErr = err
			if !sleep(ctx, backoff) {
				return nil, ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", resp.Status)
			if attempt == maxAttempts {
				return nil, lastErr
			}
			c.debugf("lastfm: %v, retrying", lastErr)
			if !sleep(ctx, backoff) {
				return nil, ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		env, err := decodeEnvelope(body)
		if err != nil {
			// Not a recognizable API response. Surface the raw body
			// along with the HTTP status so the operator sees what the
			// server actually sent.
			return nil, fmt.Errorf("unexpected response (%s): %w: %s", resp.Status, err, truncate(body, 200))
		}

		if env.Status == statusFailed {
			var fault apiFault
			if err := xml.Unmarshal(env.Inner, &fault); err != nil {
				return nil, fmt.Errorf("unexpected error response (%s): %s", resp.Status, truncate(body, 200))
			}
			apiErr := &Error{Code: fault.Code, Message: strings.TrimSpace(fault.Message)}
			if !apiErr.Temporary() || attempt == maxAttempts {
				return nil, apiErr
			}
			c.debugf("lastfm: temporary error, retrying: %v", apiErr)
			lastErr = apiErr
			if !sleep(ctx, backoff) {
				return nil, ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		c.debugf("lastfm: %s succeeded", apiMethod)
		return env.Inner, nil
	}

	return nil, fmt.Errorf("lastfm: giving up after %d attempts: %w", maxAttempts, lastErr)
}

// newRequest builds the HTTP request. GET carries the parameters in the
// query string, POST as a form-encoded body.
func (c *Client) newRequest(ctx context.Context, httpMethod string, form url.Values) (*http.Request, error) {
	var req *http.Request
	var err error

	switch httpMethod {
	case http.MethodGet:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+form.Encode(), nil)
	default:
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "scroblog/1.0")
	return req, nil
}

func decodeEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// retryableNetworkError reports whether a transport error is worth
// retrying (timeouts and other net-level failures).
func retryableNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Temporary()
}

// sleep waits for the duration or until the context is cancelled.
// Returns false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
