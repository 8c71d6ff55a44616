// Package client talks to the tally REST API. An Endpoint implements
// store.Endpoint for one resource so a Store can dispatch its mutations
// over HTTP.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/mesh-intelligence/tally/pkg/logger"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Client is a connection to one tally server.
type Client struct {
	http    *resty.Client
	baseURL string
	timeout time.Duration
	log     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = resty.NewWithClient(hc) }
}

// New returns a Client for the server at baseURL. Failed requests are
// never retried.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = resty.New()
	}
	c.http.
		SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	return c
}

// BaseURL returns the server address the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// do sends one request and maps transport failures and non-2xx responses
// onto the error taxonomy.
func (c *Client) do(ctx context.Context, op, resource, method, path string, prepare func(*resty.Request)) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if prepare != nil {
		prepare(req)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Debug("request failed", "op", op, "resource", resource, "err", err)
		return nil, &types.RequestError{
			Op:       op,
			Resource: resource,
			Err:      fmt.Errorf("%w: %w", types.ErrTransport, err),
		}
	}
	c.log.Debug("request", "op", op, "method", method, "path", path, "status", resp.StatusCode())
	if !resp.IsSuccess() {
		return nil, &types.RequestError{
			Op:       op,
			Resource: resource,
			Status:   resp.StatusCode(),
			Message:  errorMessage(resp.Body()),
			Err:      statusError(resp.StatusCode()),
		}
	}
	return resp, nil
}

// statusError maps an HTTP status onto a sentinel.
func statusError(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return types.ErrValidation
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusConflict:
		return types.ErrConflict
	default:
		return types.ErrTransport
	}
}

// errorMessage extracts the message from an {"error": "..."} body.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return gjson.GetBytes(body, "error").String()
}

// decodeList is the single place list envelopes are decoded. It accepts
// {"<resource>": [...]} or a bare array. Elements are decoded into values
// from newItem when it is set.
func decodeList[T any](resource string, body []byte, newItem func() T) ([]T, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s list is not valid JSON", types.ErrTransport, resource)
	}
	res := gjson.ParseBytes(body)
	var arr gjson.Result
	switch {
	case res.IsArray():
		arr = res
	case res.IsObject():
		arr = res.Get(gjson.Escape(resource))
		if !arr.IsArray() {
			return nil, fmt.Errorf("%w: %s envelope has no %q array", types.ErrTransport, resource, resource)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected %s list shape", types.ErrTransport, resource)
	}

	out := []T{}
	if newItem == nil {
		if err := json.Unmarshal([]byte(arr.Raw), &out); err != nil {
			return nil, fmt.Errorf("%w: decoding %s: %w", types.ErrTransport, resource, err)
		}
		return out, nil
	}
	var decodeErr error
	arr.ForEach(func(_, elem gjson.Result) bool {
		var item T
		item, decodeErr = decodeItem(resource, []byte(elem.Raw), newItem)
		if decodeErr != nil {
			return false
		}
		out = append(out, item)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}

func decodeItem[T any](resource string, body []byte, newItem func() T) (T, error) {
	var item T
	target := any(&item)
	if newItem != nil {
		item = newItem()
		target = item
	}
	if err := json.Unmarshal(body, target); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: decoding %s item: %w", types.ErrTransport, resource, err)
	}
	return item, nil
}
