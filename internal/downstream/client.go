// Package downstream talks to the resource services behind the gateway.
package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/pkg/authcontext"
	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/middleware/requestid"
)

var tracer = otel.Tracer("internal/downstream")

const maxErrorBodyBytes = 64 << 10

// Error is a non-2xx answer of a resource service. Message is taken from the service's
// error body and is meant for logs, not for clients.
type Error struct {
	Service    string
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s %s: status %d", e.Service, e.Method, e.Path, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Client sends JSON requests to one resource service. The bearer token and the request id
// of the inbound request are forwarded.
type Client struct {
	service string
	baseURL *url.URL
	http    *retryablehttp.Client
	logger  logger.Logger
}

func NewClient(service, baseURL string, httpClient *retryablehttp.Client, l logger.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s base url: %w", service, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s base url %q: scheme and host are required", service, baseURL)
	}
	if l == nil {
		l = logger.NewNoopLogger()
	}
	return &Client{service: service, baseURL: u, http: httpClient, logger: l}, nil
}

// Do sends in as the JSON body (when not nil) and decodes the response into out (when
// not nil).
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	ctx, span := tracer.Start(ctx, c.service+"."+method)
	defer span.End()
	span.SetAttributes(
		attribute.String("downstream.service", c.service),
		attribute.String("downstream.path", path),
	)

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.service, err)
		}
		body = bytes.NewReader(raw)
	}

	target := c.baseURL.JoinPath(path)
	target.RawQuery = query.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := authcontext.BearerTokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id, ok := requestid.FromContext(ctx); ok {
		req.Header.Set(requestid.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%s %s %s: %w", c.service, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		downstreamErr := &Error{
			Service:    c.service,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
		span.RecordError(downstreamErr)
		c.logger.WarnWithContext(ctx, "downstream request failed",
			zap.String("service", c.service),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", downstreamErr.Message))
		return downstreamErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.service, err)
	}
	return nil
}

// errorMessage extracts a human readable message from common error body shapes.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	for _, path := range []string{"message", "error.message", "error", "detail"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}

func idsQuery(name string, ids []string) url.Values {
	return url.Values{name: []string{strings.Join(ids, ",")}}
}
