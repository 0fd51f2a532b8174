// Package protocol is the wire contract between the assistant client and
// the classification service.
package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	ClassifyPath = "/classify-intent"
	HealthPath   = "/healthz"
	WSPath       = "/ws"

	RequestIDHeader = "X-Request-Id"

	DefaultTimeout = 10 * time.Second
)

// ErrTimeout means the service did not answer before the deadline. It is
// never reported as a missing intent.
var ErrTimeout = errors.New("classification request timed out")

type ClassifyRequest struct {
	Text string `json:"text"`
}

type ClassifyResponse struct {
	Intent   string   `json:"intent"`
	Entities []string `json:"entities"`
	Labels   []string `json:"labels"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	State string `json:"state"`
}

// ProtocolError reports a malformed request or response.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return "protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (r ClassifyRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return &ProtocolError{Reason: "empty text"}
	}
	return nil
}

func (r ClassifyResponse) Validate() error {
	if r.Intent == "" {
		return &ProtocolError{Reason: "empty intent"}
	}
	if len(r.Entities) != len(r.Labels) {
		return &ProtocolError{Reason: fmt.Sprintf("%d entities but %d labels", len(r.Entities), len(r.Labels))}
	}
	return nil
}

// DecodeRequest parses and validates a request body.
func DecodeRequest(r io.Reader) (ClassifyRequest, error) {
	var req ClassifyRequest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&req); err != nil {
		return ClassifyRequest{}, &ProtocolError{Reason: "decode request", Err: err}
	}
	return req, req.Validate()
}

// DecodeResponse parses and validates a response body.
func DecodeResponse(data []byte) (ClassifyResponse, error) {
	var resp ClassifyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return ClassifyResponse{}, &ProtocolError{Reason: "decode response", Err: err}
	}
	if resp.Entities == nil {
		resp.Entities = []string{}
	}
	if resp.Labels == nil {
		resp.Labels = []string{}
	}
	return resp, resp.Validate()
}

// Client calls the classification service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithTimeout bounds each Classify call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.timeout = d }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Classify(ctx context.Context, text string) (ClassifyResponse, error) {
	req := ClassifyRequest{Text: text}
	if err := req.Validate(); err != nil {
		return ClassifyResponse{}, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return ClassifyResponse{}, err
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ClassifyPath, bytes.NewReader(body))
	if err != nil {
		return ClassifyResponse{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	hresp, err := c.http.Do(hreq)
	if err != nil {
		return ClassifyResponse{}, transportErr(ctx, err)
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(hresp.Body)
	if err != nil {
		return ClassifyResponse{}, transportErr(ctx, err)
	}

	log.Debug("Classify response", "status", hresp.StatusCode, "request_id", hresp.Header.Get(RequestIDHeader))

	if hresp.StatusCode != http.StatusOK {
		var er ErrorResponse
		_ = json.Unmarshal(data, &er)
		return ClassifyResponse{}, &ProtocolError{Reason: fmt.Sprintf("status %s: %s", hresp.Status, er.Error)}
	}

	return DecodeResponse(data)
}

func transportErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
