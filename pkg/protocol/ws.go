package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// WSClient classifies sentences over a websocket connection. Calls are
// serialised: each request frame is answered by exactly one frame. A
// connection that timed out or failed is dropped and redialed on the next
// call.
type WSClient struct {
	mu      sync.Mutex
	url     string
	conn    *ws.Conn
	timeout time.Duration
}

func DialWS(ctx context.Context, url string, timeout time.Duration) (*WSClient, error) {
	c := &WSClient{url: url, timeout: timeout}
	if err := c.TryReconn(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// TryReconn replaces the current connection with a fresh one.
func (c *WSClient) TryReconn(ctx context.Context) error {
	log.Debug("Dialing websocket", "url", c.url)

	conn, _, err := ws.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.drop()
	c.conn = conn
	return nil
}

func (c *WSClient) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *WSClient) Classify(ctx context.Context, text string) (ClassifyResponse, error) {
	req := ClassifyRequest{Text: text}
	if err := req.Validate(); err != nil {
		return ClassifyResponse{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Time{}
	if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}

	reused := c.conn != nil
	msg, err := c.exchange(ctx, req, deadline)
	if err != nil && reused && !errors.Is(err, ErrTimeout) {
		// An idle connection may have been closed by the server; resend
		// once on a fresh one.
		log.Warn("Websocket exchange failed, redialing", "err", err)
		msg, err = c.exchange(ctx, req, deadline)
	}
	if err != nil {
		return ClassifyResponse{}, err
	}
	log.Debug("Read ws", "msg", string(msg))

	var er ErrorResponse
	if json.Unmarshal(msg, &er) == nil && er.Error != "" {
		return ClassifyResponse{}, &ProtocolError{Reason: "service: " + er.Error}
	}
	return DecodeResponse(msg)
}

// exchange writes one request and reads one frame. Any failure drops the
// connection, so a late answer to a timed out request is never read as the
// answer to the next one.
func (c *WSClient) exchange(ctx context.Context, req ClassifyRequest, deadline time.Time) ([]byte, error) {
	if c.conn == nil {
		dctx := ctx
		if !deadline.IsZero() {
			var cancel context.CancelFunc
			dctx, cancel = context.WithDeadline(ctx, deadline)
			defer cancel()
		}
		if err := c.TryReconn(dctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
			}
			return nil, err
		}
	}

	_ = c.conn.SetWriteDeadline(deadline)
	_ = c.conn.SetReadDeadline(deadline)

	if err := c.conn.WriteJSON(req); err != nil {
		c.drop()
		return nil, wsErr(err)
	}

	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		c.drop()
		return nil, wsErr(err)
	}
	return msg, nil
}

func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	return err
}

func wsErr(err error) error {
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if WsIsClosed(err) {
		return &ProtocolError{Reason: "connection closed", Err: err}
	}
	return err
}

func WsIsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
