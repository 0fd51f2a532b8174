// Package server exposes the classification service over HTTP and websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	log "log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"golang.org/x/sync/semaphore"

	"azura/internal/service"
	"azura/pkg/protocol"
)

const (
	DefaultMaxConcurrent = 8
	// DefaultMaxRequestBytes bounds a request body or websocket frame.
	DefaultMaxRequestBytes = 64 << 10
)

type Classifier interface {
	Classify(ctx context.Context, sentence string) (service.Classification, error)
	State() service.State
}

type Options struct {
	// MaxConcurrent bounds the number of Classify calls running at once.
	MaxConcurrent int64
	// MaxRequestBytes bounds the size of one request body or frame.
	MaxRequestBytes int64
}

type Server struct {
	svc      Classifier
	sem      *semaphore.Weighted
	maxBytes int64
	upgrader ws.Upgrader
	mux      *http.ServeMux
}

func New(svc Classifier, opts Options) *Server {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.MaxRequestBytes <= 0 {
		opts.MaxRequestBytes = DefaultMaxRequestBytes
	}

	s := &Server{
		svc:      svc,
		sem:      semaphore.NewWeighted(opts.MaxConcurrent),
		maxBytes: opts.MaxRequestBytes,
		upgrader: ws.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("POST "+protocol.ClassifyPath, s.handleClassify)
	s.mux.HandleFunc("GET "+protocol.HealthPath, s.handleHealth)
	s.mux.HandleFunc("GET "+protocol.WSPath, s.handleWS)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("Listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// classify runs one request under the concurrency bound and maps errors to
// HTTP status codes.
func (s *Server) classify(ctx context.Context, id, text string) (protocol.ClassifyResponse, int, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return protocol.ClassifyResponse{}, http.StatusServiceUnavailable, err
	}
	defer s.sem.Release(1)

	started := time.Now()
	c, err := s.svc.Classify(ctx, text)
	switch {
	case errors.Is(err, service.ErrNotReady):
		return protocol.ClassifyResponse{}, http.StatusServiceUnavailable, err
	case err != nil:
		return protocol.ClassifyResponse{}, http.StatusInternalServerError, err
	}

	log.Info("Classified", "request_id", id, "intent", c.Intent, "entities", c.Entities, "labels", c.Labels, "took", time.Since(started))

	resp := protocol.ClassifyResponse{Intent: c.Intent, Entities: c.Entities, Labels: c.Labels}
	if resp.Entities == nil {
		resp.Entities = []string{}
	}
	if resp.Labels == nil {
		resp.Labels = []string{}
	}
	if err := resp.Validate(); err != nil {
		return protocol.ClassifyResponse{}, http.StatusInternalServerError, err
	}
	return resp, http.StatusOK, nil
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set(protocol.RequestIDHeader, id)

	req, err := protocol.DecodeRequest(http.MaxBytesReader(w, r.Body, s.maxBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			status = http.StatusRequestEntityTooLarge
		}
		log.Warn("Bad request", "request_id", id, "status", status, "err", err)
		writeJSON(w, status, protocol.ErrorResponse{Error: err.Error()})
		return
	}

	resp, status, err := s.classify(r.Context(), id, req.Text)
	if err != nil {
		log.Error("Classify failed", "request_id", id, "status", status, "err", err)
		writeJSON(w, status, protocol.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.svc.State()
	status := http.StatusOK
	if st != service.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, protocol.HealthResponse{State: st.String()})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.maxBytes)

	session := uuid.NewString()
	log.Debug("Websocket connected", "session", session, "remote", r.RemoteAddr)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !protocol.WsIsClosed(err) {
				log.Warn("Websocket read failed", "session", session, "err", err)
			}
			return
		}

		id := uuid.NewString()
		var out any

		var req protocol.ClassifyRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			log.Warn("Bad frame", "request_id", id, "err", err)
			out = protocol.ErrorResponse{Error: "decode request: " + err.Error()}
		} else if err := req.Validate(); err != nil {
			log.Warn("Bad frame", "request_id", id, "err", err)
			out = protocol.ErrorResponse{Error: err.Error()}
		} else if resp, status, err := s.classify(r.Context(), id, req.Text); err != nil {
			log.Error("Classify failed", "request_id", id, "status", status, "err", err)
			out = protocol.ErrorResponse{Error: err.Error()}
		} else {
			out = resp
		}

		if err := conn.WriteJSON(out); err != nil {
			log.Warn("Websocket write failed", "session", session, "err", err)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("Failed to write response", "err", err)
	}
}
