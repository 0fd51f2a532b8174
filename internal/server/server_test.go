package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"

	"azura/internal/service"
	"azura/pkg/protocol"
)

type fakeClassifier struct {
	state service.State
	err   error
}

func (f *fakeClassifier) State() service.State { return f.state }

func (f *fakeClassifier) Classify(_ context.Context, sentence string) (service.Classification, error) {
	if f.err != nil {
		return service.Classification{}, f.err
	}
	if f.state != service.Ready {
		return service.Classification{}, service.ErrNotReady
	}
	if strings.Contains(sentence, "Dublin") {
		return service.Classification{Intent: "weather_query", Entities: []string{"Dublin"}, Labels: []string{"GPE"}}, nil
	}
	return service.Classification{Intent: "greet"}, nil
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, protocol.ClassifyPath, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClassifyEndpoint(t *testing.T) {
	h := New(&fakeClassifier{state: service.Ready}, Options{}).Handler()

	rec := post(t, h, `{"text":"What's the weather in Dublin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if rec.Header().Get(protocol.RequestIDHeader) == "" {
		t.Error("no request id header")
	}

	resp, err := protocol.DecodeResponse(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if resp.Intent != "weather_query" || resp.Entities[0] != "Dublin" || resp.Labels[0] != "GPE" {
		t.Fatalf("got %+v", resp)
	}

	rec = post(t, h, `{"text":"hello"}`)
	if !strings.Contains(rec.Body.String(), `"entities":[]`) || !strings.Contains(rec.Body.String(), `"labels":[]`) {
		t.Errorf("empty lists not encoded as arrays: %s", rec.Body)
	}
}

func TestClassifyEndpointErrors(t *testing.T) {
	tests := []struct {
		name string
		svc  *fakeClassifier
		body string
		want int
	}{
		{"bad json", &fakeClassifier{state: service.Ready}, `{`, http.StatusBadRequest},
		{"empty text", &fakeClassifier{state: service.Ready}, `{"text":""}`, http.StatusBadRequest},
		{"not ready", &fakeClassifier{state: service.Training}, `{"text":"hi"}`, http.StatusServiceUnavailable},
		{"failure", &fakeClassifier{state: service.Ready, err: errors.New("boom")}, `{"text":"hi"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := post(t, New(tt.svc, Options{}).Handler(), tt.body)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
		var er protocol.ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil || er.Error == "" {
			t.Errorf("%s: body = %s", tt.name, rec.Body)
		}
	}
}

func TestWrongMethod(t *testing.T) {
	h := New(&fakeClassifier{state: service.Ready}, Options{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, protocol.ClassifyPath, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	for st, want := range map[service.State]int{
		service.Ready:    http.StatusOK,
		service.Loading:  http.StatusServiceUnavailable,
		service.Failed:   http.StatusServiceUnavailable,
		service.Training: http.StatusServiceUnavailable,
	} {
		rec := httptest.NewRecorder()
		New(&fakeClassifier{state: st}, Options{}).Handler().
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, protocol.HealthPath, nil))
		if rec.Code != want {
			t.Errorf("%s: status = %d, want %d", st, rec.Code, want)
		}
		if !strings.Contains(rec.Body.String(), st.String()) {
			t.Errorf("%s: body = %s", st, rec.Body)
		}
	}
}

func TestConcurrencyBound(t *testing.T) {
	s := New(&fakeClassifier{state: service.Ready}, Options{MaxConcurrent: 1})
	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, status, err := s.classify(ctx, "id", "hi"); err == nil || status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, err = %v", status, err)
	}

	s.sem.Release(1)
	if _, status, err := s.classify(context.Background(), "id", "hi"); err != nil || status != http.StatusOK {
		t.Fatalf("after release: status = %d, err = %v", status, err)
	}
}

func TestWebsocket(t *testing.T) {
	srv := httptest.NewServer(New(&fakeClassifier{state: service.Ready}, Options{}).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + protocol.WSPath
	c, err := protocol.DialWS(context.Background(), url, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for i := 0; i < 3; i++ {
		resp, err := c.Classify(context.Background(), "weather in Dublin")
		if err != nil {
			t.Fatal(err)
		}
		if resp.Intent != "weather_query" || len(resp.Entities) != len(resp.Labels) {
			t.Fatalf("got %+v", resp)
		}
	}

	resp, err := c.Classify(context.Background(), "hi")
	if err != nil || resp.Intent != "greet" {
		t.Fatalf("got %+v, %v", resp, err)
	}
}

func TestWebsocketServiceError(t *testing.T) {
	srv := httptest.NewServer(New(&fakeClassifier{state: service.Loading}, Options{}).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + protocol.WSPath
	c, err := protocol.DialWS(context.Background(), url, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = c.Classify(context.Background(), "hi")
	var pe *protocol.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ProtocolError", err)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	h := New(&fakeClassifier{state: service.Ready}, Options{MaxRequestBytes: 64}).Handler()

	rec := post(t, h, `{"text":"`+strings.Repeat("weather ", 100)+`"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	rec = post(t, h, `{"text":"weather in Dublin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("small request: status = %d", rec.Code)
	}
}

func TestWebsocketFrameLimit(t *testing.T) {
	srv := httptest.NewServer(New(&fakeClassifier{state: service.Ready}, Options{MaxRequestBytes: 64}).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + protocol.WSPath
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	big := protocol.ClassifyRequest{Text: strings.Repeat("weather ", 100)}
	if err := conn.WriteJSON(big); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	if !ws.IsCloseError(err, ws.CloseMessageTooBig) {
		t.Fatalf("err = %v, want close 1009", err)
	}
}
