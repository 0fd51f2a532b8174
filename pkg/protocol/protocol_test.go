package protocol

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	if err := (ClassifyRequest{Text: "  "}).Validate(); err == nil {
		t.Error("blank text accepted")
	}
	if err := (ClassifyResponse{Intent: "x", Entities: []string{"a"}, Labels: nil}).Validate(); err == nil {
		t.Error("unpaired entities accepted")
	}
	if err := (ClassifyResponse{Intent: ""}).Validate(); err == nil {
		t.Error("empty intent accepted")
	}
	if err := (ClassifyResponse{Intent: "x"}).Validate(); err != nil {
		t.Errorf("no entities rejected: %v", err)
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest(strings.NewReader(`{"text":"hi"}`))
	if err != nil || req.Text != "hi" {
		t.Fatalf("got %+v, %v", req, err)
	}

	var pe *ProtocolError
	for _, body := range []string{`{`, `{"text":""}`, `{}`} {
		if _, err := DecodeRequest(strings.NewReader(body)); !errors.As(err, &pe) {
			t.Errorf("%s: err = %v, want *ProtocolError", body, err)
		}
	}
}

func TestDecodeResponseNormalisesNil(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"intent":"greet"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Entities == nil || resp.Labels == nil {
		t.Fatal("nil lists not normalised")
	}
}

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientClassify(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != ClassifyPath {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		req, err := DecodeRequest(r.Body)
		if err != nil {
			t.Errorf("bad request: %v", err)
		}
		fmt.Fprintf(w, `{"intent":"weather_query","entities":["Dublin"],"labels":["GPE"],"echo":%q}`, req.Text)
	})

	c := NewClient(srv.URL + "/")
	resp, err := c.Classify(context.Background(), "What's the weather in Dublin")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Intent != "weather_query" || resp.Entities[0] != "Dublin" || resp.Labels[0] != "GPE" {
		t.Fatalf("got %+v", resp)
	}
}

func TestClientProtocolErrors(t *testing.T) {
	bodies := map[string]struct {
		status int
		body   string
	}{
		"unpaired":  {http.StatusOK, `{"intent":"x","entities":["a"],"labels":[]}`},
		"garbage":   {http.StatusOK, `<html>`},
		"bad input": {http.StatusBadRequest, `{"error":"empty text"}`},
		"not ready": {http.StatusServiceUnavailable, `{"error":"not ready"}`},
	}

	for name, b := range bodies {
		srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(b.status)
			fmt.Fprint(w, b.body)
		})

		_, err := NewClient(srv.URL).Classify(context.Background(), "hello")
		var pe *ProtocolError
		if !errors.As(err, &pe) {
			t.Errorf("%s: err = %v, want *ProtocolError", name, err)
		}
		if errors.Is(err, ErrTimeout) {
			t.Errorf("%s: reported as timeout", name)
		}
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	_, err := c.Classify(context.Background(), "hello")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestClientRejectsEmptyText(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	var pe *ProtocolError
	if _, err := c.Classify(context.Background(), ""); !errors.As(err, &pe) {
		t.Fatalf("err = %v", err)
	}
}
