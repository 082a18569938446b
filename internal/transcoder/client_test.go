package transcoder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testRequest() ProcessingRequest {
	return ProcessingRequest{
		VideoID:     1,
		RawVideoURL: "https://bucket.s3.amazonaws.com/videos/abc.mp4?sig=x",
		CallbackURL: "http://localhost:8080/videos/1/processing-webhook",
		Qualities:   []string{"360p", "720p"},
	}
}

func TestDispatchAccepted(t *testing.T) {
	var got ProcessingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/videos/process" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	if err := c.Dispatch(context.Background(), testRequest()); err != nil {
		t.Fatalf("expected accepted, got %v", err)
	}
	if got.VideoID != 1 || got.CallbackURL == "" || len(got.Qualities) != 2 {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestDispatchRejectedOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	err := c.Dispatch(context.Background(), testRequest())
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestDispatchRejectedOnConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, time.Second, nil)
	err := c.Dispatch(context.Background(), testRequest())
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestDispatchRejectedOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, nil)
	err := c.Dispatch(context.Background(), testRequest())
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestDispatchNotConfigured(t *testing.T) {
	c := NewClient("", time.Second, nil)
	err := c.Dispatch(context.Background(), testRequest())
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
