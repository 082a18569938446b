package videos

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/haidang029kg/ytb-api/internal/models"
)

func newWebhookRouter(store Store, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	co := newTestCoordinator(store, &fakeGateway{}, &fakeDispatcher{}, nil)
	h := NewWebhookHandler(co, secret, nil)
	r := gin.New()
	r.POST("/videos/:id/processing-webhook", h.Handle)
	return r
}

func postWebhook(r *gin.Engine, path, secret string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookCompleted(t *testing.T) {
	store := newFakeStore(processingVideo(1, 10))
	r := newWebhookRouter(store, "")

	w := postWebhook(r, "/videos/1/processing-webhook", "", WebhookPayload{
		VideoID:           1,
		Status:            "completed",
		ProcessedVideoURL: "https://cdn.test/p.m3u8",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	v, _ := store.GetByIDForOwner(context.Background(), 1, 10)
	if v.ProcessingStatus != models.VideoStatusCompleted {
		t.Fatalf("record status = %s", v.ProcessingStatus)
	}
}

func TestWebhookIDMismatch(t *testing.T) {
	store := newFakeStore(processingVideo(1, 10))
	r := newWebhookRouter(store, "")

	w := postWebhook(r, "/videos/1/processing-webhook", "", WebhookPayload{VideoID: 2, Status: "completed"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	v, _ := store.GetByIDForOwner(context.Background(), 1, 10)
	if v.ProcessingStatus != models.VideoStatusProcessing {
		t.Fatal("mismatched payload must not mutate the record")
	}
}

func TestWebhookSecret(t *testing.T) {
	store := newFakeStore(processingVideo(1, 10))
	r := newWebhookRouter(store, "s3cret")

	w := postWebhook(r, "/videos/1/processing-webhook", "wrong", WebhookPayload{VideoID: 1, Status: "completed"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	v, _ := store.GetByIDForOwner(context.Background(), 1, 10)
	if v.ProcessingStatus != models.VideoStatusProcessing {
		t.Fatal("rejected webhook must not mutate the record")
	}

	w = postWebhook(r, "/videos/1/processing-webhook", "s3cret", WebhookPayload{VideoID: 1, Status: "failed", Error: "timeout"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestWebhookInvalidStatus(t *testing.T) {
	r := newWebhookRouter(newFakeStore(processingVideo(1, 10)), "")
	w := postWebhook(r, "/videos/1/processing-webhook", "", WebhookPayload{VideoID: 1, Status: "processing"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestWebhookUnknownVideo(t *testing.T) {
	r := newWebhookRouter(newFakeStore(), "")
	w := postWebhook(r, "/videos/7/processing-webhook", "", WebhookPayload{VideoID: 7, Status: "failed"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestWebhookPendingConflict(t *testing.T) {
	r := newWebhookRouter(newFakeStore(pendingVideo(1, 10)), "")
	w := postWebhook(r, "/videos/1/processing-webhook", "", WebhookPayload{VideoID: 1, Status: "completed"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}
