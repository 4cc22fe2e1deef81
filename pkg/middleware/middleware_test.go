package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"masterbook/pkg/logger"
	"masterbook/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Output: io.Discard, Service: "test"})
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		role       string
		wantStatus int
		wantActor  *model.Actor
	}{
		{name: "anonymous", wantStatus: http.StatusOK},
		{name: "student", userID: "s1", role: "student", wantStatus: http.StatusOK, wantActor: &model.Actor{ID: "s1", Role: model.RoleStudent}},
		{name: "provider role is case insensitive", userID: "p1", role: "Provider", wantStatus: http.StatusOK, wantActor: &model.Actor{ID: "p1", Role: model.RoleProvider}},
		{name: "unknown role", userID: "x", role: "admin", wantStatus: http.StatusUnauthorized},
		{name: "role without id", role: "student", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *model.Actor
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if actor, ok := ActorFromContext(r.Context()); ok {
					got = &actor
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
			if tt.userID != "" {
				req.Header.Set(HeaderUserID, tt.userID)
			}
			if tt.role != "" {
				req.Header.Set(HeaderUserRole, tt.role)
			}
			w := httptest.NewRecorder()

			Identity(testLogger())(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantActor == nil {
				if got != nil {
					t.Errorf("expected no actor, got %+v", *got)
				}
				return
			}
			if got == nil || *got != *tt.wantActor {
				t.Errorf("actor = %+v, want %+v", got, *tt.wantActor)
			}
		})
	}
}

func TestActorRateLimiter_Allow(t *testing.T) {
	limiter := NewActorRateLimiter(2, time.Minute, nil, testLogger())
	defer limiter.Stop()

	if !limiter.Allow("actor:a") || !limiter.Allow("actor:a") {
		t.Fatal("first two requests should be allowed")
	}
	if limiter.Allow("actor:a") {
		t.Error("third request within window should be rejected")
	}
	if !limiter.Allow("actor:b") {
		t.Error("limits must be tracked per key")
	}
	if !limiter.Allow("") {
		t.Error("empty key is never limited")
	}
}

func TestDefaultKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := DefaultKeyExtractor(req); got != "ip:10.0.0.1" {
		t.Errorf("anonymous key = %q", got)
	}

	req = req.WithContext(WithActor(req.Context(), model.Actor{ID: "s1", Role: model.RoleStudent}))
	if got := DefaultKeyExtractor(req); got != "actor:s1" {
		t.Errorf("actor key = %q", got)
	}
}

func TestIdempotency_ScopedPerActor(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	calls := 0
	handler := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))

	send := func(actorID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
		req.Header.Set("Idempotency-Key", "k1")
		req = req.WithContext(WithActor(req.Context(), model.Actor{ID: actorID, Role: model.RoleStudent}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	first := send("s1")
	replay := send("s1")
	other := send("s2")

	if calls != 2 {
		t.Errorf("handler called %d times, want 2", calls)
	}
	if replay.Code != http.StatusCreated || replay.Body.String() != first.Body.String() {
		t.Errorf("replay mismatch: %d %q", replay.Code, replay.Body.String())
	}
	if other.Code != http.StatusCreated {
		t.Errorf("other actor status = %d", other.Code)
	}
}

func TestMaxRequestSize(t *testing.T) {
	handler := MaxRequestSize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.ContentLength = 10
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestContentTypeValidation(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := ContentTypeValidation(testLogger())(next)

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		wantStatus  int
	}{
		{"json body", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"form body", http.MethodPost, `a=b`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing content type", http.MethodPatch, `{}`, "", http.StatusUnsupportedMediaType},
		{"bodyless trigger", http.MethodPost, "", "", http.StatusOK},
		{"get", http.MethodGet, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, "/appointments", body)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
