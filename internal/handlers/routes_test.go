package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouterRequiresSessionForFriendRoutes(t *testing.T) {
	manager, _ := newTestManager()
	service := &stubFriendService{}
	router := NewRouter(Dependencies{Users: newInMemoryUserStore(), Sessions: manager, Friends: service})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/friends/requests", strings.NewReader(`{"friendUserId":"b"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	tokens, err := manager.Issue(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	routes := []struct {
		method string
		path   string
		action string
	}{
		{http.MethodPost, "/api/v1/friends/requests", "send"},
		{http.MethodPost, "/api/v1/friends/requests/accept", "accept"},
		{http.MethodPost, "/api/v1/friends/requests/decline", "decline"},
		{http.MethodGet, "/api/v1/friends/requests", "incoming"},
		{http.MethodGet, "/api/v1/friends", "list"},
	}

	for _, route := range routes {
		req := httptest.NewRequest(route.method, route.path, strings.NewReader(`{"friendUserId":"user-b"}`))
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code >= 300 {
			t.Fatalf("%s %s: unexpected status %d", route.method, route.path, rec.Code)
		}
		last := service.calls[len(service.calls)-1]
		if last.action != route.action || last.userID != "user-a" {
			t.Fatalf("%s %s: unexpected call %+v", route.method, route.path, last)
		}
	}
}

func TestRouterRateLimitsFriendMutations(t *testing.T) {
	manager, _ := newTestManager()
	service := &stubFriendService{}
	router := NewRouter(Dependencies{Sessions: manager, Friends: service, FriendLimiter: denyLimiter{}})

	tokens, err := manager.Issue(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/friends/requests", strings.NewReader(`{"friendUserId":"user-b"}`))
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if len(service.calls) != 0 {
		t.Fatalf("service must not be called when limited, got %+v", service.calls)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/friends", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("reads are not rate limited, got %d", rec.Code)
	}
}

func TestRouterMethodAndPathHandling(t *testing.T) {
	router := NewRouter(Dependencies{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
