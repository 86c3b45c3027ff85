package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/quickwish/quickwish/internal/config"
	"github.com/quickwish/quickwish/internal/server"
	"github.com/quickwish/quickwish/internal/wish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	cfg := &config.Config{
		Env:        "test",
		Port:       "8080",
		JWTSecret:  "test-secret",
		HSTSMaxAge: 31536000,
		LogLevel:   "info",
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors during tests
	}))

	return server.New(cfg, logger)
}

func doJSON(srv *server.Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	return w
}

func bootstrapSession(t *testing.T, srv *server.Server, userID string) string {
	t.Helper()

	w := doJSON(srv, http.MethodPost, "/api/auth/session", "", map[string]string{"user_id": userID})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UserID       string `json:"user_id"`
		SessionToken string `json:"session_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionToken)

	return resp.SessionToken
}

func createWish(t *testing.T, srv *server.Server, token, title string) wish.Wish {
	t.Helper()

	w := doJSON(srv, http.MethodPost, "/api/wishes", token, wish.CreateRequest{
		Type:         wish.CategoryDelivery,
		Title:        title,
		Location:     wish.Location{Lat: 12.9, Lng: 77.6, Address: "MG Road"},
		RadiusKm:     5,
		Remuneration: 100,
		IsImmediate:  true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created wish.Wish
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	return created
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(srv, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.Contains(t, w.Body.String(), "quickwish")
}

func TestWishesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(srv, http.MethodGet, "/api/wishes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Not authenticated")

	w = doJSON(srv, http.MethodGet, "/api/wishes", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid session")
}

func TestCreateAndListWishes(t *testing.T) {
	srv := newTestServer(t)
	token := bootstrapSession(t, srv, "user-a")

	created := createWish(t, srv, token, "Pick up parcel")

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "user-a", created.UserID)
	assert.Equal(t, wish.StatusPending, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	w := doJSON(srv, http.MethodGet, "/api/wishes", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []wish.Wish
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestListIsScopedToUser(t *testing.T) {
	srv := newTestServer(t)
	tokenA := bootstrapSession(t, srv, "user-a")
	tokenB := bootstrapSession(t, srv, "user-b")

	createWish(t, srv, tokenA, "Pick up parcel")

	w := doJSON(srv, http.MethodGet, "/api/wishes", tokenB, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []wish.Wish
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Empty(t, listed)
}

func TestDefaultRadiusApplied(t *testing.T) {
	srv := newTestServer(t)
	token := bootstrapSession(t, srv, "user-a")

	w := doJSON(srv, http.MethodPost, "/api/wishes", token, map[string]any{
		"wish_type":    "errand",
		"title":        "Buy milk",
		"location":     map[string]any{"lat": 0, "lng": 0, "address": "Home"},
		"remuneration": 50,
		"is_immediate": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created wish.Wish
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.InDelta(t, 5.0, created.RadiusKm, 0.001)
}

func TestCancelOnlyPending(t *testing.T) {
	srv := newTestServer(t)
	token := bootstrapSession(t, srv, "user-a")

	created := createWish(t, srv, token, "Pick up parcel")

	w := doJSON(srv, http.MethodPut, fmt.Sprintf("/api/wishes/%s/cancel", created.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// A cancelled wish cannot be cancelled again.
	w = doJSON(srv, http.MethodPut, fmt.Sprintf("/api/wishes/%s/cancel", created.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cannot cancel this wish")
}

func TestCompleteFromLiveStatuses(t *testing.T) {
	srv := newTestServer(t)
	token := bootstrapSession(t, srv, "user-a")

	created := createWish(t, srv, token, "Pick up parcel")

	w := doJSON(srv, http.MethodPut, fmt.Sprintf("/api/wishes/%s/complete", created.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(srv, http.MethodGet, "/api/wishes/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched wish.Wish
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, wish.StatusCompleted, fetched.Status)

	// Completed is terminal.
	w = doJSON(srv, http.MethodPut, fmt.Sprintf("/api/wishes/%s/complete", created.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEditOnlyPending(t *testing.T) {
	srv := newTestServer(t)
	token := bootstrapSession(t, srv, "user-a")

	created := createWish(t, srv, token, "Pick up parcel")

	update := wish.CreateRequest{
		Type:         wish.CategoryDelivery,
		Title:        "Pick up a big parcel",
		Location:     wish.Location{Lat: 12.9, Lng: 77.6, Address: "MG Road"},
		RadiusKm:     10,
		Remuneration: 150,
		IsImmediate:  true,
	}

	w := doJSON(srv, http.MethodPut, "/api/wishes/"+created.ID, token, update)
	require.Equal(t, http.StatusOK, w.Code)

	var updated wish.Wish
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Pick up a big parcel", updated.Title)
	assert.InDelta(t, 10.0, updated.RadiusKm, 0.001)

	// Cancel, then edits are rejected.
	w = doJSON(srv, http.MethodPut, fmt.Sprintf("/api/wishes/%s/cancel", created.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(srv, http.MethodPut, "/api/wishes/"+created.ID, token, update)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Can only edit pending wishes")
}

func TestDeleteWish(t *testing.T) {
	srv := newTestServer(t)
	tokenA := bootstrapSession(t, srv, "user-a")
	tokenB := bootstrapSession(t, srv, "user-b")

	created := createWish(t, srv, tokenA, "Pick up parcel")

	// Another user cannot delete it.
	w := doJSON(srv, http.MethodDelete, "/api/wishes/"+created.ID, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(srv, http.MethodDelete, "/api/wishes/"+created.ID, tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(srv, http.MethodGet, "/api/wishes/"+created.ID, tokenA, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := bootstrapSession(t, srv, "user-a")

	w := doJSON(srv, http.MethodPut, "/api/users/phone", token, map[string]string{"phone": "+911234567890"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Phone updated successfully")

	w = doJSON(srv, http.MethodPost, "/api/users/addresses", token, map[string]any{
		"label":   "Home",
		"address": "12 Cross, Indiranagar",
		"lat":     12.97,
		"lng":     77.64,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Address server.SavedAddress `json:"address"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Address.ID)

	w = doJSON(srv, http.MethodDelete, "/api/users/addresses/"+resp.Address.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionWithoutBodyMintsUser(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/session", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.UserID, "user_")
}
