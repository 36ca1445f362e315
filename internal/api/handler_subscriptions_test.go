package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupSubscriptionRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.GET("/api/subscriptions", h.GetSubscription)
	r.PUT("/api/subscriptions", h.PutSubscription)
	r.DELETE("/api/subscriptions", h.DeleteSubscription)
	return r
}

func TestPutSubscription_InvalidBody(t *testing.T) {
	router := setupSubscriptionRouter(NewHandler(nil, nil, nil))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/subscriptions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestSubscriptionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	router := setupSubscriptionRouter(env.handler)
	endpoint := "https://push.example.com/send/abc%3D%3D"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/subscriptions",
		strings.NewReader(`{"endpoint":"`+endpoint+`","p256dh":"key","auth":"secret"}`)))
	assert.Equal(t, http.StatusCreated, w.Code)

	// Re-subscribing replaces the keys.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/subscriptions",
		strings.NewReader(`{"endpoint":"`+endpoint+`","p256dh":"key2","auth":"secret2"}`)))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), endpoint)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/subscriptions",
		strings.NewReader(`{"endpoint":"`+endpoint+`"}`)))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSubscription_MissingEndpoint(t *testing.T) {
	router := setupSubscriptionRouter(NewHandler(nil, nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/subscriptions", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
