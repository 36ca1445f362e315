package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fuel-dashboard-backend/config"
	"fuel-dashboard-backend/internal/dashboard"
	"fuel-dashboard-backend/internal/db"
	"fuel-dashboard-backend/internal/model"
	"fuel-dashboard-backend/internal/page"
	"fuel-dashboard-backend/internal/render"
	"fuel-dashboard-backend/internal/store"
	"fuel-dashboard-backend/internal/upstream"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// simulator is a minimal fueling server speaking the upstream protocol.
type simulator struct {
	mu      sync.Mutex
	active  bool
	liters  float64
	failing bool
}

func (s *simulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	switch r.URL.Path {
	case "/toggle_fueling":
		s.active = !s.active
		status := model.ToggleStopped
		if s.active {
			status = model.ToggleStarted
		}
		json.NewEncoder(w).Encode(model.ToggleResponse{Status: status})
	case "/get_fuel_data":
		if s.active {
			s.liters += 0.3
		}
		json.NewEncoder(w).Encode(model.Snapshot{
			TotalLiters:   s.liters,
			TotalCost:     s.liters * 54.37,
			RealTime:      model.RealTimeData{Liters: s.liters},
			PacketLog:     []model.LogEntry{},
			FuelingActive: s.active,
		})
	default:
		http.NotFound(w, r)
	}
}

func (s *simulator) setFailing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = v
}

type testEnv struct {
	sim        *simulator
	controller *dashboard.Controller
	store      store.Store
	handler    *Handler
	router     *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	sim := &simulator{}
	server := httptest.NewServer(sim)
	t.Cleanup(server.Close)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	gormDB, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	sqlDB, _ := gormDB.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	st := store.NewGormStore(gormDB)

	client := upstream.NewClient(&config.UpstreamConfig{
		BaseURL:    server.URL,
		TogglePath: "/toggle_fueling",
		DataPath:   "/get_fuel_data",
		Timeout:    time.Second,
	})
	ctrl := dashboard.NewController(dashboard.Options{
		Interval:           10 * time.Millisecond,
		FinalRefreshOnStop: true,
		SampleInterval:     time.Millisecond,
		Render:             render.Options{HoldLimit: 5, LogLimit: 10},
	}, client, st, page.NewDocument())
	t.Cleanup(ctrl.StopPolling)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 60}
	router := NewRouter(ctx, cfg, ctrl, st, nil, &webpush.Options{VAPIDPublicKey: "public-key"})

	return &testEnv{
		sim:        sim,
		controller: ctrl,
		store:      st,
		handler:    NewHandler(ctrl, st, &webpush.Options{VAPIDPublicKey: "public-key"}),
		router:     router,
	}
}

func (e *testEnv) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestToggleEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/toggle")
	require.Equal(t, http.StatusOK, w.Code)
	var started toggleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	assert.True(t, started.IsFueling)
	assert.True(t, started.Polling)
	assert.Equal(t, render.ButtonStop, started.View.Elements[page.IDFuelButton].Text)

	require.Eventually(t, func() bool {
		snap := env.controller.LastSnapshot()
		return snap != nil && snap.TotalLiters > 0
	}, time.Second, 5*time.Millisecond)

	w = env.do(http.MethodPost, "/api/toggle")
	require.Equal(t, http.StatusOK, w.Code)
	var stopped toggleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stopped))
	assert.False(t, stopped.IsFueling)
	assert.False(t, stopped.Polling)
	assert.Equal(t, render.StatusInactive, stopped.View.Elements[page.IDStatus].Text)

	w = env.do(http.MethodGet, "/api/history/sessions")
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []model.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.NotNil(t, sessions[0].StoppedAt)
	assert.Greater(t, sessions[0].TotalLiters, 0.0)
}

func TestToggleEndpoint_UpstreamDown(t *testing.T) {
	env := newTestEnv(t)
	env.sim.setFailing(true)

	w := env.do(http.MethodPost, "/api/toggle")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var body toggleFailure
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, dashboard.ToggleFailedMessage, body.Alert)
	assert.False(t, env.controller.State().IsFueling)
	assert.False(t, env.controller.Polling())
}

func TestToggleEndpoint_RepeatedFailures(t *testing.T) {
	env := newTestEnv(t)
	env.sim.setFailing(true)

	var seqs []string
	for i := 0; i < 2; i++ {
		w := env.do(http.MethodPost, "/api/toggle")
		require.Equal(t, http.StatusBadGateway, w.Code)

		var body toggleFailure
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Error)
		assert.Equal(t, dashboard.ToggleFailedMessage, body.Alert)
		assert.Equal(t, dashboard.ToggleFailedMessage, body.View.Elements[page.IDAlert].Text)
		seqs = append(seqs, body.AlertSeq)
	}
	assert.Equal(t, []string{"1", "2"}, seqs)
	assert.False(t, env.controller.State().IsFueling)
}

func TestIndexPage_FailedToggleAlertsOnClick(t *testing.T) {
	env := newTestEnv(t)

	body := env.do(http.MethodGet, "/").Body.String()
	assert.Contains(t, body, `if (!res.ok) window.alert(data.alert`)
	assert.NotContains(t, body, "lastAlert")
}

func TestRefreshAndViewEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/view")
	require.Equal(t, http.StatusOK, w.Code)
	var view page.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "0.000 L", view.Elements[page.IDTotalLiters].Text)
	assert.Equal(t, `<tr class="empty-row"><td colspan="4">No data</td></tr>`, string(view.Elements[page.IDPackets].HTML))

	env.sim.setFailing(true)
	w = env.do(http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.controller.Refresh(context.Background()))

	w := env.do(http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="fuel-button"`)
	assert.Contains(t, body, `<span id="total-liters">0.000 L</span>`)
	assert.Contains(t, body, `<tbody><tr class="empty-row"><td colspan="7">No data</td></tr></tbody>`)
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.controller.Refresh(context.Background()))

	w := env.do(http.MethodGet, "/api/history/samples?limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	var samples []model.Sample
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &samples))
	assert.Len(t, samples, 1)

	w = env.do(http.MethodGet, "/api/history/samples?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryEndpoints_Disabled(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	r := gin.New()
	r.GET("/samples", h.GetSamples)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/samples", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestVAPIDPublicKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/vapid_public_key")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"public-key"}`, w.Body.String())

	h := NewHandler(nil, nil, nil)
	r := gin.New()
	r.GET("/key", h.GetVAPIDPublicKey)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/key", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
