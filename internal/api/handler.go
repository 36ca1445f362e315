package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"fuel-dashboard-backend/internal/dashboard"
	"fuel-dashboard-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	controller *dashboard.Controller
	store      store.Store
	webpush    *webpush.Options
}

// NewHandler creates a new API handler. s may be nil when persistence is
// disabled.
func NewHandler(ctrl *dashboard.Controller, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		controller: ctrl,
		store:      s,
		webpush:    webpushOptions,
	}
}
