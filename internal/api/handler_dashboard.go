package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"fuel-dashboard-backend/internal/dashboard"
	"fuel-dashboard-backend/internal/page"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Index serves the dashboard page pre-rendered with the current view.
func (h *Handler) Index(c *gin.Context) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, h.controller.Document().View()); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed generating webpage: " + err.Error()})
		return
	}
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// GetView returns the current rendered document.
func (h *Handler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Document().View())
}

type toggleResponse struct {
	IsFueling bool      `json:"isFueling"`
	Polling   bool      `json:"polling"`
	View      page.View `json:"view"`
}

// toggleFailure carries the alert of one failed toggle. AlertSeq differs
// for every failure, including repeats of the same message.
type toggleFailure struct {
	Error    string    `json:"error"`
	Alert    string    `json:"alert"`
	AlertSeq string    `json:"alertSeq"`
	View     page.View `json:"view"`
}

// Toggle handles POST /api/toggle.
func (h *Handler) Toggle(c *gin.Context) {
	state, err := h.controller.Toggle(c.Request.Context())
	if err != nil {
		view := h.controller.Document().View()
		alert := view.Elements[page.IDAlert]
		c.JSON(http.StatusBadGateway, toggleFailure{
			Error:    err.Error(),
			Alert:    alert.Text,
			AlertSeq: alert.Data[dashboard.AlertSeqKey],
			View:     view,
		})
		return
	}
	c.JSON(http.StatusOK, toggleResponse{
		IsFueling: state.IsFueling,
		Polling:   h.controller.Polling(),
		View:      h.controller.Document().View(),
	})
}

// Refresh handles POST /api/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	if err := h.controller.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.controller.Document().View())
}
