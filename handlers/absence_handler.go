package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/meineruva/Detta/attendance"
	"github.com/meineruva/Detta/database"
	"github.com/meineruva/Detta/models"
)

type AbsenceHandler struct {
	workflow *attendance.ReviewWorkflow
}

func NewAbsenceHandler(workflow *attendance.ReviewWorkflow) *AbsenceHandler {
	return &AbsenceHandler{workflow: workflow}
}

// POST /absence-requests — นักเรียนยื่นคำขอลา
func (h *AbsenceHandler) Submit(c echo.Context) error {
	var req struct {
		Dates  []string `json:"dates"`
		Reason string   `json:"reason"`
		Notes  string   `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	user, err := currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	out, err := h.workflow.Submit(user, req.Dates, req.Reason, req.Notes)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /staff/absence-requests?status=Pending
func (h *AbsenceHandler) List(c echo.Context) error {
	tx := database.DB.Model(&models.AbsenceRequest{})
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		tx = tx.Where("status = ?", status)
	}
	var rows []models.AbsenceRequest
	if err := tx.Order("submitted_at DESC").Find(&rows).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// POST /staff/absence-requests/:id/review
// { approved: bool, reason?: string } — ปฏิเสธต้องมี reason
func (h *AbsenceHandler) Review(c echo.Context) error {
	var req struct {
		Approved bool   `json:"approved"`
		Reason   string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	reviewer, err := currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.workflow.Review(reviewer, c.Param("id"), req.Approved, req.Reason); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}
