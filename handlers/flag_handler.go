package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/meineruva/Detta/attendance"
	"github.com/meineruva/Detta/database"
	"github.com/meineruva/Detta/models"
)

type FlagHandler struct {
	flagger *attendance.Flagger
}

func NewFlagHandler(flagger *attendance.Flagger) *FlagHandler {
	return &FlagHandler{flagger: flagger}
}

// GET /staff/flags?status=Pending&date=YYYY-MM-DD
func (h *FlagHandler) List(c echo.Context) error {
	tx := database.DB.Model(&models.FlaggedCheckIn{})
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		tx = tx.Where("status = ?", status)
	}
	if date := strings.TrimSpace(c.QueryParam("date")); date != "" {
		tx = tx.Where("date = ?", date)
	}
	var rows []models.FlaggedCheckIn
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// POST /staff/flags/:id/review
// { action: "Dismissed"|"Escalated"|"Resolved", notes?: string }
func (h *FlagHandler) Review(c echo.Context) error {
	var req struct {
		Action string `json:"action"`
		Notes  string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	performer, err := currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.flagger.Review(performer, c.Param("id"), req.Action, req.Notes); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}
