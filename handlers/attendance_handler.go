package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/meineruva/Detta/attendance"
	"github.com/meineruva/Detta/database"
	"github.com/meineruva/Detta/models"
)

type AttendanceHandler struct {
	engine *attendance.Engine
	store  *attendance.Store
}

func NewAttendanceHandler(engine *attendance.Engine, store *attendance.Store) *AttendanceHandler {
	return &AttendanceHandler{engine: engine, store: store}
}

// GET /staff/attendance?date=YYYY-MM-DD&status=Present,Late
func (h *AttendanceHandler) List(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	statuses := strings.TrimSpace(c.QueryParam("status"))
	if date == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_DATE"})
	}

	tx := database.DB.Model(&models.AttendanceRecord{}).Where("date = ?", date)
	if statuses != "" {
		parts := splitCSV(statuses)
		if len(parts) > 0 {
			tx = tx.Where("status IN ?", parts)
		}
	}

	rows := []models.AttendanceRecord{}
	if err := tx.Order("user_id ASC, id ASC").Find(&rows).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// GET /staff/attendance/summary?date=YYYY-MM-DD
func (h *AttendanceHandler) Summary(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_DATE"})
	}
	sum, err := h.store.GetSummary(database.DB, date)
	if err != nil {
		return fail(c, err)
	}
	if sum == nil {
		return fail(c, attendance.ErrNotFound)
	}
	return c.JSON(http.StatusOK, sum)
}

// POST /staff/attendance/override
// ครูแก้สถานะย้อนหลัง — ต้องมีเหตุผลเสมอ
func (h *AttendanceHandler) Override(c echo.Context) error {
	var req struct {
		UserID uint   `json:"user_id"`
		Date   string `json:"date"`
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	performer, err := currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.engine.Override(performer, req.UserID, req.Date,
		models.AttendanceStatus(req.Status), req.Reason); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
