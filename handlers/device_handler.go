package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/meineruva/Detta/attendance"
)

type DeviceHandler struct {
	guard *attendance.BindingGuard
}

func NewDeviceHandler(guard *attendance.BindingGuard) *DeviceHandler {
	return &DeviceHandler{guard: guard}
}

// POST /staff/students/:id/device-reset  { reason?: string }
// สิทธิ์: admin (ตาม whitelist) หรือครูประจำชั้นของนักเรียนคนนั้น
func (h *DeviceHandler) Reset(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_STUDENT_ID"})
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	performer, err := currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.guard.Reset(performer, uint(id), req.Reason); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}
