package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/meineruva/Detta/attendance"
)

type CheckInHandler struct {
	engine *attendance.Engine
}

func NewCheckInHandler(engine *attendance.Engine) *CheckInHandler {
	return &CheckInHandler{engine: engine}
}

// POST /attendance/check-in
// นักเรียนเช็คชื่อสด — เวลาใช้ของ server เท่านั้น (เวลาจากแอปเป็นแค่ reference)
func (h *CheckInHandler) Submit(c echo.Context) error {
	var req struct {
		Latitude    float64  `json:"latitude"`
		Longitude   float64  `json:"longitude"`
		Accuracy    *float64 `json:"accuracy"`
		SSID        *string  `json:"ssid"`
		BSSID       *string  `json:"bssid"`
		OSDeviceID  string   `json:"os_device_id"`
		DeviceModel string   `json:"device_model"`
		OSVersion   string   `json:"os_version"`
		AppVersion  string   `json:"app_version"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	user, err := currentUser(c)
	if err != nil {
		return fail(c, err)
	}

	res, err := h.engine.SubmitCheckIn(time.Now(), attendance.CheckInInput{
		User:      user,
		Lat:       req.Latitude,
		Lng:       req.Longitude,
		AccuracyM: req.Accuracy,
		SSID:      req.SSID,
		BSSID:     req.BSSID,
		Device: attendance.DeviceEvidence{
			OSDeviceID:  req.OSDeviceID,
			DeviceModel: req.DeviceModel,
			OSVersion:   req.OSVersion,
			AppVersion:  req.AppVersion,
		},
		IP: c.RealIP(),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
