package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/meineruva/Detta/attendance"
	"github.com/meineruva/Detta/database"
	"github.com/meineruva/Detta/models"
)

// map error ของโดเมน → HTTP ที่เดียว จะได้ไม่หลุดกันคนละ code ในแต่ละ handler
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, attendance.ErrAlreadyExists):
		// ผลปกติจาก race/กดซ้ำ — ไม่ใช่ 5xx และไม่ต้อง log เป็น error
		return c.JSON(http.StatusConflict, map[string]any{"error": "ALREADY_EXISTS", "message": err.Error()})
	case errors.Is(err, attendance.ErrDeviceMismatch):
		return c.JSON(http.StatusForbidden, map[string]any{"error": "DEVICE_MISMATCH", "message": err.Error()})
	case errors.Is(err, attendance.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, map[string]any{"error": "PERMISSION_DENIED", "message": err.Error()})
	case errors.Is(err, attendance.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND", "message": err.Error()})
	case errors.Is(err, attendance.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ARGUMENT", "message": err.Error()})
	case errors.Is(err, attendance.ErrNonSchoolDay):
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"error": "NON_SCHOOL_DAY", "message": err.Error()})
	case errors.Is(err, attendance.ErrOutsideWindow):
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"error": "OUTSIDE_WINDOW", "message": err.Error()})
	case errors.Is(err, attendance.ErrOutsideGeofence):
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"error": "OUTSIDE_GEOFENCE", "message": err.Error()})
	case errors.Is(err, attendance.ErrWrongNetwork):
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"error": "WRONG_NETWORK", "message": err.Error()})
	case errors.Is(err, attendance.ErrFailedPrecondition):
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"error": "FAILED_PRECONDITION", "message": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, map[string]any{"error": "INTERNAL", "message": err.Error()})
}

// โหลดผู้ใช้ปัจจุบันจาก user_id ที่ JWT middleware แนบไว้
func currentUser(c echo.Context) (*models.User, error) {
	uid, ok := c.Get("user_id").(uint)
	if !ok || uid == 0 {
		return nil, attendance.ErrPermissionDenied
	}
	var u models.User
	if err := database.DB.First(&u, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attendance.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
