package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/meineruva/Detta/database"
	"github.com/meineruva/Detta/models"
)

// RequireWhitelistAdmin — สิทธิ์ระดับ admin ผูกกับ staff whitelist ไม่ใช่ JWT
// (ถอดชื่อออกจาก whitelist แล้วหมดสิทธิ์ทันที ไม่ต้องรอ token หมดอายุ)
func RequireWhitelistAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, _ := c.Get("email").(string)
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				return echo.NewHTTPError(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
			}
			var entry models.StaffWhitelist
			err := database.DB.Where("email = ?", email).First(&entry).Error
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && entry.Role != "admin") {
				return echo.NewHTTPError(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, map[string]any{"error": "INTERNAL"})
			}
			return next(c)
		}
	}
}
