package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/meineruva/Detta/database"
	"github.com/meineruva/Detta/models"
)

type WhitelistHandler struct{}

func NewWhitelistHandler() *WhitelistHandler { return &WhitelistHandler{} }

// GET /admin/staff-whitelist
func (h *WhitelistHandler) List(c echo.Context) error {
	var rows []models.StaffWhitelist
	if err := database.DB.Order("added_at ASC").Find(&rows).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// POST /admin/staff-whitelist  { email, name?, role }
func (h *WhitelistHandler) Add(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_EMAIL"})
	}
	if req.Role != "admin" && req.Role != "staff" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ROLE"})
	}

	uid, _ := c.Get("user_id").(uint)
	row := models.StaffWhitelist{
		Email:   req.Email,
		Name:    strings.TrimSpace(req.Name),
		Role:    req.Role,
		AddedBy: uid,
	}
	if err := database.DB.Create(&row).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return c.JSON(http.StatusConflict, map[string]any{"error": "ALREADY_EXISTS"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, row)
}

// DELETE /admin/staff-whitelist/:email
// ห้ามถอดตัวเอง — กันล็อกระบบทิ้งโดยไม่ตั้งใจ
func (h *WhitelistHandler) Remove(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	if email == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_EMAIL"})
	}
	if caller, _ := c.Get("email").(string); strings.EqualFold(caller, email) {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "CANNOT_REMOVE_SELF"})
	}

	res := database.DB.Where("email = ?", email).Delete(&models.StaffWhitelist{})
	if res.Error != nil {
		return fail(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}
