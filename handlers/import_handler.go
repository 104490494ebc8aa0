package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/meineruva/Detta/database"
	"github.com/meineruva/Detta/models"
)

type ImportHandler struct{}

func NewImportHandler() *ImportHandler { return &ImportHandler{} }

// POST /admin/students/bulk-import
// { rows: [{ email, name, class_id? }] } → { created, skipped }
// อีเมลซ้ำ = ข้าม ไม่ใช่ error — ยิงไฟล์เดิมซ้ำได้
func (h *ImportHandler) BulkImport(c echo.Context) error {
	var req struct {
		Rows []struct {
			Email   string `json:"email"`
			Name    string `json:"name"`
			ClassID *uint  `json:"class_id"`
		} `json:"rows"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if len(req.Rows) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "EMPTY_ROWS"})
	}

	created, skipped := 0, 0
	var errs []string
	for _, row := range req.Rows {
		email := strings.ToLower(strings.TrimSpace(row.Email))
		name := strings.TrimSpace(row.Name)
		if email == "" || name == "" {
			skipped++
			errs = append(errs, "missing email or name: "+row.Email)
			continue
		}
		u := models.User{
			Email:        email,
			Name:         name,
			Role:         "student",
			ClassID:      row.ClassID,
			InviteStatus: "pending",
		}
		if err := database.DB.Create(&u).Error; err != nil {
			if err == gorm.ErrDuplicatedKey {
				skipped++
				continue
			}
			return fail(c, err)
		}
		created++
	}

	return c.JSON(http.StatusOK, map[string]any{
		"created": created,
		"skipped": skipped,
		"errors":  errs,
	})
}
