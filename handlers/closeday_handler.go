package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/meineruva/Detta/attendance"
)

type CloseDayHandler struct {
	lifecycle *attendance.Lifecycle
}

func NewCloseDayHandler(lifecycle *attendance.Lifecycle) *CloseDayHandler {
	return &CloseDayHandler{lifecycle: lifecycle}
}

// POST /staff/close-day?date=YYYY-MM-DD (ไม่ส่ง date = วันนี้ตามเขตเวลาโรงเรียน)
// ปลายทางของ scheduler ภายนอก — ยิงซ้ำได้เสมอ
func (h *CloseDayHandler) Close(c echo.Context) error {
	now := time.Now()

	var res *attendance.CloseDayResult
	var err error
	if date := strings.TrimSpace(c.QueryParam("date")); date != "" {
		res, err = h.lifecycle.CloseDate(date, now)
	} else {
		res, err = h.lifecycle.CloseDay(now)
	}
	if err != nil {
		// รายงานความคืบหน้า (batch ที่ commit แล้วไม่หาย) แล้วให้ caller ยิงซ้ำ
		log.Printf("[close-day] %v", err)
		if res != nil {
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"error":         "CLOSE_DAY_PARTIAL",
				"message":       err.Error(),
				"date":          res.Date,
				"marked_absent": res.MarkedAbsent,
			})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
