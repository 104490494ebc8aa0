package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meineruva/Detta/models"
)

// ReviewWorkflow รับคำขอลาจากนักเรียน และแปลงคำขอที่อนุมัติเป็นเรคคอร์ด Excused
type ReviewWorkflow struct {
	store *Store
}

func NewReviewWorkflow(store *Store) *ReviewWorkflow { return &ReviewWorkflow{store: store} }

// Submit นักเรียนยื่นคำขอลา — ตรวจรูปแบบอย่างเดียว ยังไม่แตะตัวนับใด ๆ
func (w *ReviewWorkflow) Submit(user *models.User, dates []string, reason, notes string) (*models.AbsenceRequest, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: at least one date required", ErrInvalidArgument)
	}
	seen := map[string]bool{}
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("%w: bad date %q", ErrInvalidArgument, d)
		}
		if seen[d] {
			return nil, fmt.Errorf("%w: duplicate date %q", ErrInvalidArgument, d)
		}
		seen[d] = true
	}
	if !models.AbsenceReasons[reason] {
		return nil, fmt.Errorf("%w: unknown reason %q", ErrInvalidArgument, reason)
	}

	raw, err := json.Marshal(dates)
	if err != nil {
		return nil, err
	}
	req := models.AbsenceRequest{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Dates:  raw,
		Reason: reason,
		Notes:  strings.TrimSpace(notes),
		Status: models.AbsencePending,
	}
	if err := w.store.DB().Create(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// Review ครูอนุมัติ/ปฏิเสธ — Pending → {Approved, Rejected} ครั้งเดียวเท่านั้น
// อนุมัติแล้ว: สร้าง Excused เฉพาะวันที่ยังไม่มีเรคคอร์ด (ไม่ทับ Present/Late เด็ดขาด)
// แต่ละวันเป็นอิสระต่อกัน — วันไหนล้มไม่ดึงวันอื่นล้มตาม
func (w *ReviewWorkflow) Review(reviewer *models.User, requestID string, approved bool, reason string) error {
	if reviewer.Role != "staff" {
		return fmt.Errorf("%w: staff only", ErrPermissionDenied)
	}
	if !approved && strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: reason is required for rejection", ErrInvalidArgument)
	}

	db := w.store.DB()
	var req models.AbsenceRequest
	if err := db.First(&req, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: request", ErrNotFound)
		}
		return err
	}
	if req.Status != models.AbsencePending {
		return fmt.Errorf("%w: request already reviewed", ErrFailedPrecondition)
	}

	now := time.Now()
	updates := map[string]any{
		"reviewed_by": reviewer.ID,
		"reviewed_at": now,
	}
	if approved {
		updates["status"] = models.AbsenceApproved
		updates["rejection_reason"] = ""
	} else {
		updates["status"] = models.AbsenceRejected
		updates["rejection_reason"] = strings.TrimSpace(reason)
	}

	// กันรีวิวแข่งกัน: อัปเดตเฉพาะเมื่อยัง Pending
	res := db.Model(&models.AbsenceRequest{}).
		Where("id = ? AND status = ?", req.ID, models.AbsencePending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: request already reviewed", ErrFailedPrecondition)
	}

	if !approved {
		return nil
	}

	var dates []string
	if err := json.Unmarshal(req.Dates, &dates); err != nil {
		return fmt.Errorf("request %s: bad dates payload: %w", req.ID, err)
	}

	for _, date := range dates {
		if err := w.excuseDate(req.UserID, date, now); err != nil {
			return fmt.Errorf("excuse %s for user %d: %w", date, req.UserID, err)
		}
	}
	return nil
}

// เรคคอร์ด Excused หนึ่งวัน + delta ของวันเดียวกัน ใน transaction เดียว
func (w *ReviewWorkflow) excuseDate(userID uint, date string, now time.Time) error {
	return w.store.InTx(func(tx *gorm.DB) error {
		prev, err := w.store.GetRecord(tx, date, userID)
		if err != nil {
			return err
		}
		if prev != nil {
			return nil // มีเรคคอร์ดแล้ว (เช่น มาเรียนจริง) — ไม่ทับ ไม่นับ
		}

		rec := models.AttendanceRecord{
			UserID:      userID,
			Date:        date,
			Timestamp:   now,
			Status:      models.StatusExcused,
			Source:      models.SourceStaff,
			OSDeviceID:  "manual",
			DeviceModel: "manual",
			OSVersion:   "manual",
			AppVersion:  "manual",
		}
		if err := w.store.CreateRecord(tx, &rec); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				return nil // แพ้ race ให้เช็คชื่อสด — ถือว่าจบงานของวันนี้
			}
			return err
		}
		return w.store.ApplyDelta(tx, date, Delta{"excused": 1, "total": 1})
	})
}
