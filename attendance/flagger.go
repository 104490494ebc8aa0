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

// เกณฑ์ความคลาดเคลื่อนพิกัดที่ยอมรับ (เมตร)
const lowAccuracyThresholdM = 100

// น้ำหนักคะแนนความเสี่ยงต่อ 1 ธง
const riskPerFlag = 20

type FlagDetail struct {
	Reason   string   `json:"reason"`
	Evidence []string `json:"evidence,omitempty"`
}

// Flagger ตรวจเรคคอร์ดที่เพิ่งสร้าง (hook หลัง commit — ไม่บล็อกการเช็คชื่อ)
// แต่ละเกณฑ์อิสระต่อกัน ออกธงได้พร้อมกันหลายตัว
type Flagger struct {
	db *gorm.DB
}

func NewFlagger(db *gorm.DB) *Flagger { return &Flagger{db: db} }

// Analyze ตรวจ 3 เกณฑ์: เครื่องไม่ตรงกับที่ผูก / เครื่องเดียวหลายคนในวันเดียว / พิกัดหยาบ
// มีธง → สร้าง FlaggedCheckIn (Pending) + ประทับธงและ riskScore ลงเรคคอร์ด
// ไม่มีธง → ไม่แตะเรคคอร์ดเลย
func (f *Flagger) Analyze(rec *models.AttendanceRecord) error {
	var flags []string
	var details []FlagDetail

	var user models.User
	if err := f.db.First(&user, rec.UserID).Error; err != nil {
		return fmt.Errorf("load user %d: %w", rec.UserID, err)
	}

	// 1) DeviceMismatch — กันเส้นทางที่หลุดด่าน binding มาได้ (เช่น backfill โดยครู)
	var bound models.BoundDevice
	err := f.db.Where("user_id = ?", rec.UserID).First(&bound).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil && bound.OSDeviceID != "" && bound.OSDeviceID != rec.OSDeviceID {
		flags = append(flags, models.FlagCodeDeviceMismatch)
		details = append(details, FlagDetail{
			Reason:   "Check-in device does not match bound device",
			Evidence: []string{"record: " + rec.OSDeviceID, "bound: " + bound.OSDeviceID},
		})
	}

	// 2) SharedDevice — เครื่องเดียวกันโผล่ในเรคคอร์ดของคนอื่นวันเดียวกัน
	// roster query นี้ยอมให้ eventually consistent ได้ (best-effort ไม่ใช่ invariant)
	var others []models.AttendanceRecord
	if err := f.db.Where("date = ? AND os_device_id = ? AND user_id <> ?",
		rec.Date, rec.OSDeviceID, rec.UserID).Find(&others).Error; err != nil {
		return err
	}
	if len(others) > 0 {
		ev := make([]string, 0, len(others))
		for _, o := range others {
			ev = append(ev, fmt.Sprintf("user %d", o.UserID))
		}
		flags = append(flags, models.FlagCodeSharedDevice)
		details = append(details, FlagDetail{
			Reason:   "Device used by multiple students today",
			Evidence: ev,
		})
		// ประทับธงย้อนให้เรคคอร์ดอีกฝั่งด้วย — สองเรคคอร์ดที่ใช้เครื่องร่วมกัน
		// ต้องติดธงทั้งคู่ ไม่ใช่เฉพาะคนที่มาทีหลัง
		for i := range others {
			if err := f.appendFlag(&others[i], models.FlagCodeSharedDevice, FlagDetail{
				Reason:   "Device used by multiple students today",
				Evidence: []string{fmt.Sprintf("user %d", rec.UserID)},
			}); err != nil {
				return err
			}
		}
	}

	// 3) LowAccuracy
	if rec.AccuracyM != nil && *rec.AccuracyM > lowAccuracyThresholdM {
		flags = append(flags, models.FlagCodeLowAccuracy)
		details = append(details, FlagDetail{
			Reason: fmt.Sprintf("Location accuracy > %dm", lowAccuracyThresholdM),
		})
	}

	if len(flags) == 0 {
		return nil
	}

	rawFlags, err := json.Marshal(flags)
	if err != nil {
		return err
	}
	rawDetails, err := json.Marshal(details)
	if err != nil {
		return err
	}

	item := models.FlaggedCheckIn{
		ID:                 uuid.NewString(),
		UserID:             rec.UserID,
		ClassID:            user.ClassID,
		AttendanceRecordID: rec.ID,
		Date:               rec.Date,
		Flags:              rawFlags,
		FlagDetail:         rawDetails,
		Status:             models.FlagPending,
	}
	if err := f.db.Create(&item).Error; err != nil {
		return err
	}

	risk := riskPerFlag * len(flags)
	return f.db.Model(&models.AttendanceRecord{}).Where("id = ?", rec.ID).
		Updates(map[string]any{
			"flags":       rawFlags,
			"flag_detail": rawDetails,
			"risk_score":  risk,
		}).Error
}

// เติมธงให้เรคคอร์ดที่เคยผ่านการวิเคราะห์ไปแล้ว (ใช้กับฝั่งตรงข้ามของ SharedDevice)
func (f *Flagger) appendFlag(rec *models.AttendanceRecord, code string, detail FlagDetail) error {
	var flags []string
	if len(rec.Flags) > 0 {
		if err := json.Unmarshal(rec.Flags, &flags); err != nil {
			return err
		}
	}
	for _, existing := range flags {
		if existing == code {
			return nil
		}
	}
	flags = append(flags, code)

	var details []FlagDetail
	if len(rec.FlagDetail) > 0 {
		if err := json.Unmarshal(rec.FlagDetail, &details); err != nil {
			return err
		}
	}
	details = append(details, detail)

	rawFlags, err := json.Marshal(flags)
	if err != nil {
		return err
	}
	rawDetails, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return f.db.Model(&models.AttendanceRecord{}).Where("id = ?", rec.ID).
		Updates(map[string]any{
			"flags":       rawFlags,
			"flag_detail": rawDetails,
			"risk_score":  riskPerFlag * len(flags),
		}).Error
}

// action ที่ครูสั่งได้ — "Resolved" เก็บเป็นสถานะ Reviewed
var flagActions = map[string]models.FlagStatus{
	"Dismissed": models.FlagDismissed,
	"Escalated": models.FlagEscalated,
	"Resolved":  models.FlagReviewed,
}

// Review ครูเคลียร์รายการธง — เปลี่ยนได้ครั้งเดียว หลังจากนั้น terminal
func (f *Flagger) Review(performer *models.User, flagID, action, notes string) error {
	if performer.Role != "staff" {
		return fmt.Errorf("%w: staff only", ErrPermissionDenied)
	}
	status, ok := flagActions[action]
	if !ok {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, action)
	}

	var item models.FlaggedCheckIn
	if err := f.db.First(&item, "id = ?", flagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: flagged check-in", ErrNotFound)
		}
		return err
	}
	if item.Status != models.FlagPending {
		return fmt.Errorf("%w: already reviewed", ErrFailedPrecondition)
	}

	now := time.Now()
	res := f.db.Model(&models.FlaggedCheckIn{}).
		Where("id = ? AND status = ?", item.ID, models.FlagPending).
		Updates(map[string]any{
			"status":      status,
			"reviewed_by": performer.ID,
			"reviewed_at": now,
			"notes":       strings.TrimSpace(notes),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: already reviewed", ErrFailedPrecondition)
	}
	return nil
}
