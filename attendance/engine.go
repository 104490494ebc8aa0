package attendance

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/meineruva/Detta/models"
)

// Engine คือ state machine ของเรคคอร์ดเช็คชื่อ
// ทุกการเปลี่ยนสถานะ commit เรคคอร์ด + delta ของ summary เป็น transaction เดียว
type Engine struct {
	store   *Store
	policy  *Policy
	guard   *BindingGuard
	flagger *Flagger
}

func NewEngine(store *Store, policy *Policy, guard *BindingGuard, flagger *Flagger) *Engine {
	return &Engine{store: store, policy: policy, guard: guard, flagger: flagger}
}

type CheckInInput struct {
	User      *models.User
	Lat       float64
	Lng       float64
	AccuracyM *float64
	SSID      *string
	BSSID     *string
	Device    DeviceEvidence
	IP        string
}

type CheckInResult struct {
	Status models.AttendanceStatus `json:"status"`
	Date   string                  `json:"date"`
}

// SubmitCheckIn เส้นทางนักเรียนเช็คชื่อสด — now คือเวลาของ server เสมอ
// ลำดับด่าน: ผูกอุปกรณ์ → นโยบายเวลา/พิกัด/WiFi → กันซ้ำ+commit → post-commit flagger
func (e *Engine) SubmitCheckIn(now time.Time, in CheckInInput) (*CheckInResult, error) {
	// ผูกเครื่องก่อนตรวจนโยบาย (ตั้งใจ: เครื่องแรกที่ใช้ยิงคือเครื่องที่ผูก
	// แม้คำขอนั้นจะตกด่านเวลา)
	if err := e.guard.Enforce(in.User.ID, in.Device); err != nil {
		return nil, err
	}

	platform := InferPlatform(in.Device.DeviceModel)
	res, err := e.policy.Evaluate(now, in.Lat, in.Lng, platform, in.SSID)
	if err != nil {
		return nil, err
	}

	status := models.StatusPresent
	if res.Late {
		status = models.StatusLate
	}

	rec := models.AttendanceRecord{
		UserID:      in.User.ID,
		Date:        res.Date,
		Timestamp:   now,
		Status:      status,
		Source:      models.SourceStudent,
		Lat:         in.Lat,
		Lng:         in.Lng,
		AccuracyM:   in.AccuracyM,
		SSID:        in.SSID,
		BSSID:       in.BSSID,
		OSDeviceID:  orUnknown(in.Device.OSDeviceID),
		DeviceModel: orUnknown(in.Device.DeviceModel),
		OSVersion:   orUnknown(in.Device.OSVersion),
		AppVersion:  orUnknown(in.Device.AppVersion),
	}
	if ip := strings.TrimSpace(in.IP); ip != "" {
		rec.IP = &ip
	}

	err = e.store.InTx(func(tx *gorm.DB) error {
		if err := e.store.CreateRecord(tx, &rec); err != nil {
			return err
		}
		return e.store.ApplyDelta(tx, res.Date, Delta{"total": 1, status.Counter(): 1})
	})
	if err != nil {
		return nil, err
	}

	// วิเคราะห์หลัง commit — ธงไม่บล็อกการเช็คชื่อที่สำเร็จแล้ว
	if e.flagger != nil {
		if err := e.flagger.Analyze(&rec); err != nil {
			log.Printf("[flagger] analyze record %d: %v", rec.ID, err)
		}
	}

	return &CheckInResult{Status: status, Date: res.Date}, nil
}

// Override ครูแก้สถานะย้อนหลัง — transaction เดี่ยวต่อเรคคอร์ด ล็อกแถวกัน lost update
// กติกา delta: ไม่มีเรคคอร์ดเดิม → total+1, new+1
//
//	สถานะเปลี่ยน → old-1, new+1 (total คงเดิม)
//	สถานะเท่าเดิม → ไม่แตะตัวนับ (ยังเขียน audit ทับ)
func (e *Engine) Override(performer *models.User, userID uint, date string, status models.AttendanceStatus, reason string) error {
	if performer.Role != "staff" {
		return fmt.Errorf("%w: staff only", ErrPermissionDenied)
	}
	if userID == 0 || strings.TrimSpace(date) == "" || strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: missing required fields", ErrInvalidArgument)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidArgument)
	}

	now := time.Now()
	return e.store.InTx(func(tx *gorm.DB) error {
		prev, err := e.store.GetRecordForUpdate(tx, date, userID)
		if err != nil {
			return err
		}

		delta := Delta{}
		if prev == nil {
			rec := models.AttendanceRecord{
				UserID:         userID,
				Date:           date,
				Timestamp:      now,
				Status:         status,
				Source:         models.SourceStaff,
				OSDeviceID:     "manual",
				DeviceModel:    "manual",
				OSVersion:      "manual",
				AppVersion:     "manual",
				OverriddenBy:   &performer.ID,
				OverriddenAt:   &now,
				OverrideReason: strings.TrimSpace(reason),
			}
			if err := e.store.CreateRecord(tx, &rec); err != nil {
				return err
			}
			delta["total"] = 1
			delta[status.Counter()] = 1
		} else {
			updates := map[string]any{
				"status":          status,
				"source":          models.SourceStaff,
				"timestamp":       now,
				"overridden_by":   performer.ID,
				"overridden_at":   now,
				"override_reason": strings.TrimSpace(reason),
			}
			if err := tx.Model(&models.AttendanceRecord{}).Where("id = ?", prev.ID).
				Updates(updates).Error; err != nil {
				return err
			}
			if prev.Status != status {
				delta[prev.Status.Counter()] = -1
				delta[status.Counter()] = 1
			}
		}

		return e.store.ApplyDelta(tx, date, delta)
	})
}
