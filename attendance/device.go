package attendance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meineruva/Detta/models"
)

// หลักฐานอุปกรณ์ที่แอปส่งมากับเช็คชื่อ
type DeviceEvidence struct {
	OSDeviceID  string `json:"os_device_id"`
	DeviceModel string `json:"device_model"`
	OSVersion   string `json:"os_version"`
	AppVersion  string `json:"app_version"`
}

// เดา platform จากชื่อรุ่น — วิธีเดียวกับฝั่งแอป
func InferPlatform(deviceModel string) string {
	if strings.Contains(deviceModel, "iPhone") {
		return "ios"
	}
	return "android"
}

// BindingGuard บังคับ 1 คน : 1 เครื่อง
// ครั้งแรกผูกให้เลย ครั้งถัดไปต้องตรงกับที่ผูกไว้ ไม่ตรง = ปฏิเสธทั้งคำขอ
type BindingGuard struct {
	db *gorm.DB
}

func NewBindingGuard(db *gorm.DB) *BindingGuard { return &BindingGuard{db: db} }

// Binding คืนการผูกปัจจุบันของผู้ใช้ (ไม่มี/ถูก reset แล้ว = nil)
func (g *BindingGuard) Binding(userID uint) (*models.BoundDevice, error) {
	var b models.BoundDevice
	err := g.db.Where("user_id = ?", userID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if b.OSDeviceID == "" {
		return nil, nil // แถวค้างหลัง reset — ถือว่ายังไม่ผูก
	}
	return &b, nil
}

// Enforce ตรวจ/ผูกอุปกรณ์ก่อนปล่อยผ่านเช็คชื่อ
func (g *BindingGuard) Enforce(userID uint, ev DeviceEvidence) error {
	var b models.BoundDevice
	err := g.db.Where("user_id = ?", userID).First(&b).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return g.bindFirst(userID, ev)
	case err != nil:
		return err
	}

	if b.OSDeviceID == "" {
		// เคยถูก reset — ผูกใหม่กับเครื่องนี้ (นับ reset เดิมต่อ)
		now := time.Now()
		return g.db.Model(&b).Updates(map[string]any{
			"platform":     InferPlatform(ev.DeviceModel),
			"os_device_id": orUnknown(ev.OSDeviceID),
			"device_model": orUnknown(ev.DeviceModel),
			"os_version":   orUnknown(ev.OSVersion),
			"app_version":  orUnknown(ev.AppVersion),
			"bound_at":     &now,
		}).Error
	}

	if b.OSDeviceID != ev.OSDeviceID {
		return fmt.Errorf("%w: attendance rejected", ErrDeviceMismatch)
	}
	return nil
}

// ผูกเครื่องครั้งแรก — สองคำขอแรกยิงพร้อมกันได้ unique index ตัดสินผู้ชนะ
// ฝั่งที่แพ้อ่านการผูกของผู้ชนะมาเทียบแทนที่จะโยน error ดิบออกไป
func (g *BindingGuard) bindFirst(userID uint, ev DeviceEvidence) error {
	now := time.Now()
	b := models.BoundDevice{
		UserID:      userID,
		Platform:    InferPlatform(ev.DeviceModel),
		OSDeviceID:  orUnknown(ev.OSDeviceID),
		DeviceModel: orUnknown(ev.DeviceModel),
		OSVersion:   orUnknown(ev.OSVersion),
		AppVersion:  orUnknown(ev.AppVersion),
		BoundAt:     &now,
	}
	err := g.db.Create(&b).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	var won models.BoundDevice
	if err := g.db.Where("user_id = ?", userID).First(&won).Error; err != nil {
		return err
	}
	if won.OSDeviceID != orUnknown(ev.OSDeviceID) {
		return fmt.Errorf("%w: attendance rejected", ErrDeviceMismatch)
	}
	return nil
}

// Reset ล้างการผูกโดยครู — admin (ตาม whitelist) หรือครูประจำชั้นของเด็กเท่านั้น
// เขียน log ตรวจสอบย้อนหลังเสมอ การผูกไม่มีทางถูกล้างโดยเส้นทางอื่น
func (g *BindingGuard) Reset(performer *models.User, targetID uint, reason string) error {
	if performer.Role != "staff" {
		return fmt.Errorf("%w: only staff can reset devices", ErrPermissionDenied)
	}

	var target models.User
	if err := g.db.First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: student", ErrNotFound)
		}
		return err
	}

	isAdmin, err := g.isWhitelistedAdmin(performer.Email)
	if err != nil {
		return err
	}
	if !isAdmin {
		if target.ClassID == nil {
			return fmt.Errorf("%w: student has no class assigned", ErrFailedPrecondition)
		}
		var class models.Class
		if err := g.db.First(&class, *target.ClassID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: class", ErrNotFound)
			}
			return err
		}
		if class.HomeroomStaffID != performer.ID {
			return fmt.Errorf("%w: not the homeroom teacher for this student", ErrPermissionDenied)
		}
	}

	now := time.Now()
	return g.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.BoundDevice{}).Where("user_id = ?", targetID).
			Updates(map[string]any{
				"os_device_id":  "",
				"reset_count":   gorm.Expr("reset_count + 1"),
				"last_reset_at": &now,
			})
		if res.Error != nil {
			return res.Error
		}
		log := models.DeviceResetLog{
			ID:          uuid.NewString(),
			UserID:      targetID,
			ClassID:     target.ClassID,
			PerformedBy: performer.ID,
			PerformedAt: now,
			Reason:      strings.TrimSpace(reason),
		}
		return tx.Create(&log).Error
	})
}

func (g *BindingGuard) isWhitelistedAdmin(email string) (bool, error) {
	var entry models.StaffWhitelist
	err := g.db.Where("email = ?", email).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return entry.Role == "admin", nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
