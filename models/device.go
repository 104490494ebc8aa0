package models

import "time"

// อุปกรณ์ที่ผูกกับผู้ใช้ — 1 คน : 1 เครื่อง
// OSDeviceID ว่าง = ยังไม่ผูก (หลัง reset จะว่างจนกว่าจะเช็คชื่อครั้งถัดไป)
type BoundDevice struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	Platform    string     `json:"platform" gorm:"size:10"` // "android" | "ios"
	OSDeviceID  string     `json:"os_device_id" gorm:"size:128;index"`
	DeviceModel string     `json:"device_model" gorm:"size:80"`
	OSVersion   string     `json:"os_version" gorm:"size:40"`
	AppVersion  string     `json:"app_version" gorm:"size:40"`
	BoundAt     *time.Time `json:"bound_at"`
	ResetCount  int        `json:"reset_count" gorm:"not null;default:0"`
	LastResetAt *time.Time `json:"last_reset_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// บันทึกการ reset อุปกรณ์ (append-only ห้ามแก้ย้อนหลัง)
type DeviceResetLog struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	UserID      uint      `json:"user_id" gorm:"index;not null"`
	ClassID     *uint     `json:"class_id"`
	PerformedBy uint      `json:"performed_by" gorm:"not null"`
	PerformedAt time.Time `json:"performed_at" gorm:"not null"`
	Reason      string    `json:"reason" gorm:"type:text"`
}
