package models

import (
	"time"

	"gorm.io/datatypes"
)

type FlagStatus string

const (
	FlagPending   FlagStatus = "Pending"
	FlagReviewed  FlagStatus = "Reviewed"
	FlagDismissed FlagStatus = "Dismissed"
	FlagEscalated FlagStatus = "Escalated"
)

// รหัสธงที่ AnomalyFlagger ออกให้
const (
	FlagCodeDeviceMismatch = "DeviceMismatch"
	FlagCodeSharedDevice   = "SharedDevice"
	FlagCodeLowAccuracy    = "LowAccuracy"
)

// รายการรอครูตรวจ — สร้างโดยระบบเท่านั้น สถานะเปลี่ยนได้ครั้งเดียว (terminal)
type FlaggedCheckIn struct {
	ID                 string         `json:"id" gorm:"primaryKey;size:36"`
	UserID             uint           `json:"user_id" gorm:"index;not null"`
	ClassID            *uint          `json:"class_id"`
	AttendanceRecordID uint           `json:"attendance_record_id" gorm:"index;not null"`
	Date               string         `json:"date" gorm:"size:10;not null;index"`
	Flags              datatypes.JSON `json:"flags" gorm:"not null"`
	FlagDetail         datatypes.JSON `json:"flag_detail"`
	Status             FlagStatus     `json:"status" gorm:"size:10;not null;default:'Pending';index"`
	CreatedAt          time.Time      `json:"created_at"`
	ReviewedBy         *uint          `json:"reviewed_by"`
	ReviewedAt         *time.Time     `json:"reviewed_at"`
	Notes              string         `json:"notes" gorm:"type:text"`
}
