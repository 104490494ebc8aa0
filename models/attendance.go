package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusLate    AttendanceStatus = "Late"
	StatusAbsent  AttendanceStatus = "Absent"
	StatusExcused AttendanceStatus = "Excused"
)

// ค่าที่ไม่รู้จักถูกปัดตกตั้งแต่ขอบระบบ
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent, StatusExcused:
		return true
	}
	return false
}

// คอลัมน์ counter ใน daily_summaries ที่สถานะนี้นับเข้า
func (s AttendanceStatus) Counter() string {
	switch s {
	case StatusPresent:
		return "present"
	case StatusLate:
		return "late"
	case StatusAbsent:
		return "absent"
	default:
		return "excused"
	}
}

type AttendanceSource string

const (
	SourceStudent AttendanceSource = "student"
	SourceStaff   AttendanceSource = "staff"
	SourceSystem  AttendanceSource = "system"
)

// บันทึกเช็คชื่อ 1 แถวต่อ (วัน, นักเรียน) — unique index เป็นตัวกันซ้ำชั้นสุดท้าย
type AttendanceRecord struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"not null;uniqueIndex:uniq_attendance_day,priority:2"`
	Date      string           `json:"date" gorm:"size:10;not null;index;uniqueIndex:uniq_attendance_day,priority:1"` // YYYY-MM-DD (เขตเวลาโรงเรียน)
	Timestamp time.Time        `json:"timestamp" gorm:"not null"`
	Status    AttendanceStatus `json:"status" gorm:"size:10;not null"`
	Source    AttendanceSource `json:"source" gorm:"size:10;not null"`

	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	AccuracyM *float64 `json:"accuracy_m"`

	SSID  *string `json:"ssid" gorm:"size:64"`
	BSSID *string `json:"bssid" gorm:"size:64"`

	OSDeviceID  string `json:"os_device_id" gorm:"size:128;index"`
	DeviceModel string `json:"device_model" gorm:"size:80"`
	OSVersion   string `json:"os_version" gorm:"size:40"`
	AppVersion  string `json:"app_version" gorm:"size:40"`

	Flags      datatypes.JSON `json:"flags"`       // ["DeviceMismatch", ...]
	FlagDetail datatypes.JSON `json:"flag_detail"` // หลักฐานประกอบ (null ถ้าไม่ติดธง)
	RiskScore  *int           `json:"risk_score"`

	IP          *string `json:"ip" gorm:"size:45"`
	NetworkType *string `json:"network_type" gorm:"size:20"`

	// เฉพาะเส้นทาง override โดยครู
	OverriddenBy   *uint      `json:"overridden_by"`
	OverriddenAt   *time.Time `json:"overridden_at"`
	OverrideReason string     `json:"override_reason" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
