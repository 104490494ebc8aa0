package models

import "time"

// ตัวนับรวมรายวัน — ต้อง reconcile กับ attendance_records เสมอ:
// total == present + late + absent + excused
// ห้ามแก้ด้วย read-modify-write ยกเว้น repair ตอนปิดวัน (ดู attendance/lifecycle.go)
type DailySummary struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Date        string    `json:"date" gorm:"size:10;uniqueIndex;not null"` // YYYY-MM-DD
	Total       int       `json:"total" gorm:"not null;default:0"`
	Present     int       `json:"present" gorm:"not null;default:0"`
	Late        int       `json:"late" gorm:"not null;default:0"`
	Absent      int       `json:"absent" gorm:"not null;default:0"`
	Excused     int       `json:"excused" gorm:"not null;default:0"`
	LastUpdated time.Time `json:"last_updated"`
}
