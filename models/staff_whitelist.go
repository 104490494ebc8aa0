package models

import "time"

// รายชื่อเจ้าหน้าที่ที่ได้สิทธิ์ — role "admin" มีสิทธิ์เหนือ homeroom
type StaffWhitelist struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	Email   string    `json:"email" gorm:"uniqueIndex;size:120;not null"`
	Name    string    `json:"name" gorm:"size:120"`
	Role    string    `json:"role" gorm:"size:10;not null"` // "admin" | "staff"
	AddedBy uint      `json:"added_by"`
	AddedAt time.Time `json:"added_at" gorm:"autoCreateTime"`
}
