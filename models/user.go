package models

import "time"

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:120;not null"`
	Name         string    `json:"name" gorm:"size:120;not null"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role" gorm:"size:20;not null"`                           // "student" | "staff"
	ClassID      *uint     `json:"class_id" gorm:"index"`                                  // ห้องประจำ (nullable — นักเรียนใหม่อาจยังไม่ได้จัดห้อง)
	InviteStatus string    `json:"invite_status" gorm:"size:20;not null;default:'active'"` // "pending" | "active"
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
