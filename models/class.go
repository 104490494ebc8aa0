package models

import "time"

type Class struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Name            string    `json:"name" gorm:"size:60;not null"`
	HomeroomStaffID uint      `json:"homeroom_staff_id" gorm:"index"` // ครูประจำชั้น (user_id)
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
