package models

import (
	"time"

	"gorm.io/datatypes"
)

type AbsenceStatus string

const (
	AbsencePending  AbsenceStatus = "Pending"
	AbsenceApproved AbsenceStatus = "Approved"
	AbsenceRejected AbsenceStatus = "Rejected"
)

// หมวดเหตุผลที่ฟอร์มนักเรียนให้เลือก
var AbsenceReasons = map[string]bool{
	"Sick": true, "Medical Appointment": true, "Family Emergency": true,
	"Religious Observance": true, "Other": true,
}

// คำขอลา — อนุมัติแล้วจะสร้างเรคคอร์ด Excused ย้อนหลังให้เฉพาะวันที่ยังไม่มีเรคคอร์ด
type AbsenceRequest struct {
	ID              string         `json:"id" gorm:"primaryKey;size:36"`
	UserID          uint           `json:"user_id" gorm:"index;not null"`
	Dates           datatypes.JSON `json:"dates" gorm:"not null"` // ["YYYY-MM-DD", ...]
	Reason          string         `json:"reason" gorm:"size:40;not null"`
	Notes           string         `json:"notes" gorm:"type:text"`
	Status          AbsenceStatus  `json:"status" gorm:"size:10;not null;default:'Pending';index"`
	SubmittedAt     time.Time      `json:"submitted_at" gorm:"autoCreateTime"`
	ReviewedBy      *uint          `json:"reviewed_by"`
	ReviewedAt      *time.Time     `json:"reviewed_at"`
	RejectionReason string         `json:"rejection_reason" gorm:"type:text"` // บังคับกรอกเมื่อปฏิเสธ

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
