package attendance

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meineruva/Detta/models"
)

// Delta คือการปรับตัวนับแบบมีเครื่องหมาย เช่น {"present": 1, "total": 1}
// หรือตอน override {"present": -1, "late": 1}
type Delta map[string]int

// คอลัมน์ counter ที่ยอมให้ปรับ — กันพลาดพิมพ์ชื่อคอลัมน์ผิดแล้วไปชน SQL
var counterColumns = map[string]bool{
	"total": true, "present": true, "late": true, "absent": true, "excused": true,
}

// Store หุ้ม primitive สองตัวที่เอนจินต้องการ:
// สร้างเรคคอร์ดแบบกันซ้ำ และปรับ summary แบบ atomic increment
// ทุกการเขียนที่กระทบสถานะต้องทำผ่าน transaction เดียวกัน (ดู InTx)
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *gorm.DB { return s.db }

// InTx รัน fn ใน transaction เดียว — commit เรคคอร์ด + delta เป็นก้อนเดียวกัน
func (s *Store) InTx(fn func(tx *gorm.DB) error) error {
	return s.db.Transaction(fn)
}

// CreateRecord เขียนเรคคอร์ดใหม่ ชน unique (date,user) → ErrAlreadyExists
func (s *Store) CreateRecord(tx *gorm.DB, rec *models.AttendanceRecord) error {
	if err := tx.Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetRecord อ่านเรคคอร์ดของ (วัน, ผู้ใช้) — ไม่พบ = (nil, nil)
func (s *Store) GetRecord(tx *gorm.DB, date string, userID uint) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := tx.Where("date = ? AND user_id = ?", date, userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecordForUpdate เหมือน GetRecord แต่ล็อกแถวกัน override ชนกัน
// (sqlite ใน test ไม่รู้จัก FOR UPDATE — ที่นั่น writer ถูก serialize ทั้งไฟล์อยู่แล้ว)
func (s *Store) GetRecordForUpdate(tx *gorm.DB, date string, userID uint) (*models.AttendanceRecord, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rec models.AttendanceRecord
	err := q.Where("date = ? AND user_id = ?", date, userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ApplyDelta upsert summary ของวันนั้นด้วย increment ฝั่ง SQL
// (ไม่อ่านค่าเดิมมาแล้วบวกในโปรแกรม — สองคนยิงพร้อมกันต้องได้ผลรวมเสมอ)
func (s *Store) ApplyDelta(tx *gorm.DB, date string, delta Delta) error {
	if len(delta) == 0 {
		return nil
	}

	now := time.Now()
	row := models.DailySummary{Date: date, LastUpdated: now}
	assigns := map[string]any{"last_updated": now}
	for col, n := range delta {
		if !counterColumns[col] {
			return fmt.Errorf("unknown summary counter %q", col)
		}
		switch col {
		case "total":
			row.Total = n
		case "present":
			row.Present = n
		case "late":
			row.Late = n
		case "absent":
			row.Absent = n
		case "excused":
			row.Excused = n
		}
		assigns[col] = gorm.Expr(col+" + ?", n)
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(assigns),
	}).Create(&row).Error
}

// SeedSummary สร้าง summary ของวันถัดไปล่วงหน้า — มีอยู่แล้วไม่ทับ (idempotent)
func (s *Store) SeedSummary(tx *gorm.DB, date string, total int) error {
	row := models.DailySummary{Date: date, Total: total, LastUpdated: time.Now()}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoNothing: true,
	}).Create(&row).Error
}

// GetSummary อ่าน summary ของวัน — ไม่พบ = (nil, nil)
func (s *Store) GetSummary(tx *gorm.DB, date string) (*models.DailySummary, error) {
	var sum models.DailySummary
	err := tx.Where("date = ?", date).First(&sum).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// CountRecords นับเรคคอร์ดจริงของวัน: ทั้งหมด และเฉพาะ Absent
func (s *Store) CountRecords(tx *gorm.DB, date string) (total, absent int, err error) {
	var n int64
	if err = tx.Model(&models.AttendanceRecord{}).
		Where("date = ?", date).Count(&n).Error; err != nil {
		return 0, 0, err
	}
	total = int(n)
	if err = tx.Model(&models.AttendanceRecord{}).
		Where("date = ? AND status = ?", date, models.StatusAbsent).Count(&n).Error; err != nil {
		return 0, 0, err
	}
	return total, int(n), nil
}

// SetClosedCounts เขียน total/absent ตรง ๆ จากผลนับเรคคอร์ด
// ใช้เฉพาะขั้น repair ตอนปิดวัน — ที่เดียวที่อนุญาตให้เขียนทับแทน increment
func (s *Store) SetClosedCounts(tx *gorm.DB, date string, total, absent int) error {
	now := time.Now()
	row := models.DailySummary{Date: date, Total: total, Absent: absent, LastUpdated: now}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total": total, "absent": absent, "last_updated": now,
		}),
	}).Create(&row).Error
}
