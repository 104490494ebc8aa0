package attendance

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meineruva/Detta/models"
)

// ขนาด batch ต่อ transaction — เพดานของระบบเดิมคือ 500 operation เผื่อไว้ที่ 400
const closeDayBatchSize = 400

// Lifecycle ปิดวัน: เติม Absent ให้คนที่ไม่มีเรคคอร์ด, repair total/absent
// จากจำนวนเรคคอร์ดจริง, แล้ว seed summary ของวันถัดไปจากจำนวนนักเรียนปัจจุบัน
// รันซ้ำได้เสมอ — ขั้นเติม Absent ข้ามเรคคอร์ดที่มีอยู่ ขั้น seed ไม่ทับของเดิม
type Lifecycle struct {
	store  *Store
	policy *Policy
}

func NewLifecycle(store *Store, policy *Policy) *Lifecycle {
	return &Lifecycle{store: store, policy: policy}
}

type CloseDayResult struct {
	Date         string `json:"date"`
	MarkedAbsent int    `json:"marked_absent"`
}

// CloseDay ปิดวันปัจจุบัน (ตามเขตเวลาโรงเรียน)
func (m *Lifecycle) CloseDay(now time.Time) (*CloseDayResult, error) {
	return m.CloseDate(m.policy.LocalDate(now), now)
}

// CloseDate ปิดวันที่ระบุ — แยกไว้ให้สั่งปิดย้อนหลังได้
func (m *Lifecycle) CloseDate(date string, now time.Time) (*CloseDayResult, error) {
	db := m.store.DB()

	// 1) นักเรียนทั้งหมด (read-only ไม่ต้องอยู่ใน tx ใหญ่ก้อนเดียว)
	var students []models.User
	if err := db.Where("role = ?", "student").Order("id ASC").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("enumerate students: %w", err)
	}

	// 2) เติม Absent ทีละ batch — batch ล้มกลางทางไม่กระทบ batch ที่ commit แล้ว
	marked := 0
	for start := 0; start < len(students); start += closeDayBatchSize {
		end := start + closeDayBatchSize
		if end > len(students) {
			end = len(students)
		}

		n, err := m.fillAbsences(date, now, students[start:end])
		marked += n
		if err != nil {
			// รายงานความคืบหน้าที่ทำได้ เพื่อให้ retry ต่อจนจบอย่างปลอดภัย
			return &CloseDayResult{Date: date, MarkedAbsent: marked},
				fmt.Errorf("close day %s: batch failed after %d absences: %w", date, marked, err)
		}
	}

	// 3) repair: total/absent คิดใหม่จากจำนวนเรคคอร์ดจริง
	// วันที่ถูก seed มาล่วงหน้า total เป็นจำนวน roster ไม่ใช่จำนวนเรคคอร์ด —
	// ขั้นนี้ดึงทั้งสองกรณีกลับมาตรงกับเรคคอร์ดเสมอ
	if err := m.repairCounters(date); err != nil {
		return &CloseDayResult{Date: date, MarkedAbsent: marked}, err
	}

	// 4) seed วันพรุ่งนี้จาก roster ปัจจุบัน (check-then-set ผ่าน ON CONFLICT DO NOTHING)
	next, err := nextDate(date)
	if err != nil {
		return &CloseDayResult{Date: date, MarkedAbsent: marked}, err
	}
	if err := m.store.SeedSummary(db, next, len(students)); err != nil {
		return &CloseDayResult{Date: date, MarkedAbsent: marked},
			fmt.Errorf("seed summary %s: %w", next, err)
	}

	return &CloseDayResult{Date: date, MarkedAbsent: marked}, nil
}

// เติมเรคคอร์ด Absent ให้นักเรียนใน chunk ที่ยังไม่มีเรคคอร์ดของวันนั้น
// ON CONFLICT DO NOTHING ทำให้ยิงซ้ำ/แข่งกับเช็คชื่อสดแล้วไม่นับซ้ำ
func (m *Lifecycle) fillAbsences(date string, now time.Time, students []models.User) (int, error) {
	if len(students) == 0 {
		return 0, nil
	}

	ids := make([]uint, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}

	created := 0
	err := m.store.InTx(func(tx *gorm.DB) error {
		var existing []uint
		if err := tx.Model(&models.AttendanceRecord{}).
			Where("date = ? AND user_id IN ?", date, ids).
			Pluck("user_id", &existing).Error; err != nil {
			return err
		}
		has := make(map[uint]bool, len(existing))
		for _, id := range existing {
			has[id] = true
		}

		rows := make([]models.AttendanceRecord, 0, len(ids))
		for _, id := range ids {
			if has[id] {
				continue
			}
			rows = append(rows, models.AttendanceRecord{
				UserID:      id,
				Date:        date,
				Timestamp:   now,
				Status:      models.StatusAbsent,
				Source:      models.SourceSystem,
				OSDeviceID:  "system",
				DeviceModel: "system",
				OSVersion:   "system",
				AppVersion:  "system",
			})
		}
		if len(rows) == 0 {
			return nil
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&rows)
		if res.Error != nil {
			return res.Error
		}
		created = int(res.RowsAffected)
		if created == 0 {
			return nil
		}
		// เฉพาะ absent — total ของวันที่ seed แล้วนับ roster ไว้ก่อน
		// ขั้น repair ด้านล่างปรับ total ให้ตรงกับเรคคอร์ดตอนจบ
		return m.store.ApplyDelta(tx, date, Delta{"absent": created})
	})
	return created, err
}

func (m *Lifecycle) repairCounters(date string) error {
	db := m.store.DB()
	total, absent, err := m.store.CountRecords(db, date)
	if err != nil {
		return fmt.Errorf("count records %s: %w", date, err)
	}
	if total == 0 {
		sum, err := m.store.GetSummary(db, date)
		if err != nil {
			return fmt.Errorf("read summary %s: %w", date, err)
		}
		if sum == nil {
			return nil // วันว่างเปล่า — ไม่สร้าง summary ขึ้นมาเอง
		}
	}
	return m.store.SetClosedCounts(db, date, total, absent)
}

func nextDate(date string) (string, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidArgument)
	}
	return d.AddDate(0, 0, 1).Format("2006-01-02"), nil
}
