package attendance

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/meineruva/Detta/config"
	"github.com/meineruva/Detta/database"
	"github.com/meineruva/Detta/models"
)

// วันจันทร์ที่ใช้เป็นวันอ้างอิงในเทสต์
const testDate = "2026-08-24"

func testConfig() *config.Config {
	return &config.Config{
		AttendanceStart:    "06:30",
		AttendanceEnd:      "08:00",
		LateThreshold:      "06:40",
		AttendanceTimezone: "Asia/Jakarta",
		GeofencePolygonJSON: `[{"lat":-6.10,"lng":106.70},{"lat":-6.10,"lng":106.80},` +
			`{"lat":-6.20,"lng":106.80},{"lat":-6.20,"lng":106.70}]`,
		SchoolWifiSSID: "SMAN12_Student_Wifi",
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := NewPolicy(testConfig())
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	return p
}

func newTestEngine(t *testing.T) (*Engine, *Store, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	store := NewStore(db)
	policy := newTestPolicy(t)
	engine := NewEngine(store, policy, NewBindingGuard(db), NewFlagger(db))
	return engine, store, db
}

// เวลา local ของวันอ้างอิง (จันทร์) ตามเขตเวลาโรงเรียน
func wib(t *testing.T, hh, mm, ss int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return time.Date(2026, 8, 24, hh, mm, ss, 0, loc)
}

func seedStudent(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := models.User{Email: email, Name: email, Role: "student", InviteStatus: "active"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed student %s: %v", email, err)
	}
	return &u
}

func seedStaff(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := models.User{Email: email, Name: email, Role: "staff", InviteStatus: "active"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed staff %s: %v", email, err)
	}
	return &u
}

func checkInInput(u *models.User, deviceID string) CheckInInput {
	ssid := "SMAN12_Student_Wifi"
	return CheckInInput{
		User: u,
		Lat:  -6.15,
		Lng:  106.75,
		SSID: &ssid,
		Device: DeviceEvidence{
			OSDeviceID:  deviceID,
			DeviceModel: "Pixel 7",
			OSVersion:   "14",
			AppVersion:  "1.0.0",
		},
	}
}

func getSummary(t *testing.T, db *gorm.DB, date string) *models.DailySummary {
	t.Helper()
	var sum models.DailySummary
	if err := db.Where("date = ?", date).First(&sum).Error; err != nil {
		t.Fatalf("summary %s: %v", date, err)
	}
	return &sum
}

func countStatus(t *testing.T, db *gorm.DB, date string, status models.AttendanceStatus) int {
	t.Helper()
	var n int64
	if err := db.Model(&models.AttendanceRecord{}).
		Where("date = ? AND status = ?", date, status).Count(&n).Error; err != nil {
		t.Fatalf("count %s/%s: %v", date, status, err)
	}
	return int(n)
}

// invariant หลัก: total == present+late+absent+excused และตัวนับทุกตัวตรงกับจำนวนเรคคอร์ดจริง
func assertReconciled(t *testing.T, db *gorm.DB, date string) {
	t.Helper()
	sum := getSummary(t, db, date)
	if got := sum.Present + sum.Late + sum.Absent + sum.Excused; sum.Total != got {
		t.Fatalf("summary %s: total=%d but counters sum to %d", date, sum.Total, got)
	}
	checks := []struct {
		name   string
		status models.AttendanceStatus
		got    int
	}{
		{"present", models.StatusPresent, sum.Present},
		{"late", models.StatusLate, sum.Late},
		{"absent", models.StatusAbsent, sum.Absent},
		{"excused", models.StatusExcused, sum.Excused},
	}
	for _, ck := range checks {
		if want := countStatus(t, db, date, ck.status); ck.got != want {
			t.Fatalf("summary %s: %s=%d but %d records", date, ck.name, ck.got, want)
		}
	}
}

func mustCheckIn(t *testing.T, e *Engine, now time.Time, in CheckInInput) *CheckInResult {
	t.Helper()
	res, err := e.SubmitCheckIn(now, in)
	if err != nil {
		t.Fatalf("check-in user %d: %v", in.User.ID, err)
	}
	return res
}
