package attendance

import (
	"encoding/json"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/meineruva/Detta/models"
)

func recordFlags(t *testing.T, db *gorm.DB, date string, userID uint) (codes []string, risk int) {
	t.Helper()
	var rec models.AttendanceRecord
	if err := db.Where("date = ? AND user_id = ?", date, userID).First(&rec).Error; err != nil {
		t.Fatalf("record %s/%d: %v", date, userID, err)
	}
	if len(rec.Flags) > 0 {
		if err := json.Unmarshal(rec.Flags, &codes); err != nil {
			t.Fatalf("flags payload: %v", err)
		}
	}
	if rec.RiskScore != nil {
		risk = *rec.RiskScore
	}
	return codes, risk
}

func TestCleanCheckInGetsNoFlags(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "a@student.ac.th")

	mustCheckIn(t, engine, wib(t, 6, 35, 0), checkInInput(u, "dev-a"))

	codes, risk := recordFlags(t, db, testDate, u.ID)
	if len(codes) != 0 || risk != 0 {
		t.Fatalf("clean check-in flagged: %v risk=%d", codes, risk)
	}
	var n int64
	if err := db.Model(&models.FlaggedCheckIn{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("flag queue has %d items", n)
	}
}

func TestSharedDeviceFlagsBothRecords(t *testing.T) {
	engine, _, db := newTestEngine(t)
	a := seedStudent(t, db, "a@student.ac.th")
	b := seedStudent(t, db, "b@student.ac.th")

	mustCheckIn(t, engine, wib(t, 6, 35, 0), checkInInput(a, "dev-shared"))
	mustCheckIn(t, engine, wib(t, 6, 36, 0), checkInInput(b, "dev-shared"))

	// คนที่มาทีหลังติดธงตรง ๆ
	codes, risk := recordFlags(t, db, testDate, b.ID)
	if len(codes) != 1 || codes[0] != models.FlagCodeSharedDevice {
		t.Fatalf("second record flags=%v", codes)
	}
	if risk != riskPerFlag {
		t.Fatalf("second record risk=%d, want %d", risk, riskPerFlag)
	}

	// คนที่มาก่อนต้องถูกประทับธงย้อนหลังด้วย
	codes, risk = recordFlags(t, db, testDate, a.ID)
	if len(codes) != 1 || codes[0] != models.FlagCodeSharedDevice {
		t.Fatalf("first record flags=%v", codes)
	}
	if risk != riskPerFlag {
		t.Fatalf("first record risk=%d, want %d", risk, riskPerFlag)
	}
}

func TestLowAccuracyFlag(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "a@student.ac.th")

	in := checkInInput(u, "dev-a")
	acc := 150.0
	in.AccuracyM = &acc
	mustCheckIn(t, engine, wib(t, 6, 35, 0), in)

	codes, risk := recordFlags(t, db, testDate, u.ID)
	if len(codes) != 1 || codes[0] != models.FlagCodeLowAccuracy {
		t.Fatalf("flags=%v", codes)
	}
	if risk != riskPerFlag {
		t.Fatalf("risk=%d, want %d", risk, riskPerFlag)
	}
}

func TestAccuracyAtThresholdNotFlagged(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "a@student.ac.th")

	in := checkInInput(u, "dev-a")
	acc := float64(lowAccuracyThresholdM)
	in.AccuracyM = &acc
	mustCheckIn(t, engine, wib(t, 6, 35, 0), in)

	if codes, _ := recordFlags(t, db, testDate, u.ID); len(codes) != 0 {
		t.Fatalf("threshold accuracy flagged: %v", codes)
	}
}

func TestDeviceMismatchFlagOnAnalyze(t *testing.T) {
	_, _, db := newTestEngine(t)
	flagger := NewFlagger(db)
	u := seedStudent(t, db, "a@student.ac.th")

	// ผูกเครื่องไว้ก่อน แล้ววิเคราะห์เรคคอร์ดที่เครื่องไม่ตรง
	// (เส้นทางปกติโดนด่าน binding ตัดก่อน — flagger เป็นตาข่ายชั้นสอง)
	guard := NewBindingGuard(db)
	if err := guard.Enforce(u.ID, DeviceEvidence{OSDeviceID: "dev-bound", DeviceModel: "Pixel 7"}); err != nil {
		t.Fatal(err)
	}

	rec := models.AttendanceRecord{
		UserID:     u.ID,
		Date:       testDate,
		Timestamp:  wib(t, 6, 35, 0),
		Status:     models.StatusPresent,
		Source:     models.SourceStudent,
		OSDeviceID: "dev-other",
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatal(err)
	}
	if err := flagger.Analyze(&rec); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	codes, _ := recordFlags(t, db, testDate, u.ID)
	if len(codes) != 1 || codes[0] != models.FlagCodeDeviceMismatch {
		t.Fatalf("flags=%v", codes)
	}

	var item models.FlaggedCheckIn
	if err := db.First(&item, "attendance_record_id = ?", rec.ID).Error; err != nil {
		t.Fatalf("flag queue item missing: %v", err)
	}
	if item.Status != models.FlagPending || item.Date != testDate {
		t.Fatalf("queue item %+v", item)
	}
}

func TestRiskScoreScalesWithFlagCount(t *testing.T) {
	engine, _, db := newTestEngine(t)
	a := seedStudent(t, db, "a@student.ac.th")
	b := seedStudent(t, db, "b@student.ac.th")

	mustCheckIn(t, engine, wib(t, 6, 35, 0), checkInInput(a, "dev-shared"))

	in := checkInInput(b, "dev-shared")
	acc := 200.0
	in.AccuracyM = &acc
	mustCheckIn(t, engine, wib(t, 6, 36, 0), in)

	codes, risk := recordFlags(t, db, testDate, b.ID)
	if len(codes) != 2 {
		t.Fatalf("flags=%v, want SharedDevice+LowAccuracy", codes)
	}
	if risk != 2*riskPerFlag {
		t.Fatalf("risk=%d, want %d", risk, 2*riskPerFlag)
	}
}

func TestFlagReviewTerminal(t *testing.T) {
	engine, _, db := newTestEngine(t)
	flagger := NewFlagger(db)
	a := seedStudent(t, db, "a@student.ac.th")
	b := seedStudent(t, db, "b@student.ac.th")
	staff := seedStaff(t, db, "kru@school.ac.th")

	mustCheckIn(t, engine, wib(t, 6, 35, 0), checkInInput(a, "dev-shared"))
	mustCheckIn(t, engine, wib(t, 6, 36, 0), checkInInput(b, "dev-shared"))

	var item models.FlaggedCheckIn
	if err := db.First(&item).Error; err != nil {
		t.Fatalf("no flag queued: %v", err)
	}

	if err := flagger.Review(a, item.ID, "Dismissed", ""); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("student review: want ErrPermissionDenied, got %v", err)
	}
	if err := flagger.Review(staff, item.ID, "Shrugged", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unknown action: want ErrInvalidArgument, got %v", err)
	}
	if err := flagger.Review(staff, "no-such-id", "Dismissed", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing flag: want ErrNotFound, got %v", err)
	}

	if err := flagger.Review(staff, item.ID, "Dismissed", "siblings share a phone"); err != nil {
		t.Fatalf("review: %v", err)
	}
	var after models.FlaggedCheckIn
	if err := db.First(&after, "id = ?", item.ID).Error; err != nil {
		t.Fatal(err)
	}
	if after.Status != models.FlagDismissed || after.Notes != "siblings share a phone" {
		t.Fatalf("review not recorded: %+v", after)
	}

	if err := flagger.Review(staff, item.ID, "Escalated", ""); !errors.Is(err, ErrFailedPrecondition) {
		t.Fatalf("second review: want ErrFailedPrecondition, got %v", err)
	}
}

func TestResolvedActionMapsToReviewed(t *testing.T) {
	engine, _, db := newTestEngine(t)
	flagger := NewFlagger(db)
	a := seedStudent(t, db, "a@student.ac.th")
	b := seedStudent(t, db, "b@student.ac.th")
	staff := seedStaff(t, db, "kru@school.ac.th")

	mustCheckIn(t, engine, wib(t, 6, 35, 0), checkInInput(a, "dev-shared"))
	mustCheckIn(t, engine, wib(t, 6, 36, 0), checkInInput(b, "dev-shared"))

	var item models.FlaggedCheckIn
	if err := db.First(&item).Error; err != nil {
		t.Fatal(err)
	}
	if err := flagger.Review(staff, item.ID, "Resolved", ""); err != nil {
		t.Fatal(err)
	}
	var after models.FlaggedCheckIn
	if err := db.First(&after, "id = ?", item.ID).Error; err != nil {
		t.Fatal(err)
	}
	if after.Status != models.FlagReviewed {
		t.Fatalf("status=%s, want Reviewed", after.Status)
	}
}
