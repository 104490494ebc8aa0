package attendance

import (
	"errors"
	"testing"

	"github.com/meineruva/Detta/models"
)

func TestSubmitCheckInPresent(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "somchai@student.ac.th")

	res := mustCheckIn(t, engine, wib(t, 6, 35, 0), checkInInput(u, "device-a"))
	if res.Status != models.StatusPresent {
		t.Fatalf("status=%s, want Present", res.Status)
	}
	if res.Date != testDate {
		t.Fatalf("date=%s, want %s", res.Date, testDate)
	}

	var rec models.AttendanceRecord
	if err := db.Where("date = ? AND user_id = ?", testDate, u.ID).First(&rec).Error; err != nil {
		t.Fatalf("record not written: %v", err)
	}
	if rec.Source != models.SourceStudent {
		t.Fatalf("source=%s, want student", rec.Source)
	}

	sum := getSummary(t, db, testDate)
	if sum.Total != 1 || sum.Present != 1 {
		t.Fatalf("summary total=%d present=%d, want 1/1", sum.Total, sum.Present)
	}
	assertReconciled(t, db, testDate)
}

func TestSubmitCheckInLate(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "sai@student.ac.th")

	res := mustCheckIn(t, engine, wib(t, 6, 40, 1), checkInInput(u, "device-a"))
	if res.Status != models.StatusLate {
		t.Fatalf("status=%s, want Late", res.Status)
	}

	sum := getSummary(t, db, testDate)
	if sum.Total != 1 || sum.Late != 1 || sum.Present != 0 {
		t.Fatalf("summary total=%d late=%d present=%d, want 1/1/0", sum.Total, sum.Late, sum.Present)
	}
	assertReconciled(t, db, testDate)
}

func TestSubmitCheckInDuplicateLeavesCountersUntouched(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "nok@student.ac.th")

	mustCheckIn(t, engine, wib(t, 6, 35, 0), checkInInput(u, "device-a"))
	if _, err := engine.SubmitCheckIn(wib(t, 7, 0, 0), checkInInput(u, "device-a")); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second check-in: want ErrAlreadyExists, got %v", err)
	}

	sum := getSummary(t, db, testDate)
	if sum.Total != 1 || sum.Present != 1 {
		t.Fatalf("counters moved on duplicate: total=%d present=%d", sum.Total, sum.Present)
	}
}

func TestSubmitCheckInDeviceMismatchWritesNothing(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "ploy@student.ac.th")

	mustCheckIn(t, engine, wib(t, 6, 35, 0), checkInInput(u, "device-a"))

	u2 := seedStudent(t, db, "ploy2@student.ac.th")
	mustCheckIn(t, engine, wib(t, 6, 36, 0), checkInInput(u2, "device-b"))
	// binding ถูกตรวจก่อนด่านกันซ้ำ — เครื่องผิดต้องตกตั้งแต่ด่านแรก
	if _, err := engine.SubmitCheckIn(wib(t, 7, 0, 0), checkInInput(u2, "device-x")); !errors.Is(err, ErrDeviceMismatch) {
		t.Fatalf("want ErrDeviceMismatch, got %v", err)
	}

	var n int64
	if err := db.Model(&models.AttendanceRecord{}).
		Where("user_id = ? AND os_device_id = ?", u2.ID, "device-x").Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("mismatched device produced %d records", n)
	}
}

func TestSubmitCheckInPolicyRejectionWritesNothing(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "mai@student.ac.th")

	if _, err := engine.SubmitCheckIn(wib(t, 9, 0, 0), checkInInput(u, "device-a")); !errors.Is(err, ErrOutsideWindow) {
		t.Fatalf("want ErrOutsideWindow, got %v", err)
	}

	var n int64
	if err := db.Model(&models.AttendanceRecord{}).Where("user_id = ?", u.ID).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rejected check-in produced %d records", n)
	}
	// แต่เครื่องต้องถูกผูกไปแล้ว (binding มาก่อนด่านเวลา)
	var b models.BoundDevice
	if err := db.Where("user_id = ?", u.ID).First(&b).Error; err != nil {
		t.Fatalf("device not bound after rejected check-in: %v", err)
	}
	if b.OSDeviceID != "device-a" {
		t.Fatalf("bound device=%q, want device-a", b.OSDeviceID)
	}
}

func TestOverrideCreatesRecordWhenMissing(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "wan@student.ac.th")
	staff := seedStaff(t, db, "kru@school.ac.th")

	if err := engine.Override(staff, u.ID, testDate, models.StatusPresent, "forgot phone"); err != nil {
		t.Fatalf("override: %v", err)
	}

	var rec models.AttendanceRecord
	if err := db.Where("date = ? AND user_id = ?", testDate, u.ID).First(&rec).Error; err != nil {
		t.Fatalf("record not created: %v", err)
	}
	if rec.Source != models.SourceStaff || rec.OverriddenBy == nil || *rec.OverriddenBy != staff.ID {
		t.Fatalf("audit fields wrong: source=%s overridden_by=%v", rec.Source, rec.OverriddenBy)
	}

	sum := getSummary(t, db, testDate)
	if sum.Total != 1 || sum.Present != 1 {
		t.Fatalf("summary total=%d present=%d, want 1/1", sum.Total, sum.Present)
	}
	assertReconciled(t, db, testDate)
}

func TestOverrideStatusChangeKeepsTotal(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "top@student.ac.th")
	staff := seedStaff(t, db, "kru@school.ac.th")

	mustCheckIn(t, engine, wib(t, 6, 35, 0), checkInInput(u, "device-a"))
	if err := engine.Override(staff, u.ID, testDate, models.StatusLate, "arrived after assembly"); err != nil {
		t.Fatalf("override: %v", err)
	}

	sum := getSummary(t, db, testDate)
	if sum.Total != 1 || sum.Present != 0 || sum.Late != 1 {
		t.Fatalf("summary total=%d present=%d late=%d, want 1/0/1", sum.Total, sum.Present, sum.Late)
	}
	assertReconciled(t, db, testDate)
}

func TestOverrideSameStatusLeavesCounters(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "fah@student.ac.th")
	staff := seedStaff(t, db, "kru@school.ac.th")

	mustCheckIn(t, engine, wib(t, 6, 35, 0), checkInInput(u, "device-a"))
	if err := engine.Override(staff, u.ID, testDate, models.StatusPresent, "confirming"); err != nil {
		t.Fatalf("override: %v", err)
	}

	sum := getSummary(t, db, testDate)
	if sum.Total != 1 || sum.Present != 1 {
		t.Fatalf("same-status override moved counters: total=%d present=%d", sum.Total, sum.Present)
	}

	// audit ยังต้องถูกเขียนแม้ตัวนับไม่ขยับ
	var rec models.AttendanceRecord
	if err := db.Where("date = ? AND user_id = ?", testDate, u.ID).First(&rec).Error; err != nil {
		t.Fatal(err)
	}
	if rec.OverriddenBy == nil || rec.OverrideReason != "confirming" {
		t.Fatalf("audit missing after same-status override")
	}
}

func TestOverrideValidation(t *testing.T) {
	engine, _, db := newTestEngine(t)
	u := seedStudent(t, db, "nan@student.ac.th")
	staff := seedStaff(t, db, "kru@school.ac.th")

	if err := engine.Override(u, u.ID, testDate, models.StatusPresent, "x"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("student override: want ErrPermissionDenied, got %v", err)
	}
	if err := engine.Override(staff, u.ID, testDate, models.StatusPresent, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty reason: want ErrInvalidArgument, got %v", err)
	}
	if err := engine.Override(staff, u.ID, testDate, "Vanished", "x"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad status: want ErrInvalidArgument, got %v", err)
	}
	if err := engine.Override(staff, u.ID, "24-08-2026", models.StatusPresent, "x"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad date: want ErrInvalidArgument, got %v", err)
	}
}

func TestCheckInAndOverrideSequenceStaysReconciled(t *testing.T) {
	engine, _, db := newTestEngine(t)
	staff := seedStaff(t, db, "kru@school.ac.th")

	a := seedStudent(t, db, "a@student.ac.th")
	b := seedStudent(t, db, "b@student.ac.th")
	c := seedStudent(t, db, "c@student.ac.th")

	mustCheckIn(t, engine, wib(t, 6, 35, 0), checkInInput(a, "dev-a"))
	mustCheckIn(t, engine, wib(t, 6, 50, 0), checkInInput(b, "dev-b"))

	if err := engine.Override(staff, b.ID, testDate, models.StatusPresent, "clock skew"); err != nil {
		t.Fatal(err)
	}
	if err := engine.Override(staff, c.ID, testDate, models.StatusExcused, "field trip"); err != nil {
		t.Fatal(err)
	}
	if err := engine.Override(staff, a.ID, testDate, models.StatusLate, "seen arriving late"); err != nil {
		t.Fatal(err)
	}

	sum := getSummary(t, db, testDate)
	if sum.Total != 3 {
		t.Fatalf("total=%d, want 3", sum.Total)
	}
	assertReconciled(t, db, testDate)
}
