package attendance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/meineruva/Detta/config"
)

// Policy ตัดสินว่าเช็คชื่อ ณ เวลานั้น/พิกัดนั้น รับได้หรือไม่ — pure ไม่แตะ DB
type Policy struct {
	Loc *time.Location

	startSec int // วินาทีของวัน (ขอบรวมทั้งสองด้าน)
	endSec   int
	lateSec  int // หลังจุดนี้ "เกิน" ถึงนับสาย (เท่ากับจุดพอดี = ทัน)

	fence        orb.Ring // nil = ไม่ได้ตั้งค่า → fail closed
	requiredSSID string
}

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func NewPolicy(cfg *config.Config) (*Policy, error) {
	loc, err := time.LoadLocation(cfg.AttendanceTimezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.AttendanceTimezone, err)
	}

	start, err := parseClock(cfg.AttendanceStart)
	if err != nil {
		return nil, fmt.Errorf("ATTENDANCE_START_TIME: %w", err)
	}
	end, err := parseClock(cfg.AttendanceEnd)
	if err != nil {
		return nil, fmt.Errorf("ATTENDANCE_END_TIME: %w", err)
	}
	late, err := parseClock(cfg.LateThreshold)
	if err != nil {
		return nil, fmt.Errorf("LATE_THRESHOLD_TIME: %w", err)
	}

	p := &Policy{
		Loc:          loc,
		startSec:     start,
		endSec:       end,
		lateSec:      late,
		requiredSSID: cfg.SchoolWifiSSID,
	}

	if s := strings.TrimSpace(cfg.GeofencePolygonJSON); s != "" {
		var pts []geoPoint
		if err := json.Unmarshal([]byte(s), &pts); err != nil {
			return nil, fmt.Errorf("GEOFENCE_POLYGON: %w", err)
		}
		ring := make(orb.Ring, 0, len(pts)+1)
		for _, pt := range pts {
			ring = append(ring, orb.Point{pt.Lng, pt.Lat})
		}
		// ปิดวงถ้า input ไม่ได้ปิดมาเอง
		if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		p.fence = ring
	}

	return p, nil
}

// "HH:MM" → วินาทีของวัน
func parseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock out of range %q", s)
	}
	return (h*60 + m) * 60, nil
}

// ผลการประเมินของเช็คชื่อที่ผ่านทุกด่าน
type PolicyResult struct {
	Date string // YYYY-MM-DD ตามเขตเวลาโรงเรียน
	Late bool
}

// Evaluate ไล่ด่านตามลำดับ: วันหยุดสุดสัปดาห์ → หน้าต่างเวลา → geofence → WiFi (Android)
func (p *Policy) Evaluate(now time.Time, lat, lng float64, platform string, ssid *string) (*PolicyResult, error) {
	local := now.In(p.Loc)

	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return nil, ErrNonSchoolDay
	}

	sec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	if sec < p.startSec || sec > p.endSec {
		return nil, ErrOutsideWindow
	}

	if p.fence == nil || !planar.RingContains(p.fence, orb.Point{lng, lat}) {
		return nil, ErrOutsideGeofence
	}

	if platform == "android" {
		if ssid == nil || *ssid != p.requiredSSID {
			return nil, ErrWrongNetwork
		}
	}

	return &PolicyResult{
		Date: local.Format("2006-01-02"),
		Late: sec > p.lateSec,
	}, nil
}

// LocalDate คืนวันที่ปัจจุบันตามเขตเวลาโรงเรียน (ใช้โดย closeDay)
func (p *Policy) LocalDate(now time.Time) string {
	return now.In(p.Loc).Format("2006-01-02")
}
