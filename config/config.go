package config

import (
	"fmt"
	"os"
)

type Config struct {
	AppPort string
	AppEnv  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret string

	// นโยบายเช็คชื่อ (เวลาเป็น "HH:MM" ตามเขตเวลา AttendanceTimezone)
	AttendanceStart     string
	AttendanceEnd       string
	LateThreshold       string
	AttendanceTimezone  string
	GeofencePolygonJSON string // JSON array ของ {lat,lng} — ถ้าไม่ตั้งค่า = ปฏิเสธทุกพิกัด (fail closed)
	SchoolWifiSSID      string // บังคับเฉพาะ Android
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() *Config {
	return &Config{
		AppPort: get("APP_PORT", "8080"),
		AppEnv:  get("APP_ENV", "dev"),

		DBHost:     get("DB_HOST", "localhost"),
		DBPort:     get("DB_PORT", "5432"),
		DBUser:     get("DB_USER", "postgres"),
		DBPassword: get("DB_PASSWORD", "postgres"),
		DBName:     get("DB_NAME", "detta"),
		DBSSLMode:  get("DB_SSLMODE", "disable"),

		JWTSecret: get("JWT_SECRET", "dev-secret"),

		AttendanceStart:     get("ATTENDANCE_START_TIME", "06:30"),
		AttendanceEnd:       get("ATTENDANCE_END_TIME", "08:00"),
		LateThreshold:       get("LATE_THRESHOLD_TIME", "06:40"),
		AttendanceTimezone:  get("ATTENDANCE_TIMEZONE", "Asia/Jakarta"),
		GeofencePolygonJSON: get("GEOFENCE_POLYGON", ""),
		SchoolWifiSSID:      get("SCHOOL_WIFI_SSID", "SMAN12_Student_Wifi"),
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}
