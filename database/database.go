package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/meineruva/Detta/config"
	"github.com/meineruva/Detta/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) {
	// TranslateError ให้ unique violation กลายเป็น gorm.ErrDuplicatedKey
	// (เส้นทางเช็คชื่อใช้แยก conflict ออกจาก error จริง)
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	DB = db

	if err := Migrate(DB); err != nil {
		log.Fatalf("auto migrate failed: %v", err)
	}
}

// แยกออกมาให้ test เรียกกับ sqlite in-memory ได้
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.BoundDevice{},
		&models.DeviceResetLog{},
		&models.AttendanceRecord{},
		&models.DailySummary{},
		&models.AbsenceRequest{},
		&models.FlaggedCheckIn{},
		&models.StaffWhitelist{},
	)
}
