// scripts/create_admin.go
package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/meineruva/Detta/config"
	"github.com/meineruva/Detta/database"
	"github.com/meineruva/Detta/models"
)

func main() {
	// โหลด config และเชื่อม DB แบบเดียวกับ cmd/main.go
	cfg := config.Load()
	database.Connect(cfg)

	email := envOr("ADMIN_EMAIL", "admin@school.local")
	password := envOr("ADMIN_PASSWORD", "changeme")

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	// ตรวจว่ามีผู้ใช้อีเมลนี้อยู่แล้วหรือไม่
	var existing models.User
	if err := database.DB.Where("email = ?", email).First(&existing).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Fatalf("failed to query users: %v", err)
		}
	} else {
		fmt.Println("admin user already exists:", email)
		os.Exit(0)
	}

	u := models.User{
		Email:        email,
		Name:         "Administrator",
		PasswordHash: string(hashed),
		Role:         "staff",
		InviteStatus: "active",
	}
	if err := database.DB.Create(&u).Error; err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}

	// ใส่ whitelist เป็น admin ด้วย — สิทธิ์ /admin/* ดูจากตารางนี้
	wl := models.StaffWhitelist{Email: email, Name: u.Name, Role: "admin", AddedBy: u.ID}
	if err := database.DB.Create(&wl).Error; err != nil {
		log.Fatalf("failed to whitelist admin: %v", err)
	}

	fmt.Println("created admin:", email)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
