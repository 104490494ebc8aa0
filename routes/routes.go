package routes

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/meineruva/Detta/attendance"
	"github.com/meineruva/Detta/config"
	"github.com/meineruva/Detta/database"
	"github.com/meineruva/Detta/handlers"
	"github.com/meineruva/Detta/middlewares"
)

// Register ประกอบ core engine แล้ว wire ทุก HTTP route
func Register(e *echo.Echo, cfg *config.Config) {
	policy, err := attendance.NewPolicy(cfg)
	if err != nil {
		log.Fatalf("attendance policy: %v", err)
	}

	store := attendance.NewStore(database.DB)
	guard := attendance.NewBindingGuard(database.DB)
	flagger := attendance.NewFlagger(database.DB)
	engine := attendance.NewEngine(store, policy, guard, flagger)
	lifecycle := attendance.NewLifecycle(store, policy)
	workflow := attendance.NewReviewWorkflow(store)

	// ===== Handlers =====
	auth := handlers.NewAuthHandler(cfg.JWTSecret)
	checkin := handlers.NewCheckInHandler(engine)
	att := handlers.NewAttendanceHandler(engine, store)
	closeday := handlers.NewCloseDayHandler(lifecycle)
	absence := handlers.NewAbsenceHandler(workflow)
	flag := handlers.NewFlagHandler(flagger)
	device := handlers.NewDeviceHandler(guard)
	whitelist := handlers.NewWhitelistHandler()
	imp := handlers.NewImportHandler()

	// ===== Public =====
	e.GET("/healthz", handlers.Health)
	e.POST("/auth/login", auth.Login)

	authMW := middlewares.RequireAuth(cfg.JWTSecret)

	// ===== Student =====
	student := e.Group("/attendance", authMW, middlewares.RequireRole("student"))
	student.POST("/check-in", checkin.Submit)

	sr := e.Group("/absence-requests", authMW, middlewares.RequireRole("student"))
	sr.POST("", absence.Submit)

	// ===== Staff =====
	staff := e.Group("/staff", authMW, middlewares.RequireRole("staff"))

	staff.GET("/attendance", att.List)
	staff.GET("/attendance/summary", att.Summary)
	staff.POST("/attendance/override", att.Override)

	staff.POST("/close-day", closeday.Close)

	staff.GET("/absence-requests", absence.List)
	staff.POST("/absence-requests/:id/review", absence.Review)

	staff.GET("/flags", flag.List)
	staff.POST("/flags/:id/review", flag.Review)

	staff.POST("/students/:id/device-reset", device.Reset)

	// ===== Admin (ตาม staff whitelist) =====
	admin := e.Group("/admin", authMW, middlewares.RequireRole("staff"), middlewares.RequireWhitelistAdmin())
	admin.GET("/staff-whitelist", whitelist.List)
	admin.POST("/staff-whitelist", whitelist.Add)
	admin.DELETE("/staff-whitelist/:email", whitelist.Remove)
	admin.POST("/students/bulk-import", imp.BulkImport)
}
