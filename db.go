package main

import (
	"os"
	"strings"

	"pdm01/models"
	"pdm01/pkg/ingest"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

// uploads is the single file-ingestion component shared by all handlers.
var uploads *ingest.Store

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		logger.Fatal("DB_DSN is not set. This service requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect postgres database", zap.Error(err))
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others.
		// Roles first so the clients FK can be applied safely.
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			logger.Warn("migration warning (roles)", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.Client{}); err != nil {
			logger.Warn("migration warning (clients)", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.Profile{}); err != nil {
			logger.Warn("migration warning (profiles)", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.ShareHistory{}); err != nil {
			logger.Warn("migration warning (share_histories)", zap.Error(err))
		}
	}
	seedDB()
	ensureUploadBase()
}

func seedDB() {
	// Ensure master roles exist
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "client", Description: "regular API client"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}

	// Seed the admin client once
	var count int64
	db.Model(&models.Client{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			logger.Warn("failed to find administrator role", zap.Error(err))
		}
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			password = "admin123" // development fallback
		}
		rid := role.ID
		admin := models.Client{Username: "admin", RoleID: &rid}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		logger.Info("seeded admin client", zap.String("username", "admin"))
	}
}

// ensureUploadBase wires the ingest store and creates its root directory.
// Called from explicit startup, never as an import-time side effect.
func ensureUploadBase() {
	uploads = ingest.NewStore(uploadBaseDir(), "/uploads")
	if err := uploads.EnsureRoot(); err != nil {
		logger.Warn("failed to create upload base dir", zap.String("dir", uploads.Root), zap.Error(err))
	}
}

// uploadBaseDir returns the base directory for local uploads (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
