package main

// Inserts ShareHistory rows for a profile. The API never writes this table;
// entries come from external disclosure tooling, and this script stands in
// for that path during development and testing.

import (
	"flag"
	"log"
	"os"
	"time"

	"pdm01/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

func main() {
	profileID := flag.String("profile-id", "", "profile id to attach entries to")
	sharedWith := flag.String("with", "Acme Bank", "party the data was shared with")
	purpose := flag.String("purpose", "kyc verification", "share purpose")
	fields := flag.String("fields", "uid,firstName,lastName,panNumber", "comma list of shared fields")
	n := flag.Int("n", 1, "number of entries to insert")
	flag.Parse()

	if *profileID == "" {
		log.Fatal("-profile-id is required")
	}

	gdb := mustDBFromEnv()

	// entries reference the profile loosely; warn but proceed if it is gone,
	// since orphaned history rows are valid data here
	var profile models.Profile
	if err := gdb.First(&profile, "id = ?", *profileID).Error; err != nil {
		log.Printf("warning: profile %s not found (seeding orphaned entries): %v", *profileID, err)
	}

	for i := 0; i < *n; i++ {
		entry := models.ShareHistory{
			ProfileID:    *profileID,
			SharedWith:   *sharedWith,
			Purpose:      *purpose,
			SharedFields: *fields,
			SharedAt:     time.Now(),
		}
		if err := gdb.Create(&entry).Error; err != nil {
			log.Fatalf("insert entry %d: %v", i+1, err)
		}
		log.Printf("inserted share history id=%d profile=%s with=%s", entry.ID, entry.ProfileID, entry.SharedWith)
	}
}
