package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"pdm01/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_client <username> <password>")
		os.Exit(2)
	}
	username := os.Args[1]
	password := os.Args[2]

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	// ensure the default role exists
	var role models.Role
	if err := db.Where("name = ?", "client").First(&role).Error; err != nil {
		role = models.Role{Name: "client", Description: "regular API client"}
		db.Create(&role)
	}

	var existing models.Client
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		fmt.Printf("client %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	rid := role.ID
	client := models.Client{Username: username, HashedPassword: hpw, RoleID: &rid}
	if err := db.Create(&client).Error; err != nil {
		log.Fatalf("failed to create client: %v", err)
	}
	fmt.Printf("created client %s id=%d\n", username, client.ID)
}
