package main

import (
	"fmt"
	"strings"

	"pdm01/models"

	"golang.org/x/crypto/bcrypt"
)

// RegisterClient creates an API client account with the default role.
func RegisterClient(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username required")
	}
	if len(password) < 6 { // basic password policy
		return fmt.Errorf("password too short (min 6)")
	}
	// pre-check existing (optimistic)
	var existing models.Client
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		return fmt.Errorf("client already exists")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	var role models.Role
	if err := db.Where("name = ?", "client").First(&role).Error; err != nil {
		role = models.Role{Name: "client", Description: "regular API client"}
		if err2 := db.Where("name = ?", role.Name).FirstOrCreate(&role).Error; err2 != nil {
			return fmt.Errorf("failed to ensure client role: %v", err2)
		}
	}
	rid := role.ID
	client := models.Client{Username: username, HashedPassword: hashedPassword, RoleID: &rid}
	if err := db.Create(&client).Error; err != nil {
		if isUniqueConstraintError(err) { // race condition after initial check
			return fmt.Errorf("client already exists")
		}
		return err
	}
	return nil
}

func Authenticate(username, password string) (models.Client, error) {
	username = strings.TrimSpace(username)
	var client models.Client
	if err := db.Where("username = ?", username).First(&client).Error; err != nil {
		return models.Client{}, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(client.HashedPassword, []byte(password)); err != nil {
		return models.Client{}, fmt.Errorf("invalid credentials")
	}
	return client, nil
}

// isUniqueConstraintError classifies uniqueness violations from the driver by
// message. Covers both the Postgres and SQLite spellings.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
