package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pdm01/models"
	"pdm01/pkg/ingest"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/profiles", listProfilesHandler)
	authGroup.POST("/profiles", createProfileHandler)
	authGroup.GET("/profiles/:id", getProfileHandler)
	authGroup.PUT("/profiles/:id", updateProfileHandler)
	authGroup.DELETE("/profiles/:id", deleteProfileHandler)
	authGroup.GET("/share-history", listShareHistoryHandler)
	authGroup.GET("/share-history/:id", profileShareHistoryHandler)
}

// jwtAuthMiddleware validates the bearer token and rejects banned clients.
// The ban check hits the database so a ban takes effect on the next request,
// not at the next token refresh.
func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		var client models.Client
		if err := db.Where("username = ?", username).First(&client).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "client not found"})
			c.Abort()
			return
		}
		if client.Banned {
			c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
			c.Abort()
			return
		}
		c.Set("username", username)
		c.Next()
	}
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterClient(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "client registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	client, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	roleName := ""
	if client.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *client.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": client.Username,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString})
}

// profilePayload collects the allow-listed fields present in the form into a
// column->value map. An empty string counts as "not provided" everywhere:
// dropped on create, left untouched on update. The consent flag is coerced
// from the literal "true" (case-insensitive) when present.
func profilePayload(c *gin.Context) map[string]any {
	payload := map[string]any{}
	for _, f := range profileFormFields {
		if v, ok := c.GetPostForm(f); ok && v != "" {
			payload[columnFor(f)] = v
		}
	}
	if v, ok := c.GetPostForm("consent"); ok && v != "" {
		payload["consent"] = strings.EqualFold(v, "true")
	}
	return payload
}

// ingestFileFields routes non-empty file parts through the ingest store and
// records their public paths in the payload. Zero-length parts are skipped.
// Returns false after writing the error response if a write failed.
func ingestFileFields(c *gin.Context, payload map[string]any) bool {
	for _, f := range profileFileFields {
		fh, err := c.FormFile(f)
		if err != nil {
			continue // field not supplied
		}
		rel, err := uploads.SaveMultipart(fh)
		if err != nil {
			if errors.Is(err, ingest.ErrEmptyFile) {
				continue
			}
			logger.Error("file ingest failed", zap.String("field", f), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "file upload failed"})
			return false
		}
		payload[columnFor(f)] = rel
	}
	return true
}

func listProfilesHandler(c *gin.Context) {
	profiles := []models.Profile{}
	if err := db.Find(&profiles).Error; err != nil {
		logger.Error("list profiles failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func createProfileHandler(c *gin.Context) {
	// fail fast on the first missing required field
	for _, f := range requiredProfileFields {
		if strings.TrimSpace(c.PostForm(f)) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: " + f})
			return
		}
	}
	payload := profilePayload(c)
	if !ingestFileFields(c, payload) {
		return
	}
	id := uuid.NewString()
	now := time.Now()
	payload["id"] = id
	payload["created_at"] = now
	payload["updated_at"] = now
	if err := db.Model(&models.Profile{}).Create(payload).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "profile with this uid or email already exists"})
			return
		}
		logger.Error("create profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
		return
	}
	var p models.Profile
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		logger.Error("reload created profile failed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func getProfileHandler(c *gin.Context) {
	var p models.Profile
	if err := db.First(&p, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		logger.Error("get profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// updateProfileHandler applies a sparse update: only fields present in the
// request overwrite stored values. Previously ingested files stay on disk
// when a field is re-uploaded. An unknown id is a generic failure, not a 404.
func updateProfileHandler(c *gin.Context) {
	id := c.Param("id")
	payload := profilePayload(c)
	if !ingestFileFields(c, payload) {
		return
	}
	payload["updated_at"] = time.Now()
	res := db.Model(&models.Profile{}).Where("id = ?", id).Updates(payload)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			c.JSON(http.StatusConflict, gin.H{"error": "profile with this uid or email already exists"})
			return
		}
		logger.Error("update profile failed", zap.String("id", id), zap.Error(res.Error))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	var p models.Profile
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		logger.Error("reload updated profile failed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// deleteProfileHandler removes the row only. Referenced files and share
// history entries are left behind; repeating a delete fails rather than
// succeeding as a no-op.
func deleteProfileHandler(c *gin.Context) {
	id := c.Param("id")
	res := db.Delete(&models.Profile{}, "id = ?", id)
	if res.Error != nil {
		logger.Error("delete profile failed", zap.String("id", id), zap.Error(res.Error))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete profile"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile deleted"})
}

func listShareHistoryHandler(c *gin.Context) {
	entries := []models.ShareHistory{}
	if err := db.Order("id desc").Find(&entries).Error; err != nil {
		logger.Error("list share history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// profileShareHistoryHandler returns the entries for one profile. An unknown
// or history-less profile yields an empty array, not an error.
func profileShareHistoryHandler(c *gin.Context) {
	entries := []models.ShareHistory{}
	if err := db.Where("profile_id = ?", c.Param("id")).Order("id desc").Find(&entries).Error; err != nil {
		logger.Error("profile share history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
