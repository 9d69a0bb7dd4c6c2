package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/config"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/middleware"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/models"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newUserTestRouter seeds an admin account and mounts the status route with
// that admin's identity in the request context, standing in for
// AuthRequired + AdminRequired.
func newUserTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, uint) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.PasswordResetToken{}, &models.SystemConfig{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	admin := models.User{Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin, AuthType: "local", IsActive: true}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	authService := services.NewAuthService(db, &config.JWTConfig{
		AccessExpireHour:  1,
		RefreshExpireHour: 720,
	}, &config.OAuthConfig{}, services.NewSyncQueue())
	handler := NewUserHandler(db, authService)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, admin.ID)
		c.Set(middleware.ContextUsername, admin.Username)
		c.Set(middleware.ContextRole, admin.Role)
	})
	r.PUT("/api/admin/users/:id/status", handler.UpdateStatus)
	return r, db, admin.ID
}

func lockRequest(userID uint) *http.Request {
	req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/admin/users/%d/status", userID), bytes.NewBufferString(`{"is_active": false}`))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUserUpdateStatus_UnknownUser(t *testing.T) {
	router, _, _ := newUserTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, lockRequest(999))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusNotFound)
	}
}

func TestUserUpdateStatus_LockRevokesSessions(t *testing.T) {
	router, db, _ := newUserTestRouter(t)

	user := models.User{Username: "bob", Email: "bob@example.com", Role: models.RoleCustomer, AuthType: "local", IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	token := models.RefreshToken{UserID: user.ID, TokenHash: "bobhash", IsValid: true, ExpiresAt: time.Now().Add(time.Hour)}
	if err := db.Create(&token).Error; err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, lockRequest(user.ID))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected %d, body %s", w.Code, http.StatusOK, w.Body.String())
	}

	db.First(&user, user.ID)
	if user.IsActive {
		t.Error("user should be locked")
	}
	db.First(&token, token.ID)
	if token.IsValid {
		t.Error("locking should revoke the user's refresh tokens")
	}
}

func TestUserUpdateStatus_SelfModificationBlocked(t *testing.T) {
	router, _, adminID := newUserTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, lockRequest(adminID))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusBadRequest)
	}
}
