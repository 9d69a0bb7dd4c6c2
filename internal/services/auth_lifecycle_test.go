package services

import (
	"path/filepath"
	"testing"

	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/config"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/models"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestAuthService(t *testing.T) (*AuthService, *gorm.DB) {
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

	utils.SetJWTSecret("test-secret-key-for-testing")
	jwtCfg := &config.JWTConfig{
		Secret:            "test-secret-key-for-testing",
		AccessExpireHour:  1,
		RefreshExpireHour: 720,
	}
	return NewAuthService(db, jwtCfg, &config.OAuthConfig{}, NewSyncQueue()), db
}

func registerTestUser(t *testing.T, svc *AuthService, username string) *LoginResult {
	t.Helper()
	result, err := svc.Register(&RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
	}, "127.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return result
}

func TestAuthService_RefreshIssuesNewAccessToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	result := registerTestUser(t, svc, "alice")

	refreshed, err := svc.Refresh(result.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatal("Refresh() returned empty access token")
	}
	if refreshed.AccessToken == result.AccessToken {
		t.Error("Refresh() should return a different access token")
	}

	// Reuse is allowed: the refresh token stays valid until explicitly revoked
	if _, err := svc.Refresh(result.RefreshToken); err != nil {
		t.Errorf("second Refresh() error = %v, token should remain valid", err)
	}
}

func TestAuthService_RevokeThenRefreshFails(t *testing.T) {
	svc, _ := newTestAuthService(t)
	result := registerTestUser(t, svc, "alice")

	if err := svc.RevokeRefreshToken(result.RefreshToken); err != nil {
		t.Fatalf("RevokeRefreshToken() error = %v", err)
	}

	if _, err := svc.Refresh(result.RefreshToken); err != ErrInvalidRefreshToken {
		t.Errorf("Refresh() after revoke error = %v, expected ErrInvalidRefreshToken", err)
	}

	// Revocation is idempotent
	if err := svc.RevokeRefreshToken(result.RefreshToken); err != nil {
		t.Errorf("second RevokeRefreshToken() error = %v", err)
	}
}

func TestAuthService_ChangePasswordInvalidatesAllSessions(t *testing.T) {
	svc, _ := newTestAuthService(t)
	first := registerTestUser(t, svc, "alice")

	second, err := svc.Login(&LoginRequest{Username: "alice", Password: "secret123"}, "10.0.0.2", "other-device")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.ChangePassword(first.User.ID, &ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "newsecret456",
	}); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	for i, token := range []string{first.RefreshToken, second.RefreshToken} {
		if _, err := svc.Refresh(token); err != ErrInvalidRefreshToken {
			t.Errorf("session %d: Refresh() error = %v, expected ErrInvalidRefreshToken", i+1, err)
		}
	}

	if _, err := svc.Login(&LoginRequest{Username: "alice", Password: "newsecret456"}, "127.0.0.1", "test-agent"); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
	if _, err := svc.Login(&LoginRequest{Username: "alice", Password: "secret123"}, "127.0.0.1", "test-agent"); err == nil {
		t.Error("Login() with old password should fail")
	}
}

func TestAuthService_ResetCodeSingleUse(t *testing.T) {
	svc, db := newTestAuthService(t)
	result := registerTestUser(t, svc, "alice")

	if err := svc.ForgotPassword("alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}

	var reset models.PasswordResetToken
	if err := db.Where("user_id = ? AND used = ?", result.User.ID, false).First(&reset).Error; err != nil {
		t.Fatalf("no reset code created: %v", err)
	}

	req := &ResetPasswordRequest{Email: "alice@example.com", Code: reset.Code, NewPassword: "newsecret456"}
	if err := svc.ResetPassword(req); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	// The reset also ends every session, and the code cannot be replayed
	if _, err := svc.Refresh(result.RefreshToken); err != ErrInvalidRefreshToken {
		t.Errorf("Refresh() after reset error = %v, expected ErrInvalidRefreshToken", err)
	}
	req.NewPassword = "thirdsecret789"
	if err := svc.ResetPassword(req); err == nil {
		t.Error("ResetPassword() should reject a consumed code")
	}
}

func TestAuthService_ForgotPasswordSupersedesPriorCode(t *testing.T) {
	svc, db := newTestAuthService(t)
	result := registerTestUser(t, svc, "alice")

	if err := svc.ForgotPassword("alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	var firstCode models.PasswordResetToken
	if err := db.Where("user_id = ? AND used = ?", result.User.ID, false).First(&firstCode).Error; err != nil {
		t.Fatalf("no reset code created: %v", err)
	}

	if err := svc.ForgotPassword("alice@example.com"); err != nil {
		t.Fatalf("second ForgotPassword() error = %v", err)
	}

	if err := svc.ResetPassword(&ResetPasswordRequest{
		Email:       "alice@example.com",
		Code:        firstCode.Code,
		NewPassword: "newsecret456",
	}); err == nil {
		t.Error("ResetPassword() should reject a superseded code")
	}
}

func TestAuthService_RegisterUniqueViolationMessage(t *testing.T) {
	svc, db := newTestAuthService(t)
	result := registerTestUser(t, svc, "alice")

	// A soft-deleted row slips past the count pre-check but still occupies
	// the unique index, the same way a concurrent registration would.
	if err := db.Delete(&models.User{}, result.User.ID).Error; err != nil {
		t.Fatalf("failed to soft-delete user: %v", err)
	}

	_, err := svc.Register(&RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	}, "127.0.0.1", "test-agent")
	if err == nil {
		t.Fatal("Register() should fail on a unique violation")
	}
	if err.Error() != "username or email already taken" {
		t.Errorf("Register() error = %q, expected the duplicate-account message, not driver text", err.Error())
	}
}
