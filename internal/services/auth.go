package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/config"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/models"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/utils"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/logger"
	"gorm.io/gorm"
)

// ErrInvalidRefreshToken covers every refresh lookup miss: unknown token,
// revoked, expired, or wrong account. Callers respond 401 uniformly and
// never learn which case it was.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type AuthService struct {
	db           *gorm.DB
	oauthService *OAuthService
	jwtConfig    *config.JWTConfig
	configSvc    *SystemConfigService
	emailQueue   TaskQueue
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, oauthCfg *config.OAuthConfig, emailQueue TaskQueue) *AuthService {
	return &AuthService{
		db:           db,
		oauthService: NewOAuthService(oauthCfg),
		jwtConfig:    jwtCfg,
		configSvc:    NewSystemConfigService(db),
		emailQueue:   emailQueue,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Nickname string `json:"nickname"`
}

type LoginResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
	User            *models.User
}

type RefreshResult struct {
	AccessToken    string
	AccessExpireAt time.Time
}

// Login authenticates a local account and issues an access/refresh pair.
// Existing sessions are untouched; one refresh row is created per login.
func (s *AuthService) Login(req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	user, err := s.localAuth(req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user, clientIP, userAgent)
}

// Register creates a customer account and logs it in.
func (s *AuthService) Register(req *RegisterRequest, clientIP, userAgent string) (*LoginResult, error) {
	var count int64
	s.db.Model(&models.User{}).Where("username = ? OR email = ?", req.Username, req.Email).Count(&count)
	if count > 0 {
		return nil, errors.New("username or email already taken")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
		Nickname: req.Nickname,
		Role:     models.RoleCustomer,
		AuthType: "local",
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		// A concurrent registration can slip past the count check and hit
		// the unique index; surface the same message instead of driver text.
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return nil, errors.New("username or email already taken")
		}
		return nil, err
	}

	return s.issueTokens(&user, clientIP, userAgent)
}

// OAuthLogin exchanges an authorization code with the provider and finds or
// creates the matching account. OAuth accounts carry no password hash.
func (s *AuthService) OAuthLogin(code, clientIP, userAgent string) (*LoginResult, error) {
	identity, err := s.oauthService.Exchange(code)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.Where("email = ? AND auth_type = ?", identity.Email, "oauth").First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Username: identity.Email,
			Email:    identity.Email,
			Nickname: identity.Name,
			Avatar:   identity.Picture,
			Role:     models.RoleCustomer,
			AuthType: "oauth",
			IsActive: true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, errors.New("account is locked")
	}

	// Refresh profile fields from the provider
	user.Nickname = identity.Name
	if identity.Picture != "" {
		user.Avatar = identity.Picture
	}
	s.db.Save(&user)

	return s.issueTokens(&user, clientIP, userAgent)
}

// issueTokens creates a signed access token and persists a new refresh row.
func (s *AuthService) issueTokens(user *models.User, clientIP, userAgent string) (*LoginResult, error) {
	accessHours := s.getAccessTokenExpireHours()
	refreshHours := s.getRefreshTokenExpireHours()

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, accessHours)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	refreshExpireAt := time.Now().Add(time.Duration(refreshHours) * time.Hour)
	refreshRecord := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   refreshHash,
		IsValid:     true,
		ExpiresAt:   refreshExpireAt,
		CreatedByIP: clientIP,
		UserAgent:   userAgent,
	}
	if err := s.db.Create(&refreshRecord).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	s.db.Save(user)

	return &LoginResult{
		AccessToken:     token,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: refreshExpireAt,
		User:            user,
	}, nil
}

// Refresh issues a new access token from a still-valid refresh token. The
// refresh token itself is NOT rotated: it stays usable until an explicit
// revocation (logout, password change/reset, admin lock). Weaker than
// rotate-on-use, and deliberate. Fails closed: every miss class maps to
// ErrInvalidRefreshToken.
func (s *AuthService) Refresh(refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	hash := hashRefreshToken(refreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ?", hash).First(&stored).Error; err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if !stored.IsValid || stored.RevokedAt != nil {
		return nil, ErrInvalidRefreshToken
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}

	var user models.User
	if err := s.db.First(&user, stored.UserID).Error; err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	accessHours := s.getAccessTokenExpireHours()
	accessToken, err := utils.GenerateToken(user.ID, user.Username, user.Role, accessHours)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken:    accessToken,
		AccessExpireAt: time.Now().Add(time.Duration(accessHours) * time.Hour),
	}, nil
}

// RevokeRefreshToken marks one refresh row invalid. Idempotent: revoking an
// already-invalid or unknown token is a no-op.
func (s *AuthService) RevokeRefreshToken(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	hash := hashRefreshToken(refreshToken)
	now := time.Now()
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND is_valid = ?", hash, true).
		Updates(map[string]interface{}{"is_valid": false, "revoked_at": now}).Error
}

// revokeAllForUser invalidates every valid refresh row for a user in one
// statement, forcing re-authentication on every device.
func revokeAllForUser(tx *gorm.DB, userID uint) error {
	now := time.Now()
	return tx.Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_valid = ?", userID, true).
		Updates(map[string]interface{}{"is_valid": false, "revoked_at": now}).Error
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword updates the hash and invalidates every session in a single
// transaction. Partial application is never observable.
func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return errors.New("user not found")
	}

	if user.AuthType != "local" {
		return errors.New("OAuth accounts cannot change password here")
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return errors.New("incorrect old password")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", hashed).Error; err != nil {
			return err
		}
		return revokeAllForUser(tx, user.ID)
	})
}

// ForgotPassword creates a one-time reset code and queues the email. Prior
// unused codes are invalidated so at most one code is actionable. Always
// returns nil for unknown emails so the endpoint does not leak which
// addresses have accounts.
func (s *AuthService) ForgotPassword(email string) error {
	var user models.User
	if err := s.db.Where("email = ? AND auth_type = ?", email, "local").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	code, err := generateResetCode()
	if err != nil {
		return err
	}

	expireMinutes := s.getResetCodeExpireMinutes()
	record := models.PasswordResetToken{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(time.Duration(expireMinutes) * time.Minute),
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PasswordResetToken{}).
			Where("user_id = ? AND used = ?", user.ID, false).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	}); err != nil {
		return err
	}

	subject := "Password Reset Code"
	body := fmt.Sprintf("Your password reset code is <b>%s</b>. It expires in %d minutes.", code, expireMinutes)
	if err := s.emailQueue.Enqueue(&EmailTask{To: []string{user.Email}, Subject: subject, Body: body}); err != nil {
		logger.Errorf("[Auth] Failed to queue reset email for user %d: %v", user.ID, err)
	}

	return nil
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ResetPassword consumes a valid reset code: the password update, the
// used-flag flip and the bulk session invalidation commit atomically.
func (s *AuthService) ResetPassword(req *ResetPasswordRequest) error {
	var user models.User
	if err := s.db.Where("email = ? AND auth_type = ?", req.Email, "local").First(&user).Error; err != nil {
		return errors.New("invalid code")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordResetToken
		if err := tx.Where("user_id = ? AND code = ? AND used = ?", user.ID, req.Code, false).
			Order("created_at DESC").First(&reset).Error; err != nil {
			return errors.New("invalid code")
		}
		if time.Now().After(reset.ExpiresAt) {
			return errors.New("invalid code")
		}

		if err := tx.Model(&reset).Update("used", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update("password", hashed).Error; err != nil {
			return err
		}
		return revokeAllForUser(tx, user.ID)
	})
}

// LockUser flips IsActive and revokes all sessions when locking.
func (s *AuthService) LockUser(userID uint, active bool) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("is_active", active).Error; err != nil {
			return err
		}
		if !active {
			return revokeAllForUser(tx, user.ID)
		}
		return nil
	})
}

func (s *AuthService) getAccessTokenExpireHours() int {
	defaultHours := s.jwtConfig.AccessExpireHour
	value := s.configSvc.GetWithDefault("auth_access_token_expire_hours", strconv.Itoa(defaultHours))
	hours, err := strconv.Atoi(value)
	if err != nil || hours <= 0 {
		return defaultHours
	}
	return hours
}

func (s *AuthService) getRefreshTokenExpireHours() int {
	defaultHours := s.jwtConfig.RefreshExpireHour
	value := s.configSvc.GetWithDefault("auth_refresh_token_expire_hours", strconv.Itoa(defaultHours))
	hours, err := strconv.Atoi(value)
	if err != nil || hours <= 0 {
		return defaultHours
	}
	return hours
}

func (s *AuthService) getResetCodeExpireMinutes() int {
	value := s.configSvc.GetWithDefault("reset_code_expire_minutes", "15")
	minutes, err := strconv.Atoi(value)
	if err != nil || minutes <= 0 {
		return 15
	}
	return minutes
}

func generateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(randomBytes)
	tokenHash = hashRefreshToken(token)
	return token, tokenHash, nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// generateResetCode returns a 6-digit numeric code.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *AuthService) localAuth(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ? AND auth_type = ?", username, "local").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid username or password")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, errors.New("account is locked")
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, errors.New("invalid username or password")
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateAdminIfNotExists creates the default admin account on first boot.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)

	if count == 0 {
		hashedPassword, err := utils.HashPassword("admin")
		if err != nil {
			return err
		}

		admin := models.User{
			Username: "admin",
			Password: hashedPassword,
			Nickname: "Administrator",
			Role:     models.RoleAdmin,
			AuthType: "local",
			IsActive: true,
		}

		return s.db.Create(&admin).Error
	}

	return nil
}

func (s *AuthService) IsOAuthEnabled() bool {
	return s.oauthService.IsEnabled()
}
