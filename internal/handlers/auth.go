package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/config"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/middleware"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/services"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/logger"
	"gorm.io/gorm"
)

const refreshCookieName = "refresh_token"

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, emailQueue services.TaskQueue) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, &cfg.JWT, &cfg.OAuth, emailQueue),
	}
}

// setRefreshCookie stores the refresh token in an httpOnly cookie scoped to
// the auth endpoints. SameSite Lax always; Secure outside debug mode. The
// cookie expiry matches the token's own expiry so it never outlives it.
func setRefreshCookie(c *gin.Context, token string, expireAt time.Time) {
	maxAge := int(time.Until(expireAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, maxAge, "/api/auth", "", gin.Mode() == gin.ReleaseMode, true)
}

func clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, "/api/auth", "", gin.Mode() == gin.ReleaseMode, true)
}

type loginResponse struct {
	Token    string      `json:"token"`
	ExpireAt time.Time   `json:"expire_at"`
	User     interface{} `json:"user"`
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Login(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	services.LogInfo("auth", "login", "user logged in", &result.User.ID, c.ClientIP(), c.Request.UserAgent(), nil)
	setRefreshCookie(c, result.RefreshToken, result.RefreshExpireAt)
	c.JSON(http.StatusOK, loginResponse{
		Token:    result.AccessToken,
		ExpireAt: result.AccessExpireAt,
		User:     result.User,
	})
}

// Register creates a customer account
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Register(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	setRefreshCookie(c, result.RefreshToken, result.RefreshExpireAt)
	c.JSON(http.StatusCreated, loginResponse{
		Token:    result.AccessToken,
		ExpireAt: result.AccessExpireAt,
		User:     result.User,
	})
}

type oauthLoginRequest struct {
	Code string `json:"code" binding:"required"`
}

// OAuthLogin exchanges an OAuth authorization code for a session
// POST /api/auth/oauth/login
func (h *AuthHandler) OAuthLogin(c *gin.Context) {
	var req oauthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.OAuthLogin(req.Code, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		logger.Errorf("[Auth] OAuth login failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "oauth login failed"})
		return
	}

	setRefreshCookie(c, result.RefreshToken, result.RefreshExpireAt)
	c.JSON(http.StatusOK, loginResponse{
		Token:    result.AccessToken,
		ExpireAt: result.AccessExpireAt,
		User:     result.User,
	})
}

// Refresh issues a new access token from the refresh cookie. The refresh
// token itself is not rotated. Any miss is a uniform 401.
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token required"})
		return
	}

	result, err := h.authService.Refresh(refreshToken)
	if err != nil {
		clearRefreshCookie(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     result.AccessToken,
		"expire_at": result.AccessExpireAt,
	})
}

// Logout revokes the refresh token carried by the cookie. Idempotent.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if refreshToken, err := c.Cookie(refreshCookieName); err == nil && refreshToken != "" {
		if err := h.authService.RevokeRefreshToken(refreshToken); err != nil {
			logger.Errorf("[Auth] Failed to revoke refresh token: %v", err)
		}
	}

	clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangePassword updates the password and ends every session
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.authService.ChangePassword(userID, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	services.LogInfo("auth", "change_password", "password changed, all sessions revoked", &userID, c.ClientIP(), c.Request.UserAgent(), nil)
	clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "password changed, please log in again"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword sends a reset code. The response never reveals whether the
// email exists.
// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ForgotPassword(req.Email); err != nil {
		logger.Errorf("[Auth] Forgot password failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "if the email exists, a reset code has been sent"})
}

// ResetPassword consumes a reset code
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ResetPassword(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password reset, please log in again"})
}

// GetAuthConfig returns authentication configuration
// GET /api/auth/config
func (h *AuthHandler) GetAuthConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"oauth_enabled": h.authService.IsOAuthEnabled(),
	})
}

// CreateAdminIfNotExists creates default admin user
func (h *AuthHandler) CreateAdminIfNotExists() error {
	return h.authService.CreateAdminIfNotExists()
}
