package services

import (
	"time"

	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/models"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// TokenCleanupService purges credential rows that can never be used again:
// refresh tokens past expiry or revoked more than a week ago, and consumed
// or expired password reset codes. Revocation itself never deletes rows;
// this job only reclaims storage long after the fact.
type TokenCleanupService struct {
	db        *gorm.DB
	scheduler *cron.Cron
}

func NewTokenCleanupService(db *gorm.DB) *TokenCleanupService {
	return &TokenCleanupService{db: db}
}

// StartScheduler runs the purge nightly at 02:00.
func (s *TokenCleanupService) StartScheduler() {
	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc("0 2 * * *", s.Run); err != nil {
		logger.Errorf("[TokenCleanup] Failed to schedule: %v", err)
		return
	}
	s.scheduler.Start()
	logger.Infof("[TokenCleanup] Scheduler started (daily at 02:00)")
}

func (s *TokenCleanupService) StopScheduler() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Run performs one purge pass.
func (s *TokenCleanupService) Run() {
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)

	res := s.db.Where("expires_at < ? OR (is_valid = ? AND revoked_at < ?)", now, false, weekAgo).
		Delete(&models.RefreshToken{})
	if res.Error != nil {
		logger.Errorf("[TokenCleanup] Failed to purge refresh tokens: %v", res.Error)
	} else if res.RowsAffected > 0 {
		logger.Infof("[TokenCleanup] Purged %d refresh tokens", res.RowsAffected)
	}

	res = s.db.Where("used = ? OR expires_at < ?", true, now).
		Delete(&models.PasswordResetToken{})
	if res.Error != nil {
		logger.Errorf("[TokenCleanup] Failed to purge reset codes: %v", res.Error)
	} else if res.RowsAffected > 0 {
		logger.Infof("[TokenCleanup] Purged %d reset codes", res.RowsAffected)
	}
}
