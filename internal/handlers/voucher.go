package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/middleware"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/models"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/services"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/response"
	"gorm.io/gorm"
)

const voucherCacheTTL = 5 * time.Minute

type VoucherHandler struct {
	db    *gorm.DB
	cache *services.Cache
}

func NewVoucherHandler(db *gorm.DB, cache *services.Cache) *VoucherHandler {
	return &VoucherHandler{db: db, cache: cache}
}

// ListApproved returns vouchers customers can currently use, memoized in the
// cache until an approval or expiry-relevant write clears it.
// GET /api/vouchers
func (h *VoucherHandler) ListApproved(c *gin.Context) {
	if cached, ok := h.cache.Get(services.VouchersApprovedKey); ok {
		if vouchers, ok := cached.([]models.Voucher); ok {
			response.Success(c, gin.H{"items": vouchers, "cached": true})
			return
		}
	}

	var vouchers []models.Voucher
	if err := h.db.Where("is_approved = ? AND expires_at > ?", true, time.Now()).
		Order("expires_at ASC").Find(&vouchers).Error; err != nil {
		response.ServerError(c, "failed to list vouchers")
		return
	}

	h.cache.Set(services.VouchersApprovedKey, vouchers, voucherCacheTTL)
	response.Success(c, gin.H{"items": vouchers, "cached": false})
}

type VoucherRequest struct {
	Code            string    `json:"code" binding:"required,min=3,max=50"`
	DiscountPercent float64   `json:"discount_percent" binding:"required,gt=0,lte=100"`
	MaxDiscount     float64   `json:"max_discount" binding:"gte=0"`
	MinOrderValue   float64   `json:"min_order_value" binding:"gte=0"`
	ExpiresAt       time.Time `json:"expires_at" binding:"required"`
	UsageLimit      int       `json:"usage_limit" binding:"gte=0"`
}

// Create registers a voucher for the caller's restaurant. New vouchers are
// invisible to customers until an admin approves them.
// POST /api/enterprise/vouchers
func (h *VoucherHandler) Create(c *gin.Context) {
	enterpriseID := middleware.GetUserID(c)

	var req VoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.ExpiresAt.Before(time.Now()) {
		response.BadRequest(c, "expiry must be in the future")
		return
	}

	voucher := models.Voucher{
		EnterpriseID:    enterpriseID,
		Code:            strings.ToUpper(strings.TrimSpace(req.Code)),
		DiscountPercent: req.DiscountPercent,
		MaxDiscount:     req.MaxDiscount,
		MinOrderValue:   req.MinOrderValue,
		ExpiresAt:       req.ExpiresAt,
		UsageLimit:      req.UsageLimit,
		IsApproved:      false,
	}

	if err := h.db.Create(&voucher).Error; err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			response.Error(c, response.NewConflict("voucher code already exists"))
			return
		}
		response.ServerError(c, "failed to create voucher")
		return
	}

	response.Created(c, voucher)
}

// ListMine lists the caller's vouchers regardless of approval state.
// GET /api/enterprise/vouchers
func (h *VoucherHandler) ListMine(c *gin.Context) {
	enterpriseID := middleware.GetUserID(c)

	var vouchers []models.Voucher
	if err := h.db.Where("enterprise_id = ?", enterpriseID).
		Order("created_at DESC").Find(&vouchers).Error; err != nil {
		response.ServerError(c, "failed to list vouchers")
		return
	}

	response.Success(c, gin.H{"items": vouchers})
}

// ListPending returns vouchers awaiting approval.
// GET /api/admin/vouchers/pending
func (h *VoucherHandler) ListPending(c *gin.Context) {
	var vouchers []models.Voucher
	h.db.Where("is_approved = ?", false).Order("created_at ASC").Find(&vouchers)
	response.Success(c, gin.H{"items": vouchers})
}

// Approve publishes a voucher and drops the cached customer-facing list.
// POST /api/admin/vouchers/:id/approve
func (h *VoucherHandler) Approve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid voucher id")
		return
	}

	var voucher models.Voucher
	if err := h.db.First(&voucher, id).Error; err != nil {
		response.NotFound(c, "voucher not found")
		return
	}

	if err := h.db.Model(&voucher).Update("is_approved", true).Error; err != nil {
		response.ServerError(c, "failed to approve voucher")
		return
	}

	h.cache.Clear(services.VouchersApprovedKey)

	adminID := middleware.GetUserID(c)
	services.LogInfo("admin", "approve_voucher", "voucher approved", &adminID, c.ClientIP(), c.Request.UserAgent(), gin.H{"voucher_id": voucher.ID})
	response.Success(c, gin.H{"message": "voucher approved"})
}

// Delete removes a voucher. Enterprises may delete their own; the route is
// also mounted under admin for moderation.
// DELETE /api/enterprise/vouchers/:id
func (h *VoucherHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid voucher id")
		return
	}

	query := h.db.Where("id = ?", id)
	if middleware.GetRole(c) != models.RoleAdmin {
		query = query.Where("enterprise_id = ?", middleware.GetUserID(c))
	}

	var voucher models.Voucher
	if err := query.First(&voucher).Error; err != nil {
		response.NotFound(c, "voucher not found")
		return
	}

	if err := h.db.Delete(&voucher).Error; err != nil {
		response.ServerError(c, "failed to delete voucher")
		return
	}

	h.cache.Clear(services.VouchersApprovedKey)
	response.Success(c, gin.H{"message": "voucher deleted"})
}
