package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/middleware"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/models"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/services"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/response"
	"gorm.io/gorm"
)

type RestaurantHandler struct {
	db *gorm.DB
}

func NewRestaurantHandler(db *gorm.DB) *RestaurantHandler {
	return &RestaurantHandler{db: db}
}

// List returns approved restaurants for the storefront.
// GET /api/restaurants?page=1&page_size=20
func (h *RestaurantHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var restaurants []models.Restaurant
	var total int64

	query := h.db.Model(&models.Restaurant{}).Where("is_approved = ?", true)
	if name := c.Query("name"); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}

	query.Count(&total)
	query.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&restaurants)

	response.Success(c, gin.H{
		"items":     restaurants,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetByID returns one approved restaurant with its available menu.
// GET /api/restaurants/:id
func (h *RestaurantHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid restaurant id")
		return
	}

	var restaurant models.Restaurant
	if err := h.db.Where("id = ? AND is_approved = ?", id, true).First(&restaurant).Error; err != nil {
		response.NotFound(c, "restaurant not found")
		return
	}

	var foods []models.Food
	h.db.Where("restaurant_id = ? AND is_available = ?", restaurant.ID, true).
		Order("category ASC, id ASC").Find(&foods)

	response.Success(c, gin.H{
		"restaurant": restaurant,
		"menu":       foods,
	})
}

type RestaurantRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
	Address     string `json:"address" binding:"required,max=500"`
	Phone       string `json:"phone" binding:"required,max=20"`
	Image       string `json:"image"`
	OpenHours   string `json:"open_hours"`
}

// GetProfile returns the caller's restaurant.
// GET /api/enterprise/restaurant
func (h *RestaurantHandler) GetProfile(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var restaurant models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		response.NotFound(c, "restaurant not found")
		return
	}

	response.Success(c, restaurant)
}

// CreateProfile registers the caller's restaurant. New restaurants await
// admin approval before appearing in the storefront.
// POST /api/enterprise/restaurant
func (h *RestaurantHandler) CreateProfile(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var count int64
	h.db.Model(&models.Restaurant{}).Where("owner_id = ?", ownerID).Count(&count)
	if count > 0 {
		response.Error(c, response.NewConflict("restaurant profile already exists"))
		return
	}

	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	restaurant := models.Restaurant{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Phone:       req.Phone,
		Image:       req.Image,
		OpenHours:   req.OpenHours,
		IsApproved:  false,
	}

	if err := h.db.Create(&restaurant).Error; err != nil {
		response.ServerError(c, "failed to create restaurant")
		return
	}

	response.Created(c, restaurant)
}

// UpdateProfile edits the caller's restaurant.
// PUT /api/enterprise/restaurant
func (h *RestaurantHandler) UpdateProfile(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var restaurant models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		response.NotFound(c, "restaurant not found")
		return
	}

	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
		"address":     req.Address,
		"phone":       req.Phone,
		"image":       req.Image,
		"open_hours":  req.OpenHours,
	}

	if err := h.db.Model(&restaurant).Updates(updates).Error; err != nil {
		response.ServerError(c, "failed to update restaurant")
		return
	}

	h.db.First(&restaurant, restaurant.ID)
	response.Success(c, restaurant)
}

// ListPending returns restaurants awaiting approval.
// GET /api/admin/restaurants/pending
func (h *RestaurantHandler) ListPending(c *gin.Context) {
	var restaurants []models.Restaurant
	h.db.Preload("Owner").Where("is_approved = ?", false).Order("created_at ASC").Find(&restaurants)
	response.Success(c, gin.H{"items": restaurants})
}

// Approve marks a restaurant approved.
// POST /api/admin/restaurants/:id/approve
func (h *RestaurantHandler) Approve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid restaurant id")
		return
	}

	var restaurant models.Restaurant
	if err := h.db.First(&restaurant, id).Error; err != nil {
		response.NotFound(c, "restaurant not found")
		return
	}

	if err := h.db.Model(&restaurant).Update("is_approved", true).Error; err != nil {
		response.ServerError(c, "failed to approve restaurant")
		return
	}

	adminID := middleware.GetUserID(c)
	services.LogInfo("admin", "approve_restaurant", "restaurant approved", &adminID, c.ClientIP(), c.Request.UserAgent(), gin.H{"restaurant_id": restaurant.ID})
	response.Success(c, gin.H{"message": "restaurant approved"})
}
