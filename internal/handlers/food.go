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

const foodSearchCacheTTL = 2 * time.Minute

type FoodHandler struct {
	db    *gorm.DB
	cache *services.Cache
}

func NewFoodHandler(db *gorm.DB, cache *services.Cache) *FoodHandler {
	return &FoodHandler{db: db, cache: cache}
}

type FoodSearchItem struct {
	ID             uint    `json:"id"`
	RestaurantID   uint    `json:"restaurant_id"`
	RestaurantName string  `json:"restaurant_name"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	Category       string  `json:"category"`
	Image          string  `json:"image"`
	SoldCount      int     `json:"sold_count"`
}

// Search finds available foods by name or category, memoized in the cache.
// GET /api/foods/search?q=pizza&limit=20
func (h *FoodHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if len(q) < 2 {
		response.BadRequest(c, "search query must be at least 2 characters")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 50 {
		limit = 20
	}

	key := services.FoodSearchKey(strings.ToLower(q), limit)
	if cached, ok := h.cache.Get(key); ok {
		if items, ok := cached.([]FoodSearchItem); ok {
			response.Success(c, gin.H{"items": items, "cached": true})
			return
		}
	}

	pattern := "%" + q + "%"
	var foods []models.Food
	if err := h.db.Preload("Restaurant").
		Joins("JOIN restaurants ON restaurants.id = foods.restaurant_id AND restaurants.is_approved = ? AND restaurants.deleted_at IS NULL", true).
		Where("foods.is_available = ?", true).
		Where("foods.name LIKE ? OR foods.category LIKE ?", pattern, pattern).
		Order("foods.sold_count DESC").
		Limit(limit).
		Find(&foods).Error; err != nil {
		response.ServerError(c, "search failed")
		return
	}

	items := make([]FoodSearchItem, 0, len(foods))
	for _, f := range foods {
		restaurantName := ""
		if f.Restaurant != nil {
			restaurantName = f.Restaurant.Name
		}
		items = append(items, FoodSearchItem{
			ID:             f.ID,
			RestaurantID:   f.RestaurantID,
			RestaurantName: restaurantName,
			Name:           f.Name,
			Description:    f.Description,
			Price:          f.Price,
			Category:       f.Category,
			Image:          f.Image,
			SoldCount:      f.SoldCount,
		})
	}

	h.cache.Set(key, items, foodSearchCacheTTL)
	response.Success(c, gin.H{"items": items, "cached": false})
}

// GetByID returns one food with its restaurant.
// GET /api/foods/:id
func (h *FoodHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid food id")
		return
	}

	var food models.Food
	if err := h.db.Preload("Restaurant").First(&food, id).Error; err != nil {
		response.NotFound(c, "food not found")
		return
	}

	response.Success(c, food)
}

type FoodRequest struct {
	Name        string  `json:"name" binding:"required,max=200"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	IsAvailable *bool   `json:"is_available"`
}

// ownRestaurant resolves the restaurant owned by the authenticated
// enterprise user.
func (h *FoodHandler) ownRestaurant(c *gin.Context) (*models.Restaurant, bool) {
	ownerID := middleware.GetUserID(c)
	var restaurant models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		response.NotFound(c, "restaurant not found, create your restaurant profile first")
		return nil, false
	}
	return &restaurant, true
}

// Create adds a menu item to the caller's restaurant.
// POST /api/enterprise/foods
func (h *FoodHandler) Create(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	var req FoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	food := models.Food{
		RestaurantID: restaurant.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		Image:        req.Image,
		IsAvailable:  true,
	}
	if req.IsAvailable != nil {
		food.IsAvailable = *req.IsAvailable
	}

	if err := h.db.Create(&food).Error; err != nil {
		response.ServerError(c, "failed to create food")
		return
	}

	// Menu writes stale any cached search result
	h.cache.ClearPrefix(services.FoodSearchPrefix())
	response.Created(c, food)
}

// Update edits a menu item owned by the caller.
// PUT /api/enterprise/foods/:id
func (h *FoodHandler) Update(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid food id")
		return
	}

	var food models.Food
	if err := h.db.Where("id = ? AND restaurant_id = ?", id, restaurant.ID).First(&food).Error; err != nil {
		response.NotFound(c, "food not found")
		return
	}

	var req FoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
		"price":       req.Price,
		"category":    req.Category,
		"image":       req.Image,
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}

	if err := h.db.Model(&food).Updates(updates).Error; err != nil {
		response.ServerError(c, "failed to update food")
		return
	}

	h.cache.ClearPrefix(services.FoodSearchPrefix())
	h.db.First(&food, id)
	response.Success(c, food)
}

// Delete removes a menu item owned by the caller.
// DELETE /api/enterprise/foods/:id
func (h *FoodHandler) Delete(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid food id")
		return
	}

	var food models.Food
	if err := h.db.Where("id = ? AND restaurant_id = ?", id, restaurant.ID).First(&food).Error; err != nil {
		response.NotFound(c, "food not found")
		return
	}

	if err := h.db.Delete(&food).Error; err != nil {
		response.ServerError(c, "failed to delete food")
		return
	}

	h.cache.ClearPrefix(services.FoodSearchPrefix())
	response.Success(c, gin.H{"message": "food deleted"})
}

// ListMine lists the caller's menu including unavailable items.
// GET /api/enterprise/foods
func (h *FoodHandler) ListMine(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	var foods []models.Food
	if err := h.db.Where("restaurant_id = ?", restaurant.ID).Order("id ASC").Find(&foods).Error; err != nil {
		response.ServerError(c, "failed to list foods")
		return
	}

	response.Success(c, gin.H{"items": foods})
}
