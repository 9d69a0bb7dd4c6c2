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

type DashboardHandler struct {
	db               *gorm.DB
	dashboardService *services.DashboardService
}

func NewDashboardHandler(db *gorm.DB, dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{db: db, dashboardService: dashboardService}
}

// GetStats returns revenue and order aggregates for the caller's restaurant.
// GET /api/enterprise/dashboard/stats?days=30
func (h *DashboardHandler) GetStats(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var restaurant models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		response.NotFound(c, "restaurant not found")
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	switch days {
	case 7, 30, 90, 365:
	default:
		days = 30
	}

	stats, err := h.dashboardService.GetStats(restaurant.ID, days)
	if err != nil {
		response.ServerError(c, "failed to compute dashboard stats")
		return
	}

	response.Success(c, stats)
}
