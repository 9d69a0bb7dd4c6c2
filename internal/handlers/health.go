package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/models"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/services"
)

// HealthHandler reports subsystem status for load balancers and probes.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var pendingOrders int64
	models.GetDB().Model(&models.Order{}).
		Where("status IN ?", []models.OrderStatus{models.OrderPending, models.OrderConfirmed}).
		Count(&pendingOrders)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "food-delivery",
		"components": gin.H{
			"database":       dbStatus,
			"queue_mode":     queueMode,
			"pending_orders": pendingOrders,
		},
	})
}
