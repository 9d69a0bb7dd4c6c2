package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/middleware"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/models"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/services"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/logger"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/response"
	"gorm.io/gorm"
)

type OrderHandler struct {
	db               *gorm.DB
	paymentService   *services.PaymentService
	dashboardService *services.DashboardService
	emailQueue       services.TaskQueue
}

func NewOrderHandler(db *gorm.DB, paymentService *services.PaymentService, dashboardService *services.DashboardService, emailQueue services.TaskQueue) *OrderHandler {
	return &OrderHandler{
		db:               db,
		paymentService:   paymentService,
		dashboardService: dashboardService,
		emailQueue:       emailQueue,
	}
}

type OrderItemRequest struct {
	FoodID   uint `json:"food_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	RestaurantID    uint               `json:"restaurant_id" binding:"required"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	VoucherCode     string             `json:"voucher_code"`
	DeliveryAddress string             `json:"delivery_address" binding:"required,max=500"`
	DeliveryPhone   string             `json:"delivery_phone" binding:"required,max=20"`
	Note            string             `json:"note" binding:"max=500"`
	PaymentMethod   string             `json:"payment_method"` // cod (default), card
}

// Create places an order. The order, its items, the food sold counters and
// the voucher redemption commit in one transaction; a card charge that fails
// rolls everything back.
// POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = "cod"
	}
	if req.PaymentMethod != "cod" && req.PaymentMethod != "card" {
		response.BadRequest(c, "payment method must be 'cod' or 'card'")
		return
	}

	var restaurant models.Restaurant
	if err := h.db.Where("id = ? AND is_approved = ?", req.RestaurantID, true).First(&restaurant).Error; err != nil {
		response.NotFound(c, "restaurant not found")
		return
	}

	var order models.Order
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		subtotal := 0.0
		items := make([]models.OrderItem, 0, len(req.Items))

		for _, item := range req.Items {
			var food models.Food
			if err := tx.Where("id = ? AND restaurant_id = ? AND is_available = ?",
				item.FoodID, restaurant.ID, true).First(&food).Error; err != nil {
				return response.NewNotFound(fmt.Sprintf("food %d not found in this restaurant", item.FoodID))
			}

			subtotal += food.Price * float64(item.Quantity)
			items = append(items, models.OrderItem{
				FoodID:    food.ID,
				Quantity:  item.Quantity,
				UnitPrice: food.Price,
			})

			if err := tx.Model(&food).Update("sold_count", gorm.Expr("sold_count + ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		discount := 0.0
		var voucherID *uint
		if req.VoucherCode != "" {
			voucher, err := redeemVoucher(tx, req.VoucherCode, restaurant.ID, subtotal)
			if err != nil {
				return err
			}
			discount = voucher.discountFor(subtotal)
			voucherID = &voucher.ID
		}

		order = models.Order{
			CustomerID:      customerID,
			RestaurantID:    restaurant.ID,
			Status:          models.OrderPending,
			Subtotal:        subtotal,
			Discount:        discount,
			Total:           subtotal - discount,
			VoucherID:       voucherID,
			DeliveryAddress: req.DeliveryAddress,
			DeliveryPhone:   req.DeliveryPhone,
			Note:            req.Note,
			PaymentMethod:   req.PaymentMethod,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		if req.PaymentMethod == "card" {
			charge, err := h.paymentService.CreateCharge(c.Request.Context(), &services.ChargeRequest{
				OrderID:  order.ID,
				Amount:   order.Total,
				Currency: "VND",
			})
			if err != nil {
				return err
			}
			order.PaymentID = charge.PaymentID
			order.IsPaid = true
			if err := tx.Model(&order).Updates(map[string]interface{}{
				"payment_id": charge.PaymentID,
				"is_paid":    true,
			}).Error; err != nil {
				return err
			}
		}

		return nil
	})

	if txErr != nil {
		var appErr *response.AppError
		switch {
		case errors.As(txErr, &appErr):
			response.Error(c, txErr)
		case errors.Is(txErr, services.ErrPaymentFailed):
			response.Error(c, response.NewUpstreamError("payment could not be processed"))
		default:
			logger.Errorf("[Order] Create failed: %v", txErr)
			response.ServerError(c, "failed to create order")
		}
		return
	}

	h.dashboardService.Invalidate(restaurant.ID)
	h.sendReceipt(customerID, &order, &restaurant)
	services.LogInfo("order", "create", "order placed", &customerID, c.ClientIP(), c.Request.UserAgent(), gin.H{"order_id": order.ID})

	h.db.Preload("Items").First(&order, order.ID)
	response.Created(c, order)
}

func (h *OrderHandler) sendReceipt(customerID uint, order *models.Order, restaurant *models.Restaurant) {
	var customer models.User
	if err := h.db.First(&customer, customerID).Error; err != nil || customer.Email == "" {
		return
	}

	body := fmt.Sprintf(
		"<h2>Order #%d confirmed</h2><p>Restaurant: %s</p><p>Total: %.0f VND</p><p>Delivery to: %s</p>",
		order.ID, restaurant.Name, order.Total, order.DeliveryAddress)
	task := &services.EmailTask{
		To:      []string{customer.Email},
		Subject: fmt.Sprintf("Order #%d confirmed", order.ID),
		Body:    body,
	}
	if err := h.emailQueue.Enqueue(task); err != nil {
		logger.Errorf("[Order] Failed to queue receipt for order %d: %v", order.ID, err)
	}
}

// ListMine lists the caller's orders, newest first.
// GET /api/orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var orders []models.Order
	var total int64

	query := h.db.Model(&models.Order{}).Where("customer_id = ?", customerID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	query.Count(&total)
	query.Preload("Items").Preload("Restaurant").
		Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&orders)

	response.Success(c, gin.H{
		"items":     orders,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetByID returns one of the caller's orders.
// GET /api/orders/:id
func (h *OrderHandler) GetByID(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	var order models.Order
	if err := h.db.Preload("Items.Food").Preload("Restaurant").
		Where("id = ? AND customer_id = ?", id, customerID).First(&order).Error; err != nil {
		response.NotFound(c, "order not found")
		return
	}

	response.Success(c, order)
}

// ListForRestaurant lists incoming orders for the caller's restaurant.
// GET /api/enterprise/orders
func (h *OrderHandler) ListForRestaurant(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var restaurant models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		response.NotFound(c, "restaurant not found")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var orders []models.Order
	var total int64

	query := h.db.Model(&models.Order{}).Where("restaurant_id = ?", restaurant.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	query.Count(&total)
	query.Preload("Items").Preload("Customer").
		Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&orders)

	response.Success(c, gin.H{
		"items":     orders,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// validTransitions limits enterprise status updates to forward moves.
var validTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed:  {models.OrderDelivering, models.OrderCancelled},
	models.OrderDelivering: {models.OrderCompleted},
}

// UpdateStatus moves an order through its lifecycle and clears the cached
// dashboard aggregates that the change stales.
// PUT /api/enterprise/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var restaurant models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		response.NotFound(c, "restaurant not found")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !req.Status.Valid() {
		response.BadRequest(c, "invalid order status")
		return
	}

	var order models.Order
	if err := h.db.Where("id = ? AND restaurant_id = ?", id, restaurant.ID).First(&order).Error; err != nil {
		response.NotFound(c, "order not found")
		return
	}

	allowed := false
	for _, next := range validTransitions[order.Status] {
		if next == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		response.BadRequest(c, fmt.Sprintf("cannot change status from %s to %s", order.Status, req.Status))
		return
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.Status == models.OrderCompleted && order.PaymentMethod == "cod" {
		updates["is_paid"] = true
	}

	if err := h.db.Model(&order).Updates(updates).Error; err != nil {
		response.ServerError(c, "failed to update order")
		return
	}

	h.dashboardService.Invalidate(restaurant.ID)
	h.db.First(&order, order.ID)
	response.Success(c, order)
}

// --- voucher redemption ---

type redeemedVoucher struct {
	ID              uint
	DiscountPercent float64
	MaxDiscount     float64
}

func (v *redeemedVoucher) discountFor(subtotal float64) float64 {
	discount := subtotal * v.DiscountPercent / 100
	if v.MaxDiscount > 0 && discount > v.MaxDiscount {
		discount = v.MaxDiscount
	}
	return discount
}

// redeemVoucher validates and consumes one voucher use inside the order
// transaction.
func redeemVoucher(tx *gorm.DB, code string, restaurantID uint, subtotal float64) (*redeemedVoucher, error) {
	var voucher models.Voucher
	if err := tx.Where("code = ? AND is_approved = ?", code, true).First(&voucher).Error; err != nil {
		return nil, response.NewBadRequest("invalid voucher code")
	}

	var restaurant models.Restaurant
	if err := tx.First(&restaurant, restaurantID).Error; err != nil {
		return nil, err
	}
	if voucher.EnterpriseID != restaurant.OwnerID {
		return nil, response.NewBadRequest("voucher not valid for this restaurant")
	}
	if time.Now().After(voucher.ExpiresAt) {
		return nil, response.NewBadRequest("voucher expired")
	}
	if subtotal < voucher.MinOrderValue {
		return nil, response.NewBadRequest(fmt.Sprintf("order must be at least %.0f to use this voucher", voucher.MinOrderValue))
	}
	if voucher.UsageLimit > 0 && voucher.UsedCount >= voucher.UsageLimit {
		return nil, response.NewBadRequest("voucher usage limit reached")
	}

	if err := tx.Model(&voucher).Update("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
		return nil, err
	}

	return &redeemedVoucher{
		ID:              voucher.ID,
		DiscountPercent: voucher.DiscountPercent,
		MaxDiscount:     voucher.MaxDiscount,
	}, nil
}
