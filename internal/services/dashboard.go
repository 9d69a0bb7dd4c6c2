package services

import (
	"time"

	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/models"
	"gorm.io/gorm"
)

// DashboardService computes enterprise dashboard aggregates. Results are
// memoized in the shared cache; order status writes clear the restaurant's
// entry.
type DashboardService struct {
	db    *gorm.DB
	cache *Cache
}

func NewDashboardService(db *gorm.DB, cache *Cache) *DashboardService {
	return &DashboardService{db: db, cache: cache}
}

const dashboardCacheTTL = 5 * time.Minute

type DashboardStats struct {
	TotalRevenue    float64        `json:"total_revenue"`
	TotalOrders     int64          `json:"total_orders"`
	CompletedOrders int64          `json:"completed_orders"`
	CancelledOrders int64          `json:"cancelled_orders"`
	AvgOrderValue   float64        `json:"avg_order_value"`
	RevenueByDay    []DailyRevenue `json:"revenue_by_day"`
	TopFoods        []TopFood      `json:"top_foods"`
}

type DailyRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Orders  int64   `json:"orders"`
}

type TopFood struct {
	FoodID   uint    `json:"food_id"`
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// GetStats returns aggregates for one restaurant over the trailing N days,
// served from cache when fresh.
func (s *DashboardService) GetStats(restaurantID uint, days int) (*DashboardStats, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	key := DashboardStatsKey(restaurantID, days)
	if cached, ok := s.cache.Get(key); ok {
		if stats, ok := cached.(*DashboardStats); ok {
			return stats, nil
		}
	}

	stats, err := s.computeStats(restaurantID, days)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, stats, dashboardCacheTTL)
	return stats, nil
}

// Invalidate clears every cached window for a restaurant. Called by order
// write paths; forgetting this call is a staleness bug, not a crash.
func (s *DashboardService) Invalidate(restaurantID uint) {
	for _, days := range []int{7, 30, 90, 365} {
		s.cache.Clear(DashboardStatsKey(restaurantID, days))
	}
}

func (s *DashboardService) computeStats(restaurantID uint, days int) (*DashboardStats, error) {
	since := time.Now().AddDate(0, 0, -days)
	stats := &DashboardStats{}

	base := s.db.Model(&models.Order{}).
		Where("restaurant_id = ? AND created_at >= ?", restaurantID, since)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	base.Session(&gorm.Session{}).Where("status = ?", models.OrderCompleted).Count(&stats.CompletedOrders)
	base.Session(&gorm.Session{}).Where("status = ?", models.OrderCancelled).Count(&stats.CancelledOrders)

	var revenue struct {
		Total float64
	}
	s.db.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) as total").
		Where("restaurant_id = ? AND created_at >= ? AND status = ?", restaurantID, since, models.OrderCompleted).
		Scan(&revenue)
	stats.TotalRevenue = revenue.Total

	if stats.CompletedOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / float64(stats.CompletedOrders)
	}

	var daily []DailyRevenue
	s.db.Model(&models.Order{}).
		Select("DATE(created_at) as date, COALESCE(SUM(total), 0) as revenue, COUNT(*) as orders").
		Where("restaurant_id = ? AND created_at >= ? AND status = ?", restaurantID, since, models.OrderCompleted).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&daily)
	stats.RevenueByDay = daily

	var top []TopFood
	s.db.Model(&models.OrderItem{}).
		Select("order_items.food_id, foods.name, SUM(order_items.quantity) as quantity, SUM(order_items.quantity * order_items.unit_price) as revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN foods ON foods.id = order_items.food_id").
		Where("orders.restaurant_id = ? AND orders.created_at >= ? AND orders.status = ?", restaurantID, since, models.OrderCompleted).
		Group("order_items.food_id, foods.name").
		Order("quantity DESC").
		Limit(5).
		Scan(&top)
	stats.TopFoods = top

	return stats, nil
}
