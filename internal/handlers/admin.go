package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/sunik/internal/models"
	"github.com/example/sunik/internal/utils"
)

var paidStatuses = []models.PaymentStatus{models.PaymentAccepted, models.PaymentSuccess}

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func (h *AdminHandler) countBy(c *fiber.Ctx, column string) (map[string]int64, error) {
	var rows []statusCount
	if err := h.db.WithContext(c.UserContext()).Model(&models.Transaction{}).
		Select(column + " as status, count(*) as count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalTransactions int64
	if err := db.Model(&models.Transaction{}).Count(&totalTransactions).Error; err != nil {
		return err
	}

	var totalProducts int64
	if err := db.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return err
	}

	byStatus, err := h.countBy(c, "status")
	if err != nil {
		return err
	}
	byPayment, err := h.countBy(c, "payment_status")
	if err != nil {
		return err
	}
	byDelivery, err := h.countBy(c, "delivery_status")
	if err != nil {
		return err
	}

	// Revenue counts only transactions whose payment was verified.
	var revenue decimal.NullDecimal
	if err := db.Model(&models.Transaction{}).
		Where("payment_status IN ?", paidStatuses).
		Select("SUM(total_amount)").
		Scan(&revenue).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":              totalUsers,
			"total_transactions":       totalTransactions,
			"total_products":           totalProducts,
			"total_revenue":            revenue.Decimal,
			"transactions_by_status":   byStatus,
			"transactions_by_payment":  byPayment,
			"transactions_by_delivery": byDelivery,
		},
	})
}

// ListAllUsers returns all registered users with pagination and search.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.WithContext(c.UserContext()).Model(&models.User{})

	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(display_name) LIKE ?",
			"%"+search+"%", "%"+search+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	users := []models.User{}
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	type userStats struct {
		UserID           string `json:"user_id"`
		TransactionCount int64  `json:"transaction_count"`
	}

	var stats []userStats
	if err := h.db.WithContext(c.UserContext()).Model(&models.Transaction{}).
		Select("user_id, count(*) as transaction_count").
		Group("user_id").
		Scan(&stats).Error; err != nil {
		return err
	}

	counts := make(map[string]int64, len(stats))
	for _, s := range stats {
		counts[s.UserID] = s.TransactionCount
	}

	type userResponse struct {
		models.User
		TransactionCount int64 `json:"transaction_count"`
	}

	result := make([]userResponse, len(users))
	for i, u := range users {
		result[i] = userResponse{User: u, TransactionCount: counts[u.ID.String()]}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       result,
		"pagination": pg.Meta(total),
	})
}

// RecentTransactions returns the five newest transactions for the dashboard.
func (h *AdminHandler) RecentTransactions(c *fiber.Ctx) error {
	items := []models.Transaction{}
	if err := h.db.WithContext(c.UserContext()).
		Order("order_date desc").
		Limit(5).
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
	})
}
