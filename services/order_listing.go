package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

const (
	defaultSortField = "order_time"
	defaultSortOrder = "desc"
)

// adminSortColumns is the allow-list of sortable fields. Anything else falls
// back to the default; the requested value never reaches the SQL text.
var adminSortColumns = map[string]string{
	"id":           "orders.id",
	"order_time":   "orders.order_time",
	"total_amount": "orders.total_amount",
	"status":       "orders.status",
	"username":     "users.username",
}

type OrderPage struct {
	Orders     []models.OrderSummary `json:"orders"`
	TotalCount int64                 `json:"total_count"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	SortBy     string                `json:"sort_by,omitempty"`
	SortOrder  string                `json:"sort_order,omitempty"`
}

type AdminOrderFilter struct {
	Status        string
	PaymentStatus string
	UserID        *uint
	SortBy        string
	SortOrder     string
}

// resolveSort maps a requested field and direction onto the allow-list.
func resolveSort(field, order string) (string, string) {
	field = strings.ToLower(strings.TrimSpace(field))
	if _, ok := adminSortColumns[field]; !ok {
		field = defaultSortField
	}
	order = strings.ToLower(strings.TrimSpace(order))
	if order != "asc" && order != "desc" {
		order = defaultSortOrder
	}
	return field, order
}

const summaryColumns = "orders.id, orders.order_time, orders.total_amount, orders.status, " +
	"orders.payment_status, orders.customer_name, orders.user_id"

// ListOrdersForUser pages through the orders owned by userID, newest first.
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uint, page, size int) (*OrderPage, error) {
	page, size = utils.ClampPage(page, size)
	scope := func() *gorm.DB {
		return s.gw.DB(ctx).Table("orders").Where("orders.user_id = ?", userID)
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, persistence("count user orders", err)
	}

	orders := []models.OrderSummary{}
	err := scope().
		Select(summaryColumns).
		Order("orders.order_time DESC, orders.id DESC").
		Limit(size).
		Offset(utils.Offset(page, size)).
		Scan(&orders).Error
	if err != nil {
		return nil, persistence("list user orders", err)
	}
	return &OrderPage{Orders: orders, TotalCount: total, Page: page, PageSize: size}, nil
}

// ListOrdersForAdmin pages through all orders. Count and page share one
// filter so the total always describes the listed rows.
func (s *OrderService) ListOrdersForAdmin(ctx context.Context, f AdminOrderFilter, page, size int) (*OrderPage, error) {
	page, size = utils.ClampPage(page, size)
	sortBy, sortOrder := resolveSort(f.SortBy, f.SortOrder)

	status := strings.TrimSpace(f.Status)
	if status != "" {
		if _, ok := models.ParseOrderStatus(status); !ok {
			return nil, withDetail(ErrInvalidStatus, fmt.Sprintf("%q", status))
		}
	}
	payment := strings.TrimSpace(f.PaymentStatus)
	if payment != "" {
		if _, ok := models.ParsePaymentStatus(payment); !ok {
			return nil, withDetail(ErrInvalidInput, fmt.Sprintf("payment status %q", payment))
		}
	}

	scope := func() *gorm.DB {
		q := s.gw.DB(ctx).Table("orders").Joins("LEFT JOIN users ON users.id = orders.user_id")
		if status != "" {
			q = q.Where("orders.status = ?", status)
		}
		if payment != "" {
			q = q.Where("orders.payment_status = ?", payment)
		}
		if f.UserID != nil {
			q = q.Where("orders.user_id = ?", *f.UserID)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, persistence("count orders", err)
	}

	desc := sortOrder == "desc"
	orders := []models.OrderSummary{}
	err := scope().
		Select(summaryColumns + ", users.username AS username").
		Order(clause.OrderByColumn{Column: clause.Column{Name: adminSortColumns[sortBy], Raw: true}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "orders.id", Raw: true}, Desc: desc}).
		Limit(size).
		Offset(utils.Offset(page, size)).
		Scan(&orders).Error
	if err != nil {
		return nil, persistence("list orders", err)
	}
	return &OrderPage{
		Orders:     orders,
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		SortBy:     sortBy,
		SortOrder:  sortOrder,
	}, nil
}
