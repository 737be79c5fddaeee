package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/metrics"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// DefaultGuestName labels orders placed without an account or a supplied name.
const DefaultGuestName = "Guest"

// OrderService is the order engine. It keeps no state between calls; every
// multi-statement operation runs in one transaction.
type OrderService struct {
	gw  *database.Gateway
	log logrus.FieldLogger
	now func() time.Time
}

func NewOrderService(gw *database.Gateway, log logrus.FieldLogger) *OrderService {
	return &OrderService{gw: gw, log: utils.Logger(log), now: time.Now}
}

type LineItemRequest struct {
	MenuItemID      uint
	Quantity        json.Number
	SpecialRequests *string
}

type PlaceOrderRequest struct {
	OwnerID         *uint
	GuestName       string
	Items           []LineItemRequest
	PaymentMethod   *string
	DeliveryAddress *string
	Notes           *string
}

type PlacedOrder struct {
	OrderID     uint            `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// ParseQuantity accepts only positive integers.
func ParseQuantity(raw json.Number) (int, error) {
	s := strings.TrimSpace(raw.String())
	q, err := strconv.Atoi(s)
	if err != nil || q <= 0 {
		return 0, withDetail(ErrInvalidQuantity, fmt.Sprintf("got %q", s))
	}
	return q, nil
}

// PlaceOrder validates every line against the live menu, prices it from the
// stored price, and writes the order with its items atomically.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlacedOrder, error) {
	if len(req.Items) == 0 {
		s.reject(ErrEmptyOrder)
		return nil, ErrEmptyOrder
	}

	var placed *PlacedOrder
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		customerName, err := s.resolveCustomerName(tx, req)
		if err != nil {
			return err
		}

		lines := make([]models.OrderItem, 0, len(req.Items))
		total := decimal.Zero
		for _, line := range req.Items {
			qty, err := ParseQuantity(line.Quantity)
			if err != nil {
				return err
			}

			var item models.MenuItem
			if err := tx.First(&item, line.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return withDetail(ErrItemNotFound, fmt.Sprintf("id %d", line.MenuItemID))
				}
				return persistence("load menu item", err)
			}
			if !item.IsAvailable {
				return withDetail(ErrItemUnavailable, item.Name)
			}

			subtotal := item.Price.Mul(decimal.NewFromInt(int64(qty)))
			total = total.Add(subtotal)
			lines = append(lines, models.OrderItem{
				MenuItemID:      item.ID,
				Quantity:        qty,
				UnitPrice:       item.Price,
				Subtotal:        subtotal,
				SpecialRequests: line.SpecialRequests,
			})
		}

		now := s.now()
		order := models.Order{
			UserID:          req.OwnerID,
			CustomerName:    customerName,
			TotalAmount:     total,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusUnpaid,
			PaymentMethod:   req.PaymentMethod,
			DeliveryAddress: req.DeliveryAddress,
			Notes:           req.Notes,
			OrderTime:       now,
			UpdatedAt:       now,
		}
		if err := database.CreateIn(tx, &order); err != nil {
			return persistence("insert order", err)
		}

		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := database.CreateIn(tx, &lines); err != nil {
			return persistence("insert order items", err)
		}

		placed = &PlacedOrder{OrderID: order.ID, TotalAmount: total}
		return nil
	})
	if err != nil {
		s.reject(err)
		return nil, persistence("place order", err)
	}

	metrics.OrdersPlacedTotal.Inc()
	fields := logrus.Fields{
		"order_id": placed.OrderID,
		"total":    placed.TotalAmount.StringFixed(2),
	}
	if req.OwnerID != nil {
		fields["user_id"] = *req.OwnerID
	}
	s.log.WithFields(fields).Info("order placed")
	return placed, nil
}

func (s *OrderService) resolveCustomerName(tx *gorm.DB, req PlaceOrderRequest) (string, error) {
	if req.OwnerID != nil {
		var owner models.User
		if err := tx.First(&owner, *req.OwnerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", ErrUserNotFound
			}
			return "", persistence("load order owner", err)
		}
		return owner.DisplayName(), nil
	}
	if name := strings.TrimSpace(req.GuestName); name != "" {
		return name, nil
	}
	return DefaultGuestName, nil
}

func (s *OrderService) reject(err error) {
	reason := CodeOf(err)
	if reason == "" {
		reason = "unknown"
	}
	metrics.OrderRejectionsTotal.WithLabelValues(reason).Inc()
}

// PayOrder marks an order paid. Only the owner may pay. Paying an already paid
// order succeeds without writing; applied reports whether this call flipped it.
func (s *OrderService) PayOrder(ctx context.Context, orderID uint, actor Principal) (applied bool, err error) {
	err = s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id", "user_id", "payment_status").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return persistence("load order", err)
		}
		if order.UserID == nil || *order.UserID != actor.ID {
			return ErrForbidden
		}
		if order.PaymentStatus == models.PaymentStatusPaid {
			return nil
		}

		// The status predicate makes the flip a compare-and-set: of two
		// concurrent payers exactly one sees a changed row.
		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusUnpaid).
			Updates(map[string]interface{}{
				"payment_status": models.PaymentStatusPaid,
				"updated_at":     s.now(),
			})
		if res.Error != nil {
			return persistence("update payment status", res.Error)
		}
		applied = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, persistence("pay order", err)
	}

	result := "already_paid"
	if applied {
		result = "applied"
	}
	metrics.OrderPaymentsTotal.WithLabelValues(result).Inc()
	s.log.WithFields(logrus.Fields{"order_id": orderID, "user_id": actor.ID, "result": result}).Info("order payment")
	return applied, nil
}

// UpdateOrderStatus moves an order to newStatus and appends one history row in
// the same transaction. Setting the current status again writes nothing.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint, newStatus string, actor Principal) (changed bool, err error) {
	if !actor.CanManageOrders() {
		return false, ErrForbidden
	}
	next, ok := models.ParseOrderStatus(newStatus)
	if !ok {
		return false, withDetail(ErrInvalidStatus, fmt.Sprintf("%q", newStatus))
	}

	var previous models.OrderStatus
	err = s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id", "status").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return persistence("load order", err)
		}
		previous = order.Status
		if previous == next {
			return nil
		}

		now := s.now()
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, previous).
			Updates(map[string]interface{}{"status": next, "updated_at": now})
		if res.Error != nil {
			return persistence("update order status", res.Error)
		}
		if res.RowsAffected != 1 {
			return ErrConcurrentUpdate
		}

		actorID := actor.ID
		entry := models.OrderStatusHistory{
			OrderID:         orderID,
			PreviousStatus:  previous,
			NewStatus:       next,
			ChangedByUserID: &actorID,
			Notes:           fmt.Sprintf("%s (ID: %d) changed status from '%s' to '%s'.", actor.Role, actor.ID, previous, next),
			ChangedAt:       now,
		}
		if err := database.CreateIn(tx, &entry); err != nil {
			return persistence("insert status history", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, persistence("update order status", err)
	}

	if changed {
		metrics.OrderStatusTransitionsTotal.WithLabelValues(string(previous), string(next)).Inc()
		s.log.WithFields(logrus.Fields{
			"order_id": orderID,
			"from":     previous,
			"to":       next,
			"actor_id": actor.ID,
		}).Info("order status changed")
	}
	return changed, nil
}

// GetOrderDetails assembles the order, its owner and its lines from one
// consistent snapshot.
func (s *OrderService) GetOrderDetails(ctx context.Context, orderID uint) (*models.OrderDetail, error) {
	var detail models.OrderDetail
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&detail.Order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return persistence("load order", err)
		}

		if detail.UserID != nil {
			var owner models.User
			err := tx.Select("id", "username", "full_name", "email", "phone").First(&owner, *detail.UserID).Error
			switch {
			case err == nil:
				detail.Owner = &models.OrderOwner{
					Username: owner.Username,
					FullName: owner.FullName,
					Email:    owner.Email,
					Phone:    owner.Phone,
				}
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return persistence("load order owner", err)
			}
		}

		detail.LineItems = []models.OrderItemDetail{}
		err := tx.Table("order_items AS oi").
			Select("oi.id, oi.menu_item_id, mi.name AS item_name, mi.image_url AS item_image_url, " +
				"oi.quantity, oi.unit_price, oi.subtotal, oi.special_requests").
			Joins("JOIN menu_items mi ON mi.id = oi.menu_item_id").
			Where("oi.order_id = ?", orderID).
			Order("oi.id ASC").
			Scan(&detail.LineItems).Error
		if err != nil {
			return persistence("load order items", err)
		}
		return nil
	})
	if err != nil {
		return nil, persistence("get order details", err)
	}
	return &detail, nil
}

// StatusHistory returns the audit trail of an order, oldest first.
func (s *OrderService) StatusHistory(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	db := s.gw.DB(ctx)

	var exists int64
	if err := db.Model(&models.Order{}).Where("id = ?", orderID).Count(&exists).Error; err != nil {
		return nil, persistence("load order", err)
	}
	if exists == 0 {
		return nil, ErrOrderNotFound
	}

	history := []models.OrderStatusHistory{}
	err := db.Where("order_id = ?", orderID).Order("changed_at ASC, id ASC").Find(&history).Error
	if err != nil {
		return nil, persistence("load status history", err)
	}
	return history, nil
}
