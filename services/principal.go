package services

import "github.com/yeremiapane/restaurant-ordering/models"

// Principal is the authenticated caller as resolved by the request layer.
type Principal struct {
	ID   uint
	Role models.Role
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

// CanManageOrders reports whether p may drive fulfillment status.
func (p Principal) CanManageOrders() bool {
	return p.Role == models.RoleAdmin || p.Role == models.RoleStaff
}

// AuthorizeOrderView allows the owner or an administrator to read an order.
func AuthorizeOrderView(p Principal, order *models.Order) error {
	if p.IsAdmin() {
		return nil
	}
	if order.UserID != nil && *order.UserID == p.ID {
		return nil
	}
	return ErrForbidden
}
