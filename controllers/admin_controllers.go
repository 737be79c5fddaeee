package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// AdminController serves the back-office order views.
type AdminController struct {
	Orders *services.OrderService
}

func NewAdminController(orders *services.OrderService) *AdminController {
	return &AdminController{Orders: orders}
}

type adminOrderQuery struct {
	pageQuery
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
	UserID        *uint  `form:"user_id"`
	SortBy        string `form:"sort_by"`
	SortOrder     string `form:"sort_order"`
}

func (ac *AdminController) ListOrders(c *gin.Context) {
	var q adminOrderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	page, err := ac.Orders.ListOrdersForAdmin(c.Request.Context(), services.AdminOrderFilter{
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
		UserID:        q.UserID,
		SortBy:        q.SortBy,
		SortOrder:     q.SortOrder,
	}, q.Page, q.PageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", page)
}

// UpdateOrderStatus is open to staff and administrators.
func (ac *AdminController) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status" binding:"required,order_status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}

	p, _ := middlewares.CurrentPrincipal(c)
	changed, err := ac.Orders.UpdateOrderStatus(c.Request.Context(), id, body.Status, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	msg := "Order status updated"
	if !changed {
		msg = "Order status unchanged"
	}
	utils.RespondJSON(c, http.StatusOK, msg, gin.H{"order_id": id, "status": body.Status, "changed": changed})
}

func (ac *AdminController) OrderHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	history, err := ac.Orders.StatusHistory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status history", history)
}
