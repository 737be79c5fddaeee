package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

type orderLineRequest struct {
	MenuItemID      uint        `json:"menu_item_id" binding:"required"`
	Quantity        json.Number `json:"quantity" binding:"required"`
	SpecialRequests *string     `json:"special_requests" binding:"omitempty,max=500"`
}

type placeOrderRequest struct {
	Items           []orderLineRequest `json:"items" binding:"dive"`
	CustomerName    string             `json:"customer_name" binding:"max=255"`
	PaymentMethod   *string            `json:"payment_method" binding:"omitempty,max=50"`
	DeliveryAddress *string            `json:"delivery_address"`
	Notes           *string            `json:"notes"`
}

// CreateOrder places an order for the caller, or for a guest when no token
// was sent.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body placeOrderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}

	req := services.PlaceOrderRequest{
		GuestName:       body.CustomerName,
		PaymentMethod:   body.PaymentMethod,
		DeliveryAddress: body.DeliveryAddress,
		Notes:           body.Notes,
	}
	if p, ok := middlewares.CurrentPrincipal(c); ok {
		req.OwnerID = &p.ID
	}
	for _, line := range body.Items {
		req.Items = append(req.Items, services.LineItemRequest{
			MenuItemID:      line.MenuItemID,
			Quantity:        line.Quantity,
			SpecialRequests: line.SpecialRequests,
		})
	}

	placed, err := oc.Orders.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", placed)
}

// GetMyOrders lists the caller's orders, newest first.
func (oc *OrderController) GetMyOrders(c *gin.Context) {
	p, ok := middlewares.CurrentPrincipal(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	page, err := oc.Orders.ListOrdersForUser(c.Request.Context(), p.ID, q.Page, q.PageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", page)
}

// GetOrderByID returns the full order to its owner or an administrator.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, _ := middlewares.CurrentPrincipal(c)

	detail, err := oc.Orders.GetOrderDetails(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := services.AuthorizeOrderView(p, &detail.Order); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", detail)
}

// PayOrder marks the caller's order as paid. Repeating it is harmless.
func (oc *OrderController) PayOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, _ := middlewares.CurrentPrincipal(c)

	applied, err := oc.Orders.PayOrder(c.Request.Context(), id, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	msg := "Order paid"
	if !applied {
		msg = "Order already paid"
	}
	utils.RespondJSON(c, http.StatusOK, msg, gin.H{"order_id": id, "payment_status": "paid"})
}
