package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type MenuController struct {
	Catalog *services.CatalogService
}

func NewMenuController(catalog *services.CatalogService) *MenuController {
	return &MenuController{Catalog: catalog}
}

type menuQuery struct {
	CategoryID         uint `form:"category_id"`
	IncludeUnavailable bool `form:"include_unavailable"`
}

type menuItemRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  uint            `json:"category_id" binding:"required"`
	ImageURL    *string         `json:"image_url" binding:"omitempty,max=255"`
	IsAvailable *bool           `json:"is_available"`
}

func (r menuItemRequest) input() services.MenuItemInput {
	return services.MenuItemInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		CategoryID:  r.CategoryID,
		ImageURL:    r.ImageURL,
		IsAvailable: r.IsAvailable,
	}
}

// GetAllMenus serves the public menu: available items only.
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	mc.listMenu(c, false)
}

// GetAllMenusAdmin may include unavailable items.
func (mc *MenuController) GetAllMenusAdmin(c *gin.Context) {
	mc.listMenu(c, true)
}

func (mc *MenuController) listMenu(c *gin.Context, admin bool) {
	var q menuQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	includeUnavailable := admin && q.IncludeUnavailable

	var (
		menus []models.MenuEntry
		err   error
	)
	if q.CategoryID != 0 {
		menus, err = mc.Catalog.ListMenuItemsByCategory(c.Request.Context(), q.CategoryID, includeUnavailable)
	} else {
		menus, err = mc.Catalog.ListMenuItems(c.Request.Context(), includeUnavailable)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

// GetMenuByID
func (mc *MenuController) GetMenuByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	menu, err := mc.Catalog.GetMenuItem(c.Request.Context(), id, false)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", menu)
}

// CreateMenu
func (mc *MenuController) CreateMenu(c *gin.Context) {
	var body menuItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := mc.Catalog.CreateMenuItem(c.Request.Context(), body.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu created", item)
}

// UpdateMenu also restores a soft-deleted item when is_available is true.
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body menuItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := mc.Catalog.UpdateMenuItem(c.Request.Context(), id, body.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", item)
}

// DeleteMenu hides the item from the menu; order history keeps referencing it.
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := mc.Catalog.DeleteMenuItem(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", nil)
}
