package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/database/databasetest"
	"github.com/yeremiapane/restaurant-ordering/models"
)

type fixture struct {
	db       *gorm.DB
	gw       *database.Gateway
	orders   *OrderService
	catalog  *CatalogService
	identity *IdentityService

	customer models.User
	other    models.User
	admin    models.User
	staff    models.User

	mains   models.Category
	burger  models.MenuItem
	soup    models.MenuItem
	retired models.MenuItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := databasetest.Open(t)
	gw := database.NewGateway(db)
	f := &fixture{
		db:       db,
		gw:       gw,
		orders:   NewOrderService(gw, nil),
		catalog:  NewCatalogService(gw, nil),
		identity: NewIdentityService(gw, nil),
	}

	fullName := "Alice Smith"
	f.customer = f.seedUser(t, "alice", models.RoleCustomer, &fullName)
	f.other = f.seedUser(t, "bob", models.RoleCustomer, nil)
	f.admin = f.seedUser(t, "root", models.RoleAdmin, nil)
	f.staff = f.seedUser(t, "kitchen", models.RoleStaff, nil)

	now := time.Now()
	f.mains = models.Category{Name: "Mains", DisplayOrder: 1, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(&f.mains).Error)

	f.burger = f.seedItem(t, "Burger", "12.50", true)
	f.soup = f.seedItem(t, "Soup", "4.25", true)
	f.retired = f.seedItem(t, "Old Special", "9.00", false)
	return f
}

func (f *fixture) seedUser(t *testing.T, username string, role models.Role, fullName *string) models.User {
	t.Helper()
	u := models.User{Username: username, PasswordHash: "x", Role: role, FullName: fullName, CreatedAt: time.Now()}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) seedItem(t *testing.T, name, price string, available bool) models.MenuItem {
	t.Helper()
	now := time.Now()
	it := models.MenuItem{
		Name:        name,
		Description: name + " of the day",
		Price:       decimal.RequireFromString(price),
		CategoryID:  f.mains.ID,
		IsAvailable: available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, f.db.Omit("Category").Create(&it).Error)
	return it
}

func (f *fixture) placeSimple(t *testing.T, owner *models.User) uint {
	t.Helper()
	req := PlaceOrderRequest{Items: []LineItemRequest{{MenuItemID: f.burger.ID, Quantity: "1"}}}
	if owner != nil {
		req.OwnerID = &owner.ID
	}
	placed, err := f.orders.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	return placed.OrderID
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func principal(u models.User) Principal {
	return Principal{ID: u.ID, Role: u.Role}
}
