package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/controllers"
	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/database/databasetest"
	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/services"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	db       *gorm.DB
	orders   *services.OrderService
	catalog  *services.CatalogService
	identity *services.IdentityService

	customer models.User
	other    models.User
	admin    models.User

	category models.Category
	item     models.MenuItem
	hidden   models.MenuItem
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, controllers.RegisterValidators())

	db := databasetest.Open(t)
	gw := database.NewGateway(db)
	env := &testEnv{
		db:       db,
		orders:   services.NewOrderService(gw, nil),
		catalog:  services.NewCatalogService(gw, nil),
		identity: services.NewIdentityService(gw, nil),
	}

	ctx := context.Background()
	var err error
	var u *models.User
	u, err = env.identity.Register(ctx, services.RegisterInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	env.customer = *u
	u, err = env.identity.Register(ctx, services.RegisterInput{Username: "bob", Password: "secret1"})
	require.NoError(t, err)
	env.other = *u
	u, err = env.identity.BootstrapAdmin(ctx, services.RegisterInput{Username: "root", Password: "secret1"})
	require.NoError(t, err)
	env.admin = *u

	cat, err := env.catalog.CreateCategory(ctx, services.CategoryInput{Name: "Mains"})
	require.NoError(t, err)
	env.category = *cat
	item, err := env.catalog.CreateMenuItem(ctx, services.MenuItemInput{
		Name: "Noodles", Price: decimal.RequireFromString("8.00"), CategoryID: cat.ID,
	})
	require.NoError(t, err)
	env.item = *item
	off := false
	hidden, err := env.catalog.CreateMenuItem(ctx, services.MenuItemInput{
		Name: "Winter Stew", Price: decimal.RequireFromString("11.00"), CategoryID: cat.ID, IsAvailable: &off,
	})
	require.NoError(t, err)
	env.hidden = *hidden
	return env
}

// as authenticates the request as u without a token.
func as(u models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		middlewares.SetPrincipal(c, services.Principal{ID: u.ID, Role: u.Role})
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v), string(env.Data))
}

func placeOrder(t *testing.T, env *testEnv, owner *models.User) uint {
	t.Helper()
	req := services.PlaceOrderRequest{Items: []services.LineItemRequest{{MenuItemID: env.item.ID, Quantity: "2"}}}
	if owner != nil {
		req.OwnerID = &owner.ID
	}
	placed, err := env.orders.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	return placed.OrderID
}

