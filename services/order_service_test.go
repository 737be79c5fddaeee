package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/models"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw     json.Number
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{" 1 ", 1, false},
		{"0", 0, true},
		{"-2", 0, true},
		{"1.5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.raw), func(t *testing.T) {
			got, err := ParseQuantity(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidQuantity)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceOrder_TotalMatchesLineItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	note := "no onions"

	placed, err := f.orders.PlaceOrder(ctx, PlaceOrderRequest{
		OwnerID: &f.customer.ID,
		Items: []LineItemRequest{
			{MenuItemID: f.burger.ID, Quantity: "2", SpecialRequests: &note},
			{MenuItemID: f.soup.ID, Quantity: "3"},
		},
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("37.75").Equal(placed.TotalAmount), placed.TotalAmount.String())

	detail, err := f.orders.GetOrderDetails(ctx, placed.OrderID)
	require.NoError(t, err)
	require.Len(t, detail.LineItems, 2)

	sum := decimal.Zero
	for _, li := range detail.LineItems {
		assert.True(t, li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))).Equal(li.Subtotal))
		sum = sum.Add(li.Subtotal)
	}
	assert.True(t, sum.Equal(detail.TotalAmount))
	assert.Equal(t, "Burger", detail.LineItems[0].ItemName)
	require.NotNil(t, detail.LineItems[0].SpecialRequests)
	assert.Equal(t, note, *detail.LineItems[0].SpecialRequests)

	assert.Equal(t, models.OrderStatusPending, detail.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, detail.PaymentStatus)
	assert.Equal(t, "Alice Smith", detail.CustomerName)
	require.NotNil(t, detail.Owner)
	assert.Equal(t, "alice", detail.Owner.Username)
}

func TestPlaceOrder_CustomerName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	items := []LineItemRequest{{MenuItemID: f.soup.ID, Quantity: "1"}}

	tests := []struct {
		name string
		req  PlaceOrderRequest
		want string
	}{
		{"owner without full name", PlaceOrderRequest{OwnerID: &f.other.ID, Items: items}, "bob"},
		{"named guest", PlaceOrderRequest{GuestName: "Table 4", Items: items}, "Table 4"},
		{"anonymous guest", PlaceOrderRequest{Items: items}, DefaultGuestName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			placed, err := f.orders.PlaceOrder(ctx, tt.req)
			require.NoError(t, err)
			detail, err := f.orders.GetOrderDetails(ctx, placed.OrderID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, detail.CustomerName)
		})
	}
}

func TestPlaceOrder_RejectionsWriteNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missingUser := uint(999)

	tests := []struct {
		name string
		req  PlaceOrderRequest
		want error
	}{
		{"empty", PlaceOrderRequest{OwnerID: &f.customer.ID}, ErrEmptyOrder},
		{"zero quantity", PlaceOrderRequest{Items: []LineItemRequest{{MenuItemID: f.burger.ID, Quantity: "0"}}}, ErrInvalidQuantity},
		{"non numeric quantity", PlaceOrderRequest{Items: []LineItemRequest{{MenuItemID: f.burger.ID, Quantity: "two"}}}, ErrInvalidQuantity},
		{"unknown item", PlaceOrderRequest{Items: []LineItemRequest{
			{MenuItemID: f.burger.ID, Quantity: "1"},
			{MenuItemID: 4242, Quantity: "1"},
		}}, ErrItemNotFound},
		{"unavailable item", PlaceOrderRequest{Items: []LineItemRequest{
			{MenuItemID: f.soup.ID, Quantity: "1"},
			{MenuItemID: f.retired.ID, Quantity: "1"},
		}}, ErrItemUnavailable},
		{"unknown owner", PlaceOrderRequest{OwnerID: &missingUser, Items: []LineItemRequest{{MenuItemID: f.soup.ID, Quantity: "1"}}}, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			placed, err := f.orders.PlaceOrder(ctx, tt.req)
			assert.Nil(t, placed)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int64(0), f.count(t, &models.Order{}))
			assert.Equal(t, int64(0), f.count(t, &models.OrderItem{}))
		})
	}
}

func TestPlaceOrder_UnavailableErrorNamesItem(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items: []LineItemRequest{{MenuItemID: f.retired.ID, Quantity: "1"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Old Special")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestPlaceOrder_RollsBackWhenItemInsertFails(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("disk full")
	err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_order_items", func(tx *gorm.DB) {
		if tx.Statement.Table == "order_items" {
			_ = tx.AddError(boom)
		}
	})
	require.NoError(t, err)

	_, err = f.orders.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID: &f.customer.ID,
		Items:   []LineItemRequest{{MenuItemID: f.burger.ID, Quantity: "1"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), f.count(t, &models.Order{}))
	assert.Equal(t, int64(0), f.count(t, &models.OrderItem{}))
}

func TestPayOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.placeSimple(t, &f.customer)

	_, err := f.orders.PayOrder(ctx, id, principal(f.other))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orders.PayOrder(ctx, id, principal(f.admin))
	assert.ErrorIs(t, err, ErrForbidden, "admins are not exempt from the owner check")

	_, err = f.orders.PayOrder(ctx, 9999, principal(f.customer))
	assert.ErrorIs(t, err, ErrOrderNotFound)

	applied, err := f.orders.PayOrder(ctx, id, principal(f.customer))
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = f.orders.PayOrder(ctx, id, principal(f.customer))
	require.NoError(t, err)
	assert.False(t, applied)

	detail, err := f.orders.GetOrderDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, detail.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, detail.Status, "payment never touches fulfillment status")
}

func TestPayOrder_GuestOrderCannotBePaid(t *testing.T) {
	f := newFixture(t)
	id := f.placeSimple(t, nil)
	_, err := f.orders.PayOrder(context.Background(), id, principal(f.customer))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPayOrder_ConcurrentPayersApplyOnce(t *testing.T) {
	f := newFixture(t)
	id := f.placeSimple(t, &f.customer)

	const payers = 8
	var wg sync.WaitGroup
	results := make(chan bool, payers)
	errs := make(chan error, payers)
	for i := 0; i < payers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := f.orders.PayOrder(context.Background(), id, principal(f.customer))
			errs <- err
			results <- applied
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	appliedCount := 0
	for applied := range results {
		if applied {
			appliedCount++
		}
	}
	assert.Equal(t, 1, appliedCount)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.placeSimple(t, &f.customer)

	changed, err := f.orders.UpdateOrderStatus(ctx, id, "confirmed", principal(f.admin))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.orders.UpdateOrderStatus(ctx, id, "preparing", principal(f.staff))
	require.NoError(t, err)
	assert.True(t, changed)

	// Same status again is a silent no-op.
	changed, err = f.orders.UpdateOrderStatus(ctx, id, "preparing", principal(f.admin))
	require.NoError(t, err)
	assert.False(t, changed)

	history, err := f.orders.StatusHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.OrderStatusPending, history[0].PreviousStatus)
	assert.Equal(t, models.OrderStatusConfirmed, history[0].NewStatus)
	assert.Equal(t, f.admin.ID, *history[0].ChangedByUserID)
	assert.Contains(t, history[0].Notes, "'pending' to 'confirmed'")
	assert.Equal(t, models.OrderStatusConfirmed, history[1].PreviousStatus)
	assert.Equal(t, models.OrderStatusPreparing, history[1].NewStatus)

	detail, err := f.orders.GetOrderDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, detail.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, detail.PaymentStatus)
}

func TestUpdateOrderStatus_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.placeSimple(t, &f.customer)

	_, err := f.orders.UpdateOrderStatus(ctx, id, "shipped", principal(f.admin))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.orders.UpdateOrderStatus(ctx, id, "confirmed", principal(f.customer))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orders.UpdateOrderStatus(ctx, 9999, "confirmed", principal(f.admin))
	assert.ErrorIs(t, err, ErrOrderNotFound)

	assert.Equal(t, int64(0), f.count(t, &models.OrderStatusHistory{}))
	detail, err := f.orders.GetOrderDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, detail.Status)
}

func TestUpdateOrderStatus_HistoryFailureRollsBackStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.placeSimple(t, &f.customer)

	err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_history", func(tx *gorm.DB) {
		if tx.Statement.Table == "order_status_history" {
			_ = tx.AddError(errors.New("history unavailable"))
		}
	})
	require.NoError(t, err)

	_, err = f.orders.UpdateOrderStatus(ctx, id, "confirmed", principal(f.admin))
	assert.ErrorIs(t, err, ErrPersistence)

	detail, err := f.orders.GetOrderDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, detail.Status)
	assert.Equal(t, int64(0), f.count(t, &models.OrderStatusHistory{}))
}

func TestGetOrderDetails_HistoricalOrderSurvivesCatalogChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.placeSimple(t, &f.customer)

	_, err := f.catalog.UpdateMenuItem(ctx, f.burger.ID, MenuItemInput{
		Name:       "Burger",
		Price:      decimal.RequireFromString("20.00"),
		CategoryID: f.mains.ID,
	})
	require.NoError(t, err)
	require.NoError(t, f.catalog.DeleteMenuItem(ctx, f.burger.ID))

	detail, err := f.orders.GetOrderDetails(ctx, id)
	require.NoError(t, err)
	require.Len(t, detail.LineItems, 1)
	assert.Equal(t, "Burger", detail.LineItems[0].ItemName)
	assert.True(t, decimal.RequireFromString("12.50").Equal(detail.LineItems[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("12.50").Equal(detail.TotalAmount))
}

func TestGetOrderDetails_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.GetOrderDetails(context.Background(), 77)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAuthorizeOrderView(t *testing.T) {
	owner := uint(1)
	order := &models.Order{UserID: &owner}
	assert.NoError(t, AuthorizeOrderView(Principal{ID: 1, Role: models.RoleCustomer}, order))
	assert.NoError(t, AuthorizeOrderView(Principal{ID: 9, Role: models.RoleAdmin}, order))
	assert.ErrorIs(t, AuthorizeOrderView(Principal{ID: 2, Role: models.RoleCustomer}, order), ErrForbidden)
	assert.ErrorIs(t, AuthorizeOrderView(Principal{ID: 3, Role: models.RoleStaff}, &models.Order{}), ErrForbidden)
}

func TestListOrdersForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	f.orders.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	var mine []uint
	for i := 0; i < 3; i++ {
		mine = append(mine, f.placeSimple(t, &f.customer))
	}
	f.placeSimple(t, &f.other)

	page, err := f.orders.ListOrdersForUser(ctx, f.customer.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, mine[2], page.Orders[0].ID)
	assert.Equal(t, mine[1], page.Orders[1].ID)

	page, err = f.orders.ListOrdersForUser(ctx, f.customer.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, mine[0], page.Orders[0].ID)
}

func TestListOrdersForAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.placeSimple(t, &f.customer)
	b := f.placeSimple(t, &f.other)
	c := f.placeSimple(t, nil)
	_, err := f.orders.UpdateOrderStatus(ctx, b, "confirmed", principal(f.admin))
	require.NoError(t, err)

	t.Run("clamps paging", func(t *testing.T) {
		page, err := f.orders.ListOrdersForAdmin(ctx, AdminOrderFilter{}, 0, 500)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 100, page.PageSize)
		assert.Equal(t, int64(3), page.TotalCount)
		assert.Len(t, page.Orders, 3)
	})

	t.Run("unknown sort falls back", func(t *testing.T) {
		page, err := f.orders.ListOrdersForAdmin(ctx, AdminOrderFilter{SortBy: "id; DROP TABLE orders", SortOrder: "sideways"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, "order_time", page.SortBy)
		assert.Equal(t, "desc", page.SortOrder)
		assert.Len(t, page.Orders, 3)
		assert.Equal(t, int64(3), f.count(t, &models.Order{}))
	})

	t.Run("sort by id ascending", func(t *testing.T) {
		page, err := f.orders.ListOrdersForAdmin(ctx, AdminOrderFilter{SortBy: "id", SortOrder: "ASC"}, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Orders, 3)
		assert.Equal(t, []uint{a, b, c}, []uint{page.Orders[0].ID, page.Orders[1].ID, page.Orders[2].ID})
	})

	t.Run("status filter shares count", func(t *testing.T) {
		page, err := f.orders.ListOrdersForAdmin(ctx, AdminOrderFilter{Status: "confirmed"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.TotalCount)
		require.Len(t, page.Orders, 1)
		assert.Equal(t, b, page.Orders[0].ID)
		require.NotNil(t, page.Orders[0].Username)
		assert.Equal(t, "bob", *page.Orders[0].Username)
	})

	t.Run("payment filter", func(t *testing.T) {
		_, err := f.orders.PayOrder(ctx, a, principal(f.customer))
		require.NoError(t, err)
		page, err := f.orders.ListOrdersForAdmin(ctx, AdminOrderFilter{PaymentStatus: "paid"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.TotalCount)
	})

	t.Run("invalid filters rejected", func(t *testing.T) {
		_, err := f.orders.ListOrdersForAdmin(ctx, AdminOrderFilter{Status: "lost"}, 1, 10)
		assert.ErrorIs(t, err, ErrInvalidStatus)
		_, err = f.orders.ListOrdersForAdmin(ctx, AdminOrderFilter{PaymentStatus: "refunded"}, 1, 10)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("owner filter", func(t *testing.T) {
		page, err := f.orders.ListOrdersForAdmin(ctx, AdminOrderFilter{UserID: &f.customer.ID, SortBy: "username"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.TotalCount)
		require.Len(t, page.Orders, 1)
		assert.Equal(t, a, page.Orders[0].ID)
	})
}

func TestResolveSort(t *testing.T) {
	tests := []struct {
		field, order       string
		wantField, wantDir string
	}{
		{"", "", "order_time", "desc"},
		{"total_amount", "asc", "total_amount", "asc"},
		{"USERNAME", "DESC", "username", "desc"},
		{"password_hash", "asc", "order_time", "asc"},
		{"status", "up", "status", "desc"},
	}
	for _, tt := range tests {
		gotField, gotDir := resolveSort(tt.field, tt.order)
		assert.Equal(t, tt.wantField, gotField)
		assert.Equal(t, tt.wantDir, gotDir)
	}
}

func TestPlaceOrder_LogsOwnerID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	svc := NewOrderService(f.gw, logger)
	items := []LineItemRequest{{MenuItemID: f.soup.ID, Quantity: "1"}}

	placed, err := svc.PlaceOrder(ctx, PlaceOrderRequest{OwnerID: &f.customer.ID, Items: items})
	require.NoError(t, err)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "order placed", entry.Message)
	assert.Equal(t, placed.OrderID, entry.Data["order_id"])
	assert.Equal(t, f.customer.ID, entry.Data["user_id"])

	hook.Reset()
	_, err = svc.PlaceOrder(ctx, PlaceOrderRequest{GuestName: "Walk-in", Items: items})
	require.NoError(t, err)
	entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.NotContains(t, entry.Data, "user_id")
}
