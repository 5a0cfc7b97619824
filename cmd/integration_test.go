package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sksmith/go-commerce/api"
	"github.com/sksmith/go-commerce/config"
	"github.com/sksmith/go-commerce/core/cart"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/core/order"
	"github.com/sksmith/go-commerce/queue"
	"github.com/sksmith/go-commerce/testutil"
)

var (
	admin   = testutil.RequestOptions{Username: "admin", Password: "adminpassword"}
	shopper = testutil.RequestOptions{Username: "shopper", Password: "shopperpassword"}
)

func setupApp(t *testing.T) (*httptest.Server, *queue.MockQueue) {
	testutil.ConfigLogging()

	cfg := config.LoadDefaults()
	cfg.Db.InMemory.Value = true
	cfg.Admin.User.Value = admin.Username
	cfg.Admin.Pass.Value = admin.Password

	ctx := context.Background()
	repos, _, err := configRepositories(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	q := queue.NewMockQueue()
	a := newApp(ctx, cfg, repos, q)

	return httptest.NewServer(a.router), q
}

func url(ts *httptest.Server, path string, args ...interface{}) string {
	return ts.URL + api.ApiPath + fmt.Sprintf(path, args...)
}

func expectStatus(res *http.Response, want int, t *testing.T) {
	t.Helper()
	if res.StatusCode != want {
		t.Fatalf("unexpected status got=%d want=%d", res.StatusCode, want)
	}
}

func getInventory(ts *httptest.Server, productID uint64, t *testing.T) inventory.InventoryRecord {
	t.Helper()
	res := testutil.Get(url(ts, "/products/%d/inventory", productID), t, shopper)
	expectStatus(res, http.StatusOK, t)
	rec := inventory.InventoryRecord{}
	testutil.Unmarshal(res, &rec, t)
	return rec
}

func expectCounts(rec inventory.InventoryRecord, available, reserved int64, t *testing.T) {
	t.Helper()
	if rec.Available != available || rec.Reserved != reserved {
		t.Errorf("unexpected counts got={%d,%d} want={%d,%d}", rec.Available, rec.Reserved, available, reserved)
	}
}

func TestShoppingFlow(t *testing.T) {
	ts, q := setupApp(t)
	defer ts.Close()

	res := testutil.Post(url(ts, "/users"), map[string]interface{}{
		"username": shopper.Username,
		"email":    "shopper@example.com",
		"password": shopper.Password,
	}, t, admin)
	expectStatus(res, http.StatusCreated, t)

	res = testutil.Put(url(ts, "/products"), map[string]interface{}{
		"sku":      "widget-1",
		"name":     "Widget",
		"price":    "2.50",
		"settings": map[string]interface{}{"reorderLevel": 3, "reorderQuantity": 10},
	}, t, admin)
	expectStatus(res, http.StatusCreated, t)
	product := inventory.Product{}
	testutil.Unmarshal(res, &product, t)

	res = testutil.Put(url(ts, "/products/%d/restock", product.ID), map[string]interface{}{
		"requestId": "restock-1",
		"quantity":  10,
		"unitCost":  "1.00",
	}, t, admin)
	expectStatus(res, http.StatusCreated, t)
	expectCounts(getInventory(ts, product.ID, t), 10, 0, t)

	res = testutil.Post(url(ts, "/carts"), nil, t, shopper)
	expectStatus(res, http.StatusCreated, t)
	c := cart.Cart{}
	testutil.Unmarshal(res, &c, t)

	res = testutil.Post(url(ts, "/carts/%d/items", c.ID), map[string]interface{}{"productId": product.ID, "quantity": 4}, t, shopper)
	expectStatus(res, http.StatusCreated, t)
	expectCounts(getInventory(ts, product.ID, t), 6, 4, t)

	res = testutil.Post(url(ts, "/carts/%d/items", c.ID), map[string]interface{}{"productId": product.ID, "quantity": 7}, t, shopper)
	expectStatus(res, http.StatusConflict, t)
	errRes := api.ErrResponse{}
	testutil.Unmarshal(res, &errRes, t)
	if len(errRes.Shortfalls) != 1 || errRes.Shortfalls[0].Held != 6 {
		t.Errorf("unexpected shortfalls %+v", errRes.Shortfalls)
	}
	expectCounts(getInventory(ts, product.ID, t), 6, 4, t)

	res = testutil.Put(url(ts, "/carts/%d/items/%d", c.ID, product.ID), map[string]interface{}{"quantity": 2}, t, shopper)
	expectStatus(res, http.StatusOK, t)
	expectCounts(getInventory(ts, product.ID, t), 8, 2, t)

	res = testutil.Post(url(ts, "/carts/%d/checkout", c.ID), map[string]interface{}{
		"paymentMethod":   "card",
		"shippingAddress": "1 Main St",
	}, t, shopper)
	expectStatus(res, http.StatusCreated, t)
	o := order.Order{}
	testutil.Unmarshal(res, &o, t)
	if o.Status != order.Confirmed {
		t.Errorf("order status got=%s want=%s", o.Status, order.Confirmed)
	}
	if o.Total.String() != "5" {
		t.Errorf("order total got=%s want=5", o.Total.String())
	}
	expectCounts(getInventory(ts, product.ID, t), 8, 0, t)

	res = testutil.Get(url(ts, "/carts/%d", c.ID), t, shopper)
	expectStatus(res, http.StatusOK, t)
	c = cart.Cart{}
	testutil.Unmarshal(res, &c, t)
	if len(c.Items) != 0 {
		t.Errorf("cart should be empty after checkout got=%d items", len(c.Items))
	}

	res = testutil.Put(url(ts, "/orders/%d/cancel", o.ID), nil, t, shopper)
	expectStatus(res, http.StatusConflict, t)

	res = testutil.Post(url(ts, "/orders"), map[string]interface{}{
		"items":           []map[string]interface{}{{"productId": product.ID, "quantity": 6}},
		"paymentMethod":   "card",
		"shippingAddress": "1 Main St",
	}, t, shopper)
	expectStatus(res, http.StatusCreated, t)
	pending := order.Order{}
	testutil.Unmarshal(res, &pending, t)
	expectCounts(getInventory(ts, product.ID, t), 2, 6, t)

	res = testutil.Put(url(ts, "/orders/%d/cancel", pending.ID), nil, t, shopper)
	expectStatus(res, http.StatusOK, t)
	expectCounts(getInventory(ts, product.ID, t), 8, 0, t)

	res = testutil.Get(url(ts, "/products/%d/movements", product.ID), t, shopper)
	expectStatus(res, http.StatusOK, t)
	movements := []inventory.Movement{}
	testutil.Unmarshal(res, &movements, t)
	kinds := map[inventory.MovementKind]int{}
	for _, m := range movements {
		kinds[m.Kind]++
	}
	want := map[inventory.MovementKind]int{
		inventory.MovementRestock:  1,
		inventory.MovementReserve:  2,
		inventory.MovementRelease:  2,
		inventory.MovementFinalize: 1,
	}
	for kind, n := range want {
		if kinds[kind] != n {
			t.Errorf("movements of kind %s got=%d want=%d", kind, kinds[kind], n)
		}
	}

	if q.GetCallCount("PublishOrder") == 0 {
		t.Errorf("expected order events to be published")
	}
}

func TestAnonymousRequestsAreRejected(t *testing.T) {
	ts, _ := setupApp(t)
	defer ts.Close()

	res := testutil.Get(url(ts, "/products"), t)
	expectStatus(res, http.StatusUnauthorized, t)
}
