package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sksmith/go-commerce/api"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/testutil"
)

func TestProductList(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		query          string
		products       []inventory.Product
		serviceErr     error
		wantLimit      int
		wantOffset     int
		wantCount      int
		wantStatusCode int
	}{
		{
			name:           "defaults",
			products:       getTestProducts(),
			wantLimit:      50,
			wantOffset:     0,
			wantCount:      3,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "explicit page",
			query:          "?limit=5&offset=7",
			products:       getTestProducts(),
			wantLimit:      5,
			wantOffset:     7,
			wantCount:      3,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "garbage page falls back to defaults",
			query:          "?limit=abc&offset=-4",
			products:       []inventory.Product{},
			wantLimit:      50,
			wantOffset:     0,
			wantCount:      0,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "service error",
			serviceErr:     errors.New("something bad happened"),
			wantLimit:      50,
			wantOffset:     0,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			gotLimit, gotOffset := -1, -1
			m.inv.GetAllProductsFunc = func(ctx context.Context, filter inventory.ProductFilter, limit, offset int) ([]inventory.Product, error) {
				gotLimit, gotOffset = limit, offset
				return test.products, test.serviceErr
			}

			res := testutil.Get(ts.URL+api.ApiPath+api.ProductsPath+test.query, t, userAuth)

			if res.StatusCode != test.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if test.serviceErr == nil {
				got := []inventory.Product{}
				testutil.Unmarshal(res, &got, t)
				if len(got) != test.wantCount {
					t.Errorf("product count got=%d want=%d", len(got), test.wantCount)
				}
			} else {
				verifyErr(res, api.ErrInternalServer, t)
			}
			if gotLimit != test.wantLimit {
				t.Errorf("limit got=%d want=%d", gotLimit, test.wantLimit)
			}
			if gotOffset != test.wantOffset {
				t.Errorf("offset got=%d want=%d", gotOffset, test.wantOffset)
			}
		})
	}
}

func TestProductListFilters(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		query          string
		wantFilter     inventory.ProductFilter
		wantErr        bool
		wantStatusCode int
	}{
		{
			name:           "no filter",
			wantStatusCode: http.StatusOK,
		},
		{
			name:  "every filter",
			query: "?q=wid&category=tools&minPrice=1.50&maxPrice=10&inStock=true&sort=price&order=desc",
			wantFilter: inventory.ProductFilter{
				Search:      "wid",
				Category:    "tools",
				MinPrice:    decimal.NewNullDecimal(decimal.RequireFromString("1.50")),
				MaxPrice:    decimal.NewNullDecimal(decimal.NewFromInt(10)),
				InStockOnly: true,
				Sort:        inventory.SortByPrice,
				Descending:  true,
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "sort by id",
			query:          "?sort=id&order=asc",
			wantStatusCode: http.StatusOK,
		},
		{name: "unknown sort", query: "?sort=color", wantErr: true, wantStatusCode: http.StatusBadRequest},
		{name: "unknown order", query: "?order=sideways", wantErr: true, wantStatusCode: http.StatusBadRequest},
		{name: "bad price", query: "?minPrice=cheap", wantErr: true, wantStatusCode: http.StatusBadRequest},
		{name: "bad in stock flag", query: "?inStock=maybe", wantErr: true, wantStatusCode: http.StatusBadRequest},
		{name: "inverted price range", query: "?minPrice=5&maxPrice=1", wantErr: true, wantStatusCode: http.StatusBadRequest},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			called := false
			var got inventory.ProductFilter
			m.inv.GetAllProductsFunc = func(ctx context.Context, filter inventory.ProductFilter, limit, offset int) ([]inventory.Product, error) {
				called = true
				got = filter
				return getTestProducts(), nil
			}

			res := testutil.Get(ts.URL+api.ApiPath+api.ProductsPath+test.query, t, userAuth)
			if res.StatusCode != test.wantStatusCode {
				t.Fatalf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if called == test.wantErr {
				t.Fatalf("unexpected service call got=%v want=%v", called, !test.wantErr)
			}
			if test.wantErr {
				return
			}

			want := test.wantFilter
			if got.Search != want.Search || got.Category != want.Category || got.InStockOnly != want.InStockOnly ||
				got.Sort != want.Sort || got.Descending != want.Descending {
				t.Errorf("unexpected filter got=%+v want=%+v", got, want)
			}
			if got.MinPrice.Valid != want.MinPrice.Valid || !got.MinPrice.Decimal.Equal(want.MinPrice.Decimal) {
				t.Errorf("unexpected min price got=%v want=%v", got.MinPrice, want.MinPrice)
			}
			if got.MaxPrice.Valid != want.MaxPrice.Valid || !got.MaxPrice.Decimal.Equal(want.MaxPrice.Decimal) {
				t.Errorf("unexpected max price got=%v want=%v", got.MaxPrice, want.MaxPrice)
			}
		})
	}
}

func TestProductCreate(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		auth           testutil.RequestOptions
		request        interface{}
		serviceErr     error
		wantErr        *api.ErrResponse
		wantStatusCode int
		wantCalls      int
	}{
		{
			name:           "admin creates product",
			auth:           adminAuth,
			request:        createProductRequest("name1", "sku1", "9.99"),
			wantStatusCode: http.StatusCreated,
			wantCalls:      1,
		},
		{
			name:           "non-admin is rejected",
			auth:           userAuth,
			request:        createProductRequest("name1", "sku1", "9.99"),
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "missing sku",
			auth:           adminAuth,
			request:        createProductRequest("name1", "", "9.99"),
			wantErr:        &api.ErrResponse{StatusText: "Invalid request.", ErrorText: "sku is required"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing name",
			auth:           adminAuth,
			request:        createProductRequest("", "sku1", "9.99"),
			wantErr:        &api.ErrResponse{StatusText: "Invalid request.", ErrorText: "name is required"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "negative price",
			auth:           adminAuth,
			request:        createProductRequest("name1", "sku1", "-1"),
			wantErr:        &api.ErrResponse{StatusText: "Invalid request.", ErrorText: "price must not be negative"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "service error",
			auth:           adminAuth,
			request:        createProductRequest("name1", "sku1", "9.99"),
			serviceErr:     errors.New("some unexpected error"),
			wantErr:        api.ErrInternalServer,
			wantStatusCode: http.StatusInternalServerError,
			wantCalls:      1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m.inv.CallWatcher = testutil.NewCallWatcher()
			m.inv.CreateProductFunc = func(ctx context.Context, product inventory.Product, settings inventory.StockSettings) (inventory.Product, error) {
				product.ID = 12
				return product, test.serviceErr
			}

			res := testutil.Put(ts.URL+api.ApiPath+api.ProductsPath, test.request, t, test.auth)

			if res.StatusCode != test.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if test.wantErr != nil {
				verifyErr(res, test.wantErr, t)
			} else if test.wantStatusCode == http.StatusCreated {
				got := inventory.Product{}
				testutil.Unmarshal(res, &got, t)
				if got.ID != 12 {
					t.Errorf("product id got=%d want=12", got.ID)
				}
			}
			m.inv.VerifyCount("CreateProduct", test.wantCalls, t)
		})
	}
}

func TestProductRestock(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		getProductErr  error
		restockErr     error
		request        interface{}
		wantErr        *api.ErrResponse
		wantStatusCode int
	}{
		{
			name:           "restock succeeds",
			request:        restockRequest("req1", 10),
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "unknown product",
			getProductErr:  core.ErrNotFound,
			request:        restockRequest("req1", 10),
			wantErr:        api.ErrNotFound,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "missing request id",
			request:        restockRequest("", 10),
			wantErr:        &api.ErrResponse{StatusText: "Invalid request.", ErrorText: "requestId is required"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "zero quantity",
			request:        restockRequest("req1", 0),
			wantErr:        &api.ErrResponse{StatusText: "Invalid request.", ErrorText: "quantity must be greater than zero"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "service error",
			request:        restockRequest("req1", 10),
			restockErr:     errors.New("some unexpected error"),
			wantErr:        api.ErrInternalServer,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m.inv.GetProductFunc = func(ctx context.Context, id uint64) (inventory.Product, error) {
				return inventory.Product{ID: id, Sku: "sku1", Name: "name1"}, test.getProductErr
			}
			m.inv.RestockFunc = func(ctx context.Context, productID uint64, rr inventory.RestockRequest) error {
				return test.restockErr
			}
			m.inv.GetInventoryFunc = func(ctx context.Context, productID uint64) (inventory.InventoryRecord, error) {
				return inventory.InventoryRecord{ProductID: productID, Available: 10, ReorderLevel: 20}, nil
			}

			res := testutil.Put(ts.URL+api.ApiPath+api.ProductsPath+"/3/restock", test.request, t, adminAuth)

			if res.StatusCode != test.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if test.wantErr != nil {
				verifyErr(res, test.wantErr, t)
				return
			}

			got := api.InventoryResponse{}
			testutil.Unmarshal(res, &got, t)
			if got.ProductID != 3 {
				t.Errorf("product id got=%d want=3", got.ProductID)
			}
			if !got.LowStock {
				t.Errorf("expected low stock flag")
			}
		})
	}
}

func TestProductRestockRequiresAdmin(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	res := testutil.Put(ts.URL+api.ApiPath+api.ProductsPath+"/3/restock", restockRequest("req1", 10), t, userAuth)

	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("status code got=%d want=%d", res.StatusCode, http.StatusUnauthorized)
	}
	m.inv.VerifyCount("Restock", 0, t)
}

func TestProductGet(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		path           string
		getProductErr  error
		wantStatusCode int
	}{
		{name: "found", path: "/1", wantStatusCode: http.StatusOK},
		{name: "not found", path: "/1", getProductErr: core.ErrNotFound, wantStatusCode: http.StatusNotFound},
		{name: "unexpected error", path: "/1", getProductErr: errors.New("boom"), wantStatusCode: http.StatusInternalServerError},
		{name: "bad id", path: "/abc", wantStatusCode: http.StatusBadRequest},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m.inv.GetProductFunc = func(ctx context.Context, id uint64) (inventory.Product, error) {
				return inventory.Product{ID: id, Sku: "sku1"}, test.getProductErr
			}

			res := testutil.Get(ts.URL+api.ApiPath+api.ProductsPath+test.path, t, userAuth)
			if res.StatusCode != test.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
		})
	}
}

func TestProductMovements(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	var gotProductID uint64
	m.inv.GetMovementsFunc = func(ctx context.Context, productID uint64, limit, offset int) ([]inventory.Movement, error) {
		gotProductID = productID
		return []inventory.Movement{
			{ID: 1, ProductID: productID, Kind: inventory.MovementReserve, Quantity: 2},
			{ID: 2, ProductID: productID, Kind: inventory.MovementRelease, Quantity: 2},
		}, nil
	}

	res := testutil.Get(ts.URL+api.ApiPath+api.ProductsPath+"/9/movements", t, userAuth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	got := []inventory.Movement{}
	testutil.Unmarshal(res, &got, t)
	if len(got) != 2 {
		t.Errorf("movement count got=%d want=2", len(got))
	}
	if gotProductID != 9 {
		t.Errorf("product id got=%d want=9", gotProductID)
	}
}

func getTestProducts() []inventory.Product {
	products := make([]inventory.Product, 0, 3)
	for i := 1; i <= 3; i++ {
		products = append(products, inventory.Product{
			ID:    uint64(i),
			Sku:   fmt.Sprintf("testsku%d", i),
			Name:  fmt.Sprintf("testname%d", i),
			Price: decimal.NewFromInt(int64(i)),
		})
	}
	return products
}

func createProductRequest(name, sku, price string) map[string]interface{} {
	return map[string]interface{}{
		"name":     name,
		"sku":      sku,
		"price":    price,
		"settings": map[string]interface{}{"reorderLevel": 5, "reorderQuantity": 20},
	}
}

func restockRequest(requestID string, qty int64) map[string]interface{} {
	return map[string]interface{}{
		"requestId": requestID,
		"quantity":  qty,
		"unitCost":  "1.50",
	}
}
