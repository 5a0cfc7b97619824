package api_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sksmith/go-commerce/api"
	"github.com/sksmith/go-commerce/config"
	"github.com/sksmith/go-commerce/core/cart"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/core/order"
	"github.com/sksmith/go-commerce/core/user"
	"github.com/sksmith/go-commerce/testutil"
)

var (
	adminAuth = testutil.RequestOptions{Username: "admin", Password: "adminpass"}
	userAuth  = testutil.RequestOptions{Username: "someuser", Password: "somepass"}
	otherAuth = testutil.RequestOptions{Username: "otheruser", Password: "otherpass"}
)

type mocks struct {
	inv    *inventory.MockInventoryService
	carts  *cart.MockCartService
	orders *order.MockOrderService
	users  *user.MockUserService
}

func setupTestServer() (*httptest.Server, mocks) {
	testutil.ConfigLogging()

	m := mocks{
		inv:    inventory.NewMockInventoryService(),
		carts:  cart.NewMockCartService(),
		orders: order.NewMockOrderService(),
		users:  user.NewMockUserService(),
	}
	m.users.LoginFunc = func(ctx context.Context, username, password string) (user.User, error) {
		switch username {
		case "admin":
			return user.User{Username: username, IsAdmin: true, IsActive: true}, nil
		case "someuser", "otheruser":
			return user.User{Username: username, IsActive: true}, nil
		}
		return user.User{}, user.ErrInvalidCredentials
	}

	r := api.ConfigureRouter(config.LoadDefaults(), api.Services{
		Inventory: m.inv,
		Carts:     m.carts,
		Orders:    m.orders,
		Users:     m.users,
	})
	return httptest.NewServer(r), m
}

func TestCorsConfig(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://evilorigin.com", want: ""},
		{origin: "http://evilorigin.com", want: ""},
		{origin: "http://localhost:8080", want: "http://localhost:8080"},
		{origin: "http://localhost:3000", want: "http://localhost:3000"},
		{origin: "https://localhost:8080", want: "https://localhost:8080"},
	}

	ts, _ := setupTestServer()
	defer ts.Close()

	url := ts.URL + api.ApiPath + api.ProductsPath

	for _, test := range tests {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Add("Origin", test.origin)

		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}

		got := res.Header.Get("Access-Control-Allow-Origin")
		if got != test.want {
			t.Errorf("failed cors test origin=[%v] got=[%v] want=[%v]", test.origin, got, test.want)
		}
	}
}

func TestHealth(t *testing.T) {
	ts, _ := setupTestServer()
	defer ts.Close()

	res, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(res.Body)

	if res.StatusCode != http.StatusOK {
		t.Errorf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}
	if string(body) != "UP" {
		t.Errorf("body got=%s want=UP", string(body))
	}
}

func TestAuthentication(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		options        []testutil.RequestOptions
		loginErr       error
		wantStatusCode int
	}{
		{
			name:           "valid credentials",
			options:        []testutil.RequestOptions{userAuth},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing credentials",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "unknown user",
			options:        []testutil.RequestOptions{{Username: "nobody", Password: "x"}},
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res := testutil.Get(ts.URL+api.ApiPath+api.ProductsPath, t, test.options...)
			if res.StatusCode != test.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
		})
	}

	m.users.VerifyCount("Login", 2, t)
}

func TestGetEnvironment(t *testing.T) {
	ts, _ := setupTestServer()
	defer ts.Close()

	res, err := http.Get(ts.URL + "/env")
	if err != nil {
		t.Fatal(err)
	}

	got := &config.Config{}
	testutil.Unmarshal(res, got, t)

	if got.AppName.Value != config.AppName {
		t.Errorf("unexpected app name got=[%v] want=[%v]", got.AppName.Value, config.AppName)
	}
	if got.Db.Pass.Value == "postgres" {
		t.Errorf("db password was not scrubbed")
	}
}

func verifyErr(res *http.Response, want *api.ErrResponse, t *testing.T) {
	t.Helper()
	got := &api.ErrResponse{}
	testutil.Unmarshal(res, got, t)

	if got.StatusText != want.StatusText {
		t.Errorf("status text got=%s want=%s", got.StatusText, want.StatusText)
	}
	if want.ErrorText != "" && got.ErrorText != want.ErrorText {
		t.Errorf("error text got=%s want=%s", got.ErrorText, want.ErrorText)
	}
}
