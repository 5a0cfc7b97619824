package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sksmith/go-commerce/api"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/user"
	"github.com/sksmith/go-commerce/testutil"
)

func TestUserCreate(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		auth           testutil.RequestOptions
		createFunc     func(ctx context.Context, user user.CreateUserRequest) (user.User, error)
		request        interface{}
		wantResponse   *api.ErrResponse
		wantStatusCode int
	}{
		{
			name: "admin users can create valid user",
			auth: adminAuth,
			createFunc: func(ctx context.Context, usr user.CreateUserRequest) (user.User, error) {
				if usr.PlainTextPassword != "somepass" {
					return user.User{}, errors.New("password was not passed through")
				}
				return createUser(usr.Username, "somepasswordhash", usr.IsAdmin), nil
			},
			request:        createUserReq("newuser", "somepass", false),
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "non-admin users are unable to create users",
			auth:           userAuth,
			request:        createUserReq("newuser", "somepass", false),
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "when the creating user is not found, server returns unauthorized",
			auth:           testutil.RequestOptions{Username: "ghost", Password: "boo"},
			request:        createUserReq("newuser", "somepass", false),
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "missing password",
			auth:           adminAuth,
			request:        createUserReq("newuser", "", false),
			wantResponse:   &api.ErrResponse{StatusText: "Invalid request.", ErrorText: "missing required field(s)"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "validation errors are bad requests",
			auth: adminAuth,
			createFunc: func(ctx context.Context, usr user.CreateUserRequest) (user.User, error) {
				return user.User{}, user.ErrInvalidPassword
			},
			request:        createUserReq("newuser", "short", false),
			wantResponse:   &api.ErrResponse{StatusText: "Invalid request.", ErrorText: user.ErrInvalidPassword.Error()},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "when an error occurs creating the user, an internal server error is returned",
			auth: adminAuth,
			createFunc: func(ctx context.Context, usr user.CreateUserRequest) (user.User, error) {
				return user.User{}, errors.New("some unexpected error")
			},
			request:        createUserReq("newuser", "somepass", false),
			wantResponse:   api.ErrInternalServer,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m.users.CreateFunc = test.createFunc

			res := testutil.Post(ts.URL+api.ApiPath+api.UsersPath, test.request, t, test.auth)

			if res.StatusCode != test.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if test.wantResponse != nil {
				verifyErr(res, test.wantResponse, t)
			}
		})
	}
}

func TestUserLoginError(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	m.users.LoginFunc = func(ctx context.Context, username, password string) (user.User, error) {
		return user.User{}, errors.New("some unexpected error")
	}

	res := testutil.Get(ts.URL+api.ApiPath+api.UsersPath+"/someuser", t, userAuth)
	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("status code got=%d want=%d", res.StatusCode, http.StatusInternalServerError)
	}
}

func TestUserGet(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		auth           testutil.RequestOptions
		username       string
		getErr         error
		wantStatusCode int
	}{
		{name: "self", auth: userAuth, username: "someuser", wantStatusCode: http.StatusOK},
		{name: "admin", auth: adminAuth, username: "someuser", wantStatusCode: http.StatusOK},
		{name: "someone else", auth: otherAuth, username: "someuser", wantStatusCode: http.StatusForbidden},
		{name: "missing", auth: adminAuth, username: "ghost", getErr: core.ErrNotFound, wantStatusCode: http.StatusNotFound},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m.users.GetFunc = func(ctx context.Context, username string) (user.User, error) {
				return createUser(username, "hash", false), test.getErr
			}

			res := testutil.Get(ts.URL+api.ApiPath+api.UsersPath+"/"+test.username, t, test.auth)
			if res.StatusCode != test.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if test.wantStatusCode == http.StatusOK {
				got := map[string]interface{}{}
				testutil.Unmarshal(res, &got, t)
				if _, ok := got["hashedPassword"]; ok {
					t.Errorf("password hash leaked in response")
				}
			}
		})
	}
}

func TestUserList(t *testing.T) {
	ts, m := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		auth           testutil.RequestOptions
		query          string
		serviceErr     error
		wantLimit      int
		wantOffset     int
		wantCount      int
		wantStatusCode int
	}{
		{name: "admin gets a page", auth: adminAuth, wantLimit: 50, wantCount: 2, wantStatusCode: http.StatusOK},
		{name: "explicit page", auth: adminAuth, query: "?limit=1&offset=3", wantLimit: 1, wantOffset: 3, wantCount: 2, wantStatusCode: http.StatusOK},
		{name: "non-admin users cannot list users", auth: userAuth, wantLimit: -1, wantOffset: -1, wantStatusCode: http.StatusUnauthorized},
		{name: "service error", auth: adminAuth, serviceErr: errors.New("some unexpected error"), wantLimit: 50, wantStatusCode: http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			gotLimit, gotOffset := -1, -1
			m.users.ListFunc = func(ctx context.Context, limit, offset int) ([]user.User, error) {
				gotLimit, gotOffset = limit, offset
				return []user.User{createUser("alice", "hash", false), createUser("bob", "hash", true)}, test.serviceErr
			}

			res := testutil.Get(ts.URL+api.ApiPath+api.UsersPath+test.query, t, test.auth)
			if res.StatusCode != test.wantStatusCode {
				t.Fatalf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if gotLimit != test.wantLimit || gotOffset != test.wantOffset {
				t.Errorf("unexpected page got=(%d,%d) want=(%d,%d)", gotLimit, gotOffset, test.wantLimit, test.wantOffset)
			}
			if test.wantStatusCode == http.StatusOK {
				got := []map[string]interface{}{}
				testutil.Unmarshal(res, &got, t)
				if len(got) != test.wantCount {
					t.Errorf("unexpected count got=%d want=%d", len(got), test.wantCount)
				}
			}
		})
	}
}

func createUser(username, password string, isAdmin bool) user.User {
	return user.User{Username: username, HashedPassword: password, IsAdmin: isAdmin}
}

func createUserReq(username, password string, isAdmin bool) api.CreateUserRequestDto {
	return api.CreateUserRequestDto{CreateUserRequest: &user.CreateUserRequest{Username: username, IsAdmin: isAdmin}, Password: password}
}
