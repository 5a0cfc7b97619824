package user

import (
	"context"

	"github.com/sksmith/go-commerce/testutil"
)

type MockUserService struct {
	CreateFunc func(ctx context.Context, user CreateUserRequest) (User, error)
	GetFunc    func(ctx context.Context, username string) (User, error)
	ListFunc   func(ctx context.Context, limit, offset int) ([]User, error)
	DeleteFunc func(ctx context.Context, username string) error
	LoginFunc  func(ctx context.Context, username, password string) (User, error)
	*testutil.CallWatcher
}

func NewMockUserService() *MockUserService {
	return &MockUserService{
		CreateFunc:  func(ctx context.Context, user CreateUserRequest) (User, error) { return User{}, nil },
		GetFunc:     func(ctx context.Context, username string) (User, error) { return User{}, nil },
		ListFunc:    func(ctx context.Context, limit, offset int) ([]User, error) { return []User{}, nil },
		DeleteFunc:  func(ctx context.Context, username string) error { return nil },
		LoginFunc:   func(ctx context.Context, username, password string) (User, error) { return User{}, nil },
		CallWatcher: testutil.NewCallWatcher(),
	}
}

func (u *MockUserService) Create(ctx context.Context, user CreateUserRequest) (User, error) {
	u.AddCall(ctx, user)
	return u.CreateFunc(ctx, user)
}

func (u *MockUserService) Get(ctx context.Context, username string) (User, error) {
	u.AddCall(ctx, username)
	return u.GetFunc(ctx, username)
}

func (u *MockUserService) List(ctx context.Context, limit, offset int) ([]User, error) {
	u.AddCall(ctx, limit, offset)
	return u.ListFunc(ctx, limit, offset)
}

func (u *MockUserService) Delete(ctx context.Context, username string) error {
	u.AddCall(ctx, username)
	return u.DeleteFunc(ctx, username)
}

func (u *MockUserService) Login(ctx context.Context, username, password string) (User, error) {
	u.AddCall(ctx, username)
	return u.LoginFunc(ctx, username, password)
}
