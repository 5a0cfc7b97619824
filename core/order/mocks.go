package order

import (
	"context"

	"github.com/sksmith/go-commerce/testutil"
)

type MockOrderService struct {
	CheckoutFunc     func(ctx context.Context, cartID uint64, req CheckoutRequest) (Order, error)
	CreateFunc       func(ctx context.Context, req OrderRequest) (Order, error)
	ConfirmFunc      func(ctx context.Context, id uint64) (Order, error)
	CancelFunc       func(ctx context.Context, id uint64) (Order, error)
	UpdateStatusFunc func(ctx context.Context, id uint64, status Status) (Order, error)
	GetFunc          func(ctx context.Context, id uint64) (Order, error)
	ListFunc         func(ctx context.Context, options ListOptions, limit, offset int) ([]Order, error)
	*testutil.CallWatcher
}

func NewMockOrderService() *MockOrderService {
	return &MockOrderService{
		CheckoutFunc: func(ctx context.Context, cartID uint64, req CheckoutRequest) (Order, error) {
			return Order{Status: Confirmed}, nil
		},
		CreateFunc: func(ctx context.Context, req OrderRequest) (Order, error) {
			return Order{Username: req.Username, Status: Pending}, nil
		},
		ConfirmFunc: func(ctx context.Context, id uint64) (Order, error) { return Order{ID: id, Status: Confirmed}, nil },
		CancelFunc:  func(ctx context.Context, id uint64) (Order, error) { return Order{ID: id, Status: Cancelled}, nil },
		UpdateStatusFunc: func(ctx context.Context, id uint64, status Status) (Order, error) {
			return Order{ID: id, Status: status}, nil
		},
		GetFunc: func(ctx context.Context, id uint64) (Order, error) { return Order{ID: id}, nil },
		ListFunc: func(ctx context.Context, options ListOptions, limit, offset int) ([]Order, error) {
			return []Order{}, nil
		},
		CallWatcher: testutil.NewCallWatcher(),
	}
}

func (o *MockOrderService) Checkout(ctx context.Context, cartID uint64, req CheckoutRequest) (Order, error) {
	o.AddCall(ctx, cartID, req)
	return o.CheckoutFunc(ctx, cartID, req)
}

func (o *MockOrderService) Create(ctx context.Context, req OrderRequest) (Order, error) {
	o.AddCall(ctx, req)
	return o.CreateFunc(ctx, req)
}

func (o *MockOrderService) Confirm(ctx context.Context, id uint64) (Order, error) {
	o.AddCall(ctx, id)
	return o.ConfirmFunc(ctx, id)
}

func (o *MockOrderService) Cancel(ctx context.Context, id uint64) (Order, error) {
	o.AddCall(ctx, id)
	return o.CancelFunc(ctx, id)
}

func (o *MockOrderService) UpdateStatus(ctx context.Context, id uint64, status Status) (Order, error) {
	o.AddCall(ctx, id, status)
	return o.UpdateStatusFunc(ctx, id, status)
}

func (o *MockOrderService) Get(ctx context.Context, id uint64) (Order, error) {
	o.AddCall(ctx, id)
	return o.GetFunc(ctx, id)
}

func (o *MockOrderService) List(ctx context.Context, options ListOptions, limit, offset int) ([]Order, error) {
	o.AddCall(ctx, options, limit, offset)
	return o.ListFunc(ctx, options, limit, offset)
}
