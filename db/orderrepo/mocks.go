package orderrepo

import (
	"context"

	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/order"
	"github.com/sksmith/go-commerce/db"
	"github.com/sksmith/go-commerce/testutil"
)

type MockRepo struct {
	GetOrderFunc          func(ctx context.Context, id uint64, options ...core.QueryOptions) (order.Order, error)
	GetOrdersFunc         func(ctx context.Context, listOptions order.ListOptions, limit, offset int, options ...core.QueryOptions) ([]order.Order, error)
	SaveOrderFunc         func(ctx context.Context, o *order.Order, options ...core.UpdateOptions) error
	UpdateOrderStatusFunc func(ctx context.Context, id uint64, status order.Status, options ...core.UpdateOptions) error

	BeginTransactionFunc func(ctx context.Context) (core.Transaction, error)
	*testutil.CallWatcher
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		GetOrderFunc: func(ctx context.Context, id uint64, options ...core.QueryOptions) (order.Order, error) {
			return order.Order{ID: id}, nil
		},
		GetOrdersFunc: func(ctx context.Context, listOptions order.ListOptions, limit, offset int, options ...core.QueryOptions) ([]order.Order, error) {
			return []order.Order{}, nil
		},
		SaveOrderFunc: func(ctx context.Context, o *order.Order, options ...core.UpdateOptions) error {
			o.ID = 1
			return nil
		},
		UpdateOrderStatusFunc: func(ctx context.Context, id uint64, status order.Status, options ...core.UpdateOptions) error {
			return nil
		},
		BeginTransactionFunc: func(ctx context.Context) (core.Transaction, error) {
			return db.NewMockTransaction(), nil
		},
		CallWatcher: testutil.NewCallWatcher(),
	}
}

func (r *MockRepo) GetOrder(ctx context.Context, id uint64, options ...core.QueryOptions) (order.Order, error) {
	r.AddCall(ctx, id, options)
	return r.GetOrderFunc(ctx, id, options...)
}

func (r *MockRepo) GetOrders(ctx context.Context, listOptions order.ListOptions, limit, offset int, options ...core.QueryOptions) ([]order.Order, error) {
	r.AddCall(ctx, listOptions, limit, offset, options)
	return r.GetOrdersFunc(ctx, listOptions, limit, offset, options...)
}

func (r *MockRepo) SaveOrder(ctx context.Context, o *order.Order, options ...core.UpdateOptions) error {
	r.AddCall(ctx, o, options)
	return r.SaveOrderFunc(ctx, o, options...)
}

func (r *MockRepo) UpdateOrderStatus(ctx context.Context, id uint64, status order.Status, options ...core.UpdateOptions) error {
	r.AddCall(ctx, id, status, options)
	return r.UpdateOrderStatusFunc(ctx, id, status, options...)
}

func (r *MockRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	r.AddCall(ctx)
	return r.BeginTransactionFunc(ctx)
}
