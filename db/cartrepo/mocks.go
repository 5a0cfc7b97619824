package cartrepo

import (
	"context"

	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/cart"
	"github.com/sksmith/go-commerce/db"
	"github.com/sksmith/go-commerce/testutil"
)

type MockRepo struct {
	GetCartFunc       func(ctx context.Context, cartID uint64, options ...core.QueryOptions) (cart.Cart, error)
	GetCartByUserFunc func(ctx context.Context, username string, options ...core.QueryOptions) (cart.Cart, error)
	GetItemsFunc      func(ctx context.Context, cartID uint64, options ...core.QueryOptions) ([]cart.Item, error)
	GetItemFunc       func(ctx context.Context, cartID, productID uint64, options ...core.QueryOptions) (cart.Item, error)

	SaveCartFunc    func(ctx context.Context, c *cart.Cart, options ...core.UpdateOptions) error
	SaveItemFunc    func(ctx context.Context, item *cart.Item, options ...core.UpdateOptions) error
	DeleteItemFunc  func(ctx context.Context, cartID, productID uint64, options ...core.UpdateOptions) error
	DeleteItemsFunc func(ctx context.Context, cartID uint64, options ...core.UpdateOptions) error

	BeginTransactionFunc func(ctx context.Context) (core.Transaction, error)
	*testutil.CallWatcher
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		GetCartFunc: func(ctx context.Context, cartID uint64, options ...core.QueryOptions) (cart.Cart, error) {
			return cart.Cart{ID: cartID}, nil
		},
		GetCartByUserFunc: func(ctx context.Context, username string, options ...core.QueryOptions) (cart.Cart, error) {
			return cart.Cart{Username: username}, nil
		},
		GetItemsFunc: func(ctx context.Context, cartID uint64, options ...core.QueryOptions) ([]cart.Item, error) {
			return []cart.Item{}, nil
		},
		GetItemFunc: func(ctx context.Context, cartID, productID uint64, options ...core.QueryOptions) (cart.Item, error) {
			return cart.Item{}, core.ErrNotFound
		},
		SaveCartFunc:    func(ctx context.Context, c *cart.Cart, options ...core.UpdateOptions) error { return nil },
		SaveItemFunc:    func(ctx context.Context, item *cart.Item, options ...core.UpdateOptions) error { return nil },
		DeleteItemFunc:  func(ctx context.Context, cartID, productID uint64, options ...core.UpdateOptions) error { return nil },
		DeleteItemsFunc: func(ctx context.Context, cartID uint64, options ...core.UpdateOptions) error { return nil },
		BeginTransactionFunc: func(ctx context.Context) (core.Transaction, error) {
			return db.NewMockTransaction(), nil
		},
		CallWatcher: testutil.NewCallWatcher(),
	}
}

func (r *MockRepo) GetCart(ctx context.Context, cartID uint64, options ...core.QueryOptions) (cart.Cart, error) {
	r.AddCall(ctx, cartID, options)
	return r.GetCartFunc(ctx, cartID, options...)
}

func (r *MockRepo) GetCartByUser(ctx context.Context, username string, options ...core.QueryOptions) (cart.Cart, error) {
	r.AddCall(ctx, username, options)
	return r.GetCartByUserFunc(ctx, username, options...)
}

func (r *MockRepo) GetItems(ctx context.Context, cartID uint64, options ...core.QueryOptions) ([]cart.Item, error) {
	r.AddCall(ctx, cartID, options)
	return r.GetItemsFunc(ctx, cartID, options...)
}

func (r *MockRepo) GetItem(ctx context.Context, cartID, productID uint64, options ...core.QueryOptions) (cart.Item, error) {
	r.AddCall(ctx, cartID, productID, options)
	return r.GetItemFunc(ctx, cartID, productID, options...)
}

func (r *MockRepo) SaveCart(ctx context.Context, c *cart.Cart, options ...core.UpdateOptions) error {
	r.AddCall(ctx, c, options)
	return r.SaveCartFunc(ctx, c, options...)
}

func (r *MockRepo) SaveItem(ctx context.Context, item *cart.Item, options ...core.UpdateOptions) error {
	r.AddCall(ctx, item, options)
	return r.SaveItemFunc(ctx, item, options...)
}

func (r *MockRepo) DeleteItem(ctx context.Context, cartID, productID uint64, options ...core.UpdateOptions) error {
	r.AddCall(ctx, cartID, productID, options)
	return r.DeleteItemFunc(ctx, cartID, productID, options...)
}

func (r *MockRepo) DeleteItems(ctx context.Context, cartID uint64, options ...core.UpdateOptions) error {
	r.AddCall(ctx, cartID, options)
	return r.DeleteItemsFunc(ctx, cartID, options...)
}

func (r *MockRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	r.AddCall(ctx)
	return r.BeginTransactionFunc(ctx)
}
