package cart

import (
	"context"

	"github.com/sksmith/go-commerce/testutil"
)

type MockCartService struct {
	CreateFunc             func(ctx context.Context, username string) (Cart, error)
	GetFunc                func(ctx context.Context, cartID uint64) (Cart, error)
	GetByUserFunc          func(ctx context.Context, username string) (Cart, error)
	AddItemFunc            func(ctx context.Context, cartID, productID uint64, qty int64) (Item, error)
	UpdateItemQuantityFunc func(ctx context.Context, cartID, productID uint64, qty int64) (Item, error)
	RemoveItemFunc         func(ctx context.Context, cartID, productID uint64) error
	ClearFunc              func(ctx context.Context, cartID uint64) error
	*testutil.CallWatcher
}

func NewMockCartService() *MockCartService {
	return &MockCartService{
		CreateFunc:    func(ctx context.Context, username string) (Cart, error) { return Cart{Username: username}, nil },
		GetFunc:       func(ctx context.Context, cartID uint64) (Cart, error) { return Cart{ID: cartID}, nil },
		GetByUserFunc: func(ctx context.Context, username string) (Cart, error) { return Cart{Username: username}, nil },
		AddItemFunc: func(ctx context.Context, cartID, productID uint64, qty int64) (Item, error) {
			return Item{CartID: cartID, ProductID: productID, Quantity: qty}, nil
		},
		UpdateItemQuantityFunc: func(ctx context.Context, cartID, productID uint64, qty int64) (Item, error) {
			return Item{CartID: cartID, ProductID: productID, Quantity: qty}, nil
		},
		RemoveItemFunc: func(ctx context.Context, cartID, productID uint64) error { return nil },
		ClearFunc:      func(ctx context.Context, cartID uint64) error { return nil },
		CallWatcher:    testutil.NewCallWatcher(),
	}
}

func (c *MockCartService) Create(ctx context.Context, username string) (Cart, error) {
	c.AddCall(ctx, username)
	return c.CreateFunc(ctx, username)
}

func (c *MockCartService) Get(ctx context.Context, cartID uint64) (Cart, error) {
	c.AddCall(ctx, cartID)
	return c.GetFunc(ctx, cartID)
}

func (c *MockCartService) GetByUser(ctx context.Context, username string) (Cart, error) {
	c.AddCall(ctx, username)
	return c.GetByUserFunc(ctx, username)
}

func (c *MockCartService) AddItem(ctx context.Context, cartID, productID uint64, qty int64) (Item, error) {
	c.AddCall(ctx, cartID, productID, qty)
	return c.AddItemFunc(ctx, cartID, productID, qty)
}

func (c *MockCartService) UpdateItemQuantity(ctx context.Context, cartID, productID uint64, qty int64) (Item, error) {
	c.AddCall(ctx, cartID, productID, qty)
	return c.UpdateItemQuantityFunc(ctx, cartID, productID, qty)
}

func (c *MockCartService) RemoveItem(ctx context.Context, cartID, productID uint64) error {
	c.AddCall(ctx, cartID, productID)
	return c.RemoveItemFunc(ctx, cartID, productID)
}

func (c *MockCartService) Clear(ctx context.Context, cartID uint64) error {
	c.AddCall(ctx, cartID)
	return c.ClearFunc(ctx, cartID)
}
