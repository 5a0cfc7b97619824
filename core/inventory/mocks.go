package inventory

import (
	"context"

	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/testutil"
)

type MockInventoryService struct {
	CreateProductFunc   func(ctx context.Context, product Product, settings StockSettings) (Product, error)
	RestockFunc         func(ctx context.Context, productID uint64, rr RestockRequest) error
	GetProductFunc      func(ctx context.Context, id uint64) (Product, error)
	GetAllProductsFunc  func(ctx context.Context, filter ProductFilter, limit, offset int) ([]Product, error)
	GetInventoryFunc    func(ctx context.Context, productID uint64) (InventoryRecord, error)
	GetAllInventoryFunc func(ctx context.Context, limit, offset int) ([]InventoryRecord, error)
	GetMovementsFunc    func(ctx context.Context, productID uint64, limit, offset int) ([]Movement, error)
	*testutil.CallWatcher
}

func NewMockInventoryService() *MockInventoryService {
	return &MockInventoryService{
		CreateProductFunc: func(ctx context.Context, product Product, settings StockSettings) (Product, error) {
			return product, nil
		},
		RestockFunc:        func(ctx context.Context, productID uint64, rr RestockRequest) error { return nil },
		GetProductFunc:     func(ctx context.Context, id uint64) (Product, error) { return Product{}, nil },
		GetAllProductsFunc: func(ctx context.Context, filter ProductFilter, limit, offset int) ([]Product, error) {
			return []Product{}, nil
		},
		GetInventoryFunc:   func(ctx context.Context, productID uint64) (InventoryRecord, error) { return InventoryRecord{}, nil },
		GetAllInventoryFunc: func(ctx context.Context, limit, offset int) ([]InventoryRecord, error) {
			return []InventoryRecord{}, nil
		},
		GetMovementsFunc: func(ctx context.Context, productID uint64, limit, offset int) ([]Movement, error) {
			return []Movement{}, nil
		},
		CallWatcher: testutil.NewCallWatcher(),
	}
}

func (i *MockInventoryService) CreateProduct(ctx context.Context, product Product, settings StockSettings) (Product, error) {
	i.AddCall(ctx, product, settings)
	return i.CreateProductFunc(ctx, product, settings)
}

func (i *MockInventoryService) Restock(ctx context.Context, productID uint64, rr RestockRequest) error {
	i.AddCall(ctx, productID, rr)
	return i.RestockFunc(ctx, productID, rr)
}

func (i *MockInventoryService) GetProduct(ctx context.Context, id uint64) (Product, error) {
	i.AddCall(ctx, id)
	return i.GetProductFunc(ctx, id)
}

func (i *MockInventoryService) GetAllProducts(ctx context.Context, filter ProductFilter, limit, offset int) ([]Product, error) {
	i.AddCall(ctx, filter, limit, offset)
	return i.GetAllProductsFunc(ctx, filter, limit, offset)
}

func (i *MockInventoryService) GetInventory(ctx context.Context, productID uint64) (InventoryRecord, error) {
	i.AddCall(ctx, productID)
	return i.GetInventoryFunc(ctx, productID)
}

func (i *MockInventoryService) GetAllInventory(ctx context.Context, limit, offset int) ([]InventoryRecord, error) {
	i.AddCall(ctx, limit, offset)
	return i.GetAllInventoryFunc(ctx, limit, offset)
}

func (i *MockInventoryService) GetMovements(ctx context.Context, productID uint64, limit, offset int) ([]Movement, error) {
	i.AddCall(ctx, productID, limit, offset)
	return i.GetMovementsFunc(ctx, productID, limit, offset)
}

type MockLedger struct {
	ReserveFunc  func(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error
	ReleaseFunc  func(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error
	FinalizeFunc func(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error
	AdjustFunc   func(ctx context.Context, productID uint64, oldQty, newQty int64, options ...core.UpdateOptions) error
	*testutil.CallWatcher
}

func NewMockLedger() *MockLedger {
	return &MockLedger{
		ReserveFunc:  func(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error { return nil },
		ReleaseFunc:  func(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error { return nil },
		FinalizeFunc: func(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error { return nil },
		AdjustFunc: func(ctx context.Context, productID uint64, oldQty, newQty int64, options ...core.UpdateOptions) error {
			return nil
		},
		CallWatcher: testutil.NewCallWatcher(),
	}
}

func (l *MockLedger) Reserve(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error {
	l.AddCall(ctx, requests, options)
	return l.ReserveFunc(ctx, requests, options...)
}

func (l *MockLedger) Release(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error {
	l.AddCall(ctx, requests, options)
	return l.ReleaseFunc(ctx, requests, options...)
}

func (l *MockLedger) Finalize(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error {
	l.AddCall(ctx, requests, options)
	return l.FinalizeFunc(ctx, requests, options...)
}

func (l *MockLedger) Adjust(ctx context.Context, productID uint64, oldQty, newQty int64, options ...core.UpdateOptions) error {
	l.AddCall(ctx, productID, oldQty, newQty, options)
	return l.AdjustFunc(ctx, productID, oldQty, newQty, options...)
}
