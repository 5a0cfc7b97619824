package invrepo

import (
	"context"

	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/db"
	"github.com/sksmith/go-commerce/testutil"
)

type MockRepo struct {
	GetProductFunc      func(ctx context.Context, id uint64, options ...core.QueryOptions) (inventory.Product, error)
	GetProductBySkuFunc func(ctx context.Context, sku string, options ...core.QueryOptions) (inventory.Product, error)
	GetAllProductsFunc  func(ctx context.Context, filter inventory.ProductFilter, limit, offset int, options ...core.QueryOptions) ([]inventory.Product, error)
	SaveProductFunc     func(ctx context.Context, product *inventory.Product, options ...core.UpdateOptions) error

	GetInventoryFunc          func(ctx context.Context, productID uint64, options ...core.QueryOptions) (inventory.InventoryRecord, error)
	GetAllInventoryFunc       func(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]inventory.InventoryRecord, error)
	SaveInventoryFunc         func(ctx context.Context, record inventory.InventoryRecord, options ...core.UpdateOptions) error
	UpdateInventoryCountsFunc func(ctx context.Context, productID uint64, available, reserved int64, options ...core.UpdateOptions) error

	GetRestockEventByRequestIDFunc func(ctx context.Context, requestID string, options ...core.QueryOptions) (inventory.RestockEvent, error)
	SaveRestockEventFunc           func(ctx context.Context, event *inventory.RestockEvent, options ...core.UpdateOptions) error

	GetMovementsFunc func(ctx context.Context, productID uint64, limit, offset int, options ...core.QueryOptions) ([]inventory.Movement, error)
	SaveMovementFunc func(ctx context.Context, movement *inventory.Movement, options ...core.UpdateOptions) error

	BeginTransactionFunc func(ctx context.Context) (core.Transaction, error)
	*testutil.CallWatcher
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		GetProductFunc: func(ctx context.Context, id uint64, options ...core.QueryOptions) (inventory.Product, error) {
			return inventory.Product{}, nil
		},
		GetProductBySkuFunc: func(ctx context.Context, sku string, options ...core.QueryOptions) (inventory.Product, error) {
			return inventory.Product{}, nil
		},
		GetAllProductsFunc: func(ctx context.Context, filter inventory.ProductFilter, limit, offset int, options ...core.QueryOptions) ([]inventory.Product, error) {
			return []inventory.Product{}, nil
		},
		SaveProductFunc: func(ctx context.Context, product *inventory.Product, options ...core.UpdateOptions) error {
			return nil
		},
		GetInventoryFunc: func(ctx context.Context, productID uint64, options ...core.QueryOptions) (inventory.InventoryRecord, error) {
			return inventory.InventoryRecord{}, nil
		},
		GetAllInventoryFunc: func(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]inventory.InventoryRecord, error) {
			return []inventory.InventoryRecord{}, nil
		},
		SaveInventoryFunc: func(ctx context.Context, record inventory.InventoryRecord, options ...core.UpdateOptions) error {
			return nil
		},
		UpdateInventoryCountsFunc: func(ctx context.Context, productID uint64, available, reserved int64, options ...core.UpdateOptions) error {
			return nil
		},
		GetRestockEventByRequestIDFunc: func(ctx context.Context, requestID string, options ...core.QueryOptions) (inventory.RestockEvent, error) {
			return inventory.RestockEvent{}, nil
		},
		SaveRestockEventFunc: func(ctx context.Context, event *inventory.RestockEvent, options ...core.UpdateOptions) error {
			return nil
		},
		GetMovementsFunc: func(ctx context.Context, productID uint64, limit, offset int, options ...core.QueryOptions) ([]inventory.Movement, error) {
			return []inventory.Movement{}, nil
		},
		SaveMovementFunc: func(ctx context.Context, movement *inventory.Movement, options ...core.UpdateOptions) error {
			return nil
		},
		BeginTransactionFunc: func(ctx context.Context) (core.Transaction, error) {
			return db.NewMockTransaction(), nil
		},
		CallWatcher: testutil.NewCallWatcher(),
	}
}

func (r *MockRepo) GetProduct(ctx context.Context, id uint64, options ...core.QueryOptions) (inventory.Product, error) {
	r.AddCall(ctx, id, options)
	return r.GetProductFunc(ctx, id, options...)
}

func (r *MockRepo) GetProductBySku(ctx context.Context, sku string, options ...core.QueryOptions) (inventory.Product, error) {
	r.AddCall(ctx, sku, options)
	return r.GetProductBySkuFunc(ctx, sku, options...)
}

func (r *MockRepo) GetAllProducts(ctx context.Context, filter inventory.ProductFilter, limit, offset int, options ...core.QueryOptions) ([]inventory.Product, error) {
	r.AddCall(ctx, filter, limit, offset, options)
	return r.GetAllProductsFunc(ctx, filter, limit, offset, options...)
}

func (r *MockRepo) SaveProduct(ctx context.Context, product *inventory.Product, options ...core.UpdateOptions) error {
	r.AddCall(ctx, product, options)
	return r.SaveProductFunc(ctx, product, options...)
}

func (r *MockRepo) GetInventory(ctx context.Context, productID uint64, options ...core.QueryOptions) (inventory.InventoryRecord, error) {
	r.AddCall(ctx, productID, options)
	return r.GetInventoryFunc(ctx, productID, options...)
}

func (r *MockRepo) GetAllInventory(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]inventory.InventoryRecord, error) {
	r.AddCall(ctx, limit, offset, options)
	return r.GetAllInventoryFunc(ctx, limit, offset, options...)
}

func (r *MockRepo) SaveInventory(ctx context.Context, record inventory.InventoryRecord, options ...core.UpdateOptions) error {
	r.AddCall(ctx, record, options)
	return r.SaveInventoryFunc(ctx, record, options...)
}

func (r *MockRepo) UpdateInventoryCounts(ctx context.Context, productID uint64, available, reserved int64, options ...core.UpdateOptions) error {
	r.AddCall(ctx, productID, available, reserved, options)
	return r.UpdateInventoryCountsFunc(ctx, productID, available, reserved, options...)
}

func (r *MockRepo) GetRestockEventByRequestID(ctx context.Context, requestID string, options ...core.QueryOptions) (inventory.RestockEvent, error) {
	r.AddCall(ctx, requestID, options)
	return r.GetRestockEventByRequestIDFunc(ctx, requestID, options...)
}

func (r *MockRepo) SaveRestockEvent(ctx context.Context, event *inventory.RestockEvent, options ...core.UpdateOptions) error {
	r.AddCall(ctx, event, options)
	return r.SaveRestockEventFunc(ctx, event, options...)
}

func (r *MockRepo) GetMovements(ctx context.Context, productID uint64, limit, offset int, options ...core.QueryOptions) ([]inventory.Movement, error) {
	r.AddCall(ctx, productID, limit, offset, options)
	return r.GetMovementsFunc(ctx, productID, limit, offset, options...)
}

func (r *MockRepo) SaveMovement(ctx context.Context, movement *inventory.Movement, options ...core.UpdateOptions) error {
	r.AddCall(ctx, movement, options)
	return r.SaveMovementFunc(ctx, movement, options...)
}

func (r *MockRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	r.AddCall(ctx)
	return r.BeginTransactionFunc(ctx)
}
