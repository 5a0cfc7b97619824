package inventory

import (
	"context"

	"github.com/sksmith/go-commerce/core"
)

type Repository interface {
	core.Transactional
	ProductRepository
	InventoryRepository
	RestockRepository
	MovementRepository
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id uint64, options ...core.QueryOptions) (Product, error)
	GetProductBySku(ctx context.Context, sku string, options ...core.QueryOptions) (Product, error)
	GetAllProducts(ctx context.Context, filter ProductFilter, limit, offset int, options ...core.QueryOptions) ([]Product, error)

	SaveProduct(ctx context.Context, product *Product, options ...core.UpdateOptions) error
}

type InventoryRepository interface {
	GetInventory(ctx context.Context, productID uint64, options ...core.QueryOptions) (InventoryRecord, error)
	GetAllInventory(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]InventoryRecord, error)

	SaveInventory(ctx context.Context, record InventoryRecord, options ...core.UpdateOptions) error
	UpdateInventoryCounts(ctx context.Context, productID uint64, available, reserved int64, options ...core.UpdateOptions) error
}

type RestockRepository interface {
	GetRestockEventByRequestID(ctx context.Context, requestID string, options ...core.QueryOptions) (RestockEvent, error)

	SaveRestockEvent(ctx context.Context, event *RestockEvent, options ...core.UpdateOptions) error
}

type MovementRepository interface {
	GetMovements(ctx context.Context, productID uint64, limit, offset int, options ...core.QueryOptions) ([]Movement, error)

	SaveMovement(ctx context.Context, movement *Movement, options ...core.UpdateOptions) error
}

type Queue interface {
	PublishInventory(ctx context.Context, record InventoryRecord) error
}
