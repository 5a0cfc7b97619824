package queue

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/core/order"
	"github.com/sksmith/go-commerce/testutil"
)

type MockQueue struct {
	PublishInventoryFunc func(ctx context.Context, record inventory.InventoryRecord) error
	PublishOrderFunc     func(ctx context.Context, o order.Order) error
	*testutil.CallWatcher
}

// NewMockQueue returns a queue that only logs what it would have published.
func NewMockQueue() *MockQueue {
	return &MockQueue{
		PublishInventoryFunc: func(ctx context.Context, record inventory.InventoryRecord) error {
			log.Debug().Uint64("productId", record.ProductID).Int64("available", record.Available).
				Int64("reserved", record.Reserved).Msg("mock queue: inventory")
			return nil
		},
		PublishOrderFunc: func(ctx context.Context, o order.Order) error {
			log.Debug().Str("number", o.Number).Str("status", string(o.Status)).Msg("mock queue: order")
			return nil
		},
		CallWatcher: testutil.NewCallWatcher(),
	}
}

func (m *MockQueue) PublishInventory(ctx context.Context, record inventory.InventoryRecord) error {
	m.AddCall(ctx, record)
	return m.PublishInventoryFunc(ctx, record)
}

func (m *MockQueue) PublishOrder(ctx context.Context, o order.Order) error {
	m.AddCall(ctx, o)
	return m.PublishOrderFunc(ctx, o)
}
