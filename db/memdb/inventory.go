package memdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/inventory"
)

func (s *Store) GetProduct(_ context.Context, id uint64, options ...core.QueryOptions) (inventory.Product, error) {
	var p inventory.Product
	err := s.view(options, func(d *state) error {
		var ok bool
		if p, ok = d.products[id]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return p, err
}

func (s *Store) GetProductBySku(_ context.Context, sku string, options ...core.QueryOptions) (inventory.Product, error) {
	var p inventory.Product
	err := s.view(options, func(d *state) error {
		id, ok := d.skus[sku]
		if !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		p = d.products[id]
		return nil
	})
	return p, err
}

func (s *Store) GetAllProducts(_ context.Context, filter inventory.ProductFilter, limit, offset int, options ...core.QueryOptions) ([]inventory.Product, error) {
	products := make([]inventory.Product, 0)
	err := s.view(options, func(d *state) error {
		all := make([]inventory.Product, 0, len(d.products))
		for _, p := range d.products {
			if !filter.Matches(p) {
				continue
			}
			if filter.InStockOnly && d.inventory[p.ID].Available < 1 {
				continue
			}
			all = append(all, p)
		}
		sort.Slice(all, func(i, j int) bool { return filter.Less(all[i], all[j]) })
		start, end := page(len(all), limit, offset)
		products = append(products, all[start:end]...)
		return nil
	})
	return products, err
}

func (s *Store) SaveProduct(_ context.Context, product *inventory.Product, options ...core.UpdateOptions) error {
	return s.update(options, func(d *state) error {
		if id, ok := d.skus[product.Sku]; ok {
			product.ID = id
		} else {
			product.ID = d.nextID()
			d.skus[product.Sku] = product.ID
		}
		d.products[product.ID] = *product
		return nil
	})
}

func (s *Store) GetInventory(_ context.Context, productID uint64, options ...core.QueryOptions) (inventory.InventoryRecord, error) {
	var r inventory.InventoryRecord
	err := s.view(options, func(d *state) error {
		var ok bool
		if r, ok = d.inventory[productID]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return r, err
}

func (s *Store) GetAllInventory(_ context.Context, limit, offset int, options ...core.QueryOptions) ([]inventory.InventoryRecord, error) {
	records := make([]inventory.InventoryRecord, 0)
	err := s.view(options, func(d *state) error {
		all := make([]inventory.InventoryRecord, 0, len(d.inventory))
		for _, r := range d.inventory {
			all = append(all, r)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ProductID < all[j].ProductID })
		start, end := page(len(all), limit, offset)
		records = append(records, all[start:end]...)
		return nil
	})
	return records, err
}

func (s *Store) SaveInventory(_ context.Context, record inventory.InventoryRecord, options ...core.UpdateOptions) error {
	return s.update(options, func(d *state) error {
		if _, ok := d.products[record.ProductID]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		if record.Available < 0 || record.Reserved < 0 {
			return errors.New("memdb: inventory counts must not be negative")
		}
		d.inventory[record.ProductID] = record
		return nil
	})
}

func (s *Store) UpdateInventoryCounts(_ context.Context, productID uint64, available, reserved int64, options ...core.UpdateOptions) error {
	return s.update(options, func(d *state) error {
		r, ok := d.inventory[productID]
		if !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		if available < 0 || reserved < 0 {
			return errors.New("memdb: inventory counts must not be negative")
		}
		r.Available = available
		r.Reserved = reserved
		d.inventory[productID] = r
		return nil
	})
}

func (s *Store) GetRestockEventByRequestID(_ context.Context, requestID string, options ...core.QueryOptions) (inventory.RestockEvent, error) {
	var e inventory.RestockEvent
	err := s.view(options, func(d *state) error {
		var ok bool
		if e, ok = d.restocks[requestID]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return e, err
}

func (s *Store) SaveRestockEvent(_ context.Context, event *inventory.RestockEvent, options ...core.UpdateOptions) error {
	return s.update(options, func(d *state) error {
		if _, ok := d.restocks[event.RequestID]; ok {
			return errors.WithStack(ErrDuplicate)
		}
		event.ID = d.nextID()
		d.restocks[event.RequestID] = *event
		return nil
	})
}

func (s *Store) GetMovements(_ context.Context, productID uint64, limit, offset int, options ...core.QueryOptions) ([]inventory.Movement, error) {
	movements := make([]inventory.Movement, 0)
	err := s.view(options, func(d *state) error {
		var matched []inventory.Movement
		for i := len(d.movements) - 1; i >= 0; i-- {
			if d.movements[i].ProductID == productID {
				matched = append(matched, d.movements[i])
			}
		}
		start, end := page(len(matched), limit, offset)
		movements = append(movements, matched[start:end]...)
		return nil
	})
	return movements, err
}

func (s *Store) SaveMovement(_ context.Context, movement *inventory.Movement, options ...core.UpdateOptions) error {
	return s.update(options, func(d *state) error {
		movement.ID = d.nextID()
		d.movements = append(d.movements, *movement)
		return nil
	})
}
