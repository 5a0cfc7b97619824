package memdb

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/order"
)

func (s *Store) GetOrder(_ context.Context, id uint64, options ...core.QueryOptions) (order.Order, error) {
	var o order.Order
	err := s.view(options, func(d *state) error {
		var ok bool
		if o, ok = d.orders[id]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		o.Items = append([]order.Item(nil), o.Items...)
		return nil
	})
	return o, err
}

func (s *Store) GetOrders(_ context.Context, listOptions order.ListOptions, limit, offset int, options ...core.QueryOptions) ([]order.Order, error) {
	orders := make([]order.Order, 0)
	err := s.view(options, func(d *state) error {
		var matched []order.Order
		for _, o := range d.orders {
			if listOptions.Username != "" && o.Username != listOptions.Username {
				continue
			}
			if listOptions.Status != order.None && o.Status != listOptions.Status {
				continue
			}
			o.Items = append([]order.Item(nil), o.Items...)
			matched = append(matched, o)
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
		start, end := page(len(matched), limit, offset)
		orders = append(orders, matched[start:end]...)
		return nil
	})
	return orders, err
}

func (s *Store) SaveOrder(_ context.Context, o *order.Order, options ...core.UpdateOptions) error {
	return s.update(options, func(d *state) error {
		for _, existing := range d.orders {
			if existing.Number == o.Number {
				return errors.WithStack(ErrDuplicate)
			}
		}
		o.ID = d.nextID()
		stored := *o
		stored.Items = append([]order.Item(nil), o.Items...)
		d.orders[o.ID] = stored
		return nil
	})
}

func (s *Store) UpdateOrderStatus(_ context.Context, id uint64, status order.Status, options ...core.UpdateOptions) error {
	return s.update(options, func(d *state) error {
		o, ok := d.orders[id]
		if !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		o.Status = status
		o.Updated = time.Now()
		d.orders[id] = o
		return nil
	})
}
