package memdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/cart"
)

func (s *Store) GetCart(_ context.Context, cartID uint64, options ...core.QueryOptions) (cart.Cart, error) {
	var c cart.Cart
	err := s.view(options, func(d *state) error {
		var ok bool
		if c, ok = d.carts[cartID]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return c, err
}

func (s *Store) GetCartByUser(_ context.Context, username string, options ...core.QueryOptions) (cart.Cart, error) {
	var found cart.Cart
	err := s.view(options, func(d *state) error {
		for _, c := range d.carts {
			if c.Username == username && (found.ID == 0 || c.ID < found.ID) {
				found = c
			}
		}
		if found.ID == 0 {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return found, err
}

func (s *Store) GetItems(_ context.Context, cartID uint64, options ...core.QueryOptions) ([]cart.Item, error) {
	items := make([]cart.Item, 0)
	err := s.view(options, func(d *state) error {
		for _, item := range d.items[cartID] {
			items = append(items, item)
		}
		sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
		return nil
	})
	return items, err
}

func (s *Store) GetItem(_ context.Context, cartID, productID uint64, options ...core.QueryOptions) (cart.Item, error) {
	var item cart.Item
	err := s.view(options, func(d *state) error {
		var ok bool
		if item, ok = d.items[cartID][productID]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return item, err
}

func (s *Store) SaveCart(_ context.Context, c *cart.Cart, options ...core.UpdateOptions) error {
	return s.update(options, func(d *state) error {
		if _, ok := d.users[c.Username]; !ok && len(d.users) > 0 {
			return errors.Errorf("memdb: unknown user %s", c.Username)
		}
		for _, existing := range d.carts {
			if existing.Username == c.Username {
				return errors.WithStack(ErrDuplicate)
			}
		}
		c.ID = d.nextID()
		stored := *c
		stored.Items = nil
		d.carts[c.ID] = stored
		return nil
	})
}

func (s *Store) SaveItem(_ context.Context, item *cart.Item, options ...core.UpdateOptions) error {
	return s.update(options, func(d *state) error {
		if _, ok := d.carts[item.CartID]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		if _, ok := d.products[item.ProductID]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		lines, ok := d.items[item.CartID]
		if !ok {
			lines = make(map[uint64]cart.Item)
			d.items[item.CartID] = lines
		}
		if existing, ok := lines[item.ProductID]; ok {
			item.ID = existing.ID
		} else {
			item.ID = d.nextID()
		}
		lines[item.ProductID] = *item
		return nil
	})
}

func (s *Store) DeleteItem(_ context.Context, cartID, productID uint64, options ...core.UpdateOptions) error {
	return s.update(options, func(d *state) error {
		if _, ok := d.items[cartID][productID]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		delete(d.items[cartID], productID)
		return nil
	})
}

func (s *Store) DeleteItems(_ context.Context, cartID uint64, options ...core.UpdateOptions) error {
	return s.update(options, func(d *state) error {
		delete(d.items, cartID)
		return nil
	})
}
