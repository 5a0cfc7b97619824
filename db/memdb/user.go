package memdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/user"
)

// Users exposes the store as a user.Repository.
func (s *Store) Users() user.Repository {
	return users{s}
}

type users struct {
	store *Store
}

func (u users) Create(_ context.Context, usr *user.User, options ...core.UpdateOptions) error {
	return u.store.update(options, func(d *state) error {
		if _, ok := d.users[usr.Username]; ok {
			return errors.WithStack(ErrDuplicate)
		}
		d.users[usr.Username] = *usr
		return nil
	})
}

func (u users) Get(_ context.Context, username string, options ...core.QueryOptions) (user.User, error) {
	var usr user.User
	err := u.store.view(options, func(d *state) error {
		var ok bool
		if usr, ok = d.users[username]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return usr, err
}

func (u users) List(_ context.Context, limit, offset int, options ...core.QueryOptions) ([]user.User, error) {
	var list []user.User
	err := u.store.view(options, func(d *state) error {
		all := make([]user.User, 0, len(d.users))
		for _, usr := range d.users {
			all = append(all, usr)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
		start, end := page(len(all), limit, offset)
		list = append(make([]user.User, 0, end-start), all[start:end]...)
		return nil
	})
	return list, err
}

func (u users) Delete(_ context.Context, username string, options ...core.UpdateOptions) error {
	return u.store.update(options, func(d *state) error {
		if _, ok := d.users[username]; !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		delete(d.users, username)
		return nil
	})
}
