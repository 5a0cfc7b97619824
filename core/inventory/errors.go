package inventory

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidQuantity          = errors.New("quantity must be greater than zero")
	ErrProductNotFound          = errors.New("product not found")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrOverRelease              = errors.New("release exceeds reserved quantity")
	ErrReservedQuantityExceeded = errors.New("finalize exceeds reserved quantity")
)

// Shortfall describes one product that could not satisfy a request. Held is the
// count the request was checked against: available stock for a reservation, reserved
// stock for a release or finalize.
type Shortfall struct {
	ProductID uint64 `json:"productId"`
	Requested int64  `json:"requested"`
	Held      int64  `json:"held"`
}

func (s Shortfall) Missing() int64 {
	return s.Requested - s.Held
}

// StockError is returned by every ledger operation that rejects a batch. Kind is one
// of the package sentinels so callers can use errors.Is.
type StockError struct {
	Kind       error
	Shortfalls []Shortfall
}

func (e *StockError) Error() string {
	if len(e.Shortfalls) == 0 {
		return e.Kind.Error()
	}
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		switch e.Kind {
		case ErrProductNotFound:
			parts = append(parts, fmt.Sprintf("product %d", s.ProductID))
		case ErrInvalidQuantity:
			parts = append(parts, fmt.Sprintf("product %d quantity %d", s.ProductID, s.Requested))
		default:
			parts = append(parts, fmt.Sprintf("product %d requested %d held %d", s.ProductID, s.Requested, s.Held))
		}
	}
	return e.Kind.Error() + ": " + strings.Join(parts, ", ")
}

func (e *StockError) Unwrap() error {
	return e.Kind
}

func (e *StockError) ProductIDs() []uint64 {
	ids := make([]uint64, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		ids[i] = s.ProductID
	}
	return ids
}

// Recoverable reports whether the caller can fix the request and retry. Over-release
// and over-finalize mean the caller's own bookkeeping is wrong.
func (e *StockError) Recoverable() bool {
	switch e.Kind {
	case ErrOverRelease, ErrReservedQuantityExceeded:
		return false
	}
	return true
}

func IsRecoverable(err error) bool {
	var se *StockError
	if errors.As(err, &se) {
		return se.Recoverable()
	}
	return false
}

func AsStockError(err error) (*StockError, bool) {
	var se *StockError
	ok := errors.As(err, &se)
	return se, ok
}
