// Package inventory owns the product catalog and the stock ledger. Every change to
// available and reserved counts goes through the ledger operations in this package.
package inventory

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Product is an entity. A sellable item in the catalog.
type Product struct {
	ID         uint64                 `json:"id"`
	Sku        string                 `json:"sku"`
	Name       string                 `json:"name"`
	Brand      string                 `json:"brand"`
	Category   string                 `json:"category"`
	Price      decimal.Decimal        `json:"price"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Created    time.Time              `json:"created"`
}

func (p Product) Validate() error {
	if p.Sku == "" {
		return errors.New("sku is required")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	return nil
}

// ProductSort names the field a product listing is ordered by. The zero value
// orders by id.
type ProductSort string

const (
	SortByID      ProductSort = ""
	SortByName    ProductSort = "name"
	SortByPrice   ProductSort = "price"
	SortByCreated ProductSort = "created"
)

// ProductFilter narrows a product listing. Zero fields match everything.
type ProductFilter struct {
	Search      string
	Category    string
	MinPrice    decimal.NullDecimal
	MaxPrice    decimal.NullDecimal
	InStockOnly bool
	Sort        ProductSort
	Descending  bool
}

func (f ProductFilter) Validate() error {
	switch f.Sort {
	case SortByID, SortByName, SortByPrice, SortByCreated:
	default:
		return errors.Errorf("unknown sort %q", f.Sort)
	}
	if f.MinPrice.Valid && f.MaxPrice.Valid && f.MinPrice.Decimal.GreaterThan(f.MaxPrice.Decimal) {
		return errors.New("minimum price is greater than maximum price")
	}
	return nil
}

// Matches checks every field except InStockOnly, which needs the product's
// inventory record. Search and Category ignore case.
func (f ProductFilter) Matches(p Product) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.MinPrice.Valid && p.Price.LessThan(f.MinPrice.Decimal) {
		return false
	}
	if f.MaxPrice.Valid && p.Price.GreaterThan(f.MaxPrice.Decimal) {
		return false
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	for _, field := range []string{p.Name, p.Sku, p.Brand} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Less orders a before b by the filter's sort field, falling back to id.
func (f ProductFilter) Less(a, b Product) bool {
	if f.Descending {
		a, b = b, a
	}
	switch f.Sort {
	case SortByName:
		if a.Name != b.Name {
			return a.Name < b.Name
		}
	case SortByPrice:
		if !a.Price.Equal(b.Price) {
			return a.Price.LessThan(b.Price)
		}
	case SortByCreated:
		if !a.Created.Equal(b.Created) {
			return a.Created.Before(b.Created)
		}
	}
	return a.ID < b.ID
}

// StockSettings are the warehouse attributes supplied when a product is first
// registered.
type StockSettings struct {
	ReorderLevel    int64  `json:"reorderLevel"`
	ReorderQuantity int64  `json:"reorderQuantity"`
	Location        string `json:"location"`
}

// InventoryRecord is an entity. It holds the stock counts for exactly one product.
// Available and Reserved never go below zero.
type InventoryRecord struct {
	ProductID       uint64          `json:"productId"`
	Available       int64           `json:"available"`
	Reserved        int64           `json:"reserved"`
	ReorderLevel    int64           `json:"reorderLevel"`
	ReorderQuantity int64           `json:"reorderQuantity"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	LastRestocked   *time.Time      `json:"lastRestocked,omitempty"`
	ExpiryDate      *time.Time      `json:"expiryDate,omitempty"`
	BatchNumber     string          `json:"batchNumber,omitempty"`
	Location        string          `json:"location,omitempty"`
}

func (r InventoryRecord) NeedsReorder() bool {
	return r.Available <= r.ReorderLevel
}

// StockRequest is a value object. A quantity of one product to move through the ledger.
type StockRequest struct {
	ProductID uint64 `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// RestockRequest is a value object. A delivery of new stock from a supplier.
type RestockRequest struct {
	RequestID   string          `json:"requestId"`
	Quantity    int64           `json:"quantity"`
	BatchNumber string          `json:"batchNumber,omitempty"`
	Location    string          `json:"location,omitempty"`
	UnitCost    decimal.Decimal `json:"unitCost"`
	ExpiryDate  *time.Time      `json:"expiryDate,omitempty"`
}

// RestockEvent is an entity. A restock that has been applied, keyed by RequestID so
// that redelivered requests are ignored.
type RestockEvent struct {
	ID          uint64    `json:"id"`
	RequestID   string    `json:"requestId"`
	ProductID   uint64    `json:"productId"`
	Quantity    int64     `json:"quantity"`
	BatchNumber string    `json:"batchNumber,omitempty"`
	Created     time.Time `json:"created"`
}

type MovementKind string

const (
	MovementReserve  MovementKind = "reserve"
	MovementRelease  MovementKind = "release"
	MovementFinalize MovementKind = "finalize"
	MovementRestock  MovementKind = "restock"
)

// Movement is an entity. One audit row per product per committed stock change.
type Movement struct {
	ID        uint64       `json:"id"`
	ProductID uint64       `json:"productId"`
	Kind      MovementKind `json:"kind"`
	Quantity  int64        `json:"quantity"`
	Available int64        `json:"available"`
	Reserved  int64        `json:"reserved"`
	Created   time.Time    `json:"created"`
}
