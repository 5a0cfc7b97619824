package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sksmith/go-commerce/core/inventory"
)

func TestProductFilterValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  inventory.ProductFilter
		wantErr bool
	}{
		{name: "empty"},
		{name: "known sort", filter: inventory.ProductFilter{Sort: inventory.SortByCreated}},
		{name: "unknown sort", filter: inventory.ProductFilter{Sort: "color"}, wantErr: true},
		{
			name:   "equal bounds",
			filter: inventory.ProductFilter{MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(5)), MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(5))},
		},
		{
			name:    "inverted bounds",
			filter:  inventory.ProductFilter{MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(6)), MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(5))},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.filter.Validate()
			if test.wantErr && err == nil {
				t.Errorf("expected error, got none")
			} else if !test.wantErr && err != nil {
				t.Errorf("did not want error, got=%v", err)
			}
		})
	}
}

func TestProductFilterLess(t *testing.T) {
	now := time.Now()
	a := inventory.Product{ID: 1, Name: "b", Price: decimal.NewFromInt(2), Created: now}
	b := inventory.Product{ID: 2, Name: "a", Price: decimal.NewFromInt(2), Created: now.Add(-time.Hour)}

	tests := []struct {
		name   string
		filter inventory.ProductFilter
		want   bool
	}{
		{name: "by id", want: true},
		{name: "by id descending", filter: inventory.ProductFilter{Descending: true}, want: false},
		{name: "by name", filter: inventory.ProductFilter{Sort: inventory.SortByName}, want: false},
		{name: "equal prices fall back to id", filter: inventory.ProductFilter{Sort: inventory.SortByPrice}, want: true},
		{name: "by created", filter: inventory.ProductFilter{Sort: inventory.SortByCreated}, want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.filter.Less(a, b); got != test.want {
				t.Errorf("unexpected order got=%v want=%v", got, test.want)
			}
		})
	}
}
