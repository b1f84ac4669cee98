// Package ledger defines the itemized budget document: items, sections,
// derived totals and the structural mutations applied to them.
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept for monetary amounts.
const Scale int32 = 2

// Round rounds an amount to currency precision.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}

// Item is a single priced budget line. It has no stored total; Total derives
// it from quantity and unit price on every call.
type Item struct {
	Name      string
	Quantity  decimal.Decimal
	Unit      string
	UnitPrice decimal.Decimal
}

// NewItem validates and prices a budget line.
func NewItem(name string, quantity decimal.Decimal, unit string, unitPrice decimal.Decimal) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, fmt.Errorf("%w: empty name", ErrInvalidItem)
	}
	if quantity.IsNegative() {
		return Item{}, fmt.Errorf("%w: negative quantity for %q", ErrInvalidItem, name)
	}
	if unitPrice.IsNegative() {
		return Item{}, fmt.Errorf("%w: negative unit price for %q", ErrInvalidItem, name)
	}

	return Item{
		Name:      name,
		Quantity:  quantity,
		Unit:      strings.TrimSpace(unit),
		UnitPrice: unitPrice,
	}, nil
}

// MustItem is NewItem for literals known to be valid. It panics otherwise.
func MustItem(name string, quantity float64, unit string, unitPrice float64) Item {
	it, err := NewItem(name, decimal.NewFromFloat(quantity), unit, decimal.NewFromFloat(unitPrice))
	if err != nil {
		panic(err)
	}
	return it
}

// ItemTotal is quantity * unitPrice rounded to currency precision.
func ItemTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return Round(quantity.Mul(unitPrice))
}

// Total returns round(quantity * unit price).
func (it Item) Total() decimal.Decimal {
	return ItemTotal(it.Quantity, it.UnitPrice)
}

// WithQuantity returns a copy with a new quantity and a recomputed total.
func (it Item) WithQuantity(quantity decimal.Decimal) (Item, error) {
	return NewItem(it.Name, quantity, it.Unit, it.UnitPrice)
}

// WithUnitPrice returns a copy with a new unit price and a recomputed total.
func (it Item) WithUnitPrice(unitPrice decimal.Decimal) (Item, error) {
	return NewItem(it.Name, it.Quantity, it.Unit, unitPrice)
}

// Validate checks the name and the signs of the amounts.
func (it Item) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidItem)
	}
	if it.Quantity.IsNegative() || it.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: negative amount for %q", ErrInvalidItem, it.Name)
	}
	return nil
}
