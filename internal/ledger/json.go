package ledger

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type itemJSON struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// MarshalJSON includes the derived total for readers.
func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemJSON{
		Name:      it.Name,
		Quantity:  it.Quantity,
		Unit:      it.Unit,
		UnitPrice: it.UnitPrice,
		Total:     it.Total(),
	})
}

// UnmarshalJSON ignores any incoming total and prices the item again.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewItem(raw.Name, raw.Quantity, raw.Unit, raw.UnitPrice)
	if err != nil {
		return err
	}
	*it = parsed
	return nil
}
