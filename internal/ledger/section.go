package ledger

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Section is an ordered, titled group of items. Item order is presentation
// order and is never sorted.
type Section struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// NewSection builds a section, copying items so the caller's slice is not shared.
func NewSection(title string, items ...Item) (Section, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Section{}, fmt.Errorf("%w: empty title", ErrInvalidSection)
	}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return Section{}, fmt.Errorf("section %q: %w", title, err)
		}
	}
	return Section{Title: title, Items: slices.Clone(items)}, nil
}

// Total is the sum of the item totals. An empty section totals zero.
func (s Section) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Total())
	}
	return total
}

// AppendItem returns a copy of the section with item added at the end.
func (s Section) AppendItem(item Item) (Section, error) {
	if err := item.Validate(); err != nil {
		return s, err
	}
	items := make([]Item, 0, len(s.Items)+1)
	items = append(items, s.Items...)
	s.Items = append(items, item)
	return s, nil
}

// RemoveItem returns a copy of the section without the item at index.
func (s Section) RemoveItem(index int) (Section, error) {
	if index < 0 || index >= len(s.Items) {
		return s, fmt.Errorf("%w: index %d in %q (%d items)", ErrItemNotFound, index, s.Title, len(s.Items))
	}
	s.Items = slices.Delete(slices.Clone(s.Items), index, index+1)
	return s, nil
}

// UpdateItem returns a copy of the section with the item at index replaced.
func (s Section) UpdateItem(index int, item Item) (Section, error) {
	if index < 0 || index >= len(s.Items) {
		return s, fmt.Errorf("%w: index %d in %q (%d items)", ErrItemNotFound, index, s.Title, len(s.Items))
	}
	if err := item.Validate(); err != nil {
		return s, err
	}
	items := slices.Clone(s.Items)
	items[index] = item
	s.Items = items
	return s, nil
}

func (s Section) clone() Section {
	s.Items = slices.Clone(s.Items)
	return s
}
