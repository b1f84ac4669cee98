package ledger

import "errors"

var (
	// ErrSectionNotFound indicates a section title that is not in the document.
	ErrSectionNotFound = errors.New("ledger: section not found")
	// ErrItemNotFound indicates an item index outside the section's items.
	ErrItemNotFound = errors.New("ledger: item not found")
	// ErrDuplicateSection indicates a section title that is already in use.
	ErrDuplicateSection = errors.New("ledger: duplicate section title")
	// ErrInvalidItem indicates an item with an empty name or a negative amount.
	ErrInvalidItem = errors.New("ledger: invalid item")
	// ErrInvalidSection indicates a section with an empty title.
	ErrInvalidSection = errors.New("ledger: invalid section")
)
