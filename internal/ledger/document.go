package ledger

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Document is the ordered collection of budget sections. It behaves as a
// value: every mutation returns a new Document and leaves the receiver and
// any slices it shares untouched.
type Document struct {
	Sections []Section `json:"sections"`
}

// NewDocument builds a document, rejecting duplicate section titles.
func NewDocument(sections ...Section) (Document, error) {
	doc := Document{}
	for _, s := range sections {
		next, err := doc.AppendSection(s)
		if err != nil {
			return Document{}, err
		}
		doc = next
	}
	return doc, nil
}

// Total is the grand total: the sum of every section total. It is computed
// on each call and never cached.
func (d Document) Total() decimal.Decimal {
	total := decimal.Zero
	for _, s := range d.Sections {
		total = total.Add(s.Total())
	}
	return total
}

// Len returns the number of sections.
func (d Document) Len() int {
	return len(d.Sections)
}

// Titles returns the section titles in document order.
func (d Document) Titles() []string {
	titles := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		titles[i] = s.Title
	}
	return titles
}

// Index returns the position of the section with the given title, or -1.
func (d Document) Index(title string) int {
	for i, s := range d.Sections {
		if s.Title == title {
			return i
		}
	}
	return -1
}

// Section looks up a section by title.
func (d Document) Section(title string) (Section, bool) {
	i := d.Index(title)
	if i < 0 {
		return Section{}, false
	}
	return d.Sections[i].clone(), true
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	sections := make([]Section, len(d.Sections))
	for i, s := range d.Sections {
		sections[i] = s.clone()
	}
	return Document{Sections: sections}
}

// ReplaceSection swaps the section named title for next. The new section may
// carry a different title as long as it does not collide with a sibling.
func (d Document) ReplaceSection(title string, next Section) (Document, error) {
	i := d.Index(title)
	if i < 0 {
		return d, fmt.Errorf("%w: %q", ErrSectionNotFound, title)
	}
	next, err := NewSection(next.Title, next.Items...)
	if err != nil {
		return d, err
	}
	if j := d.Index(next.Title); j >= 0 && j != i {
		return d, fmt.Errorf("%w: %q", ErrDuplicateSection, next.Title)
	}
	out := d.Clone()
	out.Sections[i] = next
	return out, nil
}

// AppendSection adds a section at the end of the document.
func (d Document) AppendSection(s Section) (Document, error) {
	s, err := NewSection(s.Title, s.Items...)
	if err != nil {
		return d, err
	}
	if d.Index(s.Title) >= 0 {
		return d, fmt.Errorf("%w: %q", ErrDuplicateSection, s.Title)
	}
	out := d.Clone()
	out.Sections = append(out.Sections, s)
	return out, nil
}

// RemoveSection drops the section named title.
func (d Document) RemoveSection(title string) (Document, error) {
	i := d.Index(title)
	if i < 0 {
		return d, fmt.Errorf("%w: %q", ErrSectionNotFound, title)
	}
	out := d.Clone()
	out.Sections = slices.Delete(out.Sections, i, i+1)
	return out, nil
}

// AppendItem adds item to the end of the named section.
func (d Document) AppendItem(title string, item Item) (Document, error) {
	return d.withSection(title, func(s Section) (Section, error) {
		return s.AppendItem(item)
	})
}

// RemoveItem drops the item at index from the named section.
func (d Document) RemoveItem(title string, index int) (Document, error) {
	return d.withSection(title, func(s Section) (Section, error) {
		return s.RemoveItem(index)
	})
}

// UpdateItem replaces the item at index in the named section.
func (d Document) UpdateItem(title string, index int, item Item) (Document, error) {
	return d.withSection(title, func(s Section) (Section, error) {
		return s.UpdateItem(index, item)
	})
}

func (d Document) withSection(title string, fn func(Section) (Section, error)) (Document, error) {
	i := d.Index(title)
	if i < 0 {
		return d, fmt.Errorf("%w: %q", ErrSectionNotFound, title)
	}
	next, err := fn(d.Sections[i])
	if err != nil {
		return d, err
	}
	out := d.Clone()
	out.Sections[i] = next
	return out, nil
}
