package ledger

import "fmt"

// Mutation is a change to a budget document produced by a conversational turn.
// Apply never modifies its argument; on error it returns the argument as-is.
type Mutation interface {
	Apply(doc Document) (Document, error)
}

// Replace swaps the whole document for a new value.
type Replace struct {
	Document Document
}

// Apply validates the replacement and returns a private copy of it.
func (r Replace) Apply(doc Document) (Document, error) {
	next, err := NewDocument(r.Document.Sections...)
	if err != nil {
		return doc, fmt.Errorf("replace document: %w", err)
	}
	return next, nil
}

// OpKind names a structural edit.
type OpKind string

const (
	OpReplaceSection OpKind = "replace_section"
	OpAppendSection  OpKind = "append_section"
	OpRemoveSection  OpKind = "remove_section"
	OpAppendItem     OpKind = "append_item"
	OpRemoveItem     OpKind = "remove_item"
	OpUpdateItem     OpKind = "update_item"
)

// Op is one structural edit. Section is the target title; NewSection is used
// by replace/append section ops, Item and Index by the item ops.
type Op struct {
	Kind       OpKind
	Section    string
	Index      int
	Item       Item
	NewSection Section
}

func (op Op) apply(doc Document) (Document, error) {
	switch op.Kind {
	case OpReplaceSection:
		return doc.ReplaceSection(op.Section, op.NewSection)
	case OpAppendSection:
		return doc.AppendSection(op.NewSection)
	case OpRemoveSection:
		return doc.RemoveSection(op.Section)
	case OpAppendItem:
		return doc.AppendItem(op.Section, op.Item)
	case OpRemoveItem:
		return doc.RemoveItem(op.Section, op.Index)
	case OpUpdateItem:
		return doc.UpdateItem(op.Section, op.Index, op.Item)
	default:
		return doc, fmt.Errorf("ledger: unknown op %q", op.Kind)
	}
}

// Patch is an ordered list of edits applied all-or-nothing.
type Patch struct {
	Ops []Op
}

// Apply runs every op in order against the evolving document. If any op
// fails, the original document is returned together with the error.
func (p Patch) Apply(doc Document) (Document, error) {
	cur := doc
	for i, op := range p.Ops {
		next, err := op.apply(cur)
		if err != nil {
			return doc, fmt.Errorf("op %d (%s): %w", i, op.Kind, err)
		}
		cur = next
	}
	return cur, nil
}
