package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPatchAppliesOpsInOrder(t *testing.T) {
	doc := Document{Sections: []Section{masonry()}}

	p := Patch{Ops: []Op{
		{Kind: OpAppendSection, NewSection: Section{Title: "Windows"}},
		{Kind: OpAppendItem, Section: "Windows", Item: MustItem("window", 1, "ud", 280)},
		{Kind: OpRemoveItem, Section: "Masonry", Index: 1},
	}}

	next, err := p.Apply(doc)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// 2925 + 280
	if got := next.Total(); !got.Equal(decimal.NewFromInt(3205)) {
		t.Fatalf("grand total = %s, want 3205", got)
	}
	for _, s := range next.Sections {
		for _, it := range s.Items {
			if err := it.Validate(); err != nil {
				t.Fatalf("item left inconsistent: %v", err)
			}
		}
	}
	if !doc.Total().Equal(decimal.NewFromInt(3800)) {
		t.Fatalf("input document modified: %s", doc.Total())
	}
}

func TestPatchIsAllOrNothing(t *testing.T) {
	doc := Seed()

	p := Patch{Ops: []Op{
		{Kind: OpAppendItem, Section: "Windows", Item: MustItem("window", 1, "ud", 280)},
		{Kind: OpAppendItem, Section: "Roofing", Item: MustItem("tiles", 50, "m²", 20)},
	}}

	next, err := p.Apply(doc)
	if !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("err = %v, want ErrSectionNotFound", err)
	}
	if !next.Total().Equal(doc.Total()) {
		t.Fatalf("partial patch leaked: %s vs %s", next.Total(), doc.Total())
	}
	w, _ := next.Section("Windows")
	if len(w.Items) != 2 {
		t.Fatalf("Windows has %d items, want 2", len(w.Items))
	}
}

func TestPatchUnknownOp(t *testing.T) {
	_, err := Patch{Ops: []Op{{Kind: "rename"}}}.Apply(Seed())
	if err == nil {
		t.Fatal("unknown op accepted")
	}
}

func TestReplaceValidates(t *testing.T) {
	doc := Seed()

	repl := Replace{Document: Document{Sections: []Section{masonry(), masonry()}}}
	next, err := repl.Apply(doc)
	if !errors.Is(err, ErrDuplicateSection) {
		t.Fatalf("err = %v, want ErrDuplicateSection", err)
	}
	if next.Len() != doc.Len() {
		t.Fatal("failed replace changed the document")
	}

	src := Document{Sections: []Section{masonry()}}
	next, err = Replace{Document: src}.Apply(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !next.Total().Equal(decimal.NewFromInt(3800)) {
		t.Fatalf("grand total = %s, want 3800", next.Total())
	}
	src.Sections[0].Items[0] = MustItem("tampered", 1, "ud", 1)
	if next.Sections[0].Items[0].Name != "wall" {
		t.Fatal("replacement shares memory with the mutation")
	}
}
