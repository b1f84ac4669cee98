package disclosure

import (
	"errors"
	"testing"

	"github.com/theirongolddev/budgetchat/internal/ledger"
)

func TestSeedOpensFirstSectionOnly(t *testing.T) {
	doc := ledger.Seed()
	s := Seed(doc)

	for i, title := range doc.Titles() {
		if got, want := s.IsOpen(title), i == 0; got != want {
			t.Errorf("IsOpen(%q) = %v, want %v", title, got, want)
		}
	}
	if len(Seed(ledger.Document{})) != 0 {
		t.Fatal("empty document should seed an empty state")
	}
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	doc := ledger.Seed()
	start := Seed(doc)

	for _, title := range doc.Titles() {
		once, err := start.Toggle(doc, title)
		if err != nil {
			t.Fatalf("Toggle(%q): %v", title, err)
		}
		if once.IsOpen(title) == start.IsOpen(title) {
			t.Fatalf("Toggle(%q) did not flip", title)
		}
		for _, other := range doc.Titles() {
			if other != title && once.IsOpen(other) != start.IsOpen(other) {
				t.Fatalf("Toggle(%q) changed %q", title, other)
			}
		}

		twice, err := once.Toggle(doc, title)
		if err != nil {
			t.Fatal(err)
		}
		for _, name := range doc.Titles() {
			if twice.IsOpen(name) != start.IsOpen(name) {
				t.Fatalf("double toggle of %q changed %q", title, name)
			}
		}
	}
}

func TestToggleUnknownSection(t *testing.T) {
	doc := ledger.Seed()
	s := Seed(doc)

	next, err := s.Toggle(doc, "Roofing")
	if !errors.Is(err, ledger.ErrSectionNotFound) {
		t.Fatalf("err = %v, want ErrSectionNotFound", err)
	}
	if len(next) != len(s) || !next.IsOpen("Masonry") {
		t.Fatal("state changed on failed toggle")
	}
}

func TestToggleDoesNotMutateReceiver(t *testing.T) {
	doc := ledger.Seed()
	s := Seed(doc)

	if _, err := s.Toggle(doc, "Masonry"); err != nil {
		t.Fatal(err)
	}
	if !s.IsOpen("Masonry") {
		t.Fatal("Toggle wrote through to the receiver")
	}
}

func TestSyncFollowsDocument(t *testing.T) {
	doc := ledger.Seed()
	s, err := Seed(doc).Toggle(doc, "Painting")
	if err != nil {
		t.Fatal(err)
	}

	next, err := doc.RemoveSection("Masonry")
	if err != nil {
		t.Fatal(err)
	}
	next, err = next.AppendSection(ledger.Section{Title: "Roofing"})
	if err != nil {
		t.Fatal(err)
	}

	synced := s.Sync(next)
	if _, ok := synced["Masonry"]; ok {
		t.Fatal("removed section kept a flag")
	}
	if synced.IsOpen("Roofing") {
		t.Fatal("new section should start closed")
	}
	if !synced.IsOpen("Painting") {
		t.Fatal("existing flag lost on sync")
	}
	if got := synced.Open(next); len(got) != 1 || got[0] != "Painting" {
		t.Fatalf("Open() = %v, want [Painting]", got)
	}
}
