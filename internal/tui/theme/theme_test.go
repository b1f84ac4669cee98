package theme

import "testing"

func TestByNameFallsBackToDefault(t *testing.T) {
	if got := ByName("paper").Name; got != "paper" {
		t.Fatalf("ByName(paper) = %q", got)
	}
	if got := ByName("no-such-theme").Name; got != FlexokiDark.Name {
		t.Fatalf("unknown theme = %q, want %q", got, FlexokiDark.Name)
	}
}

func TestNamesMatchesAll(t *testing.T) {
	names := Names()
	if len(names) != len(All) {
		t.Fatalf("len(Names()) = %d, want %d", len(names), len(All))
	}
	for i, n := range names {
		if ByName(n).Name != n {
			t.Errorf("Names()[%d] = %q does not round-trip", i, n)
		}
	}
}

func TestSetActive(t *testing.T) {
	prev := Active
	t.Cleanup(func() { Active = prev })

	SetActive("terminal")
	if Active.Name != "terminal" {
		t.Fatalf("Active = %q after SetActive(terminal)", Active.Name)
	}
}
