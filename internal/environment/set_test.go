// pattern: Functional Core

package environment

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSet_Dedup(t *testing.T) {
	a := Local("a", "/env/a")
	s := NewSet(slices.Values([]Descriptor{a, a, Local("a", "/env/a")}))

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	if s.Add(a) {
		t.Error("Add() of existing member should report false")
	}
}

func TestSet_SameNameDifferentPath(t *testing.T) {
	s := NewSet(nil)
	s.Add(Local("default", "/home/u/p1"))
	s.Add(Local("default", "/home/u/p2"))
	s.Add(Remote("default"))

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
}

func TestSet_RemoveAndContains(t *testing.T) {
	a, b := Local("a", "/env/a"), Local("b", "/env/b")
	s := NewSet(slices.Values([]Descriptor{a, b}))

	if !s.Remove(a) {
		t.Error("Remove() of member should report true")
	}
	if s.Remove(a) {
		t.Error("second Remove() should report false")
	}
	if s.Contains(a) || !s.Contains(b) {
		t.Errorf("Contains() wrong after Remove: a=%v b=%v", s.Contains(a), s.Contains(b))
	}
}

func TestSet_ItemsSorted(t *testing.T) {
	s := NewSet(slices.Values([]Descriptor{
		Local("c", "/env/c"),
		Local("a", "/env/a"),
		Local("b", "/env/b"),
	}))

	want := []Descriptor{Local("a", "/env/a"), Local("b", "/env/b"), Local("c", "/env/c")}
	if diff := cmp.Diff(want, s.Items()); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, slices.Collect(s.All())); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_EmptyItemsNotNil(t *testing.T) {
	if NewSet(nil).Items() == nil {
		t.Error("Items() on empty set should be non-nil")
	}
}
