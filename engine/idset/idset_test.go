package idset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSet_KeepsInsertionOrder(t *testing.T) {
	s := New("bomb", "debris", "wire", "debris")

	if diff := cmp.Diff([]string{"bomb", "debris", "wire"}, s.Items()); diff != "" {
		t.Errorf("Items mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_AddDelete(t *testing.T) {
	s := New()
	if !s.Add("crowbar") {
		t.Fatal("expected first Add to report insertion")
	}
	if s.Add("crowbar") {
		t.Error("expected duplicate Add to report false")
	}
	if !s.Has("crowbar") || s.Len() != 1 {
		t.Errorf("expected crowbar present once, got %v", s.Items())
	}
	if !s.Delete("crowbar") {
		t.Error("expected Delete to report removal")
	}
	if s.Delete("crowbar") {
		t.Error("expected second Delete to report false")
	}
	if s.Has("crowbar") || s.Len() != 0 {
		t.Errorf("expected empty set, got %v", s.Items())
	}
}

func TestSet_ReAddMovesToEnd(t *testing.T) {
	s := New("a", "b", "c")
	s.Delete("a")
	s.Add("a")

	if diff := cmp.Diff([]string{"b", "c", "a"}, s.Items()); diff != "" {
		t.Errorf("Items mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_NilSafeReads(t *testing.T) {
	var s *Set
	if s.Has("x") || s.Len() != 0 || s.Items() != nil {
		t.Error("nil set should read as empty")
	}
}

func TestSet_ItemsIsACopy(t *testing.T) {
	s := New("a")
	items := s.Items()
	items[0] = "z"
	if !s.Has("a") || s.Items()[0] != "a" {
		t.Error("mutating Items result must not affect the set")
	}
}
