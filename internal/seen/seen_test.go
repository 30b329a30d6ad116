package seen

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "seen.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFilterAndMark(t *testing.T) {
	s := openTestStore(t)

	unseen, err := s.Filter([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(unseen) != 3 {
		t.Fatalf("fresh store filtered to %v", unseen)
	}

	if err := s.Mark("b", "Video B"); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	unseen, err = s.Filter([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(unseen) != 2 || unseen[0] != "a" || unseen[1] != "c" {
		t.Errorf("filtered = %v, want [a c]", unseen)
	}
}

func TestMarkIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	if err := s.Mark("a", "first"); err != nil {
		t.Fatal(err)
	}
	if err := s.Mark("a", "renamed"); err != nil {
		t.Fatalf("re-marking failed: %v", err)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestFilterEmpty(t *testing.T) {
	s := openTestStore(t)
	unseen, err := s.Filter(nil)
	if err != nil {
		t.Fatalf("Filter(nil): %v", err)
	}
	if len(unseen) != 0 {
		t.Errorf("unseen = %v", unseen)
	}
}
