package session

import "testing"

func TestLedgerNewestFirst(t *testing.T) {
	l := NewLedger[int](5)
	for i := 1; i <= 3; i++ {
		l.Push(i)
	}

	if l.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", l.Len())
	}
	want := []int{3, 2, 1}
	for i, w := range want {
		if got := l.At(i); got != w {
			t.Fatalf("position %d: got %d, want %d", i, got, w)
		}
	}
}

func TestLedgerEvictsOldest(t *testing.T) {
	l := NewLedger[int](3)
	for i := 1; i <= 5; i++ {
		l.Push(i)
	}

	if l.Len() != 3 {
		t.Fatalf("expected ledger capped at 3, got %d", l.Len())
	}
	want := []int{5, 4, 3}
	for i, w := range want {
		if got := l.At(i); got != w {
			t.Fatalf("position %d: got %d, want %d", i, got, w)
		}
	}
}

func TestLedgerOverflowByOne(t *testing.T) {
	l := NewLedger[int](200)
	for i := 1; i <= 201; i++ {
		l.Push(i)
	}

	if l.Len() != 200 {
		t.Fatalf("expected 200 records, got %d", l.Len())
	}
	if got := l.At(0); got != 201 {
		t.Fatalf("newest should be 201, got %d", got)
	}
	if got := l.At(199); got != 2 {
		t.Fatalf("oldest should be 2 after first eviction, got %d", got)
	}
}

func TestLedgerItemsSnapshot(t *testing.T) {
	l := NewLedger[string](2)
	l.Push("a")
	l.Push("b")
	l.Push("c")

	items := l.Items()
	if len(items) != 2 || items[0] != "c" || items[1] != "b" {
		t.Fatalf("unexpected snapshot: %v", items)
	}
}

func TestLedgerClampsCapacity(t *testing.T) {
	l := NewLedger[int](0)
	l.Push(1)
	l.Push(2)
	if l.Cap() != 1 || l.Len() != 1 || l.At(0) != 2 {
		t.Fatalf("unexpected state: cap=%d len=%d", l.Cap(), l.Len())
	}
}
