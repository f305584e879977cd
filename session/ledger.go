package session

// Ledger is a capacity-bounded collection of feed records kept newest-first
// by arrival order. Push is O(1): when the ledger is full the oldest record
// is overwritten in place instead of reslicing the backing array.
//
// Records are never re-sorted by any of their own fields, so two records
// arriving with out-of-order timestamps keep their arrival order.
type Ledger[T any] struct {
	buf  []T
	head int
	size int
}

// NewLedger creates a ledger with the given capacity. Capacities below one
// are clamped to one so Push can never fail.
func NewLedger[T any](capacity int) *Ledger[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ledger[T]{buf: make([]T, capacity)}
}

// Push prepends a record, evicting the oldest when the ledger is at
// capacity.
func (l *Ledger[T]) Push(v T) {
	n := len(l.buf)
	l.head = (l.head - 1 + n) % n
	l.buf[l.head] = v
	if l.size < n {
		l.size++
	}
}

// Len returns the number of records currently held.
func (l *Ledger[T]) Len() int {
	return l.size
}

// Cap returns the fixed capacity.
func (l *Ledger[T]) Cap() int {
	return len(l.buf)
}

// At returns the record at position i, where 0 is the newest record.
func (l *Ledger[T]) At(i int) T {
	return l.buf[(l.head+i)%len(l.buf)]
}

// Items returns a newest-first snapshot of the ledger contents.
func (l *Ledger[T]) Items() []T {
	out := make([]T, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.At(i)
	}
	return out
}
