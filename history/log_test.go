package history

import (
	"errors"
	"testing"
)

func TestLogSharedCounter(t *testing.T) {
	l := NewLog(0)

	kinds := []Kind{KindDeposit, KindWithdrawal, KindDeposit, KindWithdrawal, KindWithdrawal}
	for i, k := range kinds {
		if got := l.Next(); got != uint64(i) {
			t.Fatalf("Next before record %d: got %d", i, got)
		}
		if err := l.Append(&Record{ID: l.Next(), Kind: k, Amount: uint64(i)}); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	if l.Len() != len(kinds) {
		t.Errorf("Len: got %d, want %d", l.Len(), len(kinds))
	}
	for i, k := range kinds {
		r, ok := l.Get(k, uint64(i))
		if !ok {
			t.Fatalf("record %d missing from %s table", i, k)
		}
		if r.Amount != uint64(i) {
			t.Errorf("record %d amount: got %d", i, r.Amount)
		}
		other := KindDeposit
		if k == KindDeposit {
			other = KindWithdrawal
		}
		if _, ok := l.Get(other, uint64(i)); ok {
			t.Errorf("record %d also present in %s table", i, other)
		}
	}
}

func TestLogRejectsOutOfSequence(t *testing.T) {
	l := NewLog(3)
	err := l.Append(&Record{ID: 2, Kind: KindDeposit})
	if !errors.Is(err, ErrOutOfSequence) {
		t.Fatalf("expected ErrOutOfSequence, got %v", err)
	}
	if l.Next() != 3 {
		t.Errorf("counter moved on rejected append: %d", l.Next())
	}
}

func TestLogGetReturnsCopy(t *testing.T) {
	l := NewLog(0)
	if err := l.Append(&Record{ID: 0, Kind: KindDeposit, Amount: 10}); err != nil {
		t.Fatal(err)
	}
	r, _ := l.Get(KindDeposit, 0)
	r.Amount = 99
	again, _ := l.Get(KindDeposit, 0)
	if again.Amount != 10 {
		t.Error("record mutated through returned copy")
	}
}

func TestLogEvict(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < 6; i++ {
		k := KindDeposit
		if i%2 == 1 {
			k = KindWithdrawal
		}
		if err := l.Append(&Record{ID: uint64(i), Kind: k}); err != nil {
			t.Fatal(err)
		}
	}

	before, evicted := l.Evict(4)
	if evicted != 2 || before != 2 {
		t.Fatalf("Evict: got before=%d evicted=%d", before, evicted)
	}
	if _, ok := l.Get(KindDeposit, 0); ok {
		t.Error("id 0 should be evicted")
	}
	if _, ok := l.Get(KindWithdrawal, 1); ok {
		t.Error("id 1 should be evicted")
	}
	if _, ok := l.Get(KindDeposit, 2); !ok {
		t.Error("id 2 should be retained")
	}
	if l.Next() != 6 {
		t.Errorf("eviction changed counter: %d", l.Next())
	}

	if _, evicted := l.Evict(10); evicted != 0 {
		t.Errorf("evicted %d under limit", evicted)
	}
}

func TestLogRestore(t *testing.T) {
	l := NewLog(10)
	if err := l.Restore(&Record{ID: 8, Kind: KindDeposit}); err != nil {
		t.Fatal(err)
	}
	if err := l.Restore(&Record{ID: 9, Kind: KindWithdrawal}); err != nil {
		t.Fatal(err)
	}
	if err := l.Restore(&Record{ID: 10, Kind: KindDeposit}); !errors.Is(err, ErrOutOfSequence) {
		t.Fatalf("expected ErrOutOfSequence for id at counter, got %v", err)
	}
	if l.Len() != 2 {
		t.Errorf("Len: got %d", l.Len())
	}

	before, evicted := l.Evict(1)
	if before != 9 || evicted != 1 {
		t.Errorf("Evict after restore: before=%d evicted=%d", before, evicted)
	}
}

func TestLogSkip(t *testing.T) {
	l := NewLog(4)
	l.Skip(4)
	if l.Next() != 5 {
		t.Fatalf("Skip(4): next %d, want 5", l.Next())
	}
	l.Skip(2)
	if l.Next() != 5 {
		t.Errorf("Skip below counter moved it to %d", l.Next())
	}
	if err := l.Append(&Record{ID: 5, Kind: KindDeposit}); err != nil {
		t.Fatalf("Append after skip: %v", err)
	}
	if _, ok := l.Get(KindDeposit, 4); ok {
		t.Error("skipped id should hold no record")
	}
}
