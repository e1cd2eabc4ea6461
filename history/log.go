package history

import (
	"errors"
	"fmt"
)

// ErrOutOfSequence is returned when a record does not carry the next id.
var ErrOutOfSequence = errors.New("history: record out of sequence")

// Log holds the deposit and withdrawal tables in memory. Both tables draw
// their keys from one counter, so an id identifies exactly one record across
// the whole log.
//
// Log is not safe for concurrent use; the owning ledger serializes access.
type Log struct {
	next   uint64
	oldest uint64
	tables map[Kind]map[uint64]*Record
}

// NewLog creates an empty log whose first record will receive id next.
func NewLog(next uint64) *Log {
	return &Log{
		next:   next,
		oldest: next,
		tables: map[Kind]map[uint64]*Record{
			KindDeposit:    make(map[uint64]*Record),
			KindWithdrawal: make(map[uint64]*Record),
		},
	}
}

// Next returns the id the next appended record must carry.
func (l *Log) Next() uint64 { return l.next }

// Len returns the number of retained records across both tables.
func (l *Log) Len() int {
	return len(l.tables[KindDeposit]) + len(l.tables[KindWithdrawal])
}

// Get returns a copy of the record with the given id in the kind table.
func (l *Log) Get(kind Kind, recordID uint64) (Record, bool) {
	t, ok := l.tables[kind]
	if !ok {
		return Record{}, false
	}
	r, ok := t[recordID]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Append adds r and advances the counter.
func (l *Log) Append(r *Record) error {
	if r.ID != l.next {
		return fmt.Errorf("%w: got %d, want %d", ErrOutOfSequence, r.ID, l.next)
	}
	t, ok := l.tables[r.Kind]
	if !ok {
		return fmt.Errorf("history: unknown kind %q", r.Kind)
	}
	c := *r
	t[r.ID] = &c
	l.next++
	return nil
}

// Skip advances the counter past recordID, an id that was reserved and
// persisted as the policy counter but never appended.
func (l *Log) Skip(recordID uint64) {
	if recordID >= l.next {
		l.next = recordID + 1
	}
}

// Restore inserts a previously persisted record without touching the
// counter. Records at or beyond the counter are rejected.
func (l *Log) Restore(r *Record) error {
	if r.ID >= l.next {
		return fmt.Errorf("%w: restored id %d not below counter %d", ErrOutOfSequence, r.ID, l.next)
	}
	t, ok := l.tables[r.Kind]
	if !ok {
		return fmt.Errorf("history: unknown kind %q", r.Kind)
	}
	c := *r
	t[r.ID] = &c
	if r.ID < l.oldest {
		l.oldest = r.ID
	}
	return nil
}

// Evict drops the oldest records until at most limit remain. It returns the
// lowest retained id afterwards and the number of records dropped.
func (l *Log) Evict(limit uint64) (before uint64, evicted int) {
	for uint64(l.Len()) > limit && l.oldest < l.next {
		for _, t := range l.tables {
			if _, ok := t[l.oldest]; ok {
				delete(t, l.oldest)
				evicted++
			}
		}
		l.oldest++
	}
	return l.oldest, evicted
}
