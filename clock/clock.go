// Package clock supplies the height and transaction stamp recorded with
// every history entry and event.
package clock

import (
	"time"

	"github.com/google/uuid"
)

// Clock reports the current height and an opaque stamp identifying the
// triggering transaction.
type Clock interface {
	Height() uint64
	TxStamp() []byte
}

// Fixed is a Clock that always reports the same values.
type Fixed struct {
	H     uint64
	Stamp []byte
}

// Height implements Clock.
func (f Fixed) Height() uint64 { return f.H }

// TxStamp implements Clock.
func (f Fixed) TxStamp() []byte {
	if f.Stamp == nil {
		return nil
	}
	out := make([]byte, len(f.Stamp))
	copy(out, f.Stamp)
	return out
}

// System is a Clock backed by wall time. The height is the Unix time in
// seconds and every stamp is a fresh UUIDv7.
type System struct{}

// Height implements Clock.
func (System) Height() uint64 { return uint64(time.Now().Unix()) }

// TxStamp implements Clock.
func (System) TxStamp() []byte {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	b := u[:]
	return append([]byte(nil), b...)
}
