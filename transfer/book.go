package transfer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/xraph/custody/types"
)

// Movement is one completed transfer recorded by a Book.
type Movement struct {
	From   types.Principal `json:"from"`
	To     types.Principal `json:"to"`
	Amount uint64          `json:"amount"`
	At     time.Time       `json:"at"`
}

// Book is an in-memory Port. It holds the environment balances of one asset
// and records every movement. It is safe for concurrent use.
type Book struct {
	mu        sync.Mutex
	balances  map[types.Principal]uint64
	movements []Movement
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{balances: make(map[types.Principal]uint64)}
}

var _ Port = (*Book)(nil)

// Mint credits amount to who out of thin air.
func (b *Book) Mint(who types.Principal, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if math.MaxUint64-b.balances[who] < amount {
		b.balances[who] = math.MaxUint64
		return
	}
	b.balances[who] += amount
}

// Transfer moves amount from one principal to another.
func (b *Book) Transfer(_ context.Context, amount uint64, from, to types.Principal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	have := b.balances[from]
	if have < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, have, amount)
	}
	if from != to && math.MaxUint64-b.balances[to] < amount {
		return fmt.Errorf("transfer: credit to %s overflows", to)
	}

	b.balances[from] = have - amount
	b.balances[to] += amount
	b.movements = append(b.movements, Movement{
		From:   from,
		To:     to,
		Amount: amount,
		At:     time.Now().UTC(),
	})
	return nil
}

// Balance returns the holding of who.
func (b *Book) Balance(_ context.Context, who types.Principal) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[who], nil
}

// Movements returns a copy of every movement in order.
func (b *Book) Movements() []Movement {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Movement, len(b.movements))
	copy(out, b.movements)
	return out
}
