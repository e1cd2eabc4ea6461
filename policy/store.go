package policy

import "context"

// Store persists the single policy row of a ledger.
type Store interface {
	GetPolicy(ctx context.Context) (*Policy, error)
	SavePolicy(ctx context.Context, p *Policy) error
}
