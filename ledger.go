package custody

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/xraph/custody/asset"
	"github.com/xraph/custody/balance"
	"github.com/xraph/custody/clock"
	"github.com/xraph/custody/event"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/plugin"
	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/store"
	"github.com/xraph/custody/transfer"
	"github.com/xraph/custody/types"
)

// Ledger is the custody engine. It owns the policy, the whitelist, the
// balance table and the history log, and serializes every operation.
type Ledger struct {
	mu sync.RWMutex

	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   clock.Clock
	native  *transfer.Book
	account types.Principal
	evict   bool
	migrate bool

	// State
	policy    *policy.Policy
	supported map[types.AssetID]time.Time
	balances  map[balance.Key]uint64
	log       *history.Log
}

// New creates a ledger deployed by deployer. The deployer becomes the
// initial owner unless WithPolicy names another. A nil store keeps all state
// in memory only.
func New(deployer types.Principal, s store.Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:     s,
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),
		clock:     clock.System{},
		account:   types.DefaultCustodyAccount,
		migrate:   true,
		policy:    policy.Default(deployer),
		supported: make(map[types.AssetID]time.Time),
		balances:  make(map[balance.Key]uint64),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.native == nil {
		l.native = transfer.NewBook()
	}
	if l.policy.Owner.IsZero() {
		l.policy.Owner = deployer
	}
	if err := l.policy.Validate(); err != nil {
		return nil, fmt.Errorf("custody: %w", err)
	}
	if l.account.IsZero() || l.account.IsBurn() {
		return nil, fmt.Errorf("custody: invalid custody account %q", l.account)
	}
	l.log = history.NewLog(l.policy.NextHistoryID)

	return l, nil
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		if err := l.plugins.Register(p); err != nil {
			l.logger.Warn("plugin registration failed", "plugin", p.Name(), "error", err)
		}
	}
}

// WithPluginTimeout bounds each plugin call.
func WithPluginTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithClock sets the source of heights and transaction stamps.
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithNativeBook sets the book holding environment balances of the native
// asset.
func WithNativeBook(b *transfer.Book) Option {
	return func(l *Ledger) {
		l.native = b
	}
}

// WithCustodyAccount sets the principal that holds custodied assets.
func WithCustodyAccount(p types.Principal) Option {
	return func(l *Ledger) {
		l.account = p
	}
}

// WithPolicy replaces the initial policy. An empty owner falls back to the
// deployer. A persisted policy loaded by Start takes precedence.
func WithPolicy(p *policy.Policy) Option {
	return func(l *Ledger) {
		if p != nil {
			l.policy = p.Clone()
		}
	}
}

// WithHistoryEviction makes the ledger drop the oldest history records once
// more than MaxHistory are retained. Without it history is never trimmed.
func WithHistoryEviction() Option {
	return func(l *Ledger) {
		l.evict = true
	}
}

// WithoutMigrate makes Start load state without migrating the store first.
func WithoutMigrate() Option {
	return func(l *Ledger) {
		l.migrate = false
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Start migrates the store unless WithoutMigrate was given, then loads
// persisted state. A fresh store receives the initial policy.
func (l *Ledger) Start(ctx context.Context) error {
	return l.exclusive(func() (func(), error) {
		if l.store != nil {
			if l.migrate {
				if err := l.store.Migrate(ctx); err != nil {
					return nil, err
				}
			}
			if err := l.load(ctx); err != nil {
				return nil, err
			}
		}

		l.logger.Info("custody ledger started",
			"owner", l.policy.Owner,
			"custody_account", l.account,
			"fee_rate_bps", l.policy.FeeRateBps,
			"next_history_id", l.log.Next(),
			"plugins", l.plugins.Count(),
		)
		return func() { l.plugins.EmitInit(ctx, l) }, nil
	})
}

// Stop shuts down plugins and closes the store. Operations already holding
// the lock finish before the store is closed.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())

	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Info("custody ledger stopped")

	if l.store == nil {
		return nil
	}
	return l.store.Close()
}

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// NativeBook returns the book holding environment balances of the native
// asset.
func (l *Ledger) NativeBook() *transfer.Book { return l.native }

// CustodyAccount returns the principal holding custodied assets.
func (l *Ledger) CustodyAccount() types.Principal { return l.account }

func (l *Ledger) load(ctx context.Context) error {
	p, err := l.store.GetPolicy(ctx)
	if errors.Is(err, ErrNotFound) {
		if err := l.store.SavePolicy(ctx, l.policy); err != nil {
			return fmt.Errorf("custody: save initial policy: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("custody: load policy: %w", err)
	}

	assets, err := l.store.ListAssets(ctx)
	if err != nil {
		return fmt.Errorf("custody: load assets: %w", err)
	}
	balances, err := l.store.ListBalances(ctx, balance.ListOpts{})
	if err != nil {
		return fmt.Errorf("custody: load balances: %w", err)
	}
	records, err := l.store.ListHistory(ctx, history.ListOpts{})
	if err != nil {
		return fmt.Errorf("custody: load history: %w", err)
	}

	// A counter behind the highest persisted id resumes past it.
	next := p.NextHistoryID
	if n := len(records); n > 0 && records[n-1].ID >= next {
		l.logger.Warn("history counter behind persisted records",
			"next_history_id", next,
			"highest_id", records[n-1].ID,
		)
		next = records[n-1].ID + 1
		p.NextHistoryID = next
	}

	log := history.NewLog(next)
	for _, r := range records {
		if err := log.Restore(r); err != nil {
			return fmt.Errorf("custody: load history: %w", err)
		}
	}

	l.policy = p
	l.log = log
	l.supported = make(map[types.AssetID]time.Time, len(assets))
	for _, a := range assets {
		l.supported[a.ID] = a.AddedAt
	}
	l.balances = make(map[balance.Key]uint64, len(balances))
	for _, b := range balances {
		if b.Amount > 0 {
			l.balances[b.Key()] = b.Amount
		}
	}

	l.logger.Debug("custody state loaded",
		"assets", len(assets),
		"balances", len(l.balances),
		"history", log.Len(),
	)
	return nil
}

// ──────────────────────────────────────────────────
// State changes
// ──────────────────────────────────────────────────

// locked runs fn under the write lock. The notify func fn returns is called
// after the lock is released, so plugin hooks may read the ledger.
func locked[T any](l *Ledger, fn func() (T, func(), error)) (T, error) {
	v, notify, err := func() (T, func(), error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		return fn()
	}()
	if err != nil {
		return v, err
	}
	if notify != nil {
		notify()
	}
	return v, nil
}

// exclusive is locked for operations without a result.
func (l *Ledger) exclusive(fn func() (func(), error)) error {
	_, err := locked(l, func() (struct{}, func(), error) {
		notify, err := fn()
		return struct{}{}, notify, err
	})
	return err
}

// changeset is the staged effect of one operation. It is persisted first and
// applied to memory only once every write succeeded.
type changeset struct {
	policy      *policy.Policy
	balances    []*balance.Balance
	record      *history.Record
	addAsset    *asset.Asset
	removeAsset types.AssetID
}

func (c *changeset) setBalance(user types.Principal, assetID types.AssetID, amount uint64) {
	c.balances = append(c.balances, &balance.Balance{
		User:      user,
		Asset:     assetID,
		Amount:    amount,
		UpdatedAt: time.Now().UTC(),
	})
}

// nextPolicy returns a touched copy of the current policy for staging.
func (l *Ledger) nextPolicy() *policy.Policy {
	p := l.policy.Clone()
	p.Touch()
	return p
}

func (l *Ledger) commit(ctx context.Context, c *changeset) error {
	if err := l.persist(ctx, c); err != nil {
		return err
	}

	if c.record != nil {
		if err := l.log.Append(c.record); err != nil {
			return fmt.Errorf("custody: append history: %w", err)
		}
	}
	for _, b := range c.balances {
		if b.Amount == 0 {
			delete(l.balances, b.Key())
			continue
		}
		l.balances[b.Key()] = b.Amount
	}
	if c.addAsset != nil {
		l.supported[c.addAsset.ID] = c.addAsset.AddedAt
	}
	if c.removeAsset != "" {
		delete(l.supported, c.removeAsset)
	}
	if c.policy != nil {
		l.policy = c.policy
	}

	if c.record != nil && l.evict {
		l.trimHistory(ctx)
	}
	return nil
}

// persist writes c to the store. The policy row goes first so the persisted
// history counter never trails a persisted history row.
func (l *Ledger) persist(ctx context.Context, c *changeset) error {
	if l.store == nil {
		return nil
	}
	if c.policy != nil {
		if err := l.store.SavePolicy(ctx, c.policy); err != nil {
			return fmt.Errorf("custody: persist policy: %w", err)
		}
	}

	var recorded, touched bool
	err := func() error {
		if c.record != nil {
			if err := l.store.AppendHistory(ctx, []*history.Record{c.record}); err != nil {
				return fmt.Errorf("custody: persist history: %w", err)
			}
			recorded = true
		}
		if len(c.balances) > 0 {
			touched = true
			if err := l.store.PutBalances(ctx, c.balances); err != nil {
				return fmt.Errorf("custody: persist balances: %w", err)
			}
		}
		if c.addAsset != nil {
			if err := l.store.AddAsset(ctx, c.addAsset); err != nil {
				return fmt.Errorf("custody: persist asset: %w", err)
			}
		}
		if c.removeAsset != "" {
			if err := l.store.RemoveAsset(ctx, c.removeAsset); err != nil {
				return fmt.Errorf("custody: remove asset: %w", err)
			}
		}
		return nil
	}()
	if err != nil {
		l.rollback(ctx, c, recorded, touched)
	}
	return err
}

// rollback undoes the writes of a changeset whose persist failed part way.
// Memory still holds the state before c. The previous policy row is only
// restored once the history row is gone; otherwise the advanced counter is
// kept and its id is skipped.
func (l *Ledger) rollback(ctx context.Context, c *changeset, recorded, touched bool) {
	clean := true
	if recorded {
		if err := l.store.DeleteHistory(ctx, c.record.ID); err != nil {
			l.logger.Warn("failed to delete history of failed commit", "history_id", c.record.ID, "error", err)
			clean = false
		}
	}
	if touched {
		prev := make([]*balance.Balance, len(c.balances))
		for i, b := range c.balances {
			prev[i] = &balance.Balance{User: b.User, Asset: b.Asset, Amount: l.balances[b.Key()], UpdatedAt: b.UpdatedAt}
		}
		if err := l.store.PutBalances(ctx, prev); err != nil {
			l.logger.Warn("failed to restore balances of failed commit", "error", err)
		}
	}
	if c.policy == nil {
		return
	}
	if clean {
		err := l.store.SavePolicy(ctx, l.policy)
		if err == nil {
			return
		}
		l.logger.Warn("failed to restore policy of failed commit", "error", err)
	}
	l.policy = c.policy
	if c.record != nil {
		l.log.Skip(c.record.ID)
	}
}

func (l *Ledger) trimHistory(ctx context.Context) {
	before, evicted := l.log.Evict(l.policy.MaxHistory)
	if evicted == 0 {
		return
	}
	l.logger.Debug("history evicted", "before", before, "evicted", evicted)
	if l.store == nil {
		return
	}
	if _, err := l.store.PurgeHistory(ctx, before); err != nil {
		l.logger.Warn("failed to purge evicted history", "before", before, "error", err)
	}
}

// newEvent stamps an event with the current height and transaction stamp.
func (l *Ledger) newEvent(name event.Name, user types.Principal) *event.Event {
	e := event.New(name)
	e.User = user
	e.Height = l.clock.Height()
	e.TxStamp = l.clock.TxStamp()
	return e
}

func (l *Ledger) requireOwner(caller types.Principal) error {
	if caller != l.policy.Owner {
		return ErrNotOwner
	}
	return nil
}

func sortedAssets(m map[types.AssetID]time.Time) []types.AssetID {
	out := make([]types.AssetID, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
