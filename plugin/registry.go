package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/custody/event"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/types"
)

// DefaultTimeout bounds every plugin call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery so dispatch never type-asserts.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onDeposit             []OnDeposit
	onWithdrawal          []OnWithdrawal
	onInternalTransfer    []OnInternalTransfer
	onPauseChanged        []OnPauseChanged
	onOwnerChanged        []OnOwnerChanged
	onPolicyChanged       []OnPolicyChanged
	onAssetListingChanged []OnAssetListingChanged
	onEvent               []OnEvent
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnDeposit); ok {
		r.onDeposit = append(r.onDeposit, v)
	}
	if v, ok := p.(OnWithdrawal); ok {
		r.onWithdrawal = append(r.onWithdrawal, v)
	}
	if v, ok := p.(OnInternalTransfer); ok {
		r.onInternalTransfer = append(r.onInternalTransfer, v)
	}
	if v, ok := p.(OnPauseChanged); ok {
		r.onPauseChanged = append(r.onPauseChanged, v)
	}
	if v, ok := p.(OnOwnerChanged); ok {
		r.onOwnerChanged = append(r.onOwnerChanged, v)
	}
	if v, ok := p.(OnPolicyChanged); ok {
		r.onPolicyChanged = append(r.onPolicyChanged, v)
	}
	if v, ok := p.(OnAssetListingChanged); ok {
		r.onAssetListingChanged = append(r.onAssetListingChanged, v)
	}
	if v, ok := p.(OnEvent); ok {
		r.onEvent = append(r.onEvent, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnDeposit", reflect.TypeFor[OnDeposit]()},
	{"OnWithdrawal", reflect.TypeFor[OnWithdrawal]()},
	{"OnInternalTransfer", reflect.TypeFor[OnInternalTransfer]()},
	{"OnPauseChanged", reflect.TypeFor[OnPauseChanged]()},
	{"OnOwnerChanged", reflect.TypeFor[OnOwnerChanged]()},
	{"OnPolicyChanged", reflect.TypeFor[OnPolicyChanged]()},
	{"OnAssetListingChanged", reflect.TypeFor[OnAssetListingChanged]()},
	{"OnEvent", reflect.TypeFor[OnEvent]()},
}

// implementedInterfaces returns the hook names p implements.
func implementedInterfaces(p Plugin) []string {
	var out []string
	t := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if t.Implements(h.typ) {
			out = append(out, h.name)
		}
	}
	return out
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDeposit emits a committed deposit and its history record.
func (r *Registry) EmitDeposit(ctx context.Context, evt *event.Event, rec *history.Record) {
	r.mu.RLock()
	plugins := r.onDeposit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDeposit(ctx, evt, rec)
		}); err != nil {
			r.logger.Warn("plugin OnDeposit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
	r.emitEvent(ctx, evt)
}

// EmitWithdrawal emits a committed withdrawal and its history record.
func (r *Registry) EmitWithdrawal(ctx context.Context, evt *event.Event, rec *history.Record) {
	r.mu.RLock()
	plugins := r.onWithdrawal
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawal(ctx, evt, rec)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawal failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
	r.emitEvent(ctx, evt)
}

// EmitInternalTransfer emits a committed internal transfer.
func (r *Registry) EmitInternalTransfer(ctx context.Context, evt *event.Event) {
	r.mu.RLock()
	plugins := r.onInternalTransfer
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInternalTransfer(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnInternalTransfer failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
	r.emitEvent(ctx, evt)
}

// EmitPauseChanged emits a pause toggle.
func (r *Registry) EmitPauseChanged(ctx context.Context, evt *event.Event, paused bool) {
	r.mu.RLock()
	plugins := r.onPauseChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPauseChanged(ctx, evt, paused)
		}); err != nil {
			r.logger.Warn("plugin OnPauseChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
	r.emitEvent(ctx, evt)
}

// EmitOwnerChanged emits an ownership change.
func (r *Registry) EmitOwnerChanged(ctx context.Context, oldOwner, newOwner types.Principal) {
	r.mu.RLock()
	plugins := r.onOwnerChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOwnerChanged(ctx, oldOwner, newOwner)
		}); err != nil {
			r.logger.Warn("plugin OnOwnerChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPolicyChanged emits a fee or limit change.
func (r *Registry) EmitPolicyChanged(ctx context.Context, oldPolicy, newPolicy *policy.Policy) {
	r.mu.RLock()
	plugins := r.onPolicyChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPolicyChanged(ctx, oldPolicy, newPolicy)
		}); err != nil {
			r.logger.Warn("plugin OnPolicyChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAssetListingChanged emits a whitelist change.
func (r *Registry) EmitAssetListingChanged(ctx context.Context, asset types.AssetID, supported bool) {
	r.mu.RLock()
	plugins := r.onAssetListingChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAssetListingChanged(ctx, asset, supported)
		}); err != nil {
			r.logger.Warn("plugin OnAssetListingChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

func (r *Registry) emitEvent(ctx context.Context, evt *event.Event) {
	r.mu.RLock()
	plugins := r.onEvent
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnEvent(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnEvent failed",
				"plugin", p.Name(),
				"event", evt.Name,
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
