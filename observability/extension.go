// Package observability provides a metrics extension for custody that
// records operation counts and amounts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/custody/event"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/plugin"
	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnDeposit             = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawal          = (*MetricsExtension)(nil)
	_ plugin.OnInternalTransfer    = (*MetricsExtension)(nil)
	_ plugin.OnPauseChanged        = (*MetricsExtension)(nil)
	_ plugin.OnOwnerChanged        = (*MetricsExtension)(nil)
	_ plugin.OnPolicyChanged       = (*MetricsExtension)(nil)
	_ plugin.OnAssetListingChanged = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide custody metrics.
// Register it as a ledger plugin to track deposits, withdrawals and fees.
type MetricsExtension struct {
	factory MetricFactory

	// Deposit metrics
	DepositsNative Counter
	DepositsToken  Counter
	DepositNet     Histogram

	// Withdrawal metrics
	WithdrawalsNative Counter
	WithdrawalsToken  Counter
	WithdrawalNet     Histogram

	// Fee metrics
	FeesCollected Counter

	// Transfer metrics
	InternalTransfers Counter
	TransferAmount    Histogram

	// Administrative metrics
	Paused         Counter
	Unpaused       Counter
	OwnerChanges   Counter
	PolicyChanges  Counter
	AssetsListed   Counter
	AssetsDelisted Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		DepositsNative: factory.Counter("custody.deposit.native"),
		DepositsToken:  factory.Counter("custody.deposit.token"),
		DepositNet:     factory.Histogram("custody.deposit.net_amount"),

		WithdrawalsNative: factory.Counter("custody.withdrawal.native"),
		WithdrawalsToken:  factory.Counter("custody.withdrawal.token"),
		WithdrawalNet:     factory.Histogram("custody.withdrawal.net_amount"),

		FeesCollected: factory.Counter("custody.fees.collected"),

		InternalTransfers: factory.Counter("custody.transfer.internal"),
		TransferAmount:    factory.Histogram("custody.transfer.amount"),

		Paused:         factory.Counter("custody.wallet.paused"),
		Unpaused:       factory.Counter("custody.wallet.unpaused"),
		OwnerChanges:   factory.Counter("custody.owner.changed"),
		PolicyChanges:  factory.Counter("custody.policy.changed"),
		AssetsListed:   factory.Counter("custody.asset.listed"),
		AssetsDelisted: factory.Counter("custody.asset.delisted"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Value movement hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (m *MetricsExtension) OnDeposit(_ context.Context, _ *event.Event, rec *history.Record) error {
	if rec.Asset.IsNative() {
		m.DepositsNative.Inc()
	} else {
		m.DepositsToken.Inc()
	}
	m.DepositNet.Observe(float64(rec.Amount))
	m.FeesCollected.Add(float64(rec.Fee))
	return nil
}

// OnWithdrawal implements plugin.OnWithdrawal.
func (m *MetricsExtension) OnWithdrawal(_ context.Context, _ *event.Event, rec *history.Record) error {
	if rec.Asset.IsNative() {
		m.WithdrawalsNative.Inc()
	} else {
		m.WithdrawalsToken.Inc()
	}
	m.WithdrawalNet.Observe(float64(rec.Amount))
	m.FeesCollected.Add(float64(rec.Fee))
	return nil
}

// OnInternalTransfer implements plugin.OnInternalTransfer.
func (m *MetricsExtension) OnInternalTransfer(_ context.Context, evt *event.Event) error {
	m.InternalTransfers.Inc()
	m.TransferAmount.Observe(float64(evt.Amount))
	return nil
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnPauseChanged implements plugin.OnPauseChanged.
func (m *MetricsExtension) OnPauseChanged(_ context.Context, _ *event.Event, paused bool) error {
	if paused {
		m.Paused.Inc()
	} else {
		m.Unpaused.Inc()
	}
	return nil
}

// OnOwnerChanged implements plugin.OnOwnerChanged.
func (m *MetricsExtension) OnOwnerChanged(_ context.Context, _, _ types.Principal) error {
	m.OwnerChanges.Inc()
	return nil
}

// OnPolicyChanged implements plugin.OnPolicyChanged.
func (m *MetricsExtension) OnPolicyChanged(_ context.Context, _, _ *policy.Policy) error {
	m.PolicyChanges.Inc()
	return nil
}

// OnAssetListingChanged implements plugin.OnAssetListingChanged.
func (m *MetricsExtension) OnAssetListingChanged(_ context.Context, _ types.AssetID, supported bool) error {
	if supported {
		m.AssetsListed.Inc()
	} else {
		m.AssetsDelisted.Inc()
	}
	return nil
}
