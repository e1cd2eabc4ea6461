// Package audithook bridges custody ledger events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/custody/event"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/plugin"
	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnDeposit             = (*Extension)(nil)
	_ plugin.OnWithdrawal          = (*Extension)(nil)
	_ plugin.OnInternalTransfer    = (*Extension)(nil)
	_ plugin.OnPauseChanged        = (*Extension)(nil)
	_ plugin.OnOwnerChanged        = (*Extension)(nil)
	_ plugin.OnPolicyChanged       = (*Extension)(nil)
	_ plugin.OnAssetListingChanged = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges custody events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	units    map[types.AssetID]int32
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Value movement hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (e *Extension) OnDeposit(ctx context.Context, evt *event.Event, rec *history.Record) error {
	action := ActionDepositToken
	if rec.Asset.IsNative() {
		action = ActionDepositNative
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceBalance, rec.Ref.String(), CategoryCustody, nil,
		e.movement(evt, rec)...,
	)
}

// OnWithdrawal implements plugin.OnWithdrawal.
func (e *Extension) OnWithdrawal(ctx context.Context, evt *event.Event, rec *history.Record) error {
	action := ActionWithdrawToken
	if rec.Asset.IsNative() {
		action = ActionWithdrawNative
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceBalance, rec.Ref.String(), CategoryCustody, nil,
		e.movement(evt, rec)...,
	)
}

// OnInternalTransfer implements plugin.OnInternalTransfer.
func (e *Extension) OnInternalTransfer(ctx context.Context, evt *event.Event) error {
	kv := []any{
		"event_id", evt.ID.String(),
		"from", string(evt.User),
		"to", string(evt.Recipient),
		"asset", string(evt.Asset),
		"amount", evt.Amount,
	}
	if decimals, ok := e.units[evt.Asset]; ok {
		kv = append(kv, "amount_display", types.FormatUnits(evt.Amount, decimals))
	}
	return e.record(ctx, ActionInternalTransfer, SeverityInfo, OutcomeSuccess,
		ResourceBalance, evt.Ref.String(), CategoryCustody, nil,
		kv...,
	)
}

// movement returns the metadata shared by deposit and withdrawal entries.
func (e *Extension) movement(evt *event.Event, rec *history.Record) []any {
	kv := []any{
		"event_id", evt.ID.String(),
		"history_id", rec.ID,
		"user", string(rec.User),
		"asset", string(rec.Asset),
		"gross", rec.Gross(),
		"net", rec.Amount,
		"fee", rec.Fee,
		"height", rec.Height,
	}
	if decimals, ok := e.units[rec.Asset]; ok {
		kv = append(kv,
			"gross_display", types.FormatUnits(rec.Gross(), decimals),
			"net_display", types.FormatUnits(rec.Amount, decimals),
			"fee_display", types.FormatUnits(rec.Fee, decimals),
		)
	}
	return kv
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnPauseChanged implements plugin.OnPauseChanged.
func (e *Extension) OnPauseChanged(ctx context.Context, evt *event.Event, paused bool) error {
	action := ActionWalletUnpaused
	severity := SeverityInfo
	if paused {
		action = ActionWalletPaused
		severity = SeverityWarning
	}
	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceWallet, evt.ID.String(), CategoryAccess, nil,
		"by", string(evt.User),
	)
}

// OnOwnerChanged implements plugin.OnOwnerChanged.
func (e *Extension) OnOwnerChanged(ctx context.Context, oldOwner, newOwner types.Principal) error {
	return e.record(ctx, ActionOwnerChanged, SeverityCritical, OutcomeSuccess,
		ResourcePolicy, string(newOwner), CategoryGovernance, nil,
		"old_owner", string(oldOwner),
		"new_owner", string(newOwner),
	)
}

// OnPolicyChanged implements plugin.OnPolicyChanged.
func (e *Extension) OnPolicyChanged(ctx context.Context, oldPolicy, newPolicy *policy.Policy) error {
	return e.record(ctx, ActionPolicyChanged, SeverityWarning, OutcomeSuccess,
		ResourcePolicy, "", CategoryGovernance, nil,
		"old_fee_rate_bps", oldPolicy.FeeRateBps,
		"fee_rate_bps", newPolicy.FeeRateBps,
		"old_min_deposit", oldPolicy.MinDeposit,
		"min_deposit", newPolicy.MinDeposit,
		"old_max_withdraw", oldPolicy.MaxWithdraw,
		"max_withdraw", newPolicy.MaxWithdraw,
	)
}

// OnAssetListingChanged implements plugin.OnAssetListingChanged.
func (e *Extension) OnAssetListingChanged(ctx context.Context, asset types.AssetID, supported bool) error {
	action := ActionAssetDelisted
	if supported {
		action = ActionAssetListed
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceAsset, string(asset), CategoryGovernance, nil,
		"asset", string(asset),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
