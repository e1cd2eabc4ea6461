package audithook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/custody"
	audithook "github.com/xraph/custody/audit_hook"
	"github.com/xraph/custody/transfer"
	"github.com/xraph/custody/types"
)

func collect(events *[]*audithook.AuditEvent) audithook.RecorderFunc {
	return func(_ context.Context, evt *audithook.AuditEvent) error {
		*events = append(*events, evt)
		return nil
	}
}

func newLedger(t *testing.T, hook *audithook.Extension) *custody.Ledger {
	t.Helper()
	book := transfer.NewBook()
	book.Mint("alice", 10_000_000)

	l, err := custody.New("owner", nil,
		custody.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		custody.WithNativeBook(book),
		custody.WithPlugin(hook),
	)
	require.NoError(t, err)
	require.NoError(t, l.Start(context.Background()))
	return l
}

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	var events []*audithook.AuditEvent
	l := newLedger(t, audithook.New(collect(&events)))

	require.NoError(t, l.SetFeeRate(ctx, "owner", 100))
	_, err := l.DepositNative(ctx, "alice", 1000)
	require.NoError(t, err)
	require.NoError(t, l.AddSupportedAsset(ctx, "owner", "token-a"))
	require.NoError(t, l.Pause(ctx, "owner"))
	require.NoError(t, l.SetOwner(ctx, "owner", "bob"))

	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	require.Equal(t, []string{
		audithook.ActionPolicyChanged,
		audithook.ActionDepositNative,
		audithook.ActionAssetListed,
		audithook.ActionWalletPaused,
		audithook.ActionOwnerChanged,
	}, actions)

	deposit := events[1]
	require.Equal(t, audithook.ResourceBalance, deposit.Resource)
	require.Equal(t, audithook.CategoryCustody, deposit.Category)
	require.Equal(t, uint64(990), deposit.Metadata["net"])
	require.Equal(t, uint64(10), deposit.Metadata["fee"])
	require.Equal(t, "alice", deposit.Metadata["user"])

	require.Equal(t, audithook.SeverityCritical, events[4].Severity)
	require.Equal(t, "bob", events[4].Metadata["new_owner"])
}

func TestEnabledActions(t *testing.T) {
	ctx := context.Background()
	var events []*audithook.AuditEvent
	l := newLedger(t, audithook.New(collect(&events),
		audithook.WithEnabledActions(audithook.ActionWalletPaused),
	))

	_, err := l.DepositNative(ctx, "alice", 1000)
	require.NoError(t, err)
	require.NoError(t, l.Pause(ctx, "owner"))

	require.Len(t, events, 1)
	require.Equal(t, audithook.ActionWalletPaused, events[0].Action)
}

func TestDisabledActions(t *testing.T) {
	ctx := context.Background()
	var events []*audithook.AuditEvent
	l := newLedger(t, audithook.New(collect(&events),
		audithook.WithDisabledActions(audithook.ActionDepositNative),
	))

	_, err := l.DepositNative(ctx, "alice", 1000)
	require.NoError(t, err)
	require.NoError(t, l.Pause(ctx, "owner"))
	require.NoError(t, l.Unpause(ctx, "owner"))

	require.Len(t, events, 2)
	require.Equal(t, audithook.ActionWalletPaused, events[0].Action)
	require.Equal(t, audithook.ActionWalletUnpaused, events[1].Action)
}

func TestRecorderFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	failing := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	})
	l := newLedger(t, audithook.New(failing,
		audithook.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	))

	net, err := l.DepositNative(ctx, "alice", 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), net)
}

func TestDisplayUnits(t *testing.T) {
	ctx := context.Background()
	var events []*audithook.AuditEvent
	l := newLedger(t, audithook.New(collect(&events),
		audithook.WithUnits(types.NativeAsset, 6),
	))

	require.NoError(t, l.SetFeeRate(ctx, "owner", 100))
	_, err := l.DepositNative(ctx, "alice", 1_500_000)
	require.NoError(t, err)
	_, err = l.TransferInternal(ctx, "alice", "bob", types.NativeAsset, 250_000)
	require.NoError(t, err)

	require.Len(t, events, 3)
	deposit := events[1]
	require.Equal(t, uint64(1_500_000), deposit.Metadata["gross"])
	require.Equal(t, "1.500000", deposit.Metadata["gross_display"])
	require.Equal(t, "1.485000", deposit.Metadata["net_display"])
	require.Equal(t, "0.015000", deposit.Metadata["fee_display"])
	require.True(t, strings.HasPrefix(deposit.ResourceID, "dep_"))

	moved := events[2]
	require.Equal(t, audithook.ActionInternalTransfer, moved.Action)
	require.True(t, strings.HasPrefix(moved.ResourceID, "xfer_"), moved.ResourceID)
	require.Equal(t, "0.250000", moved.Metadata["amount_display"])
}

func TestNoDisplayUnitsByDefault(t *testing.T) {
	ctx := context.Background()
	var events []*audithook.AuditEvent
	l := newLedger(t, audithook.New(collect(&events)))

	_, err := l.DepositNative(ctx, "alice", 1000)
	require.NoError(t, err)

	require.Len(t, events, 1)
	require.Equal(t, uint64(1000), events[0].Metadata["gross"])
	require.NotContains(t, events[0].Metadata, "net_display")
}
