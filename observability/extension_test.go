package observability_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/custody"
	"github.com/xraph/custody/observability"
	"github.com/xraph/custody/transfer"
)

type memMetrics struct {
	mu       sync.Mutex
	counters map[string]float64
	observed map[string][]float64
}

func newMemMetrics() *memMetrics {
	return &memMetrics{
		counters: make(map[string]float64),
		observed: make(map[string][]float64),
	}
}

type memCounter struct {
	m    *memMetrics
	name string
}

func (c memCounter) Inc() { c.Add(1) }

func (c memCounter) Add(v float64) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.m.counters[c.name] += v
}

type memHistogram struct {
	m    *memMetrics
	name string
}

func (h memHistogram) Observe(v float64) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	h.m.observed[h.name] = append(h.m.observed[h.name], v)
}

func (m *memMetrics) Counter(name string) observability.Counter {
	return memCounter{m: m, name: name}
}

func (m *memMetrics) Histogram(name string) observability.Histogram {
	return memHistogram{m: m, name: name}
}

func TestMetricsExtension(t *testing.T) {
	ctx := context.Background()
	metrics := newMemMetrics()

	book := transfer.NewBook()
	book.Mint("alice", 100_000)
	tokens := transfer.NewBook()
	tokens.Mint("alice", 100_000)

	l, err := custody.New("owner", nil,
		custody.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		custody.WithNativeBook(book),
		custody.WithPlugin(observability.NewMetricsExtension(metrics)),
	)
	require.NoError(t, err)
	require.NoError(t, l.Start(ctx))

	require.NoError(t, l.SetFeeRate(ctx, "owner", 100))
	require.NoError(t, l.AddSupportedAsset(ctx, "owner", "token-a"))

	_, err = l.DepositNative(ctx, "alice", 10_000)
	require.NoError(t, err)
	_, err = l.DepositToken(ctx, "alice", "token-a", tokens, 1000)
	require.NoError(t, err)
	_, err = l.WithdrawNative(ctx, "alice", 5000)
	require.NoError(t, err)
	_, err = l.TransferInternal(ctx, "alice", "bob", "token-a", 90)
	require.NoError(t, err)
	require.NoError(t, l.Pause(ctx, "owner"))

	metrics.mu.Lock()
	defer metrics.mu.Unlock()

	require.Equal(t, 1.0, metrics.counters["custody.deposit.native"])
	require.Equal(t, 1.0, metrics.counters["custody.deposit.token"])
	require.Equal(t, 1.0, metrics.counters["custody.withdrawal.native"])
	require.Equal(t, 1.0, metrics.counters["custody.transfer.internal"])
	require.Equal(t, 1.0, metrics.counters["custody.wallet.paused"])
	require.Equal(t, 1.0, metrics.counters["custody.policy.changed"])
	require.Equal(t, 1.0, metrics.counters["custody.asset.listed"])
	// 100 + 10 on deposits, 50 on the withdrawal
	require.Equal(t, 160.0, metrics.counters["custody.fees.collected"])
	require.Equal(t, []float64{9900, 990}, metrics.observed["custody.deposit.net_amount"])
	require.Equal(t, []float64{4950}, metrics.observed["custody.withdrawal.net_amount"])
}
