package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/custody/store/memory"
	"github.com/xraph/custody/types"
)

func TestMergeWithDefaults(t *testing.T) {
	e := New()
	cfg := e.mergeWithDefaults(Config{Deployer: "SP1OWNER", MinDeposit: 50})

	assert.Equal(t, "SP1OWNER", cfg.Deployer)
	assert.Equal(t, uint64(50), cfg.MinDeposit)
	assert.Equal(t, DefaultConfig().MaxWithdraw, cfg.MaxWithdraw)
	assert.Equal(t, DefaultConfig().MaxHistory, cfg.MaxHistory)
	assert.Equal(t, types.DefaultCustodyAccount.String(), cfg.CustodyAccount)
	assert.Equal(t, 5*time.Second, cfg.PluginTimeout)
	assert.Equal(t, "custody.events", cfg.KafkaTopic)
	assert.Equal(t, DefaultDecimals, cfg.Decimals)
}

func TestMergeConfigurations(t *testing.T) {
	e := New()
	yamlCfg := Config{
		Deployer:   "SP1YAML",
		FeeRateBps: 25,
	}
	programmatic := Config{
		Deployer:        "SP1CODE",
		FeeRateBps:      50,
		MaxWithdraw:     9000,
		DisableMigrate:  true,
		HistoryEviction: true,
		KafkaBrokers:    []string{"localhost:9092"},
	}

	cfg := e.mergeConfigurations(yamlCfg, programmatic)
	assert.Equal(t, "SP1YAML", cfg.Deployer)
	assert.Equal(t, uint32(25), cfg.FeeRateBps)
	assert.Equal(t, uint64(9000), cfg.MaxWithdraw)
	assert.True(t, cfg.DisableMigrate)
	assert.True(t, cfg.HistoryEviction)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, DefaultConfig().MinDeposit, cfg.MinDeposit)
}

func TestBuildLedger(t *testing.T) {
	t.Run("requires deployer", func(t *testing.T) {
		e := New()
		e.config = e.mergeWithDefaults(e.config)
		_, err := e.buildLedger()
		assert.Error(t, err)
	})

	t.Run("applies config", func(t *testing.T) {
		s := memory.New()
		e := New(
			WithStore(s),
			WithDeployer("SP1OWNER"),
			WithFeeRate(100),
			WithLimits(10, 500),
		)
		e.config = e.mergeWithDefaults(e.config)

		l, err := e.buildLedger()
		require.NoError(t, err)
		assert.Equal(t, types.Principal("SP1OWNER"), l.Owner())
		assert.Equal(t, uint32(100), l.FeeRate())
		assert.Equal(t, uint64(10), l.MinDeposit())
		assert.Equal(t, uint64(500), l.MaxWithdraw())
		assert.Equal(t, types.DefaultCustodyAccount, l.CustodyAccount())
		assert.Equal(t, 0, l.Plugins().Count())
	})

	t.Run("rejects fee rate above cap", func(t *testing.T) {
		e := New(WithDeployer("SP1OWNER"), WithFeeRate(150))
		e.config = e.mergeWithDefaults(e.config)
		_, err := e.buildLedger()
		assert.Error(t, err)
	})

	t.Run("limits in major units", func(t *testing.T) {
		e := New(
			WithDeployer("SP1OWNER"),
			WithUnitLimits(6, "0.0005", "2.5"),
		)
		e.config = e.mergeWithDefaults(e.config)

		l, err := e.buildLedger()
		require.NoError(t, err)
		assert.Equal(t, uint64(500), l.MinDeposit())
		assert.Equal(t, uint64(2_500_000), l.MaxWithdraw())
	})

	t.Run("unit limits use default decimals", func(t *testing.T) {
		e := New(WithConfig(Config{Deployer: "SP1OWNER", MaxWithdrawUnits: "3"}))
		e.config = e.mergeWithDefaults(e.config)

		l, err := e.buildLedger()
		require.NoError(t, err)
		assert.Equal(t, uint64(3_000_000), l.MaxWithdraw())
		assert.Equal(t, DefaultConfig().MinDeposit, l.MinDeposit())
	})

	t.Run("rejects malformed unit limit", func(t *testing.T) {
		e := New(WithDeployer("SP1OWNER"), WithUnitLimits(6, "-1", ""))
		e.config = e.mergeWithDefaults(e.config)
		_, err := e.buildLedger()
		assert.ErrorContains(t, err, "min_deposit_units")
	})

	t.Run("wires kafka publisher", func(t *testing.T) {
		e := New(
			WithDeployer("SP1OWNER"),
			WithKafka([]string{"localhost:9092"}, "custody.test"),
		)
		e.config = e.mergeWithDefaults(e.config)

		l, err := e.buildLedger()
		require.NoError(t, err)
		require.Equal(t, 1, l.Plugins().Count())
		assert.NotNil(t, l.Plugins().Get("kafka-publisher"))
	})
}
