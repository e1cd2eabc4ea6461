package extension

import (
	"time"

	"github.com/xraph/custody"
	"github.com/xraph/custody/plugin"
	"github.com/xraph/custody/store"
)

// Option configures the custody Forge extension.
type Option func(*Extension)

// WithStore sets the store for the custody engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a custody.Option through to the underlying engine.
func WithLedgerOption(opt custody.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a custody plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, custody.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithDeployer sets the principal that becomes the initial owner.
func WithDeployer(principal string) Option {
	return func(e *Extension) { e.config.Deployer = principal }
}

// WithCustodyAccount sets the principal holding custodied assets.
func WithCustodyAccount(principal string) Option {
	return func(e *Extension) { e.config.CustodyAccount = principal }
}

// WithFeeRate sets the initial fee rate in basis points.
func WithFeeRate(bps uint32) Option {
	return func(e *Extension) { e.config.FeeRateBps = bps }
}

// WithLimits sets the initial minimum deposit and maximum withdrawal.
func WithLimits(minDeposit, maxWithdraw uint64) Option {
	return func(e *Extension) {
		e.config.MinDeposit = minDeposit
		e.config.MaxWithdraw = maxWithdraw
	}
}

// WithUnitLimits sets the initial minimum deposit and maximum withdrawal in
// major units with the given number of decimal places, such as
// WithUnitLimits(6, "0.0001", "1").
func WithUnitLimits(decimals int32, minDeposit, maxWithdraw string) Option {
	return func(e *Extension) {
		e.config.Decimals = decimals
		e.config.MinDepositUnits = minDeposit
		e.config.MaxWithdrawUnits = maxWithdraw
	}
}

// WithHistory sets the history retention bound and whether records beyond
// it are evicted.
func WithHistory(maxHistory uint64, evict bool) Option {
	return func(e *Extension) {
		e.config.MaxHistory = maxHistory
		e.config.HistoryEviction = evict
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithKafka publishes domain events to topic on brokers.
func WithKafka(brokers []string, topic string) Option {
	return func(e *Extension) {
		e.config.KafkaBrokers = brokers
		e.config.KafkaTopic = topic
	}
}
