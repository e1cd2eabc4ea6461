package extension

import (
	"fmt"
	"time"

	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/publisher/kafka"
	"github.com/xraph/custody/types"
)

// Config holds the custody extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.custody" or "custody" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start. Persisted state is
	// still loaded.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Deployer is the principal that deploys the ledger and becomes its
	// initial owner. Required.
	Deployer string `json:"deployer" mapstructure:"deployer" yaml:"deployer"`

	// CustodyAccount is the principal holding custodied assets
	// (default: "custody").
	CustodyAccount string `json:"custody_account" mapstructure:"custody_account" yaml:"custody_account"`

	// FeeRateBps is the initial fee rate in basis points, at most 100.
	FeeRateBps uint32 `json:"fee_rate_bps" mapstructure:"fee_rate_bps" yaml:"fee_rate_bps"`

	// MinDeposit is the initial minimum gross deposit (default: 100).
	MinDeposit uint64 `json:"min_deposit" mapstructure:"min_deposit" yaml:"min_deposit"`

	// MaxWithdraw is the initial maximum gross withdrawal (default: 1000000).
	MaxWithdraw uint64 `json:"max_withdraw" mapstructure:"max_withdraw" yaml:"max_withdraw"`

	// Decimals is the number of decimal places of native asset amounts
	// (default: 6). It scales MinDepositUnits and MaxWithdrawUnits.
	Decimals int32 `json:"decimals" mapstructure:"decimals" yaml:"decimals"`

	// MinDepositUnits is the minimum deposit in major units, such as "0.5".
	// When set it replaces MinDeposit.
	MinDepositUnits string `json:"min_deposit_units" mapstructure:"min_deposit_units" yaml:"min_deposit_units"`

	// MaxWithdrawUnits is the maximum withdrawal in major units. When set it
	// replaces MaxWithdraw.
	MaxWithdrawUnits string `json:"max_withdraw_units" mapstructure:"max_withdraw_units" yaml:"max_withdraw_units"`

	// MaxHistory is the history retention bound (default: 500).
	MaxHistory uint64 `json:"max_history" mapstructure:"max_history" yaml:"max_history"`

	// HistoryEviction drops the oldest history records beyond MaxHistory.
	HistoryEviction bool `json:"history_eviction" mapstructure:"history_eviction" yaml:"history_eviction"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// KafkaBrokers enables the Kafka event publisher when non-empty.
	KafkaBrokers []string `json:"kafka_brokers" mapstructure:"kafka_brokers" yaml:"kafka_brokers"`

	// KafkaTopic is the topic domain events are written to
	// (default: "custody.events").
	KafkaTopic string `json:"kafka_topic" mapstructure:"kafka_topic" yaml:"kafka_topic"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultDecimals is the precision of micro-denominated native amounts.
const DefaultDecimals int32 = 6

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CustodyAccount: types.DefaultCustodyAccount.String(),
		MinDeposit:     policy.DefaultMinDeposit,
		MaxWithdraw:    policy.DefaultMaxWithdraw,
		Decimals:       DefaultDecimals,
		MaxHistory:     policy.DefaultMaxHistory,
		PluginTimeout:  5 * time.Second,
		KafkaTopic:     kafka.DefaultTopic,
	}
}

// Policy returns the initial ledger policy described by cfg. Limits given
// in major units take precedence over the integer limits.
func (c Config) Policy() (*policy.Policy, error) {
	p := policy.Default(types.Principal(c.Deployer))
	p.FeeRateBps = c.FeeRateBps
	p.MinDeposit = c.MinDeposit
	p.MaxWithdraw = c.MaxWithdraw
	p.MaxHistory = c.MaxHistory

	if c.MinDepositUnits != "" {
		v, err := types.ParseUnits(c.MinDepositUnits, c.Decimals)
		if err != nil {
			return nil, fmt.Errorf("custody: min_deposit_units %q: %w", c.MinDepositUnits, err)
		}
		p.MinDeposit = v
	}
	if c.MaxWithdrawUnits != "" {
		v, err := types.ParseUnits(c.MaxWithdrawUnits, c.Decimals)
		if err != nil {
			return nil, fmt.Errorf("custody: max_withdraw_units %q: %w", c.MaxWithdrawUnits, err)
		}
		p.MaxWithdraw = v
	}
	return p, nil
}
