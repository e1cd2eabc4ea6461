// Package extension provides the Forge extension adapter for the custody
// ledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.custody" or "custody" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/custody"
	"github.com/xraph/custody/publisher/kafka"
	"github.com/xraph/custody/store"
	"github.com/xraph/custody/store/memory"
	"github.com/xraph/custody/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "custody"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Custodial multi-asset ledger with fees and owner controls"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the custody ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *custody.Ledger
	store      store.Store
	ledgerOpts []custody.Option
}

// New creates a new custody Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying ledger.
// This is nil until Register is called.
func (e *Extension) Engine() *custody.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	eng, err := e.buildLedger()
	if err != nil {
		return err
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*custody.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("custody: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("custody: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedger constructs the ledger from the resolved config.
func (e *Extension) buildLedger() (*custody.Ledger, error) {
	if e.config.Deployer == "" {
		return nil, errors.New("custody: deployer is required")
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildLedgerOpts()
	if err != nil {
		return nil, err
	}
	return custody.New(types.Principal(e.config.Deployer), e.store, opts...)
}

// buildLedgerOpts constructs custody.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() ([]custody.Option, error) {
	p, err := e.config.Policy()
	if err != nil {
		return nil, err
	}

	opts := make([]custody.Option, 0, len(e.ledgerOpts)+6)

	// Apply config-derived options.
	opts = append(opts,
		custody.WithPolicy(p),
		custody.WithCustodyAccount(types.Principal(e.config.CustodyAccount)),
	)
	if e.config.PluginTimeout > 0 {
		opts = append(opts, custody.WithPluginTimeout(e.config.PluginTimeout))
	}
	if e.config.HistoryEviction {
		opts = append(opts, custody.WithHistoryEviction())
	}
	if e.config.DisableMigrate {
		opts = append(opts, custody.WithoutMigrate())
	}
	if len(e.config.KafkaBrokers) > 0 {
		pub := kafka.NewPublisher(e.config.KafkaBrokers, e.config.KafkaTopic)
		opts = append(opts, custody.WithPlugin(pub))
	}

	// Append any pass-through custody options.
	opts = append(opts, e.ledgerOpts...)

	return opts, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("custody: configuration is required but not found in config files; " +
				"ensure 'extensions.custody' or 'custody' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("custody: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("deployer", e.config.Deployer),
		forge.F("custody_account", e.config.CustodyAccount),
		forge.F("fee_rate_bps", e.config.FeeRateBps),
		forge.F("min_deposit", e.config.MinDeposit),
		forge.F("max_withdraw", e.config.MaxWithdraw),
		forge.F("decimals", e.config.Decimals),
		forge.F("min_deposit_units", e.config.MinDepositUnits),
		forge.F("max_withdraw_units", e.config.MaxWithdrawUnits),
		forge.F("max_history", e.config.MaxHistory),
		forge.F("history_eviction", e.config.HistoryEviction),
		forge.F("kafka_brokers", e.config.KafkaBrokers),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.custody" first (namespaced pattern).
	if cm.IsSet("extensions.custody") {
		if err := cm.Bind("extensions.custody", &cfg); err == nil {
			e.Logger().Debug("custody: loaded config from file",
				forge.F("key", "extensions.custody"),
			)
			return cfg, true
		}
		e.Logger().Warn("custody: failed to bind extensions.custody config",
			forge.F("error", "bind failed"),
		)
	}

	// Try top-level "custody" key.
	if cm.IsSet("custody") {
		if err := cm.Bind("custody", &cfg); err == nil {
			e.Logger().Debug("custody: loaded config from file",
				forge.F("key", "custody"),
			)
			return cfg, true
		}
		e.Logger().Warn("custody: failed to bind custody config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.CustodyAccount == "" {
		cfg.CustodyAccount = defaults.CustodyAccount
	}
	if cfg.MinDeposit == 0 {
		cfg.MinDeposit = defaults.MinDeposit
	}
	if cfg.MaxWithdraw == 0 {
		cfg.MaxWithdraw = defaults.MaxWithdraw
	}
	if cfg.Decimals == 0 {
		cfg.Decimals = defaults.Decimals
	}
	if cfg.MaxHistory == 0 {
		cfg.MaxHistory = defaults.MaxHistory
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = defaults.KafkaTopic
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.HistoryEviction {
		yamlConfig.HistoryEviction = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Deployer == "" {
		yamlConfig.Deployer = programmaticConfig.Deployer
	}
	if yamlConfig.CustodyAccount == "" {
		yamlConfig.CustodyAccount = programmaticConfig.CustodyAccount
	}
	if yamlConfig.KafkaTopic == "" {
		yamlConfig.KafkaTopic = programmaticConfig.KafkaTopic
	}
	if len(yamlConfig.KafkaBrokers) == 0 {
		yamlConfig.KafkaBrokers = programmaticConfig.KafkaBrokers
	}
	if yamlConfig.MinDepositUnits == "" {
		yamlConfig.MinDepositUnits = programmaticConfig.MinDepositUnits
	}
	if yamlConfig.MaxWithdrawUnits == "" {
		yamlConfig.MaxWithdrawUnits = programmaticConfig.MaxWithdrawUnits
	}

	// Numeric fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.FeeRateBps == 0 {
		yamlConfig.FeeRateBps = programmaticConfig.FeeRateBps
	}
	if yamlConfig.MinDeposit == 0 {
		yamlConfig.MinDeposit = programmaticConfig.MinDeposit
	}
	if yamlConfig.MaxWithdraw == 0 {
		yamlConfig.MaxWithdraw = programmaticConfig.MaxWithdraw
	}
	if yamlConfig.Decimals == 0 {
		yamlConfig.Decimals = programmaticConfig.Decimals
	}
	if yamlConfig.MaxHistory == 0 {
		yamlConfig.MaxHistory = programmaticConfig.MaxHistory
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
