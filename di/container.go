package di

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"
	"github.com/strahe/catalog-sentinel/capture"
	"github.com/strahe/catalog-sentinel/config"
	"github.com/strahe/catalog-sentinel/formatter"
	"github.com/strahe/catalog-sentinel/pgdb"
	"github.com/strahe/catalog-sentinel/pkg/log"
	"github.com/strahe/catalog-sentinel/processor"
	"github.com/strahe/catalog-sentinel/processor/filter"
	"github.com/strahe/catalog-sentinel/processor/transformer"
	"github.com/strahe/catalog-sentinel/sentinel"
	"github.com/strahe/catalog-sentinel/sink"
	"github.com/strahe/catalog-sentinel/store"
)

const storeConnectTimeout = 30 * time.Second

// SetupContainer wires the whole pipeline from the config file at cfgPath. An empty
// path runs with the default config.
func SetupContainer(cfgPath string) do.Injector {
	injector := do.New()

	do.ProvideNamedValue(injector, "configPath", cfgPath)
	do.Provide(injector, NewConfig)
	provideComponents(injector)

	return injector
}

// SetupContainerWithConfig wires the pipeline from an already loaded config.
func SetupContainerWithConfig(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	provideComponents(injector)

	return injector
}

func provideComponents(injector do.Injector) {
	do.Provide(injector, NewLogger)
	do.Provide(injector, NewCapturer)
	do.Provide(injector, NewProcessor)
	do.Provide(injector, NewFormatter)
	do.Provide(injector, NewSink)
	do.Provide(injector, NewStore)
	do.Provide(injector, NewSentinel)
}

func NewConfig(i do.Injector) (*config.Config, error) {
	path := do.MustInvokeNamed[string](i, "configPath")
	if path == "" {
		cfg := config.DefaultConfig()
		return cfg, cfg.Validate()
	}
	return config.LoadFromFile(path)
}

// NewLogger applies the configured level globally and returns the application logger.
func NewLogger(i do.Injector) (*log.ZeroLogger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetGlobalLevel(level)

	return log.NewLogger(cfg.AppName, nil), nil
}

func databaseConfig(cfg config.DatabaseConfig) pgdb.Config {
	return pgdb.Config{
		Hosts:    cfg.Hosts,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		Database: cfg.Database,
	}
}

func NewCapturer(i do.Injector) (capture.Capturer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*log.ZeroLogger](i).Named("capture")

	c := cfg.Capturer
	switch c.Type {
	case "file":
		return capture.NewFileCapturer(capture.FileConfig{
			Path:       c.File.Path,
			Follow:     c.File.Follow,
			BufferSize: c.BufferSize,
		}, logger), nil
	case "postgres":
		return capture.NewPostgresCapturer(capture.PostgresConfig{
			Database:     databaseConfig(c.Postgres.DatabaseConfig),
			Table:        c.Postgres.Table,
			PollInterval: c.Postgres.PollInterval.Std(),
			BatchSize:    c.Postgres.BatchSize,
			BufferSize:   c.BufferSize,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported capturer type: %s", c.Type)
	}
}

func NewProcessor(i do.Injector) (processor.Processor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	p := cfg.Processor

	chain := processor.NewProcessorChain()
	if p.Debug {
		chain.AddFilter(filter.NewDebugFilter())
	}
	if len(p.Filter.EntityTypes) > 0 || len(p.Filter.ExcludeEntityTypes) > 0 {
		chain.AddFilter(filter.NewEntityTypeFilter(p.Filter.EntityTypes, p.Filter.ExcludeEntityTypes))
	}
	if len(p.Filter.EventTypes) > 0 {
		chain.AddFilter(filter.NewEventTypeFilter(p.Filter.EventTypes))
	}
	if len(p.ExcludeFields) > 0 {
		chain.AddTransformer(transformer.NewFieldExcluder(p.ExcludeFields))
	}
	if p.Debug {
		chain.AddTransformer(transformer.NewDebugTransformer())
	}
	return chain, nil
}

func NewFormatter(i do.Injector) (*formatter.Formatter, error) {
	logger := do.MustInvoke[*log.ZeroLogger](i).Named("formatter")
	return formatter.New(formatter.WithLogger(logger)), nil
}

func NewSink(i do.Injector) (sink.Sink, error) {
	cfg := do.MustInvoke[*config.Config](i)

	switch cfg.Sink.Type {
	case "console":
		return sink.NewConsoleSink(
			sink.WithColorOutput(cfg.Sink.Color),
			sink.WithMaxColumnWidth(cfg.Sink.MaxColumnWidth),
		), nil
	case "stdout":
		return sink.NewStdoutSink(), nil
	case "debug":
		return sink.NewDebugSink(), nil
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", cfg.Sink.Type)
	}
}

// SinkConfig is the map handed to Sink.Init.
func SinkConfig(cfg config.SinkConfig) map[string]any {
	return map[string]any{
		"color":            cfg.Color,
		"max_column_width": cfg.MaxColumnWidth,
		"pretty_print":     cfg.PrettyPrint,
	}
}

func NewStore(i do.Injector) (store.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)

	switch cfg.Store.Type {
	case "memory":
		return store.NewMemoryStore(), nil
	case "file":
		return store.NewFileStore(cfg.Store.Path)
	case "postgres":
		logger := do.MustInvoke[*log.ZeroLogger](i).Named("store")
		ctx, cancel := context.WithTimeout(context.Background(), storeConnectTimeout)
		defer cancel()
		return store.NewPostgresStore(ctx, databaseConfig(cfg.Store.Postgres), cfg.Store.Table, logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
	}
}

func NewSentinel(i do.Injector) (*sentinel.Sentinel, error) {
	cfg := do.MustInvoke[*config.Config](i)

	capturer, err := do.Invoke[capture.Capturer](i)
	if err != nil {
		return nil, fmt.Errorf("failed to setup capturer: %w", err)
	}
	proc, err := do.Invoke[processor.Processor](i)
	if err != nil {
		return nil, fmt.Errorf("failed to setup processor: %w", err)
	}
	s, err := do.Invoke[sink.Sink](i)
	if err != nil {
		return nil, fmt.Errorf("failed to setup sink: %w", err)
	}
	st, err := do.Invoke[store.Store](i)
	if err != nil {
		return nil, fmt.Errorf("failed to setup store: %w", err)
	}
	f := do.MustInvoke[*formatter.Formatter](i)
	logger := do.MustInvoke[*log.ZeroLogger](i).Named("sentinel")

	return sentinel.NewSentinel(capturer, proc, s,
		sentinel.WithFormatter(f),
		sentinel.WithStore(st),
		sentinel.WithLogger(logger),
		sentinel.WithBatchSize(cfg.Sentinel.BatchSize),
		sentinel.WithFlushInterval(cfg.Sentinel.FlushInterval.Std()),
		sentinel.WithCheckpointInterval(cfg.Sentinel.CheckpointInterval.Std()),
		sentinel.WithCheckpointKey(cfg.AppName+"/"+cfg.Capturer.Type),
		sentinel.WithSinkConfig(SinkConfig(cfg.Sink)),
	), nil
}
