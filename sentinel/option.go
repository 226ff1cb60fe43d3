package sentinel

import (
	"time"

	"github.com/strahe/catalog-sentinel/formatter"
	"github.com/strahe/catalog-sentinel/store"
)

// Option configures a Sentinel
type Option func(*Sentinel)

// WithBatchSize sets how many notifications are buffered before the sink is written
func WithBatchSize(size int) Option {
	return func(s *Sentinel) {
		if size > 0 {
			s.BatchSize = size
		}
	}
}

// WithFlushInterval sets the longest time notifications wait in the buffer
func WithFlushInterval(interval time.Duration) Option {
	return func(s *Sentinel) {
		if interval > 0 {
			s.FlushInterval = interval
		}
	}
}

// WithCheckpointInterval sets how often the delivered position is persisted
func WithCheckpointInterval(interval time.Duration) Option {
	return func(s *Sentinel) {
		if interval > 0 {
			s.checkpointInterval = interval
		}
	}
}

// WithStore persists checkpoints in st, so a restart resumes where delivery stopped
func WithStore(st store.Store) Option {
	return func(s *Sentinel) {
		s.store = st
	}
}

// WithCheckpointKey sets the store key of the checkpoint
func WithCheckpointKey(key string) Option {
	return func(s *Sentinel) {
		if key != "" {
			s.checkpointKey = key
		}
	}
}

func WithFormatter(f *formatter.Formatter) Option {
	return func(s *Sentinel) {
		if f != nil {
			s.formatter = f
		}
	}
}

func WithLogger(logger Logger) Option {
	return func(s *Sentinel) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithStatusReporter(reporter StatusReporter) Option {
	return func(s *Sentinel) {
		s.statusReporter = reporter
	}
}

// WithSinkConfig is passed to Sink.Init on Start
func WithSinkConfig(config map[string]any) Option {
	return func(s *Sentinel) {
		s.sinkConfig = config
	}
}
