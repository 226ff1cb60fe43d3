package sink

import (
	"context"

	"github.com/strahe/catalog-sentinel/models"
	"github.com/strahe/catalog-sentinel/pkg/log"
)

type DebugSink struct {
	written int
}

func NewDebugSink() *DebugSink {
	return &DebugSink{}
}

func (s *DebugSink) Init(ctx context.Context, config map[string]any) error {
	log.Debugf("DebugSink Init")
	return nil
}

// Close implements Sink.
func (s *DebugSink) Close() error {
	log.Debugf("DebugSink Close after %d notifications", s.written)
	return nil
}

// Flush implements Sink.
func (s *DebugSink) Flush(ctx context.Context) error {
	log.Debugf("DebugSink Flush")
	return nil
}

// Type implements Sink.
func (s *DebugSink) Type() string {
	return "debug"
}

// Write implements Sink.
func (s *DebugSink) Write(ctx context.Context, notifications []*models.Notification) error {
	for _, n := range notifications {
		log.Debugf("DebugSink Write %s %s: %s", n.EventID, n.Link, n.Message)
	}
	s.written += len(notifications)
	return nil
}

var _ Sink = (*DebugSink)(nil)
