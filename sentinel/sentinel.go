package sentinel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/strahe/catalog-sentinel/capture"
	"github.com/strahe/catalog-sentinel/formatter"
	"github.com/strahe/catalog-sentinel/models"
	"github.com/strahe/catalog-sentinel/processor"
	"github.com/strahe/catalog-sentinel/sink"
	"github.com/strahe/catalog-sentinel/store"
)

// Status is the lifecycle state of a Sentinel
type Status string

const (
	StatusIdle     Status = "idle"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

const (
	defaultCheckpointKey = "sentinel/checkpoint"
	drainTimeout         = 10 * time.Second
)

var ErrNotRunning = errors.New("sentinel not running")

// StatusReporter is told about every status change
type StatusReporter interface {
	ReportStatus(status Status, message string)
}

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (l *noopLogger) Debugf(format string, args ...any) {}
func (l *noopLogger) Infof(format string, args ...any)  {}
func (l *noopLogger) Warnf(format string, args ...any)  {}
func (l *noopLogger) Errorf(format string, args ...any) {}

// Stats counts what went through the pipeline since the Sentinel was created.
type Stats struct {
	EventsReceived       int64
	EventsDropped        int64
	EventsFailed         int64
	NotificationsWritten int64
	Checkpoint           string
}

// Sentinel moves change events from a capturer through the processor chain and the
// formatter into a sink. The position of an event is ACKed once all notifications up
// to it have been written and flushed, and persisted to the store periodically.
type Sentinel struct {
	Capturer  capture.Capturer
	Processor processor.Processor
	Sink      sink.Sink

	BatchSize     int
	FlushInterval time.Duration

	formatter  *formatter.Formatter
	store      store.Store
	logger     Logger
	sinkConfig map[string]any

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	// owned by the run loop while running
	pending         []*models.Notification
	pendingPosition string

	lastCheckpoint     string
	checkpointDirty    bool
	checkpointKey      string
	checkpointInterval time.Duration
	checkpointMu       sync.RWMutex

	eventsReceived       atomic.Int64
	eventsDropped        atomic.Int64
	eventsFailed         atomic.Int64
	notificationsWritten atomic.Int64

	statusReporter StatusReporter

	status   Status
	statusMu sync.RWMutex
}

func NewSentinel(capturer capture.Capturer, processor processor.Processor, sink sink.Sink, options ...Option) *Sentinel {
	s := &Sentinel{
		Capturer:           capturer,
		Processor:          processor,
		Sink:               sink,
		BatchSize:          1000,
		FlushInterval:      time.Second * 5,
		formatter:          formatter.New(),
		logger:             &noopLogger{},
		checkpointKey:      defaultCheckpointKey,
		checkpointInterval: time.Minute,
		status:             StatusIdle,
		done:               make(chan struct{}),
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Start restores the checkpoint, starts the capturer and begins delivering
// notifications in the background.
func (s *Sentinel) Start(ctx context.Context) error {
	s.statusMu.Lock()
	if s.status != StatusIdle && s.status != StatusError {
		status := s.status
		s.statusMu.Unlock()
		return fmt.Errorf("cannot start sentinel in status %s", status)
	}
	s.status = StatusStarting
	s.ctx, s.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	s.done = done
	s.statusMu.Unlock()
	s.report(StatusStarting, "")

	if err := s.restoreCheckpoint(s.ctx); err != nil {
		return s.fail(fmt.Errorf("failed to restore checkpoint: %w", err))
	}
	if err := s.Sink.Init(s.ctx, s.sinkConfig); err != nil {
		return s.fail(fmt.Errorf("failed to init sink %s: %w", s.Sink.Type(), err))
	}
	if err := s.Capturer.Start(s.ctx); err != nil {
		return s.fail(fmt.Errorf("failed to start capturer: %w", err))
	}

	s.wg.Add(1)
	go s.run(s.ctx, s.Capturer.Events(), done)

	s.setStatus(StatusRunning, "")
	s.logger.Infof("sentinel started, sink %s, batch size %d, flush interval %s", s.Sink.Type(), s.BatchSize, s.FlushInterval)
	return nil
}

func (s *Sentinel) fail(err error) error {
	s.cancel()
	s.setStatus(StatusError, err.Error())
	return err
}

func (s *Sentinel) restoreCheckpoint(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	value, err := s.store.Get(ctx, s.checkpointKey)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Infof("no checkpoint stored, starting from the beginning")
		return nil
	}
	if err != nil {
		return err
	}

	position := string(value)
	if err := s.Capturer.ACK(ctx, position); err != nil {
		return err
	}
	s.checkpointMu.Lock()
	s.lastCheckpoint = position
	s.checkpointMu.Unlock()
	s.logger.Infof("resuming after checkpoint %s", position)
	return nil
}

// Stop stops the capturer, delivers the events it already produced, persists the
// checkpoint and closes the sink.
func (s *Sentinel) Stop() error {
	s.statusMu.Lock()
	if s.status != StatusRunning {
		s.statusMu.Unlock()
		return ErrNotRunning
	}
	s.status = StatusStopping
	done := s.done
	s.statusMu.Unlock()
	s.report(StatusStopping, "")

	if err := s.Capturer.Stop(); err != nil && !errors.Is(err, capture.ErrNotRunning) {
		s.logger.Errorf("failed to stop capturer: %v", err)
	}

	select {
	case <-done:
	case <-time.After(drainTimeout):
		s.logger.Warnf("events not drained after %s, giving up", drainTimeout)
	}
	s.cancel()
	s.wg.Wait()

	var errs []error
	if err := s.persistCheckpoint(context.Background()); err != nil {
		errs = append(errs, err)
	}
	if err := s.Sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close sink: %w", err))
	}

	s.setStatus(StatusIdle, "")
	s.logger.Infof("sentinel stopped, %d notifications written", s.notificationsWritten.Load())
	return errors.Join(errs...)
}

// Done is closed when delivery ends, either after Stop or because the capturer ran out
// of events.
func (s *Sentinel) Done() <-chan struct{} {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.done
}

func (s *Sentinel) run(ctx context.Context, events <-chan *models.ChangeEvent, done chan struct{}) {
	defer s.wg.Done()
	defer close(done)

	flushTicker := time.NewTicker(s.FlushInterval)
	defer flushTicker.Stop()
	checkpointTicker := time.NewTicker(s.checkpointInterval)
	defer checkpointTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			// deliver what is buffered even though the context is gone
			s.flush(context.Background())
			return
		case event, ok := <-events:
			if !ok {
				s.logger.Infof("capturer closed its event stream")
				s.flush(ctx)
				if err := s.persistCheckpoint(ctx); err != nil {
					s.logger.Errorf("%v", err)
				}
				return
			}
			s.handle(event)
			if len(s.pending) >= s.BatchSize {
				s.flush(ctx)
			}
		case <-flushTicker.C:
			s.flush(ctx)
		case <-checkpointTicker.C:
			if err := s.persistCheckpoint(ctx); err != nil {
				s.logger.Errorf("%v", err)
			}
		}
	}
}

func (s *Sentinel) handle(event *models.ChangeEvent) {
	s.eventsReceived.Add(1)
	// later events carry later positions, so a skipped event still advances the position
	s.pendingPosition = event.Position

	processed := event
	if s.Processor != nil {
		var err error
		processed, err = s.Processor.Process(event)
		if err != nil {
			s.eventsFailed.Add(1)
			s.logger.Errorf("failed to process event %s: %v", event.ID, err)
			return
		}
	}
	if processed == nil {
		s.eventsDropped.Add(1)
		s.logger.Debugf("event %s dropped by processors", event.ID)
		return
	}

	notifications, err := s.formatter.FormatEvent(processed)
	if err != nil {
		s.eventsFailed.Add(1)
		s.logger.Errorf("failed to format event %s: %v", event.ID, err)
		return
	}
	s.pending = append(s.pending, notifications...)
}

// flush writes the buffered notifications and ACKs the position of the last handled
// event. On a sink error the buffer is kept for the next attempt and nothing is ACKed.
func (s *Sentinel) flush(ctx context.Context) {
	if len(s.pending) > 0 {
		if err := s.Sink.Write(ctx, s.pending); err != nil {
			s.logger.Errorf("failed to write %d notifications to %s: %v", len(s.pending), s.Sink.Type(), err)
			return
		}
		if err := s.Sink.Flush(ctx); err != nil {
			s.logger.Errorf("failed to flush %s: %v", s.Sink.Type(), err)
			return
		}
		s.notificationsWritten.Add(int64(len(s.pending)))
		s.logger.Debugf("wrote %d notifications to %s", len(s.pending), s.Sink.Type())
		s.pending = s.pending[:0]
	}

	if s.pendingPosition == "" {
		return
	}
	s.checkpointMu.Lock()
	defer s.checkpointMu.Unlock()
	if s.pendingPosition == s.lastCheckpoint {
		return
	}
	if err := s.Capturer.ACK(ctx, s.pendingPosition); err != nil {
		s.logger.Errorf("failed to ACK %s: %v", s.pendingPosition, err)
		return
	}
	s.lastCheckpoint = s.pendingPosition
	s.checkpointDirty = true
}

func (s *Sentinel) persistCheckpoint(ctx context.Context) error {
	s.checkpointMu.Lock()
	defer s.checkpointMu.Unlock()

	if s.store == nil || !s.checkpointDirty {
		return nil
	}
	if err := s.store.Set(ctx, s.checkpointKey, []byte(s.lastCheckpoint)); err != nil {
		return fmt.Errorf("failed to persist checkpoint %s: %w", s.lastCheckpoint, err)
	}
	s.checkpointDirty = false
	s.logger.Debugf("checkpoint %s persisted", s.lastCheckpoint)
	return nil
}

// Status returns the current lifecycle state
func (s *Sentinel) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *Sentinel) Stats() Stats {
	s.checkpointMu.RLock()
	checkpoint := s.lastCheckpoint
	s.checkpointMu.RUnlock()

	return Stats{
		EventsReceived:       s.eventsReceived.Load(),
		EventsDropped:        s.eventsDropped.Load(),
		EventsFailed:         s.eventsFailed.Load(),
		NotificationsWritten: s.notificationsWritten.Load(),
		Checkpoint:           checkpoint,
	}
}

func (s *Sentinel) setStatus(status Status, message string) {
	s.statusMu.Lock()
	s.status = status
	s.statusMu.Unlock()
	s.report(status, message)
}

func (s *Sentinel) report(status Status, message string) {
	if s.statusReporter != nil {
		s.statusReporter.ReportStatus(status, message)
	}
}
