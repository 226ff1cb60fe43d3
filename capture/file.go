package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/strahe/catalog-sentinel/models"
)

const (
	defaultBufferSize   = 32
	defaultPollInterval = time.Second
	stdinPath           = "-"
)

type FileConfig struct {
	// Path of a file with one JSON change event per line, "-" for stdin
	Path string
	// Follow keeps reading lines appended after the end of the file
	Follow       bool
	BufferSize   int
	PollInterval time.Duration
}

// FileCapturer reads newline delimited change events. The position of an event is its
// line number, starting at 1.
type FileCapturer struct {
	cfg    FileConfig
	logger Logger

	file     *os.File
	events   chan *models.ChangeEvent
	acked    int64
	running  bool
	cancelFn context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
}

func NewFileCapturer(cfg FileConfig, logger Logger) *FileCapturer {
	if logger == nil {
		logger = &noopLogger{}
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &FileCapturer{
		cfg:    cfg,
		logger: logger,
		events: make(chan *models.ChangeEvent, cfg.BufferSize),
	}
}

// Start implements Capturer. Lines up to the ACKed position are skipped.
func (c *FileCapturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}

	f, err := c.open()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	c.file = f
	c.cancelFn = cancel
	c.events = make(chan *models.ChangeEvent, c.cfg.BufferSize)
	c.running = true

	c.logger.Infof("reading change events from %s after line %d", c.cfg.Path, c.acked)

	c.wg.Add(1)
	go c.read(ctx, f, c.events, c.acked)
	return nil
}

func (c *FileCapturer) open() (*os.File, error) {
	if c.cfg.Path == stdinPath {
		return os.Stdin, nil
	}
	f, err := os.Open(c.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.cfg.Path, err)
	}
	return f, nil
}

// Stop implements Capturer.
func (c *FileCapturer) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return ErrNotRunning
	}
	c.cancelFn()
	f := c.file
	c.mu.Unlock()

	// wakes a reader blocked on a pipe; regular files do not support deadlines
	_ = f.SetReadDeadline(time.Now())
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	if f != os.Stdin {
		if err := f.Close(); err != nil {
			c.logger.Warnf("failed to close %s: %v", c.cfg.Path, err)
		}
	}
	c.logger.Infof("file capturer stopped")
	return nil
}

// Events implements Capturer. The channel is replaced on every Start and closed when
// reading ends.
func (c *FileCapturer) Events() <-chan *models.ChangeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// Checkpoint implements Capturer.
func (c *FileCapturer) Checkpoint(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return "", ErrNotRunning
	}
	return strconv.FormatInt(c.acked, 10), nil
}

// ACK implements Capturer.
func (c *FileCapturer) ACK(ctx context.Context, position string) error {
	line, err := strconv.ParseInt(position, 10, 64)
	if err != nil || line < 0 {
		return fmt.Errorf("invalid file position %q", position)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if line > c.acked {
		c.acked = line
		c.logger.Debugf("ACK: line %d", line)
	}
	return nil
}

func (c *FileCapturer) read(ctx context.Context, f *os.File, events chan<- *models.ChangeEvent, skip int64) {
	defer c.wg.Done()
	defer close(events)

	reader := bufio.NewReader(f)
	var pending []byte
	var lineNo int64

	for {
		chunk, err := reader.ReadBytes('\n')
		pending = append(pending, chunk...)
		if err != nil && !errors.Is(err, io.EOF) {
			if ctx.Err() == nil {
				c.logger.Errorf("failed to read %s: %v", c.cfg.Path, err)
			}
			return
		}

		// a trailing line without newline is only complete when not following
		if err == nil || (!c.cfg.Follow && len(pending) > 0) {
			lineNo++
			line := pending
			pending = nil
			if lineNo > skip && !c.emit(ctx, events, line, lineNo) {
				return
			}
		}

		if err != nil {
			if !c.cfg.Follow {
				c.logger.Infof("reached end of %s after %d lines", c.cfg.Path, lineNo)
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.cfg.PollInterval):
			}
		}
	}
}

func (c *FileCapturer) emit(ctx context.Context, events chan<- *models.ChangeEvent, line []byte, lineNo int64) bool {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return true
	}

	event, err := DecodeEvent(line)
	if err != nil {
		c.logger.Warnf("skip line %d of %s: %v", lineNo, c.cfg.Path, err)
		return true
	}
	event.Position = strconv.FormatInt(lineNo, 10)

	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

var _ Capturer = (*FileCapturer)(nil)
