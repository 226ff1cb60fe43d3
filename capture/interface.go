package capture

import (
	"context"
	"errors"

	"github.com/strahe/catalog-sentinel/models"
)

var (
	ErrAlreadyRunning = errors.New("capture already running")
	ErrNotRunning     = errors.New("capture not running")
)

// Capturer delivers change events in order. A position names how far the consumer has
// processed; ACK before Start makes Start resume after that position.
type Capturer interface {
	Start(ctx context.Context) error

	Stop() error

	Events() <-chan *models.ChangeEvent

	Checkpoint(ctx context.Context) (string, error)
	ACK(ctx context.Context, position string) error
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
