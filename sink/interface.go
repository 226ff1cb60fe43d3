package sink

import (
	"context"

	"github.com/strahe/catalog-sentinel/models"
)

type Sink interface {
	Init(ctx context.Context, config map[string]any) error
	Write(ctx context.Context, notifications []*models.Notification) error
	Flush(ctx context.Context) error
	Close() error
	Type() string
}
