package capture

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/strahe/catalog-sentinel/models"
	"github.com/strahe/catalog-sentinel/pgdb"
	"github.com/yugabyte/pgx/v5/pgconn"
)

const (
	defaultChangeEventTable = "change_event"
	defaultPollBatchSize    = 100
	positionSeparator       = ":"
)

type PostgresConfig struct {
	Database     pgdb.Config
	Table        string
	PollInterval time.Duration
	BatchSize    int
	BufferSize   int
}

// Position orders rows of the change event table. Rows sharing an eventTime are ordered
// by event id.
type Position struct {
	EventTime int64
	EventID   string
}

func (p Position) String() string {
	return strconv.FormatInt(p.EventTime, 10) + positionSeparator + p.EventID
}

func (p Position) After(other Position) bool {
	if p.EventTime != other.EventTime {
		return p.EventTime > other.EventTime
	}
	return p.EventID > other.EventID
}

// ParsePosition accepts "eventTime:eventID" or a bare eventTime.
func ParsePosition(s string) (Position, error) {
	timePart, id, _ := strings.Cut(s, positionSeparator)
	t, err := strconv.ParseInt(timePart, 10, 64)
	if err != nil || t < 0 {
		return Position{}, fmt.Errorf("invalid change event position %q", s)
	}
	return Position{EventTime: t, EventID: id}, nil
}

// PostgresCapturer polls the catalog's change event table, which stores each event as a
// JSON document next to its eventTime.
type PostgresCapturer struct {
	cfg    PostgresConfig
	logger Logger

	conn     *pgconn.PgConn
	events   chan *models.ChangeEvent
	acked    Position
	running  bool
	cancelFn context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
}

func NewPostgresCapturer(cfg PostgresConfig, logger Logger) *PostgresCapturer {
	if logger == nil {
		logger = &noopLogger{}
	}
	if cfg.Table == "" {
		cfg.Table = defaultChangeEventTable
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultPollBatchSize
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	return &PostgresCapturer{
		cfg:    cfg,
		logger: logger,
		events: make(chan *models.ChangeEvent, cfg.BufferSize),
	}
}

// Start implements Capturer.
func (p *PostgresCapturer) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}

	conn, err := pgdb.Connect(ctx, p.cfg.Database, p.logger)
	if err != nil {
		return err
	}
	exists, err := pgdb.TableExists(ctx, conn, p.cfg.Table)
	if err != nil || !exists {
		conn.Close(context.Background())
		if err == nil {
			err = fmt.Errorf("table %s does not exist", p.cfg.Table)
		}
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	p.conn = conn
	p.cancelFn = cancel
	p.events = make(chan *models.ChangeEvent, p.cfg.BufferSize)
	p.running = true

	p.logger.Infof("polling %s every %s after %s", p.cfg.Table, p.cfg.PollInterval, p.acked)

	p.wg.Add(1)
	go p.poll(ctx, conn, p.events, p.acked)
	return nil
}

// Stop implements Capturer.
func (p *PostgresCapturer) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.cancelFn()
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	if err := p.conn.Close(context.Background()); err != nil {
		p.logger.Warnf("failed to close connection: %v", err)
	}
	p.logger.Infof("postgres capturer stopped")
	return nil
}

// Events implements Capturer.
func (p *PostgresCapturer) Events() <-chan *models.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events
}

// Checkpoint implements Capturer.
func (p *PostgresCapturer) Checkpoint(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return "", ErrNotRunning
	}
	return p.acked.String(), nil
}

// ACK implements Capturer.
func (p *PostgresCapturer) ACK(ctx context.Context, position string) error {
	pos, err := ParsePosition(position)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pos.After(p.acked) {
		p.acked = pos
		p.logger.Debugf("ACK: %s", pos)
	}
	return nil
}

func (p *PostgresCapturer) query() string {
	return fmt.Sprintf(`SELECT json::text, eventTime, COALESCE(json->>'id', '')
FROM %s
WHERE (eventTime, COALESCE(json->>'id', '')) > ($1::bigint, $2::text)
ORDER BY eventTime, COALESCE(json->>'id', '')
LIMIT %d`, pgdb.QuoteTable(p.cfg.Table), p.cfg.BatchSize)
}

func (p *PostgresCapturer) poll(ctx context.Context, conn *pgconn.PgConn, events chan<- *models.ChangeEvent, cursor Position) {
	defer p.wg.Done()
	defer close(events)

	query := p.query()
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		for {
			if conn.IsClosed() {
				reconnected, err := pgdb.Connect(ctx, p.cfg.Database, p.logger)
				if err != nil {
					p.logger.Errorf("failed to reconnect: %v", err)
					break
				}
				p.mu.Lock()
				p.conn = reconnected
				p.mu.Unlock()
				conn = reconnected
			}

			rows, err := pgdb.Query(ctx, conn, query, strconv.FormatInt(cursor.EventTime, 10), cursor.EventID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Errorf("failed to poll %s: %v", p.cfg.Table, err)
				break
			}

			for _, row := range rows {
				pos, event, err := decodeRow(row)
				if err != nil {
					p.logger.Warnf("skip change event row: %v", err)
					if pos != nil {
						cursor = *pos
					}
					continue
				}
				cursor = *pos
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}

			// a full batch means more rows may be waiting
			if len(rows) < p.cfg.BatchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			p.logger.Infof("postgres capturer exiting: %v", ctx.Err())
			return
		case <-ticker.C:
		}
	}
}

func decodeRow(row [][]byte) (*Position, *models.ChangeEvent, error) {
	if len(row) != 3 {
		return nil, nil, fmt.Errorf("expected 3 columns, got %d", len(row))
	}
	eventTime, err := strconv.ParseInt(string(row[1]), 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid eventTime %q: %w", row[1], err)
	}
	pos := &Position{EventTime: eventTime, EventID: string(row[2])}

	event, err := DecodeEvent(row[0])
	if err != nil {
		return pos, nil, err
	}
	event.Position = pos.String()
	return pos, event, nil
}

var _ Capturer = (*PostgresCapturer)(nil)
