// Package pgdb holds the Postgres plumbing shared by the change event capturer and the
// checkpoint store: connection setup with host fallbacks and a few text protocol helpers.
package pgdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/yugabyte/pgx/v5/pgconn"
)

type Config struct {
	Hosts    []string
	Port     uint16
	Username string
	Password string
	Database string
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

// ConnString renders cfg as a keyword/value connection string for the first host.
// Empty settings are left out so libpq defaults apply.
func ConnString(cfg Config) (string, error) {
	if len(cfg.Hosts) == 0 {
		return "", fmt.Errorf("no database hosts provided")
	}

	parts := []string{"host=" + cfg.Hosts[0]}
	for _, kv := range [][2]string{
		{"port", portString(cfg.Port)},
		{"user", cfg.Username},
		{"password", cfg.Password},
		{"dbname", cfg.Database},
	} {
		if strings.TrimSpace(kv[1]) != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	return strings.Join(parts, " "), nil
}

func portString(port uint16) string {
	if port == 0 {
		return ""
	}
	return fmt.Sprintf("%d", port)
}

// BuildConnConfig parses cfg and adds the remaining hosts as fallbacks.
func BuildConnConfig(cfg Config, logger Logger) (*pgconn.Config, error) {
	if logger == nil {
		logger = &noopLogger{}
	}

	connString, err := ConnString(cfg)
	if err != nil {
		return nil, err
	}
	connCfg, err := pgconn.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	for _, host := range cfg.Hosts[1:] {
		connCfg.Fallbacks = append(connCfg.Fallbacks, &pgconn.FallbackConfig{
			Host: host,
			Port: connCfg.Port,
		})
	}
	connCfg.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Warnf("database notice: %s", notice.Message)
	}
	connCfg.AfterConnect = func(ctx context.Context, conn *pgconn.PgConn) error {
		logger.Infof("database connection established")
		return nil
	}
	return connCfg, nil
}

func Connect(ctx context.Context, cfg Config, logger Logger) (*pgconn.PgConn, error) {
	connCfg, err := BuildConnConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection config: %w", err)
	}
	conn, err := pgconn.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}
