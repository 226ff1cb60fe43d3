package pgdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/yugabyte/pgx/v5/pgconn"
)

// QuoteTable quotes a table name, splitting an optional schema prefix.
func QuoteTable(table string) string {
	if strings.Contains(table, ".") {
		parts := strings.SplitN(table, ".", 2)
		return pq.QuoteIdentifier(parts[0]) + "." + pq.QuoteIdentifier(parts[1])
	}
	return pq.QuoteIdentifier(table)
}

// Exec runs one or more statements without parameters.
func Exec(ctx context.Context, conn *pgconn.PgConn, sql string) error {
	_, err := conn.Exec(ctx, sql).ReadAll()
	return err
}

// Query runs sql with text parameters and returns the raw text rows.
func Query(ctx context.Context, conn *pgconn.PgConn, sql string, args ...string) ([][][]byte, error) {
	params := make([][]byte, len(args))
	for i, arg := range args {
		params[i] = []byte(arg)
	}

	result := conn.ExecParams(ctx, sql, params, nil, nil, nil).Read()
	if result.Err != nil {
		return nil, result.Err
	}
	return result.Rows, nil
}

// ExecParams runs sql with text parameters and returns the number of affected rows.
func ExecParams(ctx context.Context, conn *pgconn.PgConn, sql string, args ...string) (int64, error) {
	params := make([][]byte, len(args))
	for i, arg := range args {
		params[i] = []byte(arg)
	}

	cmdTag, err := conn.ExecParams(ctx, sql, params, nil, nil, nil).Close()
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// TableExists reports whether the table is visible on the search path. A schema prefix is honored.
func TableExists(ctx context.Context, conn *pgconn.PgConn, table string) (bool, error) {
	rows, err := Query(ctx, conn, "SELECT to_regclass($1) IS NOT NULL", QuoteTable(table))
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return len(rows) == 1 && string(rows[0][0]) == "t", nil
}
