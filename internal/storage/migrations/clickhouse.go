package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	chstore "creator-token-engine/internal/storage/clickhouse"
)

// RunClickhouseMigrations ensures the database exists and applies all
// embedded schema files. Returns a connection to the target database
// for reuse.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	adminConn, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	if err := adminConn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName)); err != nil {
		adminConn.Close()
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}
	if err := adminConn.Close(); err != nil {
		return nil, fmt.Errorf("close admin connection: %w", err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	files, err := sqlFiles(ClickhouseFS, "clickhouse")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read embedded clickhouse migrations: %w", err)
	}

	for _, file := range files {
		data, err := fs.ReadFile(ClickhouseFS, file)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("read migration %s: %w", file, err)
		}

		// The ClickHouse driver rejects multi-statement Exec calls,
		// so each statement runs on its own.
		for _, stmt := range splitStatements(string(data)) {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", file, err)
			}
		}
	}

	return conn, nil
}

// splitStatements separates a migration file into statements on the
// semicolons outside single-quoted literals. Literal quotes escaped as
// '' keep their string state; -- line comments are dropped.
func splitStatements(input string) []string {
	var stmts []string
	var buf strings.Builder
	inString := false

	flush := func() {
		if stmt := strings.TrimSpace(buf.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		buf.Reset()
	}

	for _, line := range strings.Split(input, "\n") {
		for i := 0; i < len(line); i++ {
			ch := line[i]
			if !inString {
				if ch == '-' && i+1 < len(line) && line[i+1] == '-' {
					break
				}
				if ch == ';' {
					flush()
					continue
				}
			}
			if ch == '\'' {
				// A doubled quote toggles twice, restoring the state.
				inString = !inString
			}
			buf.WriteByte(ch)
		}
		buf.WriteByte('\n')
	}
	flush()

	return stmts
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("clickhouse dsn missing database")
	}
	return db, nil
}
