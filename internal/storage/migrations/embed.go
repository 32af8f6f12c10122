// Package migrations applies embedded SQL schema files in lexical
// order. Migrations are expected to be idempotent (CREATE ... IF NOT
// EXISTS) so reruns are safe.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// sqlFiles lists the .sql entries of an embedded directory in lexical
// order, which is the order they apply in.
func sqlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, dir+"/"+entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
