package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// LoadSQLite runs query against the SQLite database at path and returns
// the result set as a table whose header is the column names. The database
// is opened read-only; NULL cells read as "".
func LoadSQLite(ctx context.Context, path, query string) (*Table, error) {
	if path == "" {
		return nil, errors.New("sqlite table: database path is required")
	}
	if query == "" {
		return nil, errors.New("sqlite table: query is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sqlite table: %w", err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite table: query: %w", err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite table: columns: %w", err)
	}

	var data [][]string
	cells := make([]sql.NullString, len(header))
	dest := make([]any, len(header))
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sqlite table: scan: %w", err)
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite table: %w", err)
	}

	return New(header, data), nil
}
