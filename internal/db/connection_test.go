package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn     string
		dialect Dialect
		source  string
		wantErr bool
	}{
		{"postgres://u:p@localhost:5432/censo?sslmode=disable", Postgres, "postgres://u:p@localhost:5432/censo?sslmode=disable", false},
		{"host=localhost dbname=censo sslmode=disable", Postgres, "host=localhost dbname=censo sslmode=disable", false},
		{"sqlite:audit.db", SQLite, "audit.db", false},
		{"file:audit.db?cache=shared", SQLite, "file:audit.db?cache=shared", false},
		{":memory:", SQLite, ":memory:", false},
		{"runs/audit.sqlite", SQLite, "runs/audit.sqlite", false},
		{"", "", "", true},
		{"mysql://nope", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			d, s, err := ParseDSN(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, d)
			assert.Equal(t, tt.source, s)
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", Postgres.Placeholders(3))
	assert.Equal(t, "?, ?", SQLite.Placeholders(2))
}

func TestOpenSQLiteMemory(t *testing.T) {
	conn, err := Open("sqlite::memory:")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, SQLite, conn.Dialect)
	_, err = conn.DB.Exec(`CREATE TABLE t (x INTEGER)`)
	require.NoError(t, err)
}
