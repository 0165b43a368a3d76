package db

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMigrations_SortsAndSkips(t *testing.T) {
	fsys := fstest.MapFS{
		"010_add_index.sql":         {Data: []byte("CREATE INDEX x ON t (a);")},
		"002_create_table.sql":      {Data: []byte("CREATE TABLE t (a INT);")},
		"README.md":                 {Data: []byte("notes")},
		"draft.sql":                 {Data: []byte("SELECT 1;")},
		"abc_not_numbered.sql":      {Data: []byte("SELECT 1;")},
		"nested/003_more_stuff.sql": {Data: []byte("SELECT 3;")},
	}

	migrations, err := readMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, 2, migrations[0].Number)
	assert.Equal(t, "create_table", migrations[0].Name)
	assert.Equal(t, 3, migrations[1].Number)
	assert.Equal(t, "more_stuff", migrations[1].Name)
	assert.Equal(t, 10, migrations[2].Number)
	assert.Equal(t, "CREATE INDEX x ON t (a);", migrations[2].SQL)
}

func TestReadMigrations_Duplicate(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 2;")},
	}

	_, err := readMigrations(fsys)
	assert.ErrorContains(t, err, "duplicate migration number 1")
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := readMigrations(Migrations())
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, 1, migrations[0].Number)
	assert.Contains(t, migrations[0].SQL, "contact_submissions")
}

func TestWithSSLDisabled(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u@h/db", "postgres://u@h/db?sslmode=disable"},
		{"postgres://u@h/db?connect_timeout=5", "postgres://u@h/db?connect_timeout=5&sslmode=disable"},
		{"host=h dbname=db", "host=h dbname=db sslmode=disable"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, withSSLDisabled(tt.in))
	}
}

func TestNew_EmptyConnectionString(t *testing.T) {
	_, err := New(context.Background(), "", nil)
	assert.Error(t, err)
}
