package trace

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_WritesFlattenedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run")
	r, err := NewRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, path+".sqlite3", r.Filename())

	r.RecordInterval(IntervalRecord{Tick: 10, Requests: 5, Hits: map[string]int{
		"http://h1:80": 3, "http://h2:80": 2,
	}})
	r.RecordInterval(IntervalRecord{Tick: 30, Requests: 0, Hits: nil})
	require.NoError(t, r.Flush())

	db, err := sql.Open("sqlite3", r.Filename())
	require.NoError(t, err)
	defer db.Close()

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM intervals").Scan(&rows))
	assert.Equal(t, 3, rows)

	var hits int
	require.NoError(t, db.QueryRow(
		"SELECT Hits FROM intervals WHERE Tick = 10 AND Destination = ?",
		"http://h1:80").Scan(&hits))
	assert.Equal(t, 3, hits)

	// The empty firing keeps its row with a blank destination.
	var dest string
	require.NoError(t, db.QueryRow(
		"SELECT Destination FROM intervals WHERE Tick = 30").Scan(&dest))
	assert.Equal(t, "", dest)
}

func TestRecorder_FlushIsIdempotent(t *testing.T) {
	r, err := NewRecorder(filepath.Join(t.TempDir(), "run"))
	require.NoError(t, err)
	defer r.Close()

	r.RecordInterval(IntervalRecord{Tick: 10, Requests: 1, Hits: map[string]int{"http://h1:80": 1}})
	require.NoError(t, r.Flush())
	require.NoError(t, r.Flush())

	db, err := sql.Open("sqlite3", r.Filename())
	require.NoError(t, err)
	defer db.Close()

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM intervals").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestRecorder_RefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run")
	r, err := NewRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = NewRecorder(path)
	assert.Error(t, err)
}
