package trace

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// SQLite driver registration.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// intervalRow is the flattened SQLite shape of an IntervalRecord: one row
// per (firing, destination).
type intervalRow struct {
	Tick        int64
	Requests    int
	Destination string
	Hits        int
}

// Recorder persists interval records into a SQLite database. Rows are
// buffered and written in batches; Flush is registered to run at process
// exit so short CLI runs never lose their tail.
type Recorder struct {
	mu       sync.Mutex
	db       *sql.DB
	pending  []intervalRow
	batch    int
	filename string
}

// NewRecorder opens a new database at path+".sqlite3". An empty path picks
// a unique name. Refuses to overwrite an existing file.
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		path = "routing_sim_" + xid.New().String()
	}
	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open recording database: %w", err)
	}

	r := &Recorder{db: db, batch: 10000, filename: filename}
	fields := strings.Join(structs.Names(intervalRow{}), ",\n\t")
	if _, err := db.Exec("CREATE TABLE intervals (\n\t" + fields + "\n);"); err != nil {
		db.Close()
		return nil, fmt.Errorf("create intervals table: %w", err)
	}

	atexit.Register(func() { _ = r.Flush() })
	return r, nil
}

// Filename returns the database file backing this recorder.
func (r *Recorder) Filename() string {
	return r.filename
}

// RecordInterval buffers one firing's record, one row per destination. A
// firing with no hits still produces a row with an empty destination so the
// firing itself is recorded.
func (r *Recorder) RecordInterval(rec IntervalRecord) {
	r.mu.Lock()
	if len(rec.Hits) == 0 {
		r.pending = append(r.pending, intervalRow{Tick: rec.Tick, Requests: rec.Requests})
	}
	for dest, hits := range rec.Hits {
		r.pending = append(r.pending, intervalRow{
			Tick:        rec.Tick,
			Requests:    rec.Requests,
			Destination: dest,
			Hits:        hits,
		})
	}
	flush := len(r.pending) >= r.batch
	r.mu.Unlock()
	if flush {
		_ = r.Flush()
	}
}

// Flush writes all buffered rows in one transaction.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	rows := r.pending
	r.pending = nil
	r.mu.Unlock()
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin recording transaction: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO intervals VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare interval insert: %w", err)
	}
	for _, row := range rows {
		if _, err := stmt.Exec(structs.Values(row)...); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("insert interval row: %w", err)
		}
	}
	stmt.Close()
	return tx.Commit()
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}
	return r.db.Close()
}
