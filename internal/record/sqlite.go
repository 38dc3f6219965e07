package record

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteRecorder stores records in a SQLite database.
//
// Every Save appends a snapshot; Load returns the most recent one. Older
// snapshots stay available through Snapshots and LoadSnapshot.
type SQLiteRecorder struct {
	now func() time.Time
}

// Snapshot describes one stored record.
type Snapshot struct {
	ID        int64
	Version   int
	Optimizer string
	CreatedAt time.Time
	Items     int
}

// NewSQLiteRecorder creates a SQLite-backed recorder.
func NewSQLiteRecorder() *SQLiteRecorder {
	return &SQLiteRecorder{now: time.Now}
}

// Format returns FormatSQLite.
func (s *SQLiteRecorder) Format() Format {
	return FormatSQLite
}

func initDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS records(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts REAL NOT NULL,
			version INTEGER NOT NULL,
			optimizer TEXT NOT NULL,
			items INTEGER NOT NULL
		)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS fields(
			record_id INTEGER NOT NULL REFERENCES records(id),
			item TEXT NOT NULL,
			path TEXT NOT NULL,
			kind TEXT NOT NULL,
			int_value INTEGER,
			float_value REAL,
			dtype TEXT,
			shape TEXT,
			data BLOB,
			PRIMARY KEY(record_id, item, path)
		)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create fields table: %w", err)
	}
	return db, nil
}

// openExisting opens a database written by Save without creating it.
func openExisting(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoRecord, path)
		}
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Save appends the record as a new snapshot in a single transaction.
func (s *SQLiteRecorder) Save(rec *Record, path string) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	db, err := initDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := insertRecord(tx, rec, s.now()); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record: %w", err)
	}
	return nil
}

func insertRecord(tx *sql.Tx, rec *Record, now time.Time) error {
	res, err := tx.Exec("INSERT INTO records(ts, version, optimizer, items) VALUES(?,?,?,?)",
		float64(now.UnixMilli())/1000.0, rec.Version, rec.Optimizer, rec.Len())
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	recordID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read record id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO fields(record_id, item, path, kind, int_value, float_value, dtype, shape, data)
		VALUES(?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare field insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range rec.IDs() {
		fields := rec.Items[id].Flatten()
		if len(fields) == 0 {
			// Marker row so an item with an empty state survives the round trip.
			if _, err := stmt.Exec(recordID, id, "", KindNode.String(), nil, nil, nil, nil, nil); err != nil {
				return fmt.Errorf("failed to insert item %s: %w", id, err)
			}
			continue
		}
		for _, f := range fields {
			var (
				intVal   sql.NullInt64
				floatVal sql.NullFloat64
				dtype    sql.NullString
				shape    sql.NullString
				data     []byte
			)
			switch f.Kind {
			case KindInt:
				intVal = sql.NullInt64{Int64: f.Int, Valid: true}
			case KindFloat:
				floatVal = sql.NullFloat64{Float64: f.Float, Valid: true}
			case KindTensor:
				shapeJSON, err := json.Marshal(f.Tensor.Shape)
				if err != nil {
					return fmt.Errorf("failed to encode shape: %w", err)
				}
				dtype = sql.NullString{String: f.Tensor.DType, Valid: true}
				shape = sql.NullString{String: string(shapeJSON), Valid: true}
				data = f.Tensor.Data
			}
			if _, err := stmt.Exec(recordID, id, f.Path, f.Kind.String(), intVal, floatVal, dtype, shape, data); err != nil {
				return fmt.Errorf("failed to insert field %s/%s: %w", id, f.Path, err)
			}
		}
	}
	return nil
}

// Load returns the most recent snapshot. A missing database yields
// ErrNoRecord and is not created.
func (s *SQLiteRecorder) Load(path string) (*Record, error) {
	return s.load(path, 0)
}

// LoadSnapshot returns the snapshot with the given id.
func (s *SQLiteRecorder) LoadSnapshot(path string, id int64) (*Record, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: snapshot id %d", ErrNoRecord, id)
	}
	return s.load(path, id)
}

func (s *SQLiteRecorder) load(path string, id int64) (*Record, error) {
	db, err := openExisting(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var row *sql.Row
	if id == 0 {
		row = db.QueryRow("SELECT id, version, optimizer FROM records ORDER BY id DESC LIMIT 1")
	} else {
		row = db.QueryRow("SELECT id, version, optimizer FROM records WHERE id = ?", id)
	}

	rec := &Record{Items: make(map[string]*Node)}
	var recordID int64
	if err := row.Scan(&recordID, &rec.Version, &rec.Optimizer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w in %s", ErrNoRecord, path)
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	rows, err := db.Query(`SELECT item, path, kind, int_value, float_value, dtype, shape, data
		FROM fields WHERE record_id = ? ORDER BY item, path`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	fieldsByItem := make(map[string][]Field)
	var order []string
	for rows.Next() {
		var (
			item, path, kindName string
			intVal               sql.NullInt64
			floatVal             sql.NullFloat64
			dtype, shape         sql.NullString
			data                 []byte
		)
		if err := rows.Scan(&item, &path, &kindName, &intVal, &floatVal, &dtype, &shape, &data); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		if _, seen := fieldsByItem[item]; !seen {
			order = append(order, item)
			fieldsByItem[item] = nil
		}
		if path == "" && kindName == KindNode.String() {
			continue
		}
		f, err := decodeRow(path, kindName, intVal, floatVal, dtype, shape, data)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", item, err)
		}
		fieldsByItem[item] = append(fieldsByItem[item], f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fields: %w", err)
	}

	for _, item := range order {
		node, err := Unflatten(fieldsByItem[item])
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", item, err)
		}
		rec.Items[item] = node
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	return rec, nil
}

func decodeRow(path, kindName string, intVal sql.NullInt64, floatVal sql.NullFloat64, dtype, shape sql.NullString, data []byte) (Field, error) {
	kind, ok := parseKind(kindName)
	if !ok {
		return Field{}, fmt.Errorf("%w: field %q has unknown kind %q", ErrMalformed, path, kindName)
	}
	f := Field{Path: path, Kind: kind}
	switch kind {
	case KindInt:
		if !intVal.Valid {
			return Field{}, fmt.Errorf("%w: int field %q is NULL", ErrMalformed, path)
		}
		f.Int = intVal.Int64
	case KindFloat:
		if !floatVal.Valid {
			return Field{}, fmt.Errorf("%w: float field %q is NULL", ErrMalformed, path)
		}
		f.Float = floatVal.Float64
	case KindTensor:
		if !dtype.Valid || !shape.Valid {
			return Field{}, fmt.Errorf("%w: tensor field %q lacks dtype or shape", ErrMalformed, path)
		}
		var dims []int
		if err := json.Unmarshal([]byte(shape.String), &dims); err != nil {
			return Field{}, fmt.Errorf("%w: tensor field %q shape: %w", ErrMalformed, path, err)
		}
		f.Tensor = &TensorData{DType: dtype.String, Shape: normalizeShape(dims), Data: data}
	default:
		return Field{}, fmt.Errorf("%w: field %q cannot be a %s", ErrMalformed, path, kind)
	}
	return f, nil
}

// Snapshots lists stored snapshots, oldest first.
func (s *SQLiteRecorder) Snapshots(path string) ([]Snapshot, error) {
	db, err := openExisting(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query("SELECT id, ts, version, optimizer, items FROM records ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap Snapshot
			ts   float64
		)
		if err := rows.Scan(&snap.ID, &ts, &snap.Version, &snap.Optimizer, &snap.Items); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		snap.CreatedAt = time.UnixMilli(int64(ts * 1000))
		out = append(out, snap)
	}
	return out, rows.Err()
}
