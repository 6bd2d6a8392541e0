package vitals

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS vital_readings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id TEXT NOT NULL,
	temperature REAL NOT NULL,
	spo2 REAL NOT NULL,
	heart_rate INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_vital_readings_patient_ts ON vital_readings(patient_id, recorded_at);`

// SQLiteStore is a single-file history store for one-node deployments.
// Timestamps are stored as unix nanoseconds.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLiteStore opens (or creates) the database file and its schema.
func OpenSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) History(ctx context.Context, patientID string, limit int) ([]Reading, error) {
	// A negative LIMIT is unbounded in SQLite.
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT patient_id, temperature, spo2, heart_rate, recorded_at
		FROM vital_readings
		WHERE patient_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`,
		patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var r Reading
		var ts int64
		if err := rows.Scan(&r.PatientID, &r.Temperature, &r.SpO2, &r.HeartRate, &ts); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Save(ctx context.Context, r Reading) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vital_readings (patient_id, temperature, spo2, heart_rate, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		r.PatientID, r.Temperature, r.SpO2, r.HeartRate, r.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}
