package vitals

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostgresStore keeps readings in the vital_readings table
// (see migrations/000001_create_vital_readings.up.sql).
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) History(ctx context.Context, patientID string, limit int) ([]Reading, error) {
	query := `
		SELECT patient_id, temperature, spo2, heart_rate, recorded_at
		FROM vital_readings
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`
	// LIMIT NULL is unbounded.
	var bound any
	if limit > 0 {
		bound = limit
	}
	rows, err := s.db.QueryContext(ctx, query, patientID, bound)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.PatientID, &r.Temperature, &r.SpO2, &r.HeartRate, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Save(ctx context.Context, r Reading) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO vital_readings (id, patient_id, temperature, spo2, heart_rate, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(), r.PatientID, r.Temperature, r.SpO2, r.HeartRate, r.Timestamp)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}

	s.logger.Debug("Reading stored",
		zap.String("patient_id", r.PatientID),
		zap.Time("recorded_at", r.Timestamp),
	)
	return nil
}
