package vitals

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore keeps each patient's readings in a capped list,
// oldest at the head.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	retain    int
	logger    *zap.Logger
}

func NewRedisStore(client *redis.Client, keyPrefix string, retain int, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		retain:    retain,
		logger:    logger,
	}
}

func (s *RedisStore) key(patientID string) string {
	return fmt.Sprintf("%s%s:history", s.keyPrefix, patientID)
}

func (s *RedisStore) History(ctx context.Context, patientID string, limit int) ([]Reading, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	vals, err := s.client.LRange(ctx, s.key(patientID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	out := make([]Reading, 0, len(vals))
	for i := len(vals) - 1; i >= 0; i-- {
		var r Reading
		if err := json.Unmarshal([]byte(vals[i]), &r); err != nil || r.PatientID != patientID {
			s.logger.Warn("Dropping malformed history entry",
				zap.String("patient_id", patientID),
				zap.String("entry", vals[i]),
			)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisStore) Save(ctx context.Context, r Reading) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	key := s.key(r.PatientID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.retain > 0 {
		pipe.LTrim(ctx, key, int64(-s.retain), -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append reading: %w", err)
	}
	return nil
}
