package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/carefinder/internal/db"
	"github.com/kailas-cloud/carefinder/internal/domain"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
	"github.com/kailas-cloud/carefinder/internal/logger"
)

// KVSource is the slice of db.Store the Redis loader reads through.
type KVSource interface {
	db.Pinger
	db.HashReader
	db.KVReader
}

// RedisLoader reads a snapshot published to Redis or Valkey as three JSON
// arrays under <prefix>snapshot:<dataset>, with an optional
// <prefix>snapshot:meta hash describing it.
type RedisLoader struct {
	store  KVSource
	prefix string
}

// NewRedisLoader creates a loader reading keys under prefix.
func NewRedisLoader(store KVSource, prefix string) *RedisLoader {
	return &RedisLoader{store: store, prefix: prefix}
}

// Name identifies the source in logs and health checks.
func (l *RedisLoader) Name() string { return "redis:" + l.prefix }

// Ping checks store connectivity and that a snapshot has been published.
func (l *RedisLoader) Ping(ctx context.Context) error {
	if err := l.store.Ping(ctx); err != nil {
		return err //nolint:wrapcheck // db.Error already carries the op
	}
	key := l.Key(DatasetDoctorScores)
	ok, err := l.store.Exists(ctx, key)
	if err != nil {
		return err //nolint:wrapcheck // db.Error already carries the op
	}
	if !ok {
		return fmt.Errorf("%s: %w", key, db.ErrKeyNotFound)
	}
	return nil
}

// Key returns the key holding dataset.
func (l *RedisLoader) Key(dataset string) string {
	return l.prefix + "snapshot:" + dataset
}

// Load fetches the three datasets in one round-trip. A missing doctor scores
// key fails the load; missing feature or appointment keys are empty datasets.
func (l *RedisLoader) Load(ctx context.Context) (provider.Sources, error) {
	keys := []string{
		l.Key(DatasetDoctorScores),
		l.Key(DatasetFeatureScores),
		l.Key(DatasetAppointments),
	}
	blobs, err := l.store.GetMulti(ctx, keys)
	if err != nil {
		return provider.Sources{}, fmt.Errorf("fetch snapshot: %w", err)
	}
	if len(blobs) != len(keys) || blobs[0] == nil {
		return provider.Sources{}, fmt.Errorf("%w: key %s is missing", domain.ErrInvalidSource, keys[0])
	}

	var doc document
	if err := json.Unmarshal(blobs[0], &doc.DoctorScores); err != nil {
		return provider.Sources{}, fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidSource, keys[0], err)
	}
	if blobs[1] != nil {
		if err := json.Unmarshal(blobs[1], &doc.FeatureScores); err != nil {
			return provider.Sources{}, fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidSource, keys[1], err)
		}
	}
	if blobs[2] != nil {
		if err := json.Unmarshal(blobs[2], &doc.Appointments); err != nil {
			return provider.Sources{}, fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidSource, keys[2], err)
		}
	}

	src, err := doc.sources()
	if err != nil {
		return provider.Sources{}, err
	}

	l.logMeta(ctx)
	return src, nil
}

func (l *RedisLoader) logMeta(ctx context.Context) {
	log := logger.FromContext(ctx)
	meta, err := l.store.HGetAll(ctx, l.Key("meta"))
	if err != nil {
		log.Warn("snapshot meta unavailable", zap.Error(err))
		return
	}
	if len(meta) == 0 {
		return
	}
	log.Info("snapshot meta",
		zap.String("version", meta["version"]),
		zap.String("generated_at", meta["generated_at"]),
	)
}
