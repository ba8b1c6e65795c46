package snapshot

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kailas-cloud/carefinder/internal/db"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
)

// DoctorScoreModel maps the doctor_scores table.
type DoctorScoreModel struct {
	ID      uint64  `gorm:"primaryKey;autoIncrement"`
	NPI     string  `gorm:"column:npi;type:varchar(32);not null;index"`
	Name    string  `gorm:"column:name;not null"`
	Score   float64 `gorm:"column:score;not null"`
	ZipCode string  `gorm:"column:zip_code;type:varchar(16);not null"`
}

// TableName implements gorm's tabler.
func (DoctorScoreModel) TableName() string { return DatasetDoctorScores }

// FeatureScoreModel maps the feature_scores table. Feature is the numeric code.
type FeatureScoreModel struct {
	ID      uint64  `gorm:"primaryKey;autoIncrement"`
	NPI     string  `gorm:"column:npi;type:varchar(32);not null;index"`
	Feature int     `gorm:"column:feature;not null"`
	Score   float64 `gorm:"column:score;not null"`
}

// TableName implements gorm's tabler.
func (FeatureScoreModel) TableName() string { return DatasetFeatureScores }

// AppointmentModel maps the appointments table.
type AppointmentModel struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	NPI       string    `gorm:"column:npi;type:varchar(32);not null;index"`
	StartTime time.Time `gorm:"column:start_time;not null"`
	EndTime   time.Time `gorm:"column:end_time;not null"`
}

// TableName implements gorm's tabler.
func (AppointmentModel) TableName() string { return DatasetAppointments }

// Models lists every table the SQL loader reads.
func Models() []any {
	return []any{&DoctorScoreModel{}, &FeatureScoreModel{}, &AppointmentModel{}}
}

// SQLStore is the slice of the gorm store the SQL loader needs.
type SQLStore interface {
	db.Pinger
	DB() *gorm.DB
}

// SQLLoader reads a snapshot from relational tables in primary-key order.
type SQLLoader struct {
	store SQLStore
}

// NewSQLLoader creates a loader over store.
func NewSQLLoader(store SQLStore) *SQLLoader {
	return &SQLLoader{store: store}
}

// Name identifies the source in logs and health checks.
func (l *SQLLoader) Name() string { return "sql:" + l.store.DB().Dialector.Name() }

// Ping checks database connectivity.
func (l *SQLLoader) Ping(ctx context.Context) error {
	return l.store.Ping(ctx) //nolint:wrapcheck // db.Error already carries the op
}

// Load reads the three tables inside one read-only transaction so they come
// from the same snapshot.
func (l *SQLLoader) Load(ctx context.Context) (provider.Sources, error) {
	var (
		doctors      []DoctorScoreModel
		features     []FeatureScoreModel
		appointments []AppointmentModel
	)

	err := l.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("id").Find(&doctors).Error; err != nil {
			return &db.Error{Op: db.OpQuery, Err: fmt.Errorf("%s: %w", DatasetDoctorScores, err)}
		}
		if err := tx.Order("id").Find(&features).Error; err != nil {
			return &db.Error{Op: db.OpQuery, Err: fmt.Errorf("%s: %w", DatasetFeatureScores, err)}
		}
		if err := tx.Order("id").Find(&appointments).Error; err != nil {
			return &db.Error{Op: db.OpQuery, Err: fmt.Errorf("%s: %w", DatasetAppointments, err)}
		}
		return nil
	})
	if err != nil {
		return provider.Sources{}, fmt.Errorf("load snapshot: %w", err)
	}

	src := provider.Sources{
		DoctorScores:  make([]provider.DoctorScore, len(doctors)),
		FeatureScores: make([]provider.FeatureScore, len(features)),
		Appointments:  make([]provider.Appointment, len(appointments)),
	}
	for i, r := range doctors {
		src.DoctorScores[i] = provider.DoctorScore{NPI: r.NPI, Name: r.Name, Score: r.Score, ZipCode: r.ZipCode}
	}
	for i, r := range features {
		src.FeatureScores[i] = provider.FeatureScore{NPI: r.NPI, Feature: provider.Feature(r.Feature), Score: r.Score}
	}
	for i, r := range appointments {
		src.Appointments[i] = provider.Appointment{NPI: r.NPI, StartTime: r.StartTime, EndTime: r.EndTime}
	}
	return src, nil
}
