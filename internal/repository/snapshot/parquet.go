package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/carefinder/internal/domain"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
)

// Parquet row layouts. Times are Unix milliseconds; features are numeric codes.
type (
	DoctorScoreParquet struct {
		NPI     string  `parquet:"npi"`
		Name    string  `parquet:"name"`
		Score   float64 `parquet:"score"`
		ZipCode string  `parquet:"zip_code"`
	}

	FeatureScoreParquet struct {
		NPI     string  `parquet:"npi"`
		Feature int32   `parquet:"feature"`
		Score   float64 `parquet:"score"`
	}

	AppointmentParquet struct {
		NPI       string `parquet:"npi"`
		StartTime int64  `parquet:"start_time"`
		EndTime   int64  `parquet:"end_time"`
	}
)

// ParquetLoader reads <dir>/doctor_scores.parquet, feature_scores.parquet and
// appointments.parquet. Only doctor_scores is required; a missing feature or
// appointment file is an empty dataset.
type ParquetLoader struct {
	dir string
}

// NewParquetLoader creates a loader for the datasets in dir.
func NewParquetLoader(dir string) *ParquetLoader {
	return &ParquetLoader{dir: filepath.Clean(dir)}
}

// Name identifies the source in logs and health checks.
func (l *ParquetLoader) Name() string { return "parquet:" + l.dir }

// Ping checks that the doctor scores dataset exists.
func (l *ParquetLoader) Ping(_ context.Context) error {
	if _, err := os.Stat(l.path(DatasetDoctorScores)); err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}
	return nil
}

// Load reads all three datasets.
func (l *ParquetLoader) Load(ctx context.Context) (provider.Sources, error) {
	doctors, err := readParquet[DoctorScoreParquet](ctx, l.path(DatasetDoctorScores), true)
	if err != nil {
		return provider.Sources{}, err
	}
	features, err := readParquet[FeatureScoreParquet](ctx, l.path(DatasetFeatureScores), false)
	if err != nil {
		return provider.Sources{}, err
	}
	appointments, err := readParquet[AppointmentParquet](ctx, l.path(DatasetAppointments), false)
	if err != nil {
		return provider.Sources{}, err
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
		src.Appointments[i] = provider.Appointment{
			NPI:       r.NPI,
			StartTime: time.UnixMilli(r.StartTime),
			EndTime:   time.UnixMilli(r.EndTime),
		}
	}
	return src, nil
}

func (l *ParquetLoader) path(dataset string) string {
	return filepath.Join(l.dir, dataset+".parquet")
}

func readParquet[T any](ctx context.Context, path string, required bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck // context error
	}
	if _, err := os.Stat(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidSource, path, err)
	}
	return rows, nil
}
