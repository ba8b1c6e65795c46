// Package catalog owns the live doctor index: it rebuilds it from snapshots
// and serves queries against whichever build is current.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/carefinder/internal/domain"
	"github.com/kailas-cloud/carefinder/internal/domain/index"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
	"github.com/kailas-cloud/carefinder/internal/metrics"
)

// Query operation labels.
const (
	OpFindDoctors  = "find_doctors"
	OpDoctorDetail = "doctor_detail"
)

// Generation describes one successful build.
type Generation struct {
	ID        string
	BuiltAt   time.Time
	Duration  time.Duration
	Stats     index.Stats
	Anomalies provider.Anomalies
}

type build struct {
	gen Generation
	ix  *index.Index
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used to stamp generations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides generation id allocation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// Service rebuilds the index and answers queries against the current build.
// Queries never block on a rebuild; they see either the old or the new index.
type Service struct {
	loader     SourceLoader
	thresholds provider.Thresholds
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string

	group   singleflight.Group
	current atomic.Pointer[build]
}

// New creates a catalog. No index exists until the first successful Reload.
func New(loader SourceLoader, th provider.Thresholds, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		loader:     loader,
		thresholds: th,
		logger:     logger,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reload loads a fresh snapshot and swaps in a new index. Concurrent calls
// share a single build. On failure the previous index stays current.
func (s *Service) Reload(ctx context.Context) (Generation, error) {
	v, err, shared := s.group.Do("reload", func() (any, error) {
		return s.reload(ctx)
	})
	if err != nil {
		return Generation{}, err //nolint:wrapcheck // wrapped inside reload
	}
	gen := v.(Generation) //nolint:forcetypeassert // reload only returns Generation
	if shared {
		s.logger.Debug("reload shared with concurrent caller", zap.String("generation", gen.ID))
	}
	return gen, nil
}

func (s *Service) reload(ctx context.Context) (Generation, error) {
	start := time.Now()

	src, err := s.loader.Load(ctx)
	if err != nil {
		metrics.ObserveReloadFailure()
		s.logger.Error("index reload failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
			zap.Bool("serving_previous", s.current.Load() != nil),
		)
		return Generation{}, fmt.Errorf("load snapshot: %w", err)
	}

	anomalies := provider.Audit(src)
	ix := index.Build(s.thresholds, src)
	duration := time.Since(start)

	gen := Generation{
		ID:        s.newID(),
		BuiltAt:   s.now(),
		Duration:  duration,
		Stats:     ix.Stats(),
		Anomalies: anomalies,
	}
	s.current.Store(&build{gen: gen, ix: ix})

	st := gen.Stats
	metrics.ObserveBuild(metrics.BuildSummary{
		Duration:             duration,
		Providers:            ix.Len(),
		Slots:                ix.Slots(),
		DroppedDoctorScores:  st.DroppedDoctorScores(),
		DroppedFeatureScores: st.DroppedFeatureScores(),
		DroppedAppointments:  st.DroppedAppointments(),
	})
	for kind, n := range anomalies {
		metrics.ObserveAnomaly(string(kind), n)
	}

	fields := []zap.Field{
		zap.String("generation", gen.ID),
		zap.Duration("duration", duration),
		zap.Int("providers", ix.Len()),
		zap.Int("slots", ix.Slots()),
		zap.Int("doctor_scores", st.DoctorScores),
		zap.Int("dropped_doctor_scores", st.DroppedDoctorScores()),
		zap.Int("duplicate_npis", st.DuplicateDoctorNPIs),
		zap.Int("feature_scores", st.FeatureScores),
		zap.Int("dropped_feature_scores", st.DroppedFeatureScores()),
		zap.Int("appointments", st.Appointments),
		zap.Int("dropped_appointments", st.DroppedAppointments()),
	}
	s.logger.Info("index rebuilt", fields...)
	if anomalies.Total() > 0 {
		anomalyFields := make([]zap.Field, 0, len(anomalies)+1)
		anomalyFields = append(anomalyFields, zap.String("generation", gen.ID))
		for kind, n := range anomalies {
			anomalyFields = append(anomalyFields, zap.Int(string(kind), n))
		}
		s.logger.Warn("source anomalies", anomalyFields...)
	}

	return gen, nil
}

// Run reloads every interval until ctx is done. Failures are logged by
// Reload and do not stop the loop. A non-positive interval returns at once.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Reload(ctx)
		}
	}
}

// Current returns the generation being served, if any.
func (s *Service) Current() (Generation, bool) {
	b := s.current.Load()
	if b == nil {
		return Generation{}, false
	}
	return b.gen, true
}

// CurrentID returns the id of the generation being served, if any.
func (s *Service) CurrentID() (string, bool) {
	b := s.current.Load()
	if b == nil {
		return "", false
	}
	return b.gen.ID, true
}

// Ready reports whether an index has been built.
func (s *Service) Ready() bool {
	return s.current.Load() != nil
}

// FindDoctors searches the current index.
func (s *Service) FindDoctors(
	ctx context.Context, p index.FindDoctorsParams,
) ([]index.DoctorSummary, Generation, error) {
	b, err := s.snapshot(ctx, OpFindDoctors)
	if err != nil {
		return nil, Generation{}, err
	}

	out := b.ix.FindDoctors(p)
	metrics.ObserveSearchResults(len(out))
	if len(out) == 0 {
		metrics.ObserveQuery(OpFindDoctors, metrics.OutcomeEmpty)
	} else {
		metrics.ObserveQuery(OpFindDoctors, metrics.OutcomeHit)
	}
	return out, b.gen, nil
}

// DoctorDetail looks up one doctor in the current index.
func (s *Service) DoctorDetail(
	ctx context.Context, now time.Time, npi string,
) (index.DoctorDetail, Generation, error) {
	b, err := s.snapshot(ctx, OpDoctorDetail)
	if err != nil {
		return index.DoctorDetail{}, Generation{}, err
	}

	d, err := b.ix.DoctorDetail(now, npi)
	if err != nil {
		if errors.Is(err, domain.ErrDoctorNotFound) {
			metrics.ObserveQuery(OpDoctorDetail, metrics.OutcomeNotFound)
		}
		return index.DoctorDetail{}, b.gen, fmt.Errorf("doctor detail: %w", err)
	}
	metrics.ObserveQuery(OpDoctorDetail, metrics.OutcomeHit)
	return d, b.gen, nil
}

func (s *Service) snapshot(ctx context.Context, op string) (*build, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck // context error
	}
	b := s.current.Load()
	if b == nil {
		metrics.ObserveQuery(op, metrics.OutcomeNotReady)
		return nil, domain.ErrIndexNotReady
	}
	return b, nil
}
