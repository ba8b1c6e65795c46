package catalog

import (
	"context"
	"errors"
	"math"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/carefinder/internal/domain"
	"github.com/kailas-cloud/carefinder/internal/domain/index"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
	"github.com/kailas-cloud/carefinder/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterIndexMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockLoader struct {
	loadFn func(ctx context.Context) (provider.Sources, error)
	calls  atomic.Int32
}

func (m *mockLoader) Load(ctx context.Context) (provider.Sources, error) {
	m.calls.Add(1)
	return m.loadFn(ctx)
}

var (
	today = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	th    = provider.Thresholds{MinDoctorScore: 50, MinFeatureScore: 50}
)

func sources() provider.Sources {
	return provider.Sources{
		DoctorScores: []provider.DoctorScore{
			{NPI: "P1", Name: "Dr. One", Score: 80, ZipCode: "10001"},
			{NPI: "P2", Name: "Dr. Low", Score: 20, ZipCode: "10001"},
		},
		Appointments: []provider.Appointment{
			{NPI: "P1", StartTime: today.Add(9 * time.Hour), EndTime: today.Add(9*time.Hour + 30*time.Minute)},
		},
	}
}

func staticLoader(src provider.Sources) *mockLoader {
	return &mockLoader{loadFn: func(context.Context) (provider.Sources, error) { return src, nil }}
}

func sequentialIDs() Option {
	var n atomic.Int32
	return WithIDGenerator(func() string { return "gen-" + strconv.Itoa(int(n.Add(1))) })
}

var query = index.FindDoctorsParams{
	CurrentTime:              today.Add(8 * time.Hour),
	ZipCode:                  "10001",
	AppointmentLengthMinutes: 30,
	Limit:                    5,
}

// --- Tests ---

func TestService_NotReadyBeforeReload(t *testing.T) {
	svc := New(staticLoader(sources()), th, zap.NewNop())

	if svc.Ready() {
		t.Error("expected not ready")
	}
	if _, ok := svc.Current(); ok {
		t.Error("expected no current generation")
	}
	if _, _, err := svc.FindDoctors(context.Background(), query); !errors.Is(err, domain.ErrIndexNotReady) {
		t.Errorf("FindDoctors: expected ErrIndexNotReady, got %v", err)
	}
	if _, _, err := svc.DoctorDetail(context.Background(), today, "P1"); !errors.Is(err, domain.ErrIndexNotReady) {
		t.Errorf("DoctorDetail: expected ErrIndexNotReady, got %v", err)
	}
}

func TestService_ReloadAndQuery(t *testing.T) {
	builtAt := today.Add(time.Hour)
	svc := New(staticLoader(sources()), th, zap.NewNop(),
		sequentialIDs(),
		WithClock(func() time.Time { return builtAt }),
	)

	gen, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.ID != "gen-1" || !gen.BuiltAt.Equal(builtAt) {
		t.Errorf("unexpected generation: %+v", gen)
	}
	if gen.Stats.DoctorsIndexed != 1 || gen.Stats.DroppedDoctorScores() != 1 {
		t.Errorf("unexpected stats: %+v", gen.Stats)
	}

	got, qgen, err := svc.FindDoctors(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qgen.ID != "gen-1" {
		t.Errorf("query generation: %q", qgen.ID)
	}
	if len(got) != 1 || got[0].NPI != "P1" {
		t.Errorf("unexpected results: %+v", got)
	}

	d, _, err := svc.DoctorDetail(context.Background(), query.CurrentTime, "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Availability) != 1 {
		t.Errorf("availability: %+v", d.Availability)
	}

	if _, _, err := svc.DoctorDetail(context.Background(), query.CurrentTime, "P2"); !errors.Is(err, domain.ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound for excluded doctor, got %v", err)
	}
}

func TestService_ReloadFailureKeepsPrevious(t *testing.T) {
	fail := atomic.Bool{}
	loader := &mockLoader{loadFn: func(context.Context) (provider.Sources, error) {
		if fail.Load() {
			return provider.Sources{}, errors.New("source down")
		}
		return sources(), nil
	}}
	svc := New(loader, th, zap.NewNop(), sequentialIDs())

	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("first reload: %v", err)
	}

	failedBefore := testutil.ToFloat64(metrics.IndexReloadsTotal.WithLabelValues(metrics.ReloadFailed))
	fail.Store(true)
	if _, err := svc.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	if got := testutil.ToFloat64(metrics.IndexReloadsTotal.WithLabelValues(metrics.ReloadFailed)); got != failedBefore+1 {
		t.Errorf("failed reloads = %f, want %f", got, failedBefore+1)
	}

	gen, ok := svc.Current()
	if !ok || gen.ID != "gen-1" {
		t.Errorf("previous generation must stay current, got %+v", gen)
	}
	if got, _, err := svc.FindDoctors(context.Background(), query); err != nil || len(got) != 1 {
		t.Errorf("previous index must keep serving: %v %v", got, err)
	}
}

func TestService_ReloadFailureBeforeFirstBuild(t *testing.T) {
	loader := &mockLoader{loadFn: func(context.Context) (provider.Sources, error) {
		return provider.Sources{}, domain.ErrInvalidSource
	}}
	svc := New(loader, th, nil)

	if _, err := svc.Reload(context.Background()); !errors.Is(err, domain.ErrInvalidSource) {
		t.Fatalf("expected wrapped loader error, got %v", err)
	}
	if svc.Ready() {
		t.Error("expected not ready")
	}
}

func TestService_SwapIsVisibleToNewQueries(t *testing.T) {
	var version atomic.Int32
	loader := &mockLoader{loadFn: func(context.Context) (provider.Sources, error) {
		src := sources()
		if version.Load() > 0 {
			src.DoctorScores[0].Name = "Dr. One Updated"
		}
		return src, nil
	}}
	svc := New(loader, th, zap.NewNop(), sequentialIDs())

	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	before, _, _ := svc.FindDoctors(context.Background(), query)

	version.Store(1)
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	after, gen, _ := svc.FindDoctors(context.Background(), query)

	if before[0].Name != "Dr. One" {
		t.Errorf("old results changed: %+v", before)
	}
	if after[0].Name != "Dr. One Updated" || gen.ID != "gen-2" {
		t.Errorf("new build not visible: %+v %q", after, gen.ID)
	}
}

func TestService_ConcurrentReloadsShareOneBuild(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	loader := &mockLoader{loadFn: func(context.Context) (provider.Sources, error) {
		once.Do(func() { close(started) })
		<-release
		return sources(), nil
	}}
	svc := New(loader, th, zap.NewNop(), sequentialIDs())

	const callers = 8
	ids := make([]string, callers)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		gen, _ := svc.Reload(context.Background())
		ids[0] = gen.ID
	}()
	<-started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gen, _ := svc.Reload(context.Background())
			ids[i] = gen.ID
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := loader.calls.Load(); got != 1 {
		t.Errorf("expected 1 load, got %d", got)
	}
	for i, id := range ids {
		if id != "gen-1" {
			t.Errorf("caller %d got generation %q", i, id)
		}
	}
}

func TestService_ConcurrentQueriesDuringReload(t *testing.T) {
	svc := New(staticLoader(sources()), th, zap.NewNop())
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for ctx.Err() == nil {
			_, _ = svc.Reload(ctx)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got, _, err := svc.FindDoctors(context.Background(), query)
				if err != nil || len(got) != 1 {
					t.Errorf("unexpected result during reload: %v %v", got, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestService_RunReloadsPeriodically(t *testing.T) {
	loaded := make(chan struct{}, 16)
	loader := &mockLoader{loadFn: func(context.Context) (provider.Sources, error) {
		select {
		case loaded <- struct{}{}:
		default:
		}
		return sources(), nil
	}}
	svc := New(loader, th, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-loaded:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for periodic reload")
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !svc.Ready() {
		t.Error("expected ready after periodic reload")
	}
}

func TestService_RunDisabled(t *testing.T) {
	loader := staticLoader(sources())
	svc := New(loader, th, zap.NewNop())

	svc.Run(context.Background(), 0)
	if loader.calls.Load() != 0 {
		t.Error("no reload expected with a zero interval")
	}
}

func TestService_LogsAnomalies(t *testing.T) {
	src := sources()
	src.DoctorScores = append(src.DoctorScores, provider.DoctorScore{NPI: "P3", Score: math.NaN()})
	src.FeatureScores = []provider.FeatureScore{{NPI: "P1", Feature: provider.Feature(42), Score: 120}}

	core, logs := observer.New(zapcore.InfoLevel)
	svc := New(staticLoader(src), th, zap.New(core))

	before := testutil.ToFloat64(metrics.SourceAnomaliesTotal.WithLabelValues(string(provider.AnomalyUnknownFeature)))
	gen, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if gen.Anomalies.Total() != 3 {
		t.Errorf("anomalies: %+v", gen.Anomalies)
	}
	if got := testutil.ToFloat64(metrics.SourceAnomaliesTotal.WithLabelValues(string(provider.AnomalyUnknownFeature))); got != before+1 {
		t.Errorf("unknown_feature anomalies = %f, want %f", got, before+1)
	}

	if n := logs.FilterMessage("index rebuilt").Len(); n != 1 {
		t.Errorf("expected one rebuild log line, got %d", n)
	}
	warn := logs.FilterMessage("source anomalies").All()
	if len(warn) != 1 {
		t.Fatalf("expected one anomaly log line, got %d", len(warn))
	}
	if warn[0].ContextMap()[string(provider.AnomalyScoreNotFinite)] != int64(1) {
		t.Errorf("unexpected anomaly fields: %v", warn[0].ContextMap())
	}
}

func TestService_QueryRespectsContext(t *testing.T) {
	svc := New(staticLoader(sources()), th, zap.NewNop())
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := svc.FindDoctors(ctx, query); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
