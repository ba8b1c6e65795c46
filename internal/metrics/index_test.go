package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIndexMetrics_Idempotent(t *testing.T) {
	RegisterIndexMetrics()
	RegisterIndexMetrics()
}

func TestObserveBuild(t *testing.T) {
	before := testutil.ToFloat64(IndexReloadsTotal.WithLabelValues(ReloadOK))
	droppedBefore := testutil.ToFloat64(IndexDroppedTotal.WithLabelValues("appointment"))

	ObserveBuild(BuildSummary{
		Duration:            250 * time.Millisecond,
		Providers:           3,
		Slots:               7,
		DroppedAppointments: 2,
	})

	if got := testutil.ToFloat64(IndexReloadsTotal.WithLabelValues(ReloadOK)); got != before+1 {
		t.Errorf("reloads ok = %f, want %f", got, before+1)
	}
	if got := testutil.ToFloat64(IndexProviders); got != 3 {
		t.Errorf("providers = %f, want 3", got)
	}
	if got := testutil.ToFloat64(IndexSlots); got != 7 {
		t.Errorf("slots = %f, want 7", got)
	}
	if got := testutil.ToFloat64(IndexDroppedTotal.WithLabelValues("appointment")); got != droppedBefore+2 {
		t.Errorf("dropped appointments = %f, want %f", got, droppedBefore+2)
	}
	if testutil.CollectAndCount(IndexBuildDuration) == 0 {
		t.Error("expected build duration observation")
	}
}

func TestObserveReloadFailure(t *testing.T) {
	before := testutil.ToFloat64(IndexReloadsTotal.WithLabelValues(ReloadFailed))
	ObserveReloadFailure()
	if got := testutil.ToFloat64(IndexReloadsTotal.WithLabelValues(ReloadFailed)); got != before+1 {
		t.Errorf("reloads failed = %f, want %f", got, before+1)
	}
}

func TestObserveAnomaly_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(SourceAnomaliesTotal.WithLabelValues("empty_span"))
	ObserveAnomaly("empty_span", 0)
	ObserveAnomaly("empty_span", 4)
	if got := testutil.ToFloat64(SourceAnomaliesTotal.WithLabelValues("empty_span")); got != before+4 {
		t.Errorf("anomalies = %f, want %f", got, before+4)
	}
}

func TestObserveQuery(t *testing.T) {
	before := testutil.ToFloat64(QueriesTotal.WithLabelValues("find_doctors", OutcomeHit))
	ObserveQuery("find_doctors", OutcomeHit)
	ObserveSearchResults(5)
	if got := testutil.ToFloat64(QueriesTotal.WithLabelValues("find_doctors", OutcomeHit)); got != before+1 {
		t.Errorf("queries = %f, want %f", got, before+1)
	}
	if testutil.CollectAndCount(QueryResults) == 0 {
		t.Error("expected query_results observation")
	}
}
