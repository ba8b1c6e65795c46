package provider

import "math"

// AnomalyKind classifies a suspicious but accepted source row.
type AnomalyKind string

// Anomaly kinds reported by Audit.
const (
	AnomalyScoreOutOfRange AnomalyKind = "score_out_of_range"
	AnomalyScoreNotFinite  AnomalyKind = "score_not_finite"
	AnomalyEmptySpan       AnomalyKind = "empty_span"
	AnomalyUnknownFeature  AnomalyKind = "unknown_feature"
)

// Anomalies counts suspicious rows per kind. The index accepts them as-is;
// callers log and count them.
type Anomalies map[AnomalyKind]int

// Total returns the number of anomalies across all kinds.
func (a Anomalies) Total() int {
	n := 0
	for _, c := range a {
		n += c
	}
	return n
}

// Audit inspects a snapshot without modifying it.
func Audit(src Sources) Anomalies {
	out := make(Anomalies)
	for _, d := range src.DoctorScores {
		checkScore(out, d.Score)
	}
	for _, f := range src.FeatureScores {
		checkScore(out, f.Score)
		if !f.Feature.IsValid() {
			out[AnomalyUnknownFeature]++
		}
	}
	for _, a := range src.Appointments {
		if !a.EndTime.After(a.StartTime) {
			out[AnomalyEmptySpan]++
		}
	}
	return out
}

func checkScore(out Anomalies, score float64) {
	switch {
	case math.IsNaN(score) || math.IsInf(score, 0):
		out[AnomalyScoreNotFinite]++
	case score < 0 || score > 100:
		out[AnomalyScoreOutOfRange]++
	}
}
