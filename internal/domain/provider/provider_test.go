package provider

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestParseFeature(t *testing.T) {
	tests := []struct {
		in      string
		want    Feature
		wantErr bool
	}{
		{"OnlyNecessaryLabs", OnlyNecessaryLabs, false},
		{"PTBeforeSurgery", PTBeforeSurgery, false},
		{"5", OnlyIndicatedMedications, false},
		{"1", OnlyNecessaryLabs, false},
		{"0", 0, true},
		{"6", 0, true},
		{"onlynecessarylabs", 0, true},
		{"", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFeature(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFeatures_AllValid(t *testing.T) {
	all := Features()
	if len(all) != 5 {
		t.Fatalf("expected 5 features, got %d", len(all))
	}
	for _, f := range all {
		if !f.IsValid() {
			t.Errorf("%d should be valid", int(f))
		}
		back, err := ParseFeature(f.String())
		if err != nil || back != f {
			t.Errorf("name round trip failed for %v: %v", f, err)
		}
	}
}

func TestFeature_StringUnknown(t *testing.T) {
	if got := Feature(42).String(); got != "Feature(42)" {
		t.Errorf("got %q", got)
	}
}

func TestFeature_JSON(t *testing.T) {
	var rows []struct {
		Feature Feature `json:"feature"`
	}
	data := `[{"feature":"OnlyNecessaryImagingStudies"},{"feature":2}]`
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].Feature != OnlyNecessaryImagingStudies || rows[1].Feature != OnlyNecessaryInvasiveStudies {
		t.Errorf("unexpected features: %+v", rows)
	}

	out, err := json.Marshal(map[string]Feature{"f": PTBeforeSurgery})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"f":"PTBeforeSurgery"}` {
		t.Errorf("got %s", out)
	}
}

func TestFeature_JSONUnknownCode(t *testing.T) {
	var f Feature
	if err := json.Unmarshal([]byte("9"), &f); err == nil {
		t.Fatal("expected error for unknown code")
	}
	if err := json.Unmarshal([]byte(`"Acupuncture"`), &f); err == nil {
		t.Fatal("expected error for unknown name")
	}
}

func TestAudit(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	src := Sources{
		DoctorScores: []DoctorScore{
			{NPI: "a", Score: 50},
			{NPI: "b", Score: 101},
			{NPI: "c", Score: math.NaN()},
		},
		FeatureScores: []FeatureScore{
			{NPI: "a", Feature: OnlyNecessaryLabs, Score: -1},
			{NPI: "a", Feature: Feature(7), Score: 80},
		},
		Appointments: []Appointment{
			{NPI: "a", StartTime: start, EndTime: start.Add(30 * time.Minute)},
			{NPI: "a", StartTime: start, EndTime: start},
			{NPI: "a", StartTime: start, EndTime: start.Add(-time.Minute)},
		},
	}

	got := Audit(src)
	if got[AnomalyScoreOutOfRange] != 2 {
		t.Errorf("out of range: got %d, want 2", got[AnomalyScoreOutOfRange])
	}
	if got[AnomalyScoreNotFinite] != 1 {
		t.Errorf("not finite: got %d, want 1", got[AnomalyScoreNotFinite])
	}
	if got[AnomalyUnknownFeature] != 1 {
		t.Errorf("unknown feature: got %d, want 1", got[AnomalyUnknownFeature])
	}
	if got[AnomalyEmptySpan] != 2 {
		t.Errorf("empty span: got %d, want 2", got[AnomalyEmptySpan])
	}
	if got.Total() != 6 {
		t.Errorf("total: got %d, want 6", got.Total())
	}
}

func TestAudit_Clean(t *testing.T) {
	if n := Audit(Sources{DoctorScores: []DoctorScore{{NPI: "a", Score: 100}}}).Total(); n != 0 {
		t.Errorf("expected no anomalies, got %d", n)
	}
}
