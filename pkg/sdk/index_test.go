package sdk

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestBuildIndex_Scenario(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	src := Sources{
		DoctorScores: []DoctorScore{
			{NPI: "P1", Name: "Dr. One", Score: 80, ZipCode: "10001"},
		},
		Appointments: []Appointment{
			{NPI: "P1", StartTime: day.Add(9 * time.Hour), EndTime: day.Add(9*time.Hour + 30*time.Minute)},
		},
	}
	ix := BuildIndex(th, src)
	if ix.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", ix.Len())
	}

	p := FindDoctorsParams{
		CurrentTime:              day.Add(8 * time.Hour),
		ZipCode:                  "10001",
		AppointmentLengthMinutes: 30,
		Limit:                    5,
	}
	hits := ix.FindDoctors(p)
	if len(hits) != 1 || !hits[0].FirstAvailability.Equal(day.Add(9*time.Hour)) {
		t.Errorf("30 minutes: got %+v", hits)
	}

	p.AppointmentLengthMinutes = 45
	if hits := ix.FindDoctors(p); len(hits) != 0 {
		t.Errorf("45 minutes: expected no hits, got %+v", hits)
	}

	if _, err := ix.DoctorDetail(day, "nope"); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	src, err := LoadFile(context.Background(), writeSnapshot(t, snapshotYAML))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(src.DoctorScores) != 2 || len(src.FeatureScores) != 1 || len(src.Appointments) != 2 {
		t.Errorf("unexpected sizes: %d/%d/%d",
			len(src.DoctorScores), len(src.FeatureScores), len(src.Appointments))
	}
	if a := Audit(src); a.Total() != 0 {
		t.Errorf("unexpected anomalies: %v", a)
	}
	if stats := BuildIndex(th, src).Stats(); stats.DoctorsIndexed != 1 {
		t.Errorf("stats: got %+v", stats)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseFeature(t *testing.T) {
	f, err := ParseFeature("PTBeforeSurgery")
	if err != nil || f != PTBeforeSurgery {
		t.Errorf("by name: got %v, %v", f, err)
	}
	if _, err := ParseFeature("Acupuncture"); err == nil {
		t.Error("expected error for unknown name")
	}
}
