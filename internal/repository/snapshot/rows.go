// Package snapshot reads complete source snapshots (doctor scores, feature
// scores and appointment offers) from the supported stores.
//
// Loaders keep rows in stored order, duplicates included. A row that cannot
// be decoded fails the whole load with domain.ErrInvalidSource; rows that
// decode but look wrong are passed through for provider.Audit to report.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/carefinder/internal/domain"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
)

// Dataset names, shared by every store layout.
const (
	DatasetDoctorScores  = "doctor_scores"
	DatasetFeatureScores = "feature_scores"
	DatasetAppointments  = "appointments"
)

// doctorScoreRow is the document form of provider.DoctorScore.
type doctorScoreRow struct {
	NPI     string  `json:"npi" yaml:"npi"`
	Name    string  `json:"name" yaml:"name"`
	Score   float64 `json:"score" yaml:"score"`
	ZipCode string  `json:"zip_code" yaml:"zip_code"`
}

type featureScoreRow struct {
	NPI     string      `json:"npi" yaml:"npi"`
	Feature wireFeature `json:"feature" yaml:"feature"`
	Score   float64     `json:"score" yaml:"score"`
}

type appointmentRow struct {
	NPI       string `json:"npi" yaml:"npi"`
	StartTime string `json:"start_time" yaml:"start_time"`
	EndTime   string `json:"end_time" yaml:"end_time"`
}

// document is the whole snapshot as one YAML or JSON document.
type document struct {
	DoctorScores  []doctorScoreRow  `json:"doctor_scores" yaml:"doctor_scores"`
	FeatureScores []featureScoreRow `json:"feature_scores" yaml:"feature_scores"`
	Appointments  []appointmentRow  `json:"appointments" yaml:"appointments"`
}

// wireFeature holds a feature as written by the pipeline: a name or a code.
type wireFeature string

// UnmarshalJSON accepts a quoted name or a bare number.
func (w *wireFeature) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err //nolint:wrapcheck // decoded by caller with context
		}
		*w = wireFeature(s)
		return nil
	}
	*w = wireFeature(data)
	return nil
}

// parseFeature resolves a name or numeric code. Unknown numeric codes are
// kept so Audit can report them; anything else is undecodable.
func parseFeature(raw string) (provider.Feature, error) {
	if f, err := provider.ParseFeature(raw); err == nil {
		return f, nil
	}
	code, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: feature %q", domain.ErrInvalidSource, raw)
	}
	return provider.Feature(code), nil
}

func parseTime(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q: %v", domain.ErrInvalidSource, field, raw, err)
	}
	return t, nil
}

func (d document) sources() (provider.Sources, error) {
	src := provider.Sources{
		DoctorScores:  make([]provider.DoctorScore, 0, len(d.DoctorScores)),
		FeatureScores: make([]provider.FeatureScore, 0, len(d.FeatureScores)),
		Appointments:  make([]provider.Appointment, 0, len(d.Appointments)),
	}

	for _, r := range d.DoctorScores {
		src.DoctorScores = append(src.DoctorScores, provider.DoctorScore{
			NPI:     r.NPI,
			Name:    r.Name,
			Score:   r.Score,
			ZipCode: r.ZipCode,
		})
	}

	for i, r := range d.FeatureScores {
		f, err := parseFeature(string(r.Feature))
		if err != nil {
			return provider.Sources{}, fmt.Errorf("%s[%d]: %w", DatasetFeatureScores, i, err)
		}
		src.FeatureScores = append(src.FeatureScores, provider.FeatureScore{
			NPI:     r.NPI,
			Feature: f,
			Score:   r.Score,
		})
	}

	for i, r := range d.Appointments {
		start, err := parseTime("start_time", r.StartTime)
		if err != nil {
			return provider.Sources{}, fmt.Errorf("%s[%d]: %w", DatasetAppointments, i, err)
		}
		end, err := parseTime("end_time", r.EndTime)
		if err != nil {
			return provider.Sources{}, fmt.Errorf("%s[%d]: %w", DatasetAppointments, i, err)
		}
		src.Appointments = append(src.Appointments, provider.Appointment{
			NPI:       r.NPI,
			StartTime: start,
			EndTime:   end,
		})
	}

	return src, nil
}
