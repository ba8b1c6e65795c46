// Package provider holds the source contracts exported by the data pipeline:
// doctor scores, feature scores and offered appointments.
package provider

import "time"

// DoctorScore is the pipeline's scoring result for one doctor.
// It decides whether the doctor is listed at all.
type DoctorScore struct {
	NPI     string
	Name    string
	Score   float64
	ZipCode string
}

// FeatureScore scores how well a doctor adheres to one Feature.
// A doctor has zero to many feature scores.
type FeatureScore struct {
	NPI     string
	Feature Feature
	Score   float64
}

// Appointment is an indivisible slot offered by a doctor.
// StartTime and EndTime are in the local time zone shared with callers.
type Appointment struct {
	NPI       string
	StartTime time.Time
	EndTime   time.Time
}

// Sources is one complete snapshot of the three datasets.
type Sources struct {
	DoctorScores  []DoctorScore
	FeatureScores []FeatureScore
	Appointments  []Appointment
}

// Thresholds are the minimum scores (0-100) for a doctor to be listed
// and for a feature to be ascribed to a listed doctor.
type Thresholds struct {
	MinDoctorScore  float64
	MinFeatureScore float64
}
