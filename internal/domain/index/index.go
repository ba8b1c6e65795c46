// Package index builds the immutable doctor index from a source snapshot and
// answers doctor search and detail queries against it.
//
// An *Index is never mutated after Build returns, so any number of goroutines
// may query it concurrently. Rebuilding produces a new, independent value.
package index

import (
	"github.com/kailas-cloud/carefinder/internal/domain/availability"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
)

// record is the per-doctor aggregate owned by the index.
type record struct {
	npi          string
	name         string
	zipCode      string
	score        float64
	features     []provider.Feature
	availability []availability.Slot
}

// Stats describes what a build kept and dropped.
type Stats struct {
	DoctorScores        int
	DoctorsIndexed      int
	FeatureScores       int
	FeaturesKept        int
	Appointments        int
	AppointmentsKept    int
	DuplicateDoctorNPIs int
}

// DroppedDoctorScores counts doctor score rows below the threshold.
// Duplicates that overwrote a record are not counted as dropped.
func (s Stats) DroppedDoctorScores() int {
	return s.DoctorScores - s.DoctorsIndexed - s.DuplicateDoctorNPIs
}

// DroppedFeatureScores counts feature rows below threshold or for unlisted doctors.
func (s Stats) DroppedFeatureScores() int { return s.FeatureScores - s.FeaturesKept }

// DroppedAppointments counts offers for unlisted doctors.
func (s Stats) DroppedAppointments() int { return s.Appointments - s.AppointmentsKept }

// Index is the immutable, queryable doctor index.
type Index struct {
	byNPI      map[string]*record
	order      []*record
	thresholds provider.Thresholds
	stats      Stats
	slots      int
}

// Len returns the number of indexed doctors.
func (ix *Index) Len() int { return len(ix.order) }

// Slots returns the number of indexed appointment slots, past ones included.
func (ix *Index) Slots() int { return ix.slots }

// Stats returns build statistics.
func (ix *Index) Stats() Stats { return ix.stats }

// Thresholds returns the thresholds the index was built with.
func (ix *Index) Thresholds() provider.Thresholds { return ix.thresholds }
