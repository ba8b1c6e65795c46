package index

import (
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/carefinder/internal/domain"
	"github.com/kailas-cloud/carefinder/internal/domain/availability"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
)

// FindDoctorsParams are the inputs of a doctor search.
type FindDoctorsParams struct {
	// CurrentTime is "now" for the query; only later slots match.
	CurrentTime time.Time
	// ZipCode must equal the doctor's zip code exactly.
	ZipCode string
	// AppointmentLengthMinutes must equal the slot length exactly.
	AppointmentLengthMinutes int
	// Limit caps the number of results. Zero or negative returns nothing.
	Limit int
}

// DoctorSummary is a search hit.
type DoctorSummary struct {
	NPI               string
	Name              string
	FirstAvailability time.Time
}

// DoctorDetail is the full record of one indexed doctor.
type DoctorDetail struct {
	NPI          string
	Name         string
	ZipCode      string
	Score        float64
	Features     []provider.Feature
	Availability []availability.Slot
}

type candidate struct {
	rec   *record
	slots []availability.Slot
}

// FindDoctors returns doctors in p.ZipCode with at least one matching slot,
// ranked by score descending. Equal scores keep encounter order.
func (ix *Index) FindDoctors(p FindDoctorsParams) []DoctorSummary {
	if p.Limit <= 0 {
		return []DoctorSummary{}
	}

	q := availability.Query{
		CurrentTime:              p.CurrentTime,
		AppointmentLengthMinutes: p.AppointmentLengthMinutes,
	}

	// Candidate filter, then narrow each survivor to its matching slots.
	candidates := make([]candidate, 0)
	for _, rec := range ix.order {
		if rec.zipCode != p.ZipCode || !availability.ContainsAvailability(rec.availability, q) {
			continue
		}
		candidates = append(candidates, candidate{
			rec:   rec,
			slots: availability.Narrow(rec.availability, q),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].rec.score > candidates[j].rec.score
	})
	if len(candidates) > p.Limit {
		candidates = candidates[:p.Limit]
	}

	out := make([]DoctorSummary, len(candidates))
	for i, c := range candidates {
		out[i] = DoctorSummary{
			NPI:               c.rec.npi,
			Name:              c.rec.name,
			FirstAvailability: c.slots[0].Time,
		}
	}
	return out
}

// DoctorDetail returns the doctor's record with availability restricted to
// slots starting strictly after now, in original order. It returns
// domain.ErrDoctorNotFound if npi is not indexed.
func (ix *Index) DoctorDetail(now time.Time, npi string) (DoctorDetail, error) {
	rec, ok := ix.byNPI[npi]
	if !ok {
		return DoctorDetail{}, fmt.Errorf("%w: %s", domain.ErrDoctorNotFound, npi)
	}

	features := make([]provider.Feature, len(rec.features))
	copy(features, rec.features)

	return DoctorDetail{
		NPI:          rec.npi,
		Name:         rec.name,
		ZipCode:      rec.zipCode,
		Score:        rec.score,
		Features:     features,
		Availability: availability.After(rec.availability, now),
	}, nil
}
