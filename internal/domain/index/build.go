package index

import (
	"github.com/kailas-cloud/carefinder/internal/domain/availability"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
)

// Build constructs an Index from a complete snapshot. Inputs are not modified.
//
// Doctors scoring below th.MinDoctorScore are left out entirely. A repeated
// NPI overwrites the earlier record's fields but keeps its position in
// encounter order. Feature scores and appointments referencing doctors that are
// not indexed are dropped silently; past appointments are kept.
func Build(th provider.Thresholds, src provider.Sources) *Index {
	ix := &Index{
		byNPI:      make(map[string]*record, len(src.DoctorScores)),
		order:      make([]*record, 0, len(src.DoctorScores)),
		thresholds: th,
	}
	ix.stats.DoctorScores = len(src.DoctorScores)
	ix.stats.FeatureScores = len(src.FeatureScores)
	ix.stats.Appointments = len(src.Appointments)

	for _, d := range src.DoctorScores {
		if !meets(d.Score, th.MinDoctorScore) {
			continue
		}
		if rec, ok := ix.byNPI[d.NPI]; ok {
			rec.name = d.Name
			rec.zipCode = d.ZipCode
			rec.score = d.Score
			ix.stats.DuplicateDoctorNPIs++
			continue
		}
		rec := &record{
			npi:     d.NPI,
			name:    d.Name,
			zipCode: d.ZipCode,
			score:   d.Score,
		}
		ix.byNPI[d.NPI] = rec
		ix.order = append(ix.order, rec)
	}
	ix.stats.DoctorsIndexed = len(ix.order)

	for _, f := range src.FeatureScores {
		rec, ok := ix.byNPI[f.NPI]
		if !ok || !meets(f.Score, th.MinFeatureScore) {
			continue
		}
		rec.features = append(rec.features, f.Feature)
		ix.stats.FeaturesKept++
	}

	for _, a := range src.Appointments {
		rec, ok := ix.byNPI[a.NPI]
		if !ok {
			continue
		}
		rec.availability = append(rec.availability, availability.FromOffer(a.StartTime, a.EndTime))
		ix.stats.AppointmentsKept++
	}
	ix.slots = ix.stats.AppointmentsKept

	return ix
}

// meets is written as score >= min so a NaN score never passes.
func meets(score, minScore float64) bool {
	return score >= minScore
}
