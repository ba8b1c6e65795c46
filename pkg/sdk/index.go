package sdk

import (
	"time"

	"github.com/kailas-cloud/carefinder/internal/domain/index"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
)

// Index is an immutable doctor index, safe for concurrent queries.
type Index struct {
	ix *index.Index
}

// BuildIndex builds an index from a complete snapshot. src is not modified.
func BuildIndex(th Thresholds, src Sources) *Index {
	return &Index{ix: index.Build(th, src)}
}

// FindDoctors returns doctors in the zip code with a slot of exactly the
// requested length starting after p.CurrentTime, best score first.
func (i *Index) FindDoctors(p FindDoctorsParams) []DoctorSummary {
	return i.ix.FindDoctors(p)
}

// DoctorDetail returns one doctor with the slots that start after now.
// It returns ErrDoctorNotFound for NPIs that are not indexed.
func (i *Index) DoctorDetail(now time.Time, npi string) (DoctorDetail, error) {
	d, err := i.ix.DoctorDetail(now, npi)
	if err != nil {
		return DoctorDetail{}, err //nolint:wrapcheck // sentinel kept for errors.Is
	}
	return d, nil
}

// Len returns the number of indexed doctors.
func (i *Index) Len() int { return i.ix.Len() }

// Stats returns what the build kept and dropped.
func (i *Index) Stats() Stats { return i.ix.Stats() }

// Audit reports suspicious rows in src that an index would still accept.
func Audit(src Sources) Anomalies { return provider.Audit(src) }
