package sdk

import (
	"github.com/kailas-cloud/carefinder/internal/domain/availability"
	"github.com/kailas-cloud/carefinder/internal/domain/index"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
	cataloguc "github.com/kailas-cloud/carefinder/internal/usecase/catalog"
)

// Source rows.
type (
	DoctorScore  = provider.DoctorScore
	FeatureScore = provider.FeatureScore
	Appointment  = provider.Appointment
	Sources      = provider.Sources
	Thresholds   = provider.Thresholds
	Anomalies    = provider.Anomalies
)

// Feature is a clinical-adherence category.
type Feature = provider.Feature

// Known features.
const (
	OnlyNecessaryLabs            = provider.OnlyNecessaryLabs
	OnlyNecessaryInvasiveStudies = provider.OnlyNecessaryInvasiveStudies
	OnlyNecessaryImagingStudies  = provider.OnlyNecessaryImagingStudies
	PTBeforeSurgery              = provider.PTBeforeSurgery
	OnlyIndicatedMedications     = provider.OnlyIndicatedMedications
)

// ParseFeature accepts a feature name or its numeric code.
func ParseFeature(s string) (Feature, error) {
	f, err := provider.ParseFeature(s)
	if err != nil {
		return 0, err //nolint:wrapcheck // already descriptive
	}
	return f, nil
}

// Query and result types.
type (
	Slot              = availability.Slot
	FindDoctorsParams = index.FindDoctorsParams
	DoctorSummary     = index.DoctorSummary
	DoctorDetail      = index.DoctorDetail
	Stats             = index.Stats
)

// Generation describes one successful index build.
type Generation = cataloguc.Generation
