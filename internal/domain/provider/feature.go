package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Feature is a clinical-adherence category a doctor can be scored on.
// Codes are stable and shared with the data pipeline.
type Feature int

// Known features.
const (
	// OnlyNecessaryLabs orders labs only when clinically indicated.
	OnlyNecessaryLabs Feature = 1
	// OnlyNecessaryInvasiveStudies orders studies requiring an incision only when clinically indicated.
	OnlyNecessaryInvasiveStudies Feature = 2
	// OnlyNecessaryImagingStudies orders MRI, CT, X-Ray and other imaging only when clinically indicated.
	OnlyNecessaryImagingStudies Feature = 3
	// PTBeforeSurgery orders surgery only when physical therapy does not yield results.
	PTBeforeSurgery Feature = 4
	// OnlyIndicatedMedications orders medications only when clinically indicated.
	OnlyIndicatedMedications Feature = 5
)

var featureNames = map[Feature]string{
	OnlyNecessaryLabs:            "OnlyNecessaryLabs",
	OnlyNecessaryInvasiveStudies: "OnlyNecessaryInvasiveStudies",
	OnlyNecessaryImagingStudies:  "OnlyNecessaryImagingStudies",
	PTBeforeSurgery:              "PTBeforeSurgery",
	OnlyIndicatedMedications:     "OnlyIndicatedMedications",
}

var featuresByName = func() map[string]Feature {
	m := make(map[string]Feature, len(featureNames))
	for f, name := range featureNames {
		m[name] = f
	}
	return m
}()

// Features returns all known features in code order.
func Features() []Feature {
	return []Feature{
		OnlyNecessaryLabs,
		OnlyNecessaryInvasiveStudies,
		OnlyNecessaryImagingStudies,
		PTBeforeSurgery,
		OnlyIndicatedMedications,
	}
}

// IsValid reports whether f is a known feature.
func (f Feature) IsValid() bool {
	_, ok := featureNames[f]
	return ok
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return "Feature(" + strconv.Itoa(int(f)) + ")"
}

// ParseFeature accepts a feature name ("PTBeforeSurgery") or its numeric code ("4").
func ParseFeature(s string) (Feature, error) {
	if f, ok := featuresByName[s]; ok {
		return f, nil
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown feature %q", s)
	}
	return FeatureFromCode(code)
}

// FeatureFromCode maps a numeric pipeline code to a Feature.
func FeatureFromCode(code int) (Feature, error) {
	f := Feature(code)
	if !f.IsValid() {
		return 0, fmt.Errorf("unknown feature code %d", code)
	}
	return f, nil
}

// MarshalText encodes the feature by name.
func (f Feature) MarshalText() ([]byte, error) {
	if !f.IsValid() {
		return nil, fmt.Errorf("unknown feature code %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText decodes a feature name or numeric code.
func (f *Feature) UnmarshalText(text []byte) error {
	parsed, err := ParseFeature(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// UnmarshalJSON accepts both the quoted name and the bare numeric code the pipeline emits.
func (f *Feature) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode feature: %w", err)
		}
		return f.UnmarshalText([]byte(s))
	}
	code, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return fmt.Errorf("decode feature %s: %w", data, err)
	}
	parsed, err := FeatureFromCode(code)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
