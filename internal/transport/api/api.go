// Package api is the HTTP contract of carefinder: wire types, error codes and
// the chi routing glue that binds path and query parameters before handing
// them to a ServerInterface.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes returned by the API.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "unauthorized"
	ErrorResponseCodeDoctorNotFound   ErrorResponseCode = "doctor_not_found"
	ErrorResponseCodeNotFound         ErrorResponseCode = "not_found"
	ErrorResponseCodeIndexNotReady    ErrorResponseCode = "index_not_ready"
	ErrorResponseCodeReloadFailed     ErrorResponseCode = "reload_failed"
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// DoctorSummary is one search hit.
type DoctorSummary struct {
	Npi               string    `json:"npi"`
	Name              string    `json:"name"`
	FirstAvailability time.Time `json:"first_availability"`
}

// FindDoctorsResponse is the body of GET /doctors.
type FindDoctorsResponse struct {
	Doctors    []DoctorSummary `json:"doctors"`
	Generation string          `json:"generation"`
}

// Slot is a bookable window.
type Slot struct {
	Time          time.Time `json:"time"`
	LengthMinutes int       `json:"length_minutes"`
}

// DoctorDetailResponse is the body of GET /doctors/{npi}.
type DoctorDetailResponse struct {
	Npi          string   `json:"npi"`
	Name         string   `json:"name"`
	ZipCode      string   `json:"zip_code"`
	Score        *float64 `json:"score"`
	Features     []string `json:"features"`
	Availability []Slot   `json:"availability"`
	Generation   string   `json:"generation"`
}

// ReloadResponse is the body of POST /admin/reload.
type ReloadResponse struct {
	Generation           string         `json:"generation"`
	BuiltAt              time.Time      `json:"built_at"`
	DurationMs           int64          `json:"duration_ms"`
	DoctorsIndexed       int            `json:"doctors_indexed"`
	SlotsIndexed         int            `json:"slots_indexed"`
	DroppedDoctorScores  int            `json:"dropped_doctor_scores"`
	DroppedFeatureScores int            `json:"dropped_feature_scores"`
	DroppedAppointments  int            `json:"dropped_appointments"`
	DuplicateNpis        int            `json:"duplicate_npis"`
	Anomalies            map[string]int `json:"anomalies"`
}

// HealthResponseStatus is the aggregated service status.
type HealthResponseStatus string

// HealthResponseChecks is a single component status.
type HealthResponseChecks string

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     HealthResponseStatus            `json:"status"`
	Checks     map[string]HealthResponseChecks `json:"checks"`
	Version    string                          `json:"version"`
	Generation *string                         `json:"generation,omitempty"`
}

// Npi is a National Provider Identifier path parameter.
type Npi = string

// FindDoctorsParams are the query parameters of GET /doctors.
type FindDoctorsParams struct {
	ZipCode                  string     `form:"zip_code" json:"zip_code"`
	AppointmentLengthMinutes int        `form:"appointment_length_minutes" json:"appointment_length_minutes"`
	Limit                    *int       `form:"limit,omitempty" json:"limit,omitempty"`
	CurrentTime              *time.Time `form:"current_time,omitempty" json:"current_time,omitempty"`
}

// GetDoctorParams are the query parameters of GET /doctors/{npi}.
type GetDoctorParams struct {
	CurrentTime *time.Time `form:"current_time,omitempty" json:"current_time,omitempty"`
}

// ServerInterface is implemented by the HTTP server.
type ServerInterface interface {
	// FindDoctors handles GET /doctors.
	FindDoctors(w http.ResponseWriter, r *http.Request, params FindDoctorsParams)
	// GetDoctor handles GET /doctors/{npi}.
	GetDoctor(w http.ResponseWriter, r *http.Request, npi Npi, params GetDoctorParams)
	// ReloadIndex handles POST /admin/reload.
	ReloadIndex(w http.ResponseWriter, r *http.Request)
	// HealthCheck handles GET /health.
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Metrics handles GET /metrics.
	Metrics(w http.ResponseWriter, r *http.Request)
}

// Unimplemented answers 501 for every operation. Embed it to satisfy
// ServerInterface incrementally.
type Unimplemented struct{}

func (Unimplemented) FindDoctors(w http.ResponseWriter, _ *http.Request, _ FindDoctorsParams) {
	w.WriteHeader(http.StatusNotImplemented)
}

func (Unimplemented) GetDoctor(w http.ResponseWriter, _ *http.Request, _ Npi, _ GetDoctorParams) {
	w.WriteHeader(http.StatusNotImplemented)
}

func (Unimplemented) ReloadIndex(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

func (Unimplemented) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

func (Unimplemented) Metrics(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

// InvalidParamFormatError reports a parameter that could not be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// MiddlewareFunc wraps a single operation handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper binds request parameters and dispatches to Handler.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// FindDoctors binds the GET /doctors query.
func (siw *ServerInterfaceWrapper) FindDoctors(w http.ResponseWriter, r *http.Request) {
	var err error
	var params FindDoctorsParams
	query := r.URL.Query()

	err = runtime.BindQueryParameter("form", true, true, "zip_code", query, &params.ZipCode)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "zip_code", Err: err})
		return
	}

	err = runtime.BindQueryParameter("form", true, true,
		"appointment_length_minutes", query, &params.AppointmentLengthMinutes)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "appointment_length_minutes", Err: err})
		return
	}

	err = runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	err = runtime.BindQueryParameter("form", true, false, "current_time", query, &params.CurrentTime)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "current_time", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.FindDoctors(w, r, params)
	})
}

// GetDoctor binds the GET /doctors/{npi} path and query.
func (siw *ServerInterfaceWrapper) GetDoctor(w http.ResponseWriter, r *http.Request) {
	var err error

	var npi Npi
	err = runtime.BindStyledParameterWithOptions("simple", "npi", chi.URLParam(r, "npi"), &npi,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "npi", Err: err})
		return
	}

	var params GetDoctorParams
	err = runtime.BindQueryParameter("form", true, false, "current_time", r.URL.Query(), &params.CurrentTime)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "current_time", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetDoctor(w, r, npi, params)
	})
}

// ReloadIndex dispatches POST /admin/reload.
func (siw *ServerInterfaceWrapper) ReloadIndex(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ReloadIndex)
}

// HealthCheck dispatches GET /health.
func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.HealthCheck)
}

// Metrics dispatches GET /metrics.
func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.Metrics)
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	var handler http.Handler = fn
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler mounts si on a new chi router.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions mounts si on options.BaseRouter (or a new router) and
// returns it.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/doctors", wrapper.FindDoctors)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/doctors/{npi}", wrapper.GetDoctor)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/admin/reload", wrapper.ReloadIndex)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.HealthCheck)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/metrics", wrapper.Metrics)
	})

	return r
}
