package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/carefinder/internal/domain"
	"github.com/kailas-cloud/carefinder/internal/domain/index"
	"github.com/kailas-cloud/carefinder/internal/logger"
	"github.com/kailas-cloud/carefinder/internal/transport/api"
	cataloguc "github.com/kailas-cloud/carefinder/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/carefinder/internal/usecase/health"
	"github.com/kailas-cloud/carefinder/internal/version"
)

// GenerationHeader carries the id of the index generation that served a request.
const GenerationHeader = "X-Index-Generation"

const (
	defaultLimit = 10
	maxLimit     = 100
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements api.ServerInterface for the chi router.
type Server struct {
	api.Unimplemented
	catalog       *cataloguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	now           func() time.Time
	defaultLimit  int
	maxLimit      int
	errorHandlers []errorHandler
}

var _ api.ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(catalog *cataloguc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		catalog:      catalog,
		health:       health,
		logger:       logger,
		now:          time.Now,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDoctorNotFound, http.StatusNotFound, api.ErrorResponseCodeDoctorNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, api.ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrIndexNotReady, http.StatusServiceUnavailable, api.ErrorResponseCodeIndexNotReady),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, api.ErrorResponseCodeValidationFailed),
	}
	return s
}

// WithLimits sets the default result count and the upper bound a request may ask for.
func (s *Server) WithLimits(defaultLimit, maxLimit int) *Server {
	if defaultLimit > 0 {
		s.defaultLimit = defaultLimit
	}
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	return s
}

// WithClock overrides the clock used when a request carries no current_time.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// FindDoctors handles GET /doctors.
func (s *Server) FindDoctors(w http.ResponseWriter, r *http.Request, params api.FindDoctorsParams) {
	query, err := s.findDoctorsQuery(params)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	doctors, gen, err := s.catalog.FindDoctors(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]api.DoctorSummary, len(doctors))
	for i, d := range doctors {
		items[i] = api.DoctorSummary{
			Npi:               d.NPI,
			Name:              d.Name,
			FirstAvailability: d.FirstAvailability,
		}
	}

	w.Header().Set(GenerationHeader, gen.ID)
	writeJSON(w, http.StatusOK, api.FindDoctorsResponse{
		Doctors:    items,
		Generation: gen.ID,
	})
}

func (s *Server) findDoctorsQuery(params api.FindDoctorsParams) (index.FindDoctorsParams, error) {
	if params.ZipCode == "" {
		return index.FindDoctorsParams{}, fmt.Errorf("%w: zip_code must not be empty", domain.ErrInvalidQuery)
	}
	if params.AppointmentLengthMinutes <= 0 {
		return index.FindDoctorsParams{}, fmt.Errorf("%w: appointment_length_minutes must be positive",
			domain.ErrInvalidQuery)
	}

	limit := s.defaultLimit
	if params.Limit != nil {
		if *params.Limit <= 0 {
			return index.FindDoctorsParams{}, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidQuery)
		}
		limit = *params.Limit
	}
	limit = min(limit, s.maxLimit)

	return index.FindDoctorsParams{
		CurrentTime:              s.currentTime(params.CurrentTime),
		ZipCode:                  params.ZipCode,
		AppointmentLengthMinutes: params.AppointmentLengthMinutes,
		Limit:                    limit,
	}, nil
}

// GetDoctor handles GET /doctors/{npi}.
func (s *Server) GetDoctor(w http.ResponseWriter, r *http.Request, npi api.Npi, params api.GetDoctorParams) {
	d, gen, err := s.catalog.DoctorDetail(r.Context(), s.currentTime(params.CurrentTime), npi)
	if gen.ID != "" {
		w.Header().Set(GenerationHeader, gen.ID)
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	features := make([]string, len(d.Features))
	for i, f := range d.Features {
		features[i] = f.String()
	}
	slots := make([]api.Slot, len(d.Availability))
	for i, sl := range d.Availability {
		slots[i] = api.Slot{Time: sl.Time, LengthMinutes: sl.LengthMinutes}
	}

	writeJSON(w, http.StatusOK, api.DoctorDetailResponse{
		Npi:          d.NPI,
		Name:         d.Name,
		ZipCode:      d.ZipCode,
		Score:        finite(d.Score),
		Features:     features,
		Availability: slots,
		Generation:   gen.ID,
	})
}

// ReloadIndex handles POST /admin/reload.
func (s *Server) ReloadIndex(w http.ResponseWriter, r *http.Request) {
	gen, err := s.catalog.Reload(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Warn("manual reload failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, api.ErrorResponseCodeReloadFailed, "snapshot could not be loaded")
		return
	}

	anomalies := make(map[string]int, len(gen.Anomalies))
	for kind, n := range gen.Anomalies {
		anomalies[string(kind)] = n
	}

	st := gen.Stats
	w.Header().Set(GenerationHeader, gen.ID)
	writeJSON(w, http.StatusOK, api.ReloadResponse{
		Generation:           gen.ID,
		BuiltAt:              gen.BuiltAt,
		DurationMs:           gen.Duration.Milliseconds(),
		DoctorsIndexed:       st.DoctorsIndexed,
		SlotsIndexed:         st.AppointmentsKept,
		DroppedDoctorScores:  st.DroppedDoctorScores(),
		DroppedFeatureScores: st.DroppedFeatureScores(),
		DroppedAppointments:  st.DroppedAppointments(),
		DuplicateNpis:        st.DuplicateDoctorNPIs,
		Anomalies:            anomalies,
	})
}

// HealthCheck handles GET /health. A degraded service still answers queries
// from the last index, so only an unhealthy one reports 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]api.HealthResponseChecks, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = api.HealthResponseChecks(v)
	}

	resp := api.HealthResponse{
		Status:  api.HealthResponseStatus(report.Status),
		Checks:  checks,
		Version: version.String(),
	}
	if gen, ok := s.catalog.Current(); ok {
		resp.Generation = &gen.ID
		w.Header().Set(GenerationHeader, gen.ID)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// BadRequestHandler answers parameter binding failures.
func BadRequestHandler(w http.ResponseWriter, _ *http.Request, err error) {
	msg := "invalid request"
	var pe *api.InvalidParamFormatError
	if errors.As(err, &pe) {
		msg = "invalid parameter " + pe.ParamName
	}
	writeError(w, http.StatusBadRequest, api.ErrorResponseCodeBadRequest, msg)
}

func (s *Server) currentTime(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return s.now()
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code api.ErrorResponseCode, message string) {
	writeJSON(w, status, api.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Validation errors keep their detail since it only names request parameters.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidQuery) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrDoctorNotFound,
		domain.ErrNotFound,
		domain.ErrIndexNotReady,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code api.ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		log = log.With(zap.String("request_id", reqID))
	}
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, api.ErrorResponseCodeInternalError, "internal error")
}
