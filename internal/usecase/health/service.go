package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the index is served but the source is unreachable.
	Degraded Status = "degraded"
	// Unhealthy indicates no index is available to serve queries.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentSource = "source"
	ComponentIndex  = "index"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	source SourcePinger
	index  IndexState
}

// New creates a Service.
func New(source SourcePinger, index IndexState) *Service {
	return &Service{source: source, index: index}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)

	if err := s.source.Ping(ctx); err != nil {
		checks[ComponentSource] = CheckError
	} else {
		checks[ComponentSource] = CheckOK
	}

	if s.index.Ready() {
		checks[ComponentIndex] = CheckOK
	} else {
		checks[ComponentIndex] = CheckError
	}

	status := Healthy
	switch {
	case checks[ComponentIndex] == CheckError:
		status = Unhealthy
	case checks[ComponentSource] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
