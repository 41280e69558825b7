package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	collection CollectionChecker
	store      StorePinger
	embedding  EmbeddingChecker
}

// New creates a Service. store and embedding can be nil.
func New(collection CollectionChecker, store StorePinger, embedding EmbeddingChecker) *Service {
	return &Service{collection: collection, store: store, embedding: embedding}
}

// Check runs health checks against all components. An empty collection
// counts as a failing check: the service is up but cannot answer anything.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if n, err := s.collection.Len(ctx); err != nil || n == 0 {
		checks["collection"] = CheckError
	} else {
		checks["collection"] = CheckOK
	}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["store"] = CheckError
		} else {
			checks["store"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
