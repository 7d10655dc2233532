package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// SchedulerMetrics is returned by GET /v1/metrics/scheduler.
type SchedulerMetrics struct {
	Runs                  int64   `json:"runs"`
	GeneratedTotal        int64   `json:"generatedTotal"`
	DuplicatesSkipped     int64   `json:"duplicatesSkipped"`
	Failures              int64   `json:"failures"`
	MonthsArchived        int64   `json:"monthsArchived"`
	MonthsUnarchived      int64   `json:"monthsUnarchived"`
	AvgGeneratedPerRun    float64 `json:"avgGeneratedPerRun"`
	ReferenceCacheHitRate float64 `json:"referenceCacheHitRate"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
