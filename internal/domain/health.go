package domain

import "time"

// HealthStatus is the adapter-level health state surfaced by health_check
// and tracked by the router (spec.md §3, §4.2).
type HealthStatus string

const (
	HealthHealthy     HealthStatus = "healthy"
	HealthDegraded    HealthStatus = "degraded"
	HealthUnhealthy   HealthStatus = "unhealthy"
	HealthMaintenance HealthStatus = "maintenance"
)

// ProviderHealth is the result of a cheap health_check probe.
type ProviderHealth struct {
	Status             HealthStatus
	LastCheck          time.Time
	LatencyMS          int64
	SuccessRate        float64
	RateLimitRemaining *int
	RateLimitReset     *time.Time
	ErrorMessage       string
}
