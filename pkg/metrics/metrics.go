// Package metrics holds the conventions shared by the Prometheus and
// OpenTelemetry instruments of the service.
package metrics

// DefaultBuckets are histogram buckets in seconds for outbound API latency.
// Delivery calls are slow compared to in-process work, so the upper end
// reaches the SendGrid client timeout.
var DefaultBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30} //nolint: gochecknoglobals

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Outcome returns the outcome label for an operation that returned err.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}

	return OutcomeSuccess
}
