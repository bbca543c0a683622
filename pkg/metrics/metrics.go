// Package metrics provides the Prometheus registry and Pushgateway support
// for the rank exporter.
// Request, cache and pagination metrics are defined in their respective
// packages (client, cache, pagination) to avoid circular dependencies.
//
// An export is a batch job, so nothing scrapes it. When a Pushgateway is
// configured the exporter pushes the default registry once at the end of
// the run.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry is the default Prometheus registry used by the rank exporter.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// DefaultJob is the Pushgateway job name when none is configured.
const DefaultJob = "rank_export"

var (
	// LastSuccess is the unix time of the last export that wrote its file.
	LastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rank_export_last_success_timestamp_seconds",
		Help: "Unix time of the last successful export",
	})

	// RowsWritten is the number of data rows in the last written file.
	RowsWritten = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rank_export_rows_written",
		Help: "Data rows written by the last successful export",
	})
)

// RecordSuccess updates the batch job gauges after a file was written.
func RecordSuccess(rows int) {
	RowsWritten.Set(float64(rows))
	LastSuccess.Set(float64(time.Now().Unix()))
}

// Push sends everything in gatherer to the Pushgateway at url under job,
// replacing the job's previous metrics. A nil gatherer pushes the default
// registry.
func Push(ctx context.Context, url, job string, gatherer prometheus.Gatherer) error {
	if url == "" {
		return fmt.Errorf("pushgateway url is required")
	}
	if job == "" {
		job = DefaultJob
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	if err := push.New(url, job).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - rank_api_requests_total{status} (Counter): Requests by HTTP status, "network_error" on transport failure
//   - rank_api_request_duration_seconds (Histogram): Request duration
//   - rank_api_errors_total{class} (Counter): Errors by class (client, server, network, unexpected)
//
// Cache Metrics (pkg/cache):
//   - rank_cache_hits_total (Counter): Page cache hits
//   - rank_cache_misses_total (Counter): Page cache misses
//   - rank_cache_written_bytes_total (Counter): Bytes written to Redis
//   - rank_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pagination Metrics (pkg/pagination):
//   - rank_export_pages_total{outcome} (Counter): Pages by outcome (records, empty, error)
//   - rank_export_records_total (Counter): Records accumulated
//   - rank_export_pagination_duration_seconds (Histogram): Duration of a full pagination run
//
// Export Metrics (pkg/metrics):
//   - rank_export_last_success_timestamp_seconds (Gauge): Time of the last successful export
//   - rank_export_rows_written (Gauge): Rows in the last written file
//
// Example Prometheus Queries:
//
//   # Export has not succeeded for a day
//   time() - rank_export_last_success_timestamp_seconds > 86400
//
//   # Cache Hit Rate
//   sum(rate(rank_cache_hits_total[5m])) /
//   (sum(rate(rank_cache_hits_total[5m])) + sum(rate(rank_cache_misses_total[5m])))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(rank_api_request_duration_seconds_bucket[5m]))
