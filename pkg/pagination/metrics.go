package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rank_export_pages_total",
		Help: "Total pages processed by outcome",
	}, []string{"outcome"}) // "records", "empty", "error"

	recordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rank_export_records_total",
		Help: "Total keyword records accumulated",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rank_export_pagination_duration_seconds",
		Help:    "Duration of a complete pagination run",
		Buckets: []float64{1, 5, 15, 30, 60, 300, 900},
	})
)
