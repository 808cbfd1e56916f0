package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importRowsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "import",
		Name:      "rows_parsed_total",
		Help:      "Total number of data rows parsed from import uploads.",
	})

	importRowsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "import",
		Name:      "rows_failed_total",
		Help:      "Total number of rows that failed validation.",
	})

	importDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "import",
		Name:      "duplicates_total",
		Help:      "Total number of candidates matched against existing contacts.",
	})

	importOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "import",
		Name:      "commit_records_total",
		Help:      "Committed import records broken down by outcome.",
	}, []string{"outcome"})
)

func RecordImportValidation(parsed, failed int) {
	importRowsParsed.Add(float64(parsed))
	importRowsFailed.Add(float64(failed))
}

func RecordImportDuplicates(n int) {
	importDuplicates.Add(float64(n))
}

func RecordImportCommit(inserted, updated, failed int) {
	importOutcomes.With(prometheus.Labels{"outcome": "inserted"}).Add(float64(inserted))
	importOutcomes.With(prometheus.Labels{"outcome": "updated"}).Add(float64(updated))
	importOutcomes.With(prometheus.Labels{"outcome": "failed"}).Add(float64(failed))
}
