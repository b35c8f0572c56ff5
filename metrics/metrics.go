package metrics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "reporter"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	pushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "pushes_total",
		Help:      "Count of publish attempts by outcome",
	}, []string{
		"run_id",
		"outcome",
	})

	recordsMerged = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "records_merged",
		Help:      "Number of records loaded from partial stores",
	}, []string{
		"run_id",
	})

	recordsReconciled = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "records_reconciled",
		Help:      "Number of distinct case results after reconciliation",
	}, []string{
		"run_id",
	})

	reportDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "report_duration_seconds",
		Help:      "Duration of the merge-and-publish pipeline",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordPush counts one publish attempt with its outcome label.
func RecordPush(runID string, outcome string) {
	if Debug {
		log.Debug("metric inc",
			"m", "pushes_total",
			"run_id", runID,
			"outcome", outcome)
	}
	pushesTotal.WithLabelValues(runID, outcome).Inc()
}

// RecordMerge records the size of the merged set before and after
// reconciliation.
func RecordMerge(runID string, loaded int, reconciled int) {
	recordsMerged.WithLabelValues(runID).Set(float64(loaded))
	recordsReconciled.WithLabelValues(runID).Set(float64(reconciled))
}

// RecordReportDuration records how long the merge-and-publish pipeline took.
func RecordReportDuration(runID string, duration time.Duration) {
	reportDuration.WithLabelValues(runID).Set(duration.Seconds())
}
