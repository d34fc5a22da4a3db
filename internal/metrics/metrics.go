// Package metrics provides Prometheus metrics for the indexing benchmark.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mergebench"

var (
	// CommitsTotal tracks writer commits.
	CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Total writer commits",
		},
		[]string{"status"}, // success/error
	)

	// CommitLatency tracks how long a commit takes, excluding merges.
	CommitLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_latency_seconds",
			Help:      "Commit latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// DocumentsIndexed tracks documents added to a writer.
	DocumentsIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_indexed_total",
			Help:      "Total documents added to index writers",
		},
	)

	// PolicyInvocations tracks merge policy decisions per run label.
	PolicyInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_invocations_total",
			Help:      "Total merge policy invocations",
		},
		[]string{"run"},
	)

	// MergesTotal tracks completed merges.
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Total segment merges",
		},
		[]string{"status"}, // success/error
	)

	// MergeLatency tracks merge execution time.
	MergeLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_latency_seconds",
			Help:      "Segment merge latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// MergesInFlight tracks merges that are queued or running.
	MergesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "merges_in_flight",
			Help:      "Number of merges queued or running",
		},
	)

	// LiveSegments tracks the number of committed segments.
	LiveSegments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_segments",
			Help:      "Number of committed segments in the index",
		},
	)

	// DirectoryOps tracks index directory operations.
	DirectoryOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_ops_total",
			Help:      "Total index directory operations",
		},
		[]string{"operation", "status"}, // operation: read/write/delete/list/exists
	)

	// DirectoryLatency tracks index directory operation latency.
	DirectoryLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "directory_latency_seconds",
			Help:      "Index directory operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// DirectoryBytesWritten tracks bytes written to the index directory.
	DirectoryBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_bytes_written_total",
			Help:      "Total bytes written to the index directory",
		},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveCommit records a commit.
func ObserveCommit(latencySeconds float64, err error) {
	CommitsTotal.WithLabelValues(status(err)).Inc()
	CommitLatency.Observe(latencySeconds)
}

// IncDocumentsIndexed increments the indexed documents counter.
func IncDocumentsIndexed() {
	DocumentsIndexed.Inc()
}

// IncPolicyInvocation records one merge policy decision for a run label.
func IncPolicyInvocation(run string) {
	PolicyInvocations.WithLabelValues(run).Inc()
}

// ObserveMerge records a finished merge.
func ObserveMerge(latencySeconds float64, err error) {
	MergesTotal.WithLabelValues(status(err)).Inc()
	MergeLatency.Observe(latencySeconds)
}

// SetMergesInFlight sets the number of merges queued or running.
func SetMergesInFlight(n int) {
	MergesInFlight.Set(float64(n))
}

// SetLiveSegments sets the number of committed segments.
func SetLiveSegments(n int) {
	LiveSegments.Set(float64(n))
}

// ObserveDirectoryOp records an index directory operation.
func ObserveDirectoryOp(operation string, latencySeconds float64, err error) {
	DirectoryOps.WithLabelValues(operation, status(err)).Inc()
	DirectoryLatency.WithLabelValues(operation).Observe(latencySeconds)
}

// AddDirectoryBytesWritten adds to the bytes written counter.
func AddDirectoryBytesWritten(n int) {
	if n > 0 {
		DirectoryBytesWritten.Add(float64(n))
	}
}
