package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission counters, labeled by how the batch resolved: saved, no_change,
// unselected, queued, failed.
var SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "onepass_submissions_total",
	Help: "Attendance submissions by outcome.",
}, []string{"outcome"})

// SkippedLessonsTotal counts lesson bundles dropped for missing identifiers.
// A steady nonzero rate usually means the backend is returning half-scheduled
// lessons.
var SkippedLessonsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "onepass_skipped_lessons_total",
	Help: "Lesson bundles skipped during reconciliation for missing identifiers.",
})

// RecordsForwardedTotal counts individual upsert rows sent to the backend,
// split by create vs update.
var RecordsForwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "onepass_records_forwarded_total",
	Help: "Attendance records forwarded to the backend.",
}, []string{"mode"})

// RetriesTotal counts worker redelivery attempts by result.
var RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "onepass_retries_total",
	Help: "Background submission retries by result.",
}, []string{"result"})
