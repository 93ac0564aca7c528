package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lmsbot", Name: "updates_total", Help: "Processed telegram updates",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lmsbot", Name: "handler_errors_total", Help: "Handler errors",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lmsbot", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
	Exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lmsbot", Name: "exports_total", Help: "Generated export files",
	}, []string{"kind", "format"})
	PeerReviewBatches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lmsbot", Name: "peer_review_batches_total", Help: "Peer review assignment sets created",
	})
	AttendanceRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lmsbot", Name: "attendance_records_total", Help: "Saved attendance records by status",
	}, []string{"status"})
	ReviewCompletion = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lmsbot", Name: "peer_review_completion_ratio", Help: "Completed/total peer reviews per assignment",
	}, []string{"assignment_id"})
)

func init() {
	prometheus.MustRegister(BotUpdates, HandlerErrors, DBPing, Exports, PeerReviewBatches, AttendanceRecords, ReviewCompletion)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
