package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	documentUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_upload_files_total",
		Help: "Uploaded files by outcome (stored, rejected, failed).",
	}, []string{"document_type", "result"})

	documentUploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "documents_upload_bytes",
		Help:    "Size of stored document uploads in bytes.",
		Buckets: prometheus.ExponentialBuckets(16<<10, 4, 7),
	})

	documentServes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_serve_total",
		Help: "Document deliveries by mode and outcome.",
	}, []string{"mode", "result"})

	elevatedAccess = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "documents_elevated_access_total",
		Help: "Audited document accesses by elevated actors.",
	})

	integrityWarnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_integrity_warnings_total",
		Help: "Inconsistencies between metadata and blob storage.",
	}, []string{"kind"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		documentUploads,
		documentUploadBytes,
		documentServes,
		elevatedAccess,
		integrityWarnings,
	)
}

// IncUpload counts one processed upload file.
func IncUpload(documentType, result string) {
	documentUploads.WithLabelValues(documentType, result).Inc()
}

// ObserveUploadBytes records the size of a stored upload.
func ObserveUploadBytes(size int64) {
	if size < 0 {
		size = 0
	}
	documentUploadBytes.Observe(float64(size))
}

// IncServe counts one delivery attempt.
func IncServe(mode, result string) {
	documentServes.WithLabelValues(mode, result).Inc()
}

// IncElevatedAccess counts one audited elevated access.
func IncElevatedAccess() {
	elevatedAccess.Inc()
}

// IncIntegrityWarning counts one metadata/blob inconsistency.
func IncIntegrityWarning(kind string) {
	integrityWarnings.WithLabelValues(kind).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
