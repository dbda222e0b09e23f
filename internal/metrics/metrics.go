// Package metrics holds the pipeline counters on a private Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Стадии пайплайна для ошибок и гистограммы
const (
	StageLoad     = "load"
	StageChunk    = "chunk"
	StageUpsert   = "upsert"
	StageAnswer   = "answer"
	StageEnsure   = "ensure_index"
	StageSaveFile = "save_file"
)

// Metrics is safe to use as a nil pointer: every recorder becomes a no-op.
type Metrics struct {
	registry  *prometheus.Registry
	documents *prometheus.CounterVec
	chunks    prometheus.Counter
	questions *prometheus.CounterVec
	errors    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docqa_documents_ingested_total",
			Help: "Documents ingested, by format.",
		}, []string{"kind"}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docqa_chunks_indexed_total",
			Help: "Chunks written to the vector index.",
		}),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docqa_questions_answered_total",
			Help: "Questions answered, by whether any context was retrieved.",
		}, []string{"grounded"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docqa_pipeline_errors_total",
			Help: "Pipeline failures, by stage.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docqa_stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		m.documents, m.chunks, m.questions, m.errors, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) DocumentIngested(kind string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(kind).Inc()
}

func (m *Metrics) ChunksIndexed(n int) {
	if m == nil {
		return
	}
	m.chunks.Add(float64(n))
}

func (m *Metrics) QuestionAnswered(grounded bool) {
	if m == nil {
		return
	}
	m.questions.WithLabelValues(strconv.FormatBool(grounded)).Inc()
}

func (m *Metrics) Error(stage string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(stage).Inc()
}

// Observe records how long stage took since start.
func (m *Metrics) Observe(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
