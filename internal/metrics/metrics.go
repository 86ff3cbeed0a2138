// Package metrics records run statistics in a private Prometheus registry
// and writes them in the node_exporter textfile format.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"jcallgraph/internal/pipeline"
)

const namespace = "jcallgraph"

// Recorder counts files, edges and invocations. It is a pipeline.Sink.
type Recorder struct {
	reg *prometheus.Registry

	filesTotal    *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	edgesTotal    prometheus.Counter
	invokesTotal  *prometheus.CounterVec
	bytesTotal    prometheus.Counter
	fileDuration  prometheus.Histogram
	lastRunEdges  prometheus.Gauge
}

// New returns a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,

		// Labels: result (ok, failed)
		filesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Class files processed by result",
		}, []string{"result"}),

		// Labels: kind (malformed, invalid_index, kind_mismatch, truncated, ...)
		failuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Skipped class files by failure kind",
		}, []string{"kind"}),

		edgesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_total",
			Help:      "Call edges emitted",
		}),

		// Labels: opcode (invokevirtual, invokespecial, invokestatic, invokeinterface, invokedynamic)
		invokesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Invoke instructions decoded by opcode",
		}, []string{"opcode"}),

		bytesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_bytes_total",
			Help:      "Class file bytes read",
		}),

		fileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time to read, parse and walk one class file",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		lastRunEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_edges",
			Help:      "Edges emitted by the most recent run",
		}),
	}
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Consume records one file result.
func (r *Recorder) Consume(_ context.Context, res *pipeline.FileResult) error {
	r.fileDuration.Observe(res.Duration.Seconds())
	r.bytesTotal.Add(float64(res.Size))
	if !res.OK() {
		r.filesTotal.WithLabelValues("failed").Inc()
		r.failuresTotal.WithLabelValues(string(pipeline.Classify(res.Err))).Inc()
		return nil
	}
	r.filesTotal.WithLabelValues("ok").Inc()
	edges := res.Edges()
	r.edgesTotal.Add(float64(len(edges)))
	for _, e := range edges {
		r.invokesTotal.WithLabelValues(e.Opcode.String()).Inc()
	}
	return nil
}

// ObserveRun records the totals of a finished run.
func (r *Recorder) ObserveRun(sum pipeline.Summary) {
	r.lastRunEdges.Set(float64(sum.Edges))
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
