package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	runsStartedTotal       atomic.Uint64
	runsCompletedTotal     atomic.Uint64
	runsFailedTotal        atomic.Uint64
	runsAbortedTotal       atomic.Uint64
	stepWarningsTotal      atomic.Uint64
	stepErrorsTotal        atomic.Uint64
	ticketsCreatedTotal    atomic.Uint64
	llmCallsTotal          atomic.Uint64
	jobsReceivedTotal      atomic.Uint64
	jobsUnrecoverableTotal atomic.Uint64

	runDuration = newHistogram([]float64{10, 25, 50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncRunStarted increments the pipeline runs started counter.
func IncRunStarted() { runsStartedTotal.Add(1) }

// IncRunCompleted increments the successful runs counter.
func IncRunCompleted() { runsCompletedTotal.Add(1) }

// IncRunFailed increments the unsuccessful runs counter (terminal write failed).
func IncRunFailed() { runsFailedTotal.Add(1) }

// IncRunAborted increments the build-phase aborts counter.
func IncRunAborted() { runsAbortedTotal.Add(1) }

// AddStepWarnings adds to the recoverable step failure counter.
func AddStepWarnings(n int) {
	if n > 0 {
		stepWarningsTotal.Add(uint64(n))
	}
}

// AddStepErrors adds to the fatal step failure counter.
func AddStepErrors(n int) {
	if n > 0 {
		stepErrorsTotal.Add(uint64(n))
	}
}

// IncTicketsCreated increments the tickets created counter.
func IncTicketsCreated() { ticketsCreatedTotal.Add(1) }

// IncLLMCalls increments the external LLM call counter.
func IncLLMCalls() { llmCallsTotal.Add(1) }

// IncJobsReceived increments the queue jobs received counter.
func IncJobsReceived() { jobsReceivedTotal.Add(1) }

// IncJobsUnrecoverable increments the counter of jobs dropped as unparseable.
func IncJobsUnrecoverable() { jobsUnrecoverableTotal.Add(1) }

// ObserveRunDurationMs records one pipeline run duration in milliseconds.
func ObserveRunDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	runDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "pipeline_runs_started_total", "Total pipeline runs started", runsStartedTotal.Load())
	writeCounter(&buf, "pipeline_runs_completed_total", "Total pipeline runs completed successfully", runsCompletedTotal.Load())
	writeCounter(&buf, "pipeline_runs_failed_total", "Total pipeline runs where persistence failed", runsFailedTotal.Load())
	writeCounter(&buf, "pipeline_runs_aborted_total", "Total pipeline runs aborted at build phase", runsAbortedTotal.Load())
	writeCounter(&buf, "pipeline_step_warnings_total", "Total recoverable step failures", stepWarningsTotal.Load())
	writeCounter(&buf, "pipeline_step_errors_total", "Total fatal step failures", stepErrorsTotal.Load())
	writeCounter(&buf, "pipeline_tickets_created_total", "Total tickets created from analysis", ticketsCreatedTotal.Load())
	writeCounter(&buf, "pipeline_llm_calls_total", "Total external LLM calls issued", llmCallsTotal.Load())
	writeCounter(&buf, "worker_jobs_received_total", "Total queue jobs received", jobsReceivedTotal.Load())
	writeCounter(&buf, "worker_jobs_unrecoverable_total", "Total queue jobs dropped as unparseable", jobsUnrecoverableTotal.Load())
	writeHistogram(&buf, "pipeline_run_duration_ms", "Pipeline run duration in milliseconds", runDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
