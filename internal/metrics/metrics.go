// Package metrics exposes assembly counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the assembler's Prometheus metrics.
type Collector struct {
	filesAssembled  prometheus.Counter
	bytesWritten    prometheus.Counter
	articlesMissing prometheus.Counter
	diskErrors      *prometheus.CounterVec
	policyActions   *prometheus.CounterVec
	par2Packs       prometheus.Counter
	fatalErrors     prometheus.Counter
	queueDepth      prometheus.Gauge
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		filesAssembled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gonzb_assembler_files_total",
			Help: "Files assembled to disk",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gonzb_assembler_bytes_total",
			Help: "Decoded bytes written by the assembler",
		}),
		articlesMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gonzb_assembler_articles_missing_total",
			Help: "Articles absent from the cache at assembly time",
		}),
		diskErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gonzb_assembler_disk_errors_total",
			Help: "Disk errors that forced a download pause",
		}, []string{"kind"}),
		policyActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gonzb_assembler_policy_actions_total",
			Help: "Jobs paused or aborted by the encrypted, unwanted or rating checks",
		}, []string{"check", "action"}),
		par2Packs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gonzb_assembler_par2_packs_total",
			Help: "PAR2 files that produced a usable hash table",
		}),
		fatalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gonzb_assembler_fatal_total",
			Help: "Unexpected errors that stopped the assembler",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gonzb_assembler_queue_depth",
			Help: "Items waiting in the assembler queue",
		}),
	}

	reg.MustRegister(
		c.filesAssembled,
		c.bytesWritten,
		c.articlesMissing,
		c.diskErrors,
		c.policyActions,
		c.par2Packs,
		c.fatalErrors,
		c.queueDepth,
	)
	return c
}

func (c *Collector) RecordFileAssembled(bytes uint64) {
	c.filesAssembled.Inc()
	c.bytesWritten.Add(float64(bytes))
}

func (c *Collector) RecordMissingArticle() { c.articlesMissing.Inc() }

// RecordDiskError counts a disk error; full distinguishes ENOSPC.
func (c *Collector) RecordDiskError(full bool) {
	kind := "io"
	if full {
		kind = "full"
	}
	c.diskErrors.WithLabelValues(kind).Inc()
}

// RecordPolicy counts a pause or abort; check is "encrypted", "unwanted" or
// "rating".
func (c *Collector) RecordPolicy(check, action string) {
	c.policyActions.WithLabelValues(check, action).Inc()
}

func (c *Collector) RecordPar2Pack() { c.par2Packs.Inc() }

func (c *Collector) RecordFatal() { c.fatalErrors.Inc() }

func (c *Collector) SetQueueDepth(n int) { c.queueDepth.Set(float64(n)) }

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
