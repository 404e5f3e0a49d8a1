// Package promstats exports pipeline counters as Prometheus metrics.
package promstats

import (
	avestream "github.com/erparts/go-avestream"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is anything reporting pipeline stats, typically a
// *avestream.Pipeline.
type StatsSource interface {
	Stats() avestream.Stats
}

type collector struct {
	source StatsSource

	framesDecoded   *prometheus.Desc
	framesPresented *prometheus.Desc
	decodeErrors    *prometheus.Desc
	seeks           *prometheus.Desc
	loops           *prometheus.Desc
	queueLength     *prometheus.Desc
	queueCapacity   *prometheus.Desc
	state           *prometheus.Desc
}

// NewCollector returns a collector reading the source stats on every
// scrape. Metric names are prefixed with namespace, and constLabels are
// attached to all of them (e.g. to tell several pipelines apart).
func NewCollector(source StatsSource, namespace string, constLabels prometheus.Labels) prometheus.Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "video", name), help, labels, constLabels)
	}
	return &collector{
		source:          source,
		framesDecoded:   desc("frames_decoded_total", "Total number of frames decoded and queued."),
		framesPresented: desc("frames_presented_total", "Total number of frames written to the display sink."),
		decodeErrors:    desc("decode_errors_total", "Total number of packets or frames that failed to decode."),
		seeks:           desc("seeks_total", "Total number of rewinds to the start of the stream."),
		loops:           desc("loops_total", "Total number of times the end of the stream was reached."),
		queueLength:     desc("queue_frames", "Current number of decoded frames waiting to be displayed."),
		queueCapacity:   desc("queue_capacity_frames", "Maximum number of decoded frames buffered ahead."),
		state:           desc("state", "Current playback state, 1 for the active state.", "state"),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.framesDecoded
	ch <- c.framesPresented
	ch <- c.decodeErrors
	ch <- c.seeks
	ch <- c.loops
	ch <- c.queueLength
	ch <- c.queueCapacity
	ch <- c.state
}

var states = []avestream.PlaybackState{
	avestream.Unloaded, avestream.Idle, avestream.Playing,
	avestream.Paused, avestream.Seeking, avestream.Stopping,
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.framesDecoded, prometheus.CounterValue, float64(stats.FramesDecoded))
	ch <- prometheus.MustNewConstMetric(c.framesPresented, prometheus.CounterValue, float64(stats.FramesPresented))
	ch <- prometheus.MustNewConstMetric(c.decodeErrors, prometheus.CounterValue, float64(stats.DecodeErrors))
	ch <- prometheus.MustNewConstMetric(c.seeks, prometheus.CounterValue, float64(stats.Seeks))
	ch <- prometheus.MustNewConstMetric(c.loops, prometheus.CounterValue, float64(stats.Loops))
	ch <- prometheus.MustNewConstMetric(c.queueLength, prometheus.GaugeValue, float64(stats.QueueLength))
	ch <- prometheus.MustNewConstMetric(c.queueCapacity, prometheus.GaugeValue, float64(stats.QueueCapacity))
	for _, state := range states {
		var value float64
		if state == stats.State {
			value = 1
		}
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, value, state.String())
	}
}
