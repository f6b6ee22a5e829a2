package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/d21d3q/geoframe/internal/decoder"
	"github.com/d21d3q/geoframe/internal/frame"
	"github.com/d21d3q/geoframe/internal/records"
)

const unknownTag = "unknown"

// Metrics contains the Prometheus collectors for frame decoding. It
// implements decoder.Observer.
type Metrics struct {
	FramesDecoded *prometheus.CounterVec
	FramesSkipped *prometheus.CounterVec
	Streams       *prometheus.CounterVec
	StreamFrames  prometheus.Histogram
	DroppedBytes  prometheus.Counter

	HTTPRequests *prometheus.CounterVec
}

var _ decoder.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FramesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geoframe_frames_decoded_total",
			Help: "Frames decoded into a coordinate, by source type",
		}, []string{"source_type"}),
		FramesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geoframe_frames_skipped_total",
			Help: "Frames skipped, by reason and registered sync tag",
		}, []string{"reason", "tag"}),
		Streams: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geoframe_streams_total",
			Help: "Decoded input buffers, by result",
		}, []string{"result"}),
		StreamFrames: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "geoframe_stream_frames",
			Help:    "Complete frames per input buffer",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		DroppedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "geoframe_dropped_tail_bytes_total",
			Help: "Trailing bytes shorter than one frame",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geoframe_http_requests_total",
			Help: "HTTP requests, by endpoint and status code",
		}, []string{"endpoint", "status"}),
	}
}

// FrameDecoded implements decoder.Observer.
func (m *Metrics) FrameDecoded(_ frame.SyncTag, sourceType string) {
	m.FramesDecoded.WithLabelValues(sourceType).Inc()
}

// FrameSkipped implements decoder.Observer. Unregistered tags share one
// label value so input cannot grow the series count.
func (m *Metrics) FrameSkipped(tag frame.SyncTag, reason records.Reason) {
	label := tag.String()
	if reason == records.ReasonUnknownSyncTag {
		label = unknownTag
	}
	m.FramesSkipped.WithLabelValues(string(reason), label).Inc()
}

// StreamDecoded implements decoder.Observer.
func (m *Metrics) StreamDecoded(frames, remainder int, err error) {
	result := "ok"
	switch {
	case errors.Is(err, decoder.ErrNoValidData):
		result = "no_valid_data"
	case err != nil:
		result = "error"
	}
	m.Streams.WithLabelValues(result).Inc()
	m.StreamFrames.Observe(float64(frames))
	m.DroppedBytes.Add(float64(remainder))
}
