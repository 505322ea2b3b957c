package flv

import (
	"flvmux/pkg/av"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "flvmux"

// Metrics counts muxer output. One Metrics may be shared by several muxers.
type Metrics struct {
	tags   *prometheus.CounterVec
	bytes  *prometheus.CounterVec
	errors *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when it is not
// nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		tags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tags_total",
			Help:      "Number of flv tags produced.",
		}, []string{"type"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bytes_total",
			Help:      "Number of framed flv tag bytes produced.",
		}, []string{"type"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Number of rejected input packets.",
		}, []string{"kind"}),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{m.tags, m.bytes, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register flvmux metrics")
		}
	}

	return m, nil
}

func tagTypeLabel(tagType uint8) string {
	switch tagType {
	case av.TAG_AUDIO:
		return "audio"
	case av.TAG_VIDEO:
		return "video"
	case av.TAG_SCRIPTDATAAMF0:
		return "metadata"
	}
	return "unknown"
}

func (m *Metrics) observeTag(tagType uint8, n int) {
	label := tagTypeLabel(tagType)
	m.tags.WithLabelValues(label).Inc()
	m.bytes.WithLabelValues(label).Add(float64(n))
}

func (m *Metrics) observeError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}
