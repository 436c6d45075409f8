package stats

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"astroctl/internal/service"
)

// WriterPublisher prints each poll as "name: value" lines.
type WriterPublisher struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time

	// Timestamp prefixes each block with the poll time.
	Timestamp bool
}

// NewWriterPublisher creates a WriterPublisher.
func NewWriterPublisher(w io.Writer) *WriterPublisher {
	return &WriterPublisher{w: w, now: time.Now}
}

// Publish implements Publisher.
func (p *WriterPublisher) Publish(s service.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Timestamp {
		fmt.Fprintf(p.w, "# %s\n", p.now().Format(time.RFC3339))
	}
	for _, f := range s.Fields {
		fmt.Fprintf(p.w, "%s: %s\n", f.Name, f.Value)
	}
}

// GaugePublisher exports numeric fields as a Prometheus gauge vector.
// Non-numeric fields are skipped.
type GaugePublisher struct {
	gauge    *prometheus.GaugeVec
	registry *prometheus.Registry
}

// NewGaugePublisher registers astroctl_backend_stat{kind,field} on a
// dedicated registry.
func NewGaugePublisher(kind service.StatsKind) *GaugePublisher {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   "astroctl",
		Name:        "backend_stat",
		Help:        "Counter value reported by the solving backend.",
		ConstLabels: prometheus.Labels{"kind": string(kind)},
	}, []string{"field"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(gauge)
	return &GaugePublisher{gauge: gauge, registry: reg}
}

// Publish implements Publisher.
func (p *GaugePublisher) Publish(s service.Stats) {
	for _, f := range s.Fields {
		if !f.Numeric {
			continue
		}
		p.gauge.WithLabelValues(f.Name).Set(f.Number)
	}
}

// Gauge returns the gauge for field.
func (p *GaugePublisher) Gauge(field string) prometheus.Gauge {
	return p.gauge.WithLabelValues(field)
}

// Handler serves the registry in the Prometheus exposition format.
func (p *GaugePublisher) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
