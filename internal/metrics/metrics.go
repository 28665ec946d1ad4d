package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector holds the simulation's prometheus collectors on a private
// registry. It doubles as an event.Sink so every publish is counted.
type Collector struct {
	registry *prometheus.Registry

	eventsTotal     *prometheus.CounterVec
	faultsTotal     *prometheus.CounterVec
	movesTotal      *prometheus.CounterVec
	spawnsTotal     prometheus.Counter
	departuresTotal prometheus.Counter
	liveCustomers   prometheus.Gauge
	tickDuration    prometheus.Histogram
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tavern",
				Subsystem: "bus",
				Name:      "events_total",
				Help:      "Total number of events published, by kind",
			},
			[]string{"kind"},
		),
		faultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tavern",
				Subsystem: "bus",
				Name:      "handler_faults_total",
				Help:      "Total number of recovered handler panics, by kind",
			},
			[]string{"kind"},
		),
		movesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tavern",
				Subsystem: "movement",
				Name:      "status_total",
				Help:      "Movement status changes, by destination and progress",
			},
			[]string{"destination", "progress"},
		),
		spawnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tavern",
			Subsystem: "customers",
			Name:      "spawned_total",
			Help:      "Total number of customers spawned",
		}),
		departuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tavern",
			Subsystem: "customers",
			Name:      "departed_total",
			Help:      "Total number of customers that walked out and were removed",
		}),
		liveCustomers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tavern",
			Subsystem: "customers",
			Name:      "in_world",
			Help:      "Customers currently in the world, including ones walking out",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tavern",
			Subsystem: "loop",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent running one tick",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		}),
	}
	c.registry.MustRegister(
		c.eventsTotal, c.faultsTotal, c.movesTotal,
		c.spawnsTotal, c.departuresTotal, c.liveCustomers, c.tickDuration,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) Event(kind string, _ any) {
	c.eventsTotal.WithLabelValues(kind).Inc()
}

func (c *Collector) Fault(kind string, _ any) {
	c.faultsTotal.WithLabelValues(kind).Inc()
}

func (c *Collector) ObserveMove(destination, progress string) {
	c.movesTotal.WithLabelValues(destination, progress).Inc()
}

func (c *Collector) CustomerSpawned()       { c.spawnsTotal.Inc() }
func (c *Collector) CustomerDeparted()      { c.departuresTotal.Inc() }
func (c *Collector) SetLiveCustomers(n int) { c.liveCustomers.Set(float64(n)) }

func (c *Collector) ObserveTick(d time.Duration) {
	c.tickDuration.Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics listener shutdown", zap.Error(err))
		}
	}()

	log.Info("metrics listener started", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
