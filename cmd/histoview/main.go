// Command histoview is the monitoring side of a loudness histogram
// session. It connects to the shared-memory channel a mastergo plugin
// produces, drains the loudness rings on a poll interval and serves the
// readings as Prometheus metrics.
//
// Configuration comes from HISTOVIEW_* environment variables:
//
//	HISTOVIEW_SESSION        session name, required
//	HISTOVIEW_LISTEN         metrics listen address (default :9356)
//	HISTOVIEW_POLL_INTERVAL  ring poll interval (default 250ms)
//	HISTOVIEW_CONNECT_RETRY  wait between connect attempts (default 1s)
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/auricle-audio/mastergo/pkg/histogram"
	"github.com/auricle-audio/mastergo/pkg/shm"
)

type config struct {
	Session      string        `envconfig:"SESSION" required:"true"`
	Listen       string        `envconfig:"LISTEN" default:":9356"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"250ms"`
	ConnectRetry time.Duration `envconfig:"CONNECT_RETRY" default:"1s"`
}

type metrics struct {
	registry *prometheus.Registry

	loudnessIn  prometheus.Gauge
	loudnessOut prometheus.Gauge
	histIn      prometheus.Histogram
	histOut     prometheus.Histogram
	samples     prometheus.Counter
}

func newMetrics() *metrics {
	// 2 LU buckets across the meter range.
	buckets := prometheus.LinearBuckets(-70, 2, 36)

	m := &metrics{
		registry: prometheus.NewRegistry(),
		loudnessIn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mastergo_loudness_in_lufs",
			Help: "Most recent input loudness window peak in LUFS.",
		}),
		loudnessOut: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mastergo_loudness_out_lufs",
			Help: "Most recent output loudness window peak in LUFS.",
		}),
		histIn: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mastergo_loudness_in_distribution_lufs",
			Help:    "Distribution of input loudness window peaks.",
			Buckets: buckets,
		}),
		histOut: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mastergo_loudness_out_distribution_lufs",
			Help:    "Distribution of output loudness window peaks.",
			Buckets: buckets,
		}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mastergo_histogram_samples_total",
			Help: "Loudness sample pairs drained from the session.",
		}),
	}
	m.registry.MustRegister(
		m.loudnessIn, m.loudnessOut, m.histIn, m.histOut, m.samples,
	)
	return m
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	var cfg config
	if err := envconfig.Process("histoview", &cfg); err != nil {
		log.Fatal("configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := newMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.Listen, Handler: mux}
	go func() {
		log.Info("metrics listening", zap.String("addr", cfg.Listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
			stop()
		}
	}()

	err = run(ctx, cfg, m, log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("histoview", zap.Error(err))
	}
	log.Info("bye")
}

func run(ctx context.Context, cfg config, m *metrics, log *zap.Logger) error {
	ch, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	// Leaving tells the producer to stop flushing; detaching does not
	// free the producer's region.
	defer func() {
		ch.SignalClosed()
		if err := ch.Teardown(); err != nil {
			log.Warn("teardown", zap.Error(err))
		}
	}()

	log.Info("session connected",
		zap.String("session", cfg.Session),
		zap.Int("capacity", ch.Capacity()))

	drainer := newDrainer(ch, m, log)
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			drainer.drain()
		}
	}
}

// connect retries until the producer has created the session or the
// context ends.
func connect(ctx context.Context, cfg config, log *zap.Logger) (*histogram.Channel, error) {
	for {
		ch, err := histogram.ConnectSession(cfg.Session)
		if err == nil {
			return ch, nil
		}
		if !errors.Is(err, shm.ErrNotFound) {
			return nil, err
		}

		log.Info("session not ready, retrying",
			zap.String("session", cfg.Session),
			zap.Duration("retry", cfg.ConnectRetry))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ConnectRetry):
		}
	}
}

// drainer pairs input and output samples across polls. The producer
// writes the input ring first, so a poll can land between the two
// writes of a pair; the odd input sample is held for the next poll.
type drainer struct {
	ch  *histogram.Channel
	m   *metrics
	log *zap.Logger

	pendingIn *float32
}

func newDrainer(ch *histogram.Channel, m *metrics, log *zap.Logger) *drainer {
	return &drainer{ch: ch, m: m, log: log}
}

func (d *drainer) drain() {
	for {
		var in float32
		if d.pendingIn != nil {
			in = *d.pendingIn
		} else {
			s, ok := d.ch.In().TryRead()
			if !ok {
				return
			}
			in = s
		}

		out, ok := d.ch.Out().TryRead()
		if !ok {
			// The pair's second half has not landed yet.
			d.pendingIn = &in
			return
		}
		d.pendingIn = nil
		d.record(in, out)
	}
}

func (d *drainer) record(in, out float32) {
	d.m.loudnessIn.Set(float64(in))
	d.m.loudnessOut.Set(float64(out))
	d.m.histIn.Observe(float64(in))
	d.m.histOut.Observe(float64(out))
	d.m.samples.Inc()

	d.log.Debug("sample pair",
		zap.Float32("lufs_in", in),
		zap.Float32("lufs_out", out))
}
