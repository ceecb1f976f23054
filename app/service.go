// Package app wires the simulator, predictor, refresh loop and HTTP API
// into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/battery-health/api/battery"
	"github.com/kilianp07/battery-health/config"
	coremetrics "github.com/kilianp07/battery-health/core/metrics"
	"github.com/kilianp07/battery-health/core/model"
	coremon "github.com/kilianp07/battery-health/core/monitoring"
	coremqtt "github.com/kilianp07/battery-health/core/mqtt"
	"github.com/kilianp07/battery-health/core/prediction"
	"github.com/kilianp07/battery-health/core/simulator"
	"github.com/kilianp07/battery-health/core/telemetry"
	_ "github.com/kilianp07/battery-health/infra/artifact"
	"github.com/kilianp07/battery-health/infra/logger"
	"github.com/kilianp07/battery-health/infra/metrics"
	"github.com/kilianp07/battery-health/infra/monitoring"
	"github.com/kilianp07/battery-health/infra/mqtt"
	"github.com/kilianp07/battery-health/internal/eventbus"
)

// Service owns every long-lived component of the battery health service.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	store     prediction.Store
	predictor *prediction.Predictor
	sim       *simulator.Simulator
	latest    *telemetry.Latest
	bus       *eventbus.TypedBus[model.Reading]
	loop      *telemetry.Loop
	sink      coremetrics.MetricsSink
	query     *telemetry.QueryService
	mqtt      *mqtt.PahoClient
	handler   http.Handler
	closeLog  func() error
}

// New builds the service from cfg. The health model is loaded from the
// configured store, or trained and saved there when absent; a corrupt
// artifact aborts startup.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	closeLog, err := logger.Configure(logger.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	s := &Service{cfg: cfg, log: logger.New("service"), closeLog: closeLog}
	if err := s.init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) init(ctx context.Context) error {
	cfg := s.cfg
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}

	s.store, err = prediction.NewStore(cfg.Model.StoreConfig())
	if err != nil {
		return fmt.Errorf("model store: %w", err)
	}
	var report *prediction.TrainingReport
	s.predictor, report, err = prediction.LoadOrTrain(ctx, s.store, cfg.Model.TrainConfig(), logger.New("prediction"))
	if err != nil {
		return err
	}
	if report != nil {
		s.recordTraining(*report)
	}

	simOpts := []simulator.Option{simulator.WithHistoryCapacity(cfg.Simulator.HistoryCapacity)}
	if cfg.Simulator.Seed != 0 {
		simOpts = append(simOpts, simulator.WithSeed(cfg.Simulator.Seed))
	}
	s.sim = simulator.New(simOpts...)
	s.latest = &telemetry.Latest{}
	s.bus = eventbus.NewTyped[model.Reading]()
	s.loop = telemetry.NewLoop(s.sim, s.latest, cfg.Simulator.RefreshInterval, logger.New("telemetry"), telemetry.WithBus(s.bus))

	recorder, _ := s.sink.(coremetrics.PredictionRecorder)
	s.query = telemetry.NewQueryService(s.latest, s.predictor, s.sim.History(), recorder, logger.New("query"))

	if cfg.MQTT.Enabled() {
		s.mqtt, err = mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
	}

	var metricsHandler http.Handler
	if promEnabled(cfg.Metrics) {
		metricsHandler = metrics.Handler(prometheus.DefaultGatherer)
	}
	s.handler = battery.NewRouter(s.query, battery.RouterConfig{
		HistoryLimit: cfg.HTTP.HistoryLimit,
		Metrics:      metricsHandler,
		Log:          logger.New("http"),
	})
	return nil
}

func (s *Service) recordTraining(rep prediction.TrainingReport) {
	rec, ok := s.sink.(coremetrics.TrainingRecorder)
	if !ok {
		return
	}
	err := rec.RecordTraining(coremetrics.TrainingEvent{
		Samples:  rep.Samples,
		Trees:    rep.Trees,
		Nodes:    rep.Nodes,
		TrainR2:  rep.TrainR2,
		TestR2:   rep.TestR2,
		Duration: rep.Duration,
		Time:     time.Now(),
	})
	if err != nil {
		s.log.Warnf("record training: %v", err)
	}
}

func promEnabled(cfg coremetrics.Config) bool {
	for _, c := range cfg.Sinks {
		if c.Type == "prometheus" {
			return true
		}
	}
	return false
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler { return s.handler }

// Query returns the query service backing the API.
func (s *Service) Query() *telemetry.QueryService { return s.query }

// Run primes the latest reading, then runs the refresh loop, the metrics
// collector, the optional MQTT mirror and the HTTP server until ctx is
// cancelled or one of them fails.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.HTTP.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.HTTP.Address, err)
	}
	s.loop.Prime()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.loop.Run(gctx) })

	collected := metrics.StartReadingCollector(gctx, s.bus, s.sink, logger.New("metrics"))
	g.Go(func() error {
		<-collected
		return nil
	})

	if s.mqtt != nil {
		sub := s.bus.Subscribe()
		g.Go(func() error {
			defer s.bus.Unsubscribe(sub)
			coremqtt.Forward(gctx, sub, s.mqtt, logger.New("mqtt"))
			return nil
		})
	}

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.HTTP.ReadTimeout,
		WriteTimeout: s.cfg.HTTP.WriteTimeout,
	}
	g.Go(func() error {
		s.log.Infof("listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
		return nil
	})
	return g.Wait()
}

// Close releases the broker connection, the model store and the log file.
func (s *Service) Close() error {
	var errs []error
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if s.bus != nil {
		s.bus.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if c, ok := s.store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	coremon.Flush(2 * time.Second)
	if s.closeLog != nil {
		errs = append(errs, s.closeLog())
	}
	return errors.Join(errs...)
}
