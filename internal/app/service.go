package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"notifyd/internal/clock"
	"notifyd/internal/config"
	"notifyd/internal/domain"
	"notifyd/internal/ingest"
	"notifyd/internal/logging"
	"notifyd/internal/pipeline"
	"notifyd/internal/policy"
	"notifyd/internal/prefs"
	"notifyd/internal/profile"
	"notifyd/internal/render"
	"notifyd/internal/sched"
	"notifyd/internal/store"
)

// Service composes runtime dependencies and process lifecycle.
// Params: config path and shared runtime components.
// Returns: runnable notification service.
type Service struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
	closeLog   func()

	prefs     *prefs.MemoryStore
	device    *pipeline.DeviceStateSource
	guard     *pipeline.DrainGuard
	workStore store.Store
	timer     *sched.RealTimer
	scheduler *sched.Scheduler
	pipeline  *pipeline.Pipeline
	forwarder *render.NATSForwarder

	httpSrv   *http.Server
	natsSub   interface{ Close() error }
	readyFlag atomic.Bool
	clock     clock.Clock
}

// NewService builds service instance from one TOML config file.
// Params: config file path and clock implementation.
// Returns: initialized service or setup error.
func NewService(configPath string, clk clock.Clock) (*Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	service := &Service{
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		closeLog:   closeLog,
		prefs:      prefs.NewMemoryStore(cfg.Prefs),
		device:     pipeline.NewDeviceStateSource(),
		guard:      pipeline.NewDrainGuard(),
		clock:      clk,
	}

	service.workStore, err = buildWorkStore(cfg)
	if err != nil {
		service.cleanupInitResources()
		return nil, err
	}

	renderer, err := service.buildRenderer()
	if err != nil {
		service.cleanupInitResources()
		return nil, err
	}

	pol := policy.New(service.prefs, clk, buildBlockLists(cfg.Blocking))
	resolver := profile.NewResolver(service.prefs)

	service.timer = sched.NewRealTimer(func(key string) {
		release := service.guard.Acquire()
		defer release()
		service.scheduler.Fire(context.Background(), key)
	})
	service.scheduler = sched.New(service.workStore, service.timer, clk, logger, func(ctx context.Context, work domain.DeferredWork) {
		service.pipeline.OnFire(ctx, work)
	})
	service.pipeline = pipeline.New(pol, resolver, renderer, service.scheduler, service.device, service.guard, missedCallIndicator{logger: logger}, logger)

	if err := service.buildHTTPServer(); err != nil {
		service.cleanupInitResources()
		return nil, err
	}
	if err := service.buildNATSSubscriber(); err != nil {
		service.cleanupInitResources()
		return nil, err
	}

	return service, nil
}

// Run starts the service lifecycle and blocks until shutdown signal.
// Params: root context for service runtime.
// Returns: terminal run error.
func (s *Service) Run(ctx context.Context) error {
	shutdownCtx, shutdownCancel := context.WithCancel(ctx)
	defer shutdownCancel()

	if err := s.scheduler.Restore(shutdownCtx); err != nil {
		s.logger.Error("restore deferred work failed", "error", err.Error())
	}

	errChan := make(chan error, 1)
	if s.httpSrv != nil {
		go func() {
			s.logger.Info("http server starting", "listen", s.cfg.Ingest.HTTP.Listen)
			err := s.httpSrv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	if s.cfg.Service.ReloadEnabled {
		reloadInterval := time.Duration(s.cfg.Service.ReloadIntervalSec) * time.Second
		reloadTicker := time.NewTicker(reloadInterval)
		defer reloadTicker.Stop()
		go func() {
			for {
				select {
				case <-shutdownCtx.Done():
					return
				case <-reloadTicker.C:
					if err := s.reloadConfig(); err != nil {
						s.logger.Error("reload failed", "error", err.Error())
					}
				}
			}
		}()
	}

	s.readyFlag.Store(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errChan:
		_ = s.shutdown()
		return fmt.Errorf("http server failed: %w", err)
	case <-sigChan:
		return s.shutdown()
	}
}

// shutdown closes runtime resources in dependency order: intake first,
// then in-flight delivery work, then outbound surfaces and the store.
// Params: none.
// Returns: first close error.
func (s *Service) shutdown() error {
	s.readyFlag.Store(false)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var firstErr error
	markErr := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("http shutdown failed", "error", err.Error())
			markErr(fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.natsSub != nil {
		if err := s.natsSub.Close(); err != nil {
			s.logger.Error("nats subscriber close failed", "error", err.Error())
			markErr(fmt.Errorf("nats subscriber close: %w", err))
		}
	}

	s.timer.CancelAll()
	s.guard.Wait()

	if s.forwarder != nil {
		if err := s.forwarder.Close(); err != nil {
			s.logger.Error("render forwarder close failed", "error", err.Error())
			markErr(fmt.Errorf("render forwarder close: %w", err))
		}
	}
	if err := s.workStore.Close(); err != nil {
		s.logger.Error("work store close failed", "error", err.Error())
		markErr(fmt.Errorf("work store close: %w", err))
	}
	if s.closeLog != nil {
		s.closeLog()
	}
	return firstErr
}

// cleanupInitResources closes partially initialized resources on
// startup failures.
// Params: none.
// Returns: all acquired resources closed best-effort.
func (s *Service) cleanupInitResources() {
	if s.natsSub != nil {
		_ = s.natsSub.Close()
		s.natsSub = nil
	}
	if s.httpSrv != nil {
		_ = s.httpSrv.Close()
		s.httpSrv = nil
	}
	if s.forwarder != nil {
		_ = s.forwarder.Close()
		s.forwarder = nil
	}
	if s.workStore != nil {
		_ = s.workStore.Close()
		s.workStore = nil
	}
	if s.closeLog != nil {
		s.closeLog()
		s.closeLog = nil
	}
}

// buildRenderer composes the configured presentation surfaces.
// Params: none beyond service config.
// Returns: combined renderer or setup error.
func (s *Service) buildRenderer() (render.Renderer, error) {
	var surfaces []render.Renderer
	if s.cfg.Render.Log {
		surfaces = append(surfaces, render.NewLogRenderer(s.logger))
	}
	if s.cfg.Render.NATS.Enabled {
		forwarder, err := render.NewNATSForwarder(s.cfg.Render.NATS)
		if err != nil {
			return nil, fmt.Errorf("build nats forwarder: %w", err)
		}
		s.forwarder = forwarder
		surfaces = append(surfaces, render.NewRetrying(forwarder, s.cfg.Render.Retry, s.logger))
	}
	if s.cfg.Render.Telegram.Enabled {
		telegram := render.NewTelegramRenderer(s.cfg.Render.Telegram)
		surfaces = append(surfaces, render.NewRetrying(telegram, s.cfg.Render.Retry, s.logger))
	}
	if len(surfaces) == 1 {
		return surfaces[0], nil
	}
	return render.NewMulti(surfaces...), nil
}

// buildHTTPServer wires the intake/control API with health endpoints.
// Params: none.
// Returns: setup error.
func (s *Service) buildHTTPServer() error {
	if !s.cfg.Ingest.HTTP.Enabled {
		return nil
	}

	sink := &pipelineSink{service: s}
	api := ingest.NewHTTPHandler(sink, s.pipeline, s.device, s.prefs, s.cfg.Ingest.HTTP.MaxBodyBytes)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(writer http.ResponseWriter, _ *http.Request) {
		if !s.readyFlag.Load() {
			writer.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writer.WriteHeader(http.StatusOK)
	})
	mux.Handle("/v1/", api)

	s.httpSrv = &http.Server{
		Addr:              s.cfg.Ingest.HTTP.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// buildNATSSubscriber wires the JetStream event consumer.
// Params: none.
// Returns: setup error.
func (s *Service) buildNATSSubscriber() error {
	if !s.cfg.Ingest.NATS.Enabled {
		return nil
	}
	sink := &pipelineSink{service: s}
	sub, err := ingest.NewNATSSubscriber(s.cfg.Ingest.NATS, sink, s.logger)
	if err != nil {
		return fmt.Errorf("build nats subscriber: %w", err)
	}
	s.natsSub = sub
	return nil
}

// reloadConfig re-reads the config file and swaps the preference seed.
// Blocking lists and transport topology are fixed at startup; changing
// them requires a restart.
// Params: none.
// Returns: reload error.
func (s *Service) reloadConfig() error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}
	s.prefs.Replace(cfg.Prefs)
	s.logger.Info("preferences reloaded")
	return nil
}

// buildWorkStore selects the deferred-work persistence backend.
// Params: loaded config.
// Returns: store implementation or setup error.
func buildWorkStore(cfg config.Config) (store.Store, error) {
	if cfg.Work.Backend == config.WorkBackendNATS {
		return store.NewNATSStore(cfg.Work.NATS)
	}
	return store.NewMemoryStore(), nil
}

// buildBlockLists parses the configured blocking-app entries.
// Params: blocking config section.
// Returns: parsed lists with blank entries dropped.
func buildBlockLists(cfg config.BlockingConfig) policy.BlockLists {
	return policy.BlockLists{
		SMS:   parseAppRefs(cfg.SMS),
		Email: parseAppRefs(cfg.Email),
		Misc:  parseAppRefs(cfg.Misc),
	}
}

// parseAppRefs parses one blocking list.
// Params: raw entries.
// Returns: parsed references without blanks.
func parseAppRefs(raw []string) []policy.AppRef {
	refs := make([]policy.AppRef, 0, len(raw))
	for _, entry := range raw {
		ref := policy.ParseAppRef(entry)
		if ref.Package != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// pipelineSink adapts the pipeline to the ingest sink contract and
// applies timestamp normalization at the intake boundary.
type pipelineSink struct {
	service *Service
}

// Push normalizes and ingests one event.
// Params: decoded event from an ingest interface.
// Returns: deferral persistence error; policy outcomes are not errors.
func (p *pipelineSink) Push(ctx context.Context, event domain.Event) error {
	event = event.Normalize(p.service.cfg.Service.Location())
	_, err := p.service.pipeline.Ingest(ctx, event)
	return err
}

// missedCallIndicator logs the stock missed-call indicator clear that a
// platform adapter would perform.
type missedCallIndicator struct {
	logger *slog.Logger
}

// ClearMissedCallIndicator records the indicator clear request.
// Params: none beyond context.
// Returns: nothing.
func (m missedCallIndicator) ClearMissedCallIndicator(context.Context) {
	m.logger.Info("stock missed-call indicator cleared")
}
