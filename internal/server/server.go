package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/socraticlabs/elenchus/internal/audit"
	"github.com/socraticlabs/elenchus/internal/auth"
	"github.com/socraticlabs/elenchus/internal/config"
	"github.com/socraticlabs/elenchus/internal/engine"
	"github.com/socraticlabs/elenchus/internal/mlassist"
	"github.com/socraticlabs/elenchus/internal/pattern"
	"github.com/socraticlabs/elenchus/internal/telemetry"
)

// Server wraps the HTTP surface of the compliance classifier. Engines are
// built once at startup and shared read-only across requests; per-project
// profiles get their own engine.
type Server struct {
	mux            *http.ServeMux
	cfg            *config.Config
	auth           *auth.Auth
	defaultEngine  *engine.Engine
	projectEngines map[string]*engine.Engine
	emitter        *audit.Emitter
	telemetry      *telemetry.Provider
	assist         *mlassist.Model
}

// New assembles the server from config: engines (default plus per-project
// overrides), auth, audit sinks, telemetry, and the optional ML assist model.
func New(cfg *config.Config) (*Server, error) {
	a, err := auth.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build auth: %w", err)
	}

	var bundle *pattern.Bundle
	if cfg.Bundle.Path != "" {
		bundle, err = pattern.LoadBundle(cfg.Bundle.Path)
		if err != nil {
			return nil, fmt.Errorf("load rule bundle: %w", err)
		}
	}

	defaultOpts, err := engine.OptionsFromConfig(cfg.Engine, bundle)
	if err != nil {
		return nil, err
	}
	defaultEngine, err := engine.New(defaultOpts)
	if err != nil {
		return nil, fmt.Errorf("build default engine: %w", err)
	}

	projectEngines := make(map[string]*engine.Engine, len(cfg.Projects))
	for _, p := range cfg.Projects {
		if p.Engine == nil {
			continue
		}
		opts, err := engine.OptionsFromConfig(*p.Engine, bundle)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", p.ID, err)
		}
		eng, err := engine.New(opts)
		if err != nil {
			return nil, fmt.Errorf("build engine for project %q: %w", p.ID, err)
		}
		projectEngines[p.ID] = eng
	}

	var emitter *audit.Emitter
	if cfg.Audit.Enabled {
		sinks, err := buildSinks(cfg.Audit)
		if err != nil {
			return nil, fmt.Errorf("build audit sinks: %w", err)
		}
		emitter = audit.NewEmitter(audit.EmitterConfig{
			QueueSize: cfg.Audit.QueueSize,
			Workers:   cfg.Audit.Workers,
		}, sinks)
	}

	tel, err := telemetry.NewProvider(context.Background(), telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  cfg.Telemetry.Service,
		Version:  cfg.Telemetry.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	var assist *mlassist.Model
	if cfg.MLAssist.Enabled {
		assist, err = mlassist.LoadModel(cfg.MLAssist.BundleDir, cfg.MLAssist.SeqLen)
		if err != nil {
			return nil, fmt.Errorf("load ml assist model: %w", err)
		}
	}

	s := &Server{
		mux:            http.NewServeMux(),
		cfg:            cfg,
		auth:           a,
		defaultEngine:  defaultEngine,
		projectEngines: projectEngines,
		emitter:        emitter,
		telemetry:      tel,
		assist:         assist,
	}
	s.routes()
	return s, nil
}

func buildSinks(ac config.AuditConfig) ([]audit.Sink, error) {
	var sinks []audit.Sink
	if ac.File != "" {
		fs, err := audit.NewFileSink(ac.File)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
	}
	if ac.WebhookURL != "" {
		ws, err := audit.NewWebhookSink(ac.WebhookURL, ac.WebhookHeaders, 2*time.Second)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ws)
	}
	return sinks, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/classify", s.handleClassify)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fmt.Fprintln(w, "ok")
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Shutdown flushes audit events and telemetry.
func (s *Server) Shutdown(ctx context.Context) {
	if s.emitter != nil {
		s.emitter.Close(ctx)
	}
	if s.telemetry != nil {
		s.telemetry.Shutdown(ctx)
	}
	log.Print("server shut down")
}

func (s *Server) engineForProject(projectID string) *engine.Engine {
	if eng, ok := s.projectEngines[projectID]; ok {
		return eng
	}
	return s.defaultEngine
}
