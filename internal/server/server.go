package server

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"path"
	"time"

	"github.com/gorilla/mux"

	"github.com/kartoza/plasma-dashboard/internal/api"
	"github.com/kartoza/plasma-dashboard/internal/config"
	"github.com/kartoza/plasma-dashboard/internal/engine"
	"github.com/kartoza/plasma-dashboard/internal/store"
)

//go:embed static
var dashboardFS embed.FS

const shutdownTimeout = 10 * time.Second

// Server wires the prediction engine, the history store and the dashboard behind one router
type Server struct {
	cfg        config.Config
	router     *mux.Router
	httpServer *http.Server
	engine     *engine.Engine
	repo       store.Repository
}

// New builds a Server for cfg.
// A history store that cannot be opened falls back to memory so predictions keep working.
func New(cfg config.Config) (*Server, error) {
	repo, err := store.Open(cfg)
	if err != nil {
		log.Printf("Warning: %s store not available, keeping history in memory: %v", cfg.StoreBackend, err)
		if repo, err = store.NewMemoryStore(store.DefaultMemoryCapacity); err != nil {
			return nil, fmt.Errorf("failed to create fallback store: %w", err)
		}
		cfg.StoreBackend = config.BackendMemory
	}

	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
		engine: engine.New(engine.DefaultConfig()),
		repo:   repo,
	}
	s.mountAPI()
	s.mountDashboard()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	return s, nil
}

func (s *Server) mountAPI() {
	// settings live on the server so they register ahead of the /api subrouter
	s.router.HandleFunc("/api/settings", s.handleSettingsGet).Methods(http.MethodGet)
	s.router.HandleFunc("/api/settings", s.handleSettingsPut).Methods(http.MethodPut)

	api.NewHandler(s.engine, s.repo, s.cfg).RegisterRoutes(s.router.PathPrefix("/api").Subrouter())
}

func (s *Server) mountDashboard() {
	assets, err := fs.Sub(dashboardFS, "static")
	if err != nil {
		log.Printf("Warning: dashboard assets unavailable: %v", err)
		return
	}
	s.router.PathPrefix("/").Handler(dashboardHandler{assets: assets, files: http.FileServerFS(assets)})
}

// Handler exposes the router for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Repository returns the history store in use
func (s *Server) Repository() store.Repository {
	return s.repo
}

// Start serves until Stop is called. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	log.Printf("Dashboard listening on http://localhost:%d", s.cfg.Port)
	return s.httpServer.ListenAndServe()
}

// Stop drains in-flight requests and closes the history store
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if cerr := s.repo.Close(); cerr != nil {
		log.Printf("Warning: failed to close %s store: %v", s.cfg.StoreBackend, cerr)
	}
	return err
}

// dashboardHandler serves embedded assets and answers every other path with
// index.html so the single-page app can route client-side
type dashboardHandler struct {
	assets fs.FS
	files  http.Handler
}

func (h dashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean(r.URL.Path)[1:]
	if name == "" {
		name = "index.html"
	}
	if info, err := fs.Stat(h.assets, name); err != nil || info.IsDir() {
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, h.assets, "index.html")
		return
	}
	h.files.ServeHTTP(w, r)
}
