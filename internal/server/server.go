// Package server implements the development preview server. It serves the
// markup of the last committed tree, a JSON listing of registered
// components, Prometheus metrics, and a WebSocket endpoint that notifies
// connected browsers after every commit so they can refresh the preview.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coder/websocket"

	"github.com/ignius299792458/rv-react/internal/config"
	rverrors "github.com/ignius299792458/rv-react/internal/errors"
	"github.com/ignius299792458/rv-react/internal/fiber"
	"github.com/ignius299792458/rv-react/internal/logging"
	"github.com/ignius299792458/rv-react/internal/reconcile"
	"github.com/ignius299792458/rv-react/internal/registry"
	"github.com/ignius299792458/rv-react/internal/sink"
)

// Server is the development preview server.
type Server struct {
	config    *config.Config
	registry  *registry.Registry
	htmlSink  *sink.HTMLSink
	collector *rverrors.Collector
	logger    logging.Logger

	httpServer *http.Server

	register   chan *client
	unregister chan *websocket.Conn
	broadcast  chan []byte
}

// New creates a development server over the given collaborators. The HTML
// sink supplies the preview markup; the collector supplies render failures
// for the error overlay.
func New(cfg *config.Config, reg *registry.Registry, htmlSink *sink.HTMLSink, collector *rverrors.Collector, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	s := &Server{
		config:     cfg,
		registry:   reg,
		htmlSink:   htmlSink,
		collector:  collector,
		logger:     logger.WithComponent("server"),
		register:   make(chan *client),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 16),
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Apply implements the runtime display sink: after every commit it drops
// stale render failures from the overlay and tells connected browsers the
// tree changed. Wire it alongside the HTML sink so the markup is already
// published when clients re-fetch.
func (s *Server) Apply(root *fiber.Node, ops []reconcile.PatchOp) error {
	if s.collector != nil {
		s.collector.Clear()
	}

	message, err := json.Marshal(map[string]interface{}{
		"type":      "tree_updated",
		"patch_ops": len(ops),
		"commits":   s.htmlSink.Commits(),
	})
	if err != nil {
		return err
	}
	select {
	case s.broadcast <- message:
	default:
		// Nobody draining the hub yet; drop rather than stall a commit.
	}
	return nil
}

// Start runs the HTTP server, the WebSocket hub, and the registry event
// feed until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.runHub(ctx)
	go s.watchRegistry(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Development server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	}
}

// watchRegistry forwards component registry events to connected browsers,
// so tooling can refresh its component listing without polling.
func (s *Server) watchRegistry(ctx context.Context) {
	events := s.registry.Watch()
	defer s.registry.UnWatch(events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			message, err := json.Marshal(map[string]interface{}{
				"type":      "registry_updated",
				"event":     event.Type.String(),
				"component": event.Definition.Name,
			})
			if err != nil {
				s.logger.Warn(ctx, err, "Failed to encode registry event")
				continue
			}
			select {
			case s.broadcast <- message:
			default:
			}
		}
	}
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.RealIP)

	router.Get("/", s.handleIndex)
	router.Get("/tree", s.handleTree)
	router.Get("/components", s.handleComponents)
	router.Get("/health", s.handleHealth)
	router.Get("/ws", s.handleWebSocket)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return router
}

// handleIndex serves the app shell: the current markup plus a small
// script that reconnects to /ws and re-fetches /tree on every commit.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexShell, s.config.App.Root, s.treeMarkup())
}

// handleTree serves only the committed markup, for in-place refreshes.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, s.treeMarkup())
}

func (s *Server) treeMarkup() string {
	markup := s.htmlSink.HTML()
	if s.config.Development.ErrorOverlay && s.collector != nil && s.collector.HasFailures() {
		markup += s.collector.Overlay()
	}
	return markup
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	type componentInfo struct {
		Name         string    `json:"name"`
		Description  string    `json:"description,omitempty"`
		Params       []string  `json:"params,omitempty"`
		RegisteredAt time.Time `json:"registered_at"`
	}

	defs := s.registry.All()
	infos := make([]componentInfo, 0, len(defs))
	for _, def := range defs {
		info := componentInfo{
			Name:         def.Name,
			Description:  def.Description,
			RegisteredAt: def.RegisteredAt,
		}
		for _, param := range def.Params {
			info.Params = append(info.Params, param.Name)
		}
		infos = append(infos, info)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"components": infos,
		"count":      len(infos),
	}); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode component listing")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"root":    s.config.App.Root,
		"commits": s.htmlSink.Commits(),
	})
}

const indexShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s - rv-react</title>
</head>
<body>
<div id="app">%s</div>
<script>
(function() {
	function connect() {
		var proto = location.protocol === "https:" ? "wss://" : "ws://";
		var ws = new WebSocket(proto + location.host + "/ws");
		ws.onmessage = function() {
			fetch("/tree").then(function(r) { return r.text(); }).then(function(html) {
				document.getElementById("app").innerHTML = html;
			});
		};
		ws.onclose = function() { setTimeout(connect, 1000); };
	}
	connect();
})();
</script>
</body>
</html>
`
