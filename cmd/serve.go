package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ignius299792458/rv-react/internal/config"
	"github.com/ignius299792458/rv-react/internal/demo"
	rverrors "github.com/ignius299792458/rv-react/internal/errors"
	"github.com/ignius299792458/rv-react/internal/logging"
	"github.com/ignius299792458/rv-react/internal/monitoring"
	"github.com/ignius299792458/rv-react/internal/registry"
	"github.com/ignius299792458/rv-react/internal/runtime"
	"github.com/ignius299792458/rv-react/internal/server"
	"github.com/ignius299792458/rv-react/internal/sink"
	"github.com/ignius299792458/rv-react/internal/types"
	"github.com/ignius299792458/rv-react/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the development server with hot reload",
	Long: `Start the development server. The configured root component is
mounted, its committed markup is served at /, and connected browsers are
notified over WebSocket after every commit.

When app.props_file is set and hot reload is enabled, editing the props
file re-renders the tree in place.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8360, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().String("root", "App", "Root component name")
	serveCmd.Flags().String("props", "", "YAML file holding the root props")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("app.root", serveCmd.Flags().Lookup("root"))
	viper.BindPFlag("app.props_file", serveCmd.Flags().Lookup("props"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	reg := registry.New()
	demo.Register(reg)

	rootDef, ok := reg.Get(cfg.App.Root)
	if !ok {
		return rverrors.NewConfigError(
			fmt.Sprintf("root component %q is not registered", cfg.App.Root),
		)
	}

	rootProps := registry.MockProps(rootDef)
	if cfg.App.PropsFile != "" {
		props, err := watcher.LoadProps(cfg.App.PropsFile)
		if err != nil {
			return fmt.Errorf("loading root props: %w", err)
		}
		rootProps = props
	}

	metrics := monitoring.New(prometheus.DefaultRegisterer)
	htmlSink := sink.NewHTMLSink()
	collector := rverrors.NewCollector()

	srv := server.New(cfg, reg, htmlSink, collector, logger)

	rt := runtime.New(cfg.App.Root, rootDef.Render, rootProps,
		runtime.WithSink(runtime.MultiSink{htmlSink, srv}),
		runtime.WithErrorSink(types.ErrorSinkFunc(func(id types.ComponentID, slotIndex int, err error) {
			collector.Add(id.String(), slotIndex, err)
		})),
		runtime.WithLogger(logger),
		runtime.WithMetrics(metrics),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info(ctx, "Shutting down")
		cancel()
	}()

	if cfg.Development.HotReload && cfg.App.PropsFile != "" {
		propsWatcher, err := watcher.NewPropsWatcher(
			cfg.App.PropsFile, watcher.DefaultDebounce, logger,
			func(props types.Props) { rt.SetRootProps(props) },
		)
		if err != nil {
			return fmt.Errorf("watching props file: %w", err)
		}
		defer propsWatcher.Close()
		go propsWatcher.Start(ctx)
	}

	go rt.Start(ctx)
	if err := rt.Flush(ctx); err != nil {
		logger.Warn(ctx, err, "Initial render failed; serving error overlay")
	}

	fmt.Printf("Serving %s at http://%s:%d\n", cfg.App.Root, cfg.Server.Host, cfg.Server.Port)
	return srv.Start(ctx)
}
