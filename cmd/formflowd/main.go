// Command formflowd serves runs over HTTP.
//
// Document refs posted to the API resolve under the configured document root;
// populated structures for each run land in <output_dir>/<run id>.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"formflow/internal/app"
	"formflow/internal/config"
	"formflow/internal/httpapi"
	"formflow/internal/pipeline"
	"formflow/internal/schedule"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("formflowd", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML configuration file")
	addr := fs.String("addr", "", "listen address (overrides config)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		return 2
	}

	cfg := config.Defaults()

	if *configPath != "" {
		var err error

		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintln(stderr, "formflowd:", err)
			return 2
		}
	}

	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "formflowd:", err)
		return 2
	}

	lvl, _ := cfg.Level()
	log := app.NewLogger(stderr, lvl)

	a, err := app.Open(cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		return 1
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           newEngine(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return serve(ctx, srv, log)
}

// newEngine wires the run handler over a. Every run gets its own output
// directory so concurrent requests never overwrite each other.
func newEngine(a *app.App) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	opts := pipeline.Options{Concurrency: a.Config.Concurrency}

	if out := a.Config.OutputDir; out != "" {
		opts.SinkFor = func(id uuid.UUID) schedule.Sink {
			return schedule.DirSink{Dir: filepath.Join(out, id.String())}
		}
	}

	// A nil *ledger.Store must not become a non-nil Ledger.
	var l httpapi.Ledger
	if a.Ledger != nil {
		l = a.Ledger
	}

	h := httpapi.NewRunHandler(a.Schedule, opts, a.Config.HTTP.DocumentRoot, l, a.Log)

	return httpapi.NewEngine(h, a.Log)
}

func serve(ctx context.Context, srv *http.Server, log *slog.Logger) int {
	errc := make(chan error, 1)

	go func() {
		log.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		log.Error("server stopped", "err", err)
		return 1
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
		return 1
	}

	log.Info("stopped")

	return 0
}
