package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"

	"github.com/Krishna8167/volcanocache"
	"github.com/Krishna8167/volcanocache/internal/server"
)

var version = "1.0.0"

/*
CLI is the volcanod command line.

Every flag can also come from the environment, so the same binary runs
unchanged under a container orchestrator:

	VOLCANO_LISTEN=:9000 VOLCANO_WARM_SIZES=1000,50000 volcanod

Warm sizes are generated in the background after startup; /health reports
warming=true until they are done. An empty list disables warming.
*/
type CLI struct {
	Listen          string        `help:"Address to serve HTTP on." default:":8000" env:"VOLCANO_LISTEN"`
	Seed            uint64        `help:"Seed for the synthetic dataset generator." default:"42" env:"VOLCANO_SEED"`
	WarmSizes       []int         `help:"Dataset sizes to pre-generate at startup." default:"1000,10000,100000" env:"VOLCANO_WARM_SIZES"`
	RowSize         int           `help:"Estimated bytes per cached row, for status reporting." default:"128" env:"VOLCANO_ROW_SIZE"`
	AllowOrigin     string        `help:"Access-Control-Allow-Origin value." default:"*" env:"VOLCANO_ALLOW_ORIGIN"`
	LogLevel        string        `help:"Log level." enum:"debug,info,warn,error" default:"info" env:"VOLCANO_LOG_LEVEL"`
	LogFormat       string        `help:"Log output format." enum:"text,json" default:"text" env:"VOLCANO_LOG_FORMAT"`
	GinMode         string        `help:"Gin mode." enum:"debug,release,test" default:"release" env:"GIN_MODE"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown." default:"15s" env:"VOLCANO_SHUTDOWN_TIMEOUT"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("volcanod"),
		kong.Description("Serves categorized, level-of-detail sampled volcano plot data."),
		kong.UsageOnError(),
	)

	logger := newLogger(cli.LogLevel, cli.LogFormat)
	slog.SetDefault(logger)

	if err := run(cli, logger); err != nil {
		logger.Error("volcanod stopped", slog.Any("err", err))
		kctx.Exit(1)
	}
}

func run(cli CLI, logger *slog.Logger) error {
	gin.SetMode(cli.GinMode)

	cache := volcanocache.New(
		volcanocache.WithSeed(cli.Seed),
		volcanocache.WithLogger(logger.With(slog.String("component", "dataset_cache"))),
		volcanocache.WithRowSizeEstimate(cli.RowSize),
		volcanocache.WithDefaultWarmSizes(cli.WarmSizes...),
		volcanocache.WithWarmOnStart(cli.WarmSizes...),
	)
	defer cache.Stop()

	srv := server.New(server.Config{
		Cache:       cache,
		Logger:      logger,
		Version:     version,
		AllowOrigin: cli.AllowOrigin,
	})

	httpServer := &http.Server{
		Addr:              cli.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cli.Listen), slog.String("version", version))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cli.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}
