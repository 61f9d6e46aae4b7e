package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
)

// Config is read from flags and ASCIISERVE_* environment variables.
type Config struct {
	Addr       string        `arg:"--addr,env:ASCIISERVE_ADDR" help:"listen address" default:":8000"`
	Origins    []string      `arg:"--origin,separate,env:ASCIISERVE_ORIGINS" help:"allowed CORS origin (repeatable)"`
	MaxUpload  int64         `arg:"--max-upload,env:ASCIISERVE_MAX_UPLOAD" help:"largest accepted upload in bytes" default:"67108864"`
	Timeout    time.Duration `arg:"--timeout,env:ASCIISERVE_TIMEOUT" help:"per request processing limit" default:"2m"`
	ScratchDir string        `arg:"--scratch-dir,env:ASCIISERVE_SCRATCH_DIR" help:"parent of per request scratch directories (default: system temp)"`
	Workers    int           `arg:"--workers,env:ASCIISERVE_WORKERS" help:"frames converted at once per request (0 = GOMAXPROCS)"`
	MaxFrames  int           `arg:"--max-frames,env:ASCIISERVE_MAX_FRAMES" help:"frames decoded per upload (0 = all)" default:"600"`
	MaxCells   int           `arg:"--max-cells,env:ASCIISERVE_MAX_CELLS" help:"largest grid (columns x rows) a request may ask for" default:"1048576"`
	FontSize   float64       `arg:"--font-size,env:ASCIISERVE_FONT_SIZE" help:"glyph size for rendered output" default:"8"`
	Fonts      []string      `arg:"--font,separate,env:ASCIISERVE_FONTS" help:"TrueType font to try before the system fonts"`
	LogLevel   string        `arg:"--log-level,env:ASCIISERVE_LOG_LEVEL" help:"debug, info, warn or error" default:"info"`
	LogFormat  string        `arg:"--log-format,env:ASCIISERVE_LOG_FORMAT" help:"json or text" default:"json"`
}

func (Config) Description() string {
	return "asciiserve is the HTTP front end of the ASCII art converter"
}

// DefaultOrigins are the development front-end origins.
var DefaultOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

func main() {
	cfg := Config{Origins: DefaultOrigins}
	arg.MustParse(&cfg)

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := serve(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func serve(cfg Config, logger *slog.Logger) error {
	srv, err := NewServer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "font", srv.rasterizer.FontName(),
			"origins", cfg.Origins)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", format)
}
