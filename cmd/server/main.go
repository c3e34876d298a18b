package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/cyberstream-go/api"
	"github.com/yourusername/cyberstream-go/internal/app"
	"github.com/yourusername/cyberstream-go/internal/domain"
	"github.com/yourusername/cyberstream-go/internal/infrastructure"
	"github.com/yourusername/cyberstream-go/pkg/logger"
	"github.com/yourusername/cyberstream-go/web"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath = flag.String("config", "", "Path to config file (default: search ./configs, ~/.cyberstream, /etc/cyberstream)")
	daemon     = flag.Bool("daemon", false, "Detach and run the server in the background")
)

func main() {
	flag.Parse()

	if *daemon {
		startAsDaemon()
		return
	}

	runServer()
}

// startAsDaemon re-executes the binary without -daemon, detached from the terminal
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	var args []string
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}

	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	detach(cmd)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", os.DevNull, err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
		MaxSizeMB:  config.Logging.MaxSizeMB,
		MaxBackups: config.Logging.MaxBackups,
		MaxAgeDays: config.Logging.MaxAgeDays,
		Compress:   config.Logging.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Categorized job logs are optional
	var events *logger.MultiLogger
	if config.Logging.LogsDir != "" {
		events, err = logger.NewMultiLogger(logger.MultiLoggerConfig{
			Level:      config.Logging.Level,
			LogsDir:    config.Logging.LogsDir,
			MaxSizeMB:  config.Logging.MaxSizeMB,
			MaxBackups: config.Logging.MaxBackups,
			MaxAgeDays: config.Logging.MaxAgeDays,
			Compress:   config.Logging.Compress,
		})
		if err != nil {
			log.Fatal("Failed to initialize event logs", zap.Error(err))
		}
		defer events.Close()
	}

	log.Info("Starting CyberStream server",
		zap.String("version", version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("static_dir", config.Server.StaticDir))

	// Probed once; every request sees the same answer
	capability := infrastructure.ProbeRemuxer(config.Remux)
	if capability.RemuxAvailable {
		log.Info("Remuxer available", zap.String("path", capability.RemuxerPath))
	} else {
		log.Warn("Remuxer not found, falling back to single-file formats",
			zap.String("binary", config.Remux.Binary),
			zap.String("mode", string(config.Remux.Mode)))
	}

	if _, err := exec.LookPath(config.Extractor.Binary); err != nil {
		log.Warn("Extractor binary not found in PATH, requests will fail",
			zap.String("binary", config.Extractor.Binary),
			zap.Error(err))
	}

	personas, err := domain.PersonaSequence(config.Metadata.PersonaOrder)
	if err != nil {
		log.Fatal("Invalid persona order", zap.Error(err))
	}
	downloadPersona, err := domain.LookupPersona(domain.PersonaID(config.Download.Persona))
	if err != nil {
		log.Fatal("Invalid download persona", zap.Error(err))
	}

	extractor := infrastructure.NewYTDLPExtractor(config.Extractor, config.Download.KillGracePeriod, log)
	fetcher := app.NewMetadataFetcher(extractor, personas, config.Metadata, log)
	proxy := app.NewStreamProxy(extractor, capability, downloadPersona, config.Download, log, events)

	staticFS := staticFilesystem(config.Server.StaticDir, log)

	router := api.SetupRouter(api.Dependencies{
		Fetcher:    fetcher,
		Proxy:      proxy,
		Capability: capability,
		Server:     config.Server,
		StaticFS:   staticFS,
		Version:    version,
		Logger:     log,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// no WriteTimeout: downloads stream for as long as the extractor runs
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Active downloads did not finish in time, closing", zap.Error(err))
		_ = server.Close()
	}

	// Close does not wait for handlers, and extractors run in their own
	// process group, so kill and reap them before exiting
	reapCtx, reapCancel := context.WithTimeout(context.Background(), config.Download.KillGracePeriod+time.Second)
	defer reapCancel()
	if err := proxy.Shutdown(reapCtx); err != nil {
		log.Error("Extractor processes still running at exit", zap.Error(err))
	}

	log.Info("Server exited")
}

// staticFilesystem serves static_dir when it exists, the built-in frontend otherwise
func staticFilesystem(dir string, log *zap.Logger) afero.Fs {
	osFs := afero.NewOsFs()
	if ok, err := afero.DirExists(osFs, dir); err == nil && ok {
		return afero.NewReadOnlyFs(afero.NewBasePathFs(osFs, dir))
	}
	log.Info("Static directory not found, serving built-in frontend", zap.String("static_dir", dir))
	return afero.FromIOFS{FS: web.StaticFS()}
}
