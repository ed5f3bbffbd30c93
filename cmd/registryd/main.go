// Command registryd is the signed package registry's HTTP daemon,
// matching cmd/lbsd/main.go's flag parsing and signal-driven graceful
// shutdown shape.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/libreseed/registry/internal/api"
	"github.com/libreseed/registry/internal/archive"
	"github.com/libreseed/registry/internal/config"
	"github.com/libreseed/registry/internal/index"
	"github.com/libreseed/registry/internal/logging"
	"github.com/libreseed/registry/internal/registry"
	"github.com/libreseed/registry/internal/signature"
	"github.com/libreseed/registry/internal/storage"
)

var version = "dev" // Set via ldflags during build

func main() {
	showVersion := false
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--version", "-v":
			showVersion = true
		case "--help", "-h":
			printUsage()
			os.Exit(0)
		}
	}
	if showVersion {
		fmt.Printf("registryd version %s\n", version)
		os.Exit(0)
	}

	cfg := config.DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	idx, err := index.Open(ctx, cfg.IndexDSN)
	if err != nil {
		log.Fatal("failed to open index", zap.Error(err))
	}
	defer idx.Close()

	layer, err := buildStorageLayer(ctx, cfg)
	if err != nil {
		log.Fatal("failed to build storage layer", zap.Error(err))
	}

	reg := registry.New(idx, layer, log, registry.Config{
		ArchiveKind:        archive.NPMKind,
		StorageKind:        cfg.Registry.Kind,
		BodyLimit:          cfg.Registry.BodyLimit,
		MaxDescriptorBytes: cfg.MaxDescriptorBytes,
		Allow:              parseAddressSet(cfg.Registry.Allow),
		Deny:               parseAddressSet(cfg.Registry.Deny),
	})

	router := api.NewRouter(version)
	router.Use(api.RequestIDMiddleware())
	router.Use(api.LoggingMiddleware(log))
	router.Use(api.RecoveryMiddleware(log))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(api.CORSMiddleware(cfg.CORSOrigins))
	}
	api.NewHandlers(reg).Register(router)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("registry daemon started", zap.String("addr", cfg.ListenAddr), zap.String("backend", cfg.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-sigChan
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("daemon stopped")
}

func buildStorageLayer(ctx context.Context, cfg *config.Config) (storage.Layer, error) {
	switch cfg.Backend {
	case "file":
		return storage.NewFile(cfg.FileDir)
	case "ipfs":
		return storage.NewIPFS(cfg.IPFSURL), nil
	case "s3":
		return storage.NewS3(ctx, cfg.S3Bucket, cfg.S3Profile, cfg.S3Region)
	default:
		return storage.NewMemory(), nil
	}
}

func parseAddressSet(hexAddrs []string) map[signature.Address]bool {
	set := make(map[signature.Address]bool, len(hexAddrs))
	for _, h := range hexAddrs {
		addr, err := signature.ParseAddress(h)
		if err != nil {
			continue
		}
		set[addr] = true
	}
	return set
}

func printUsage() {
	fmt.Println("Usage: registryd [--version] [--help]")
	fmt.Println("Configuration is read entirely from REGISTRY_* environment variables.")
}
