package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-photos/internal/blobstore"
	"contact-photos/internal/database"
	"contact-photos/internal/filesystem"
	"contact-photos/internal/handlers"
	"contact-photos/internal/imagecodec"
	"contact-photos/internal/logging"
	"contact-photos/internal/memory"
	"contact-photos/internal/metrics"
	"contact-photos/internal/middleware"
	"contact-photos/internal/photocache"
	"contact-photos/internal/startup"
	"contact-photos/internal/vcardphoto"
	"contact-photos/internal/workers"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	memory.Configure(os.Getenv)

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	cache, err := newPhotoCache(config)
	if err != nil {
		startup.LogFatal("Failed to initialize photo cache: %v", err)
	}

	h := handlers.New(db, cache, config.MaxPhotoSize)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(
		middleware.Logger(loggingConfig)(router),
	)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		handleShutdown(srv, metricsSrv, db)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownDone
}

// maxDerivations caps concurrent thumbnail work regardless of CPU count.
const maxDerivations = 8

// newPhotoCache wires the disk store, the configured codec and a metrics
// reporting extractor into a photo cache.
func newPhotoCache(config *startup.Config) (*photocache.Cache, error) {
	store, err := blobstore.New(config.PhotoDir)
	if err != nil {
		return nil, err
	}
	codec, err := imagecodec.New(config.ImageCodec)
	if err != nil {
		return nil, err
	}

	extractor := &vcardphoto.Extractor{
		OnFailure: func(err error, fields logging.Fields) {
			metrics.PhotoExtractionFailures.Inc()
			vcardphoto.LogFailure(err, fields)
		},
	}

	cache := photocache.New(photocache.DiskStore(store), codec, extractor)
	cache.SetObserver(metrics.NewPhotoCacheObserver())
	cache.SetConcurrency(workers.ForCPU("PHOTO_WORKERS", maxDerivations))

	folders, err := store.Folders()
	if err != nil {
		logging.Warn("  Failed to count cached contacts: %v", err)
	}
	startup.LogPhotoCacheInit(config.PhotoDir, codec.Name(), len(folders))
	return cache, nil
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api/addressbooks/{book:[0-9]+}").Subrouter()
	api.HandleFunc("/cards", h.ListCards).Methods("GET").Name("list-cards")
	api.HandleFunc("/cards/{card}", h.GetCard).Methods("GET").Name("get-card")
	api.HandleFunc("/cards/{card}", h.PutCard).Methods("PUT").Name("put-card")
	api.HandleFunc("/cards/{card}", h.DeleteCard).Methods("DELETE").Name("delete-card")
	api.HandleFunc("/cards/{card}/photo", h.GetPhoto).Methods("GET").Name("get-photo")
	api.HandleFunc("/cards/{card}/photo", h.InvalidatePhoto).Methods("DELETE").Name("invalidate-photo")

	return r
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	mr := http.NewServeMux()
	mr.Handle("/metrics", h.MetricsHandler())
	mr.HandleFunc("/health", h.LivenessCheck)

	return &http.Server{
		Addr:              ":" + port,
		Handler:           mr,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, db *database.Database) {
	startup.LogShutdownInitiated("signal")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Releasing image codec")
	imagecodec.ShutdownVips()
	startup.LogShutdownStepComplete("Image codec released")

	startup.LogShutdownStep("Closing database")
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
