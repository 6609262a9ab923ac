package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ml-audit-platform/internal/adapters/primary/http/handlers"
	"ml-audit-platform/internal/adapters/primary/http/middleware"
	"ml-audit-platform/internal/adapters/secondary/artifactfs"
	"ml-audit-platform/internal/adapters/secondary/kube"
	"ml-audit-platform/internal/config"
	output "ml-audit-platform/internal/core/ports/output"
	"ml-audit-platform/internal/core/services"
	"ml-audit-platform/internal/logging"
	"ml-audit-platform/internal/ml"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	closer := logging.Init(cfg.Logger)
	defer closer.Close()

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	// Secondary Adapter (Artifact Store)
	store, err := newArtifactStore(cfg)
	if err != nil {
		log.Fatalf("create artifact store: %v", err)
	}

	// The bundle is loaded once; the service never reloads it.
	bundle, err := ml.LoadBundle(context.Background(), store)
	if err != nil {
		if cfg.Model.Required {
			log.Fatalf("load model: %v", err)
		}
		log.WithError(err).Warn("Model not loaded, prediction endpoints will report unavailable")
	} else {
		log.WithFields(log.Fields{
			"model_type": bundle.Info.ModelType,
			"version":    bundle.Info.Version,
			"scaled":     bundle.Scaler != nil,
			"source":     bundle.Origin,
		}).Info("Model loaded")
	}

	// Core Service (Application Layer)
	predictionSvc := services.NewPredictionService(bundle, cfg.Prediction.MaxBatchSize)

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(predictionSvc)

	// Setup router
	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging())
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}
	router.Use(gin.Recovery())

	h.RegisterRoutes(router.Group("/"))
	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func newArtifactStore(cfg *config.Config) (output.ArtifactStore, error) {
	switch cfg.Model.Source {
	case config.ModelSourceFile:
		return artifactfs.NewFileStore(cfg.Model.Dir, cfg.Model.File, cfg.Model.ScalerFile, cfg.Model.InfoFile), nil
	case config.ModelSourceConfigMap:
		client, err := kube.NewClientset(&cfg.Kubernetes)
		if err != nil {
			return nil, err
		}
		keys := kube.Keys{Model: cfg.Model.File, Scaler: cfg.Model.ScalerFile, Info: cfg.Model.InfoFile}
		return kube.NewConfigMapStore(client, cfg.Kubernetes.Namespace, cfg.Kubernetes.ConfigMap, keys), nil
	default:
		return nil, fmt.Errorf("unknown MODEL_SOURCE %q", cfg.Model.Source)
	}
}
