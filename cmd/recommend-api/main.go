package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"bookrec/internal/catalog"
	"bookrec/internal/config"
	"bookrec/internal/delivery"
	"bookrec/internal/logger"
	"bookrec/internal/recommend"
)

func main() {
	cfgPath := flag.String("config", "", "path to bookrec.yaml (default $BOOKREC_CONFIG or bookrec.yaml)")
	flag.Parse()
	if *cfgPath != "" {
		_ = os.Setenv("BOOKREC_CONFIG", *cfgPath)
	}

	cfg := config.Get()
	log := logger.Setup(cfg.Log.Level, cfg.Log.JSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("recommend-api.failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	store, err := catalog.OpenSQLite(ctx, cfg.Catalog.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := seed(ctx, store, cfg.Catalog.CSVPath, log); err != nil {
		return err
	}

	grpcSrv, health := delivery.NewGRPCServer()
	lis, err := net.Listen("tcp", cfg.Health.Address())
	if err != nil {
		return err
	}
	go func() {
		log.WithField("addr", cfg.Health.Address()).Info("grpc.health.listening")
		if err := grpcSrv.Serve(lis); err != nil {
			log.WithError(err).Error("grpc.serve.failed")
		}
	}()
	defer grpcSrv.GracefulStop()

	engine, err := recommend.NewEngineFromStore(ctx, store, recommend.Config{
		Algorithm: cfg.Recommend.Algorithm,
		KMeans:    recommend.KMeansConfig{Clusters: cfg.Recommend.Clusters},
	}, log)
	if err != nil {
		return err
	}
	if err := engine.Warm(ctx); err != nil {
		return err
	}
	health.MarkServing(ctx)

	api := &delivery.Server{
		Log:          log,
		Engine:       engine,
		DefaultCount: cfg.Recommend.DefaultCount,
		MaxCount:     cfg.Recommend.MaxCount,
		Timeout:      10 * time.Second,
	}
	httpSrv := &http.Server{
		Addr:              cfg.API.Address(),
		Handler:           api.Routes(delivery.RouteOptions{RPS: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":      httpSrv.Addr,
			"algorithm": engine.Algorithm(),
			"books":     engine.Size(),
		}).Info("recommend-api.listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("recommend-api.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// seed imports the CSV dataset when the store is empty.
func seed(ctx context.Context, store catalog.Store, csvPath string, log *logrus.Logger) error {
	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.WithField("books", n).Info("catalog.present")
		return nil
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = catalog.Import(ctx, store, f, catalog.DefaultBatchSize, nil)
	return err
}
