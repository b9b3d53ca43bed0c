package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"bookrec/internal/catalog"
	"bookrec/internal/config"
	"bookrec/internal/logger"
)

func main() {
	cfg := config.Get()
	csvPath := flag.String("csv", cfg.Catalog.CSVPath, "cleaned book dataset (CSV with header)")
	dbPath := flag.String("db", cfg.Catalog.DBPath, "SQLite catalog to create or update")
	batch := flag.Int("batch", catalog.DefaultBatchSize, "books per transaction")
	flag.Parse()

	log := logger.Setup(cfg.Log.Level, cfg.Log.JSON)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.WithError(err).Fatal("catalog-import.open_csv")
	}
	defer f.Close()

	store, err := catalog.OpenSQLite(ctx, *dbPath)
	if err != nil {
		log.WithError(err).Fatal("catalog-import.open_db")
	}
	defer store.Close()

	bar := progressbar.Default(-1, "📚 importing")
	res, err := catalog.Import(ctx, store, f, *batch, func(n int) {
		_ = bar.Add(n)
	})
	_ = bar.Finish()
	if err != nil {
		log.WithError(err).Fatal("catalog-import.failed")
	}

	total, err := store.Count(ctx)
	if err != nil {
		log.WithError(err).Fatal("catalog-import.count")
	}
	log.WithFields(logrus.Fields{
		"imported": len(res.Books),
		"skipped":  res.Skipped,
		"total":    total,
		"db":       *dbPath,
	}).Info("catalog-import.done")
}
