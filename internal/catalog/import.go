package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"bookrec/internal/logger"
)

// DefaultBatchSize is the number of books written per Upsert by Import.
const DefaultBatchSize = 500

// Import loads a CSV dataset and writes it to store in batches. progress,
// if not nil, is called with the number of books written after each batch.
func Import(ctx context.Context, store Store, r io.Reader, batch int, progress func(written int)) (LoadResult, error) {
	defer logger.Track(ctx, "Catalog: import")()

	res, err := LoadCSV(r)
	if err != nil {
		return res, err
	}
	if batch < 1 {
		batch = DefaultBatchSize
	}
	for start := 0; start < len(res.Books); start += batch {
		end := min(start+batch, len(res.Books))
		if err := store.Upsert(ctx, res.Books[start:end]); err != nil {
			return res, fmt.Errorf("upsert books %d-%d: %w", start, end, err)
		}
		if progress != nil {
			progress(end - start)
		}
	}
	logger.For(ctx).WithFields(logrus.Fields{
		"books":   len(res.Books),
		"skipped": res.Skipped,
	}).Info("catalog.imported")
	return res, nil
}
