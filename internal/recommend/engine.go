package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"bookrec/internal/catalog"
	"bookrec/internal/logger"
	"bookrec/internal/metrics"
)

var (
	// ErrNotFound is returned for an ASIN that is not in the catalog.
	ErrNotFound = errors.New("asin not found")
	// ErrNoSimilar is returned when the model finds no other book to suggest.
	ErrNoSimilar = errors.New("no similar books found")
	// ErrUnknownAlgorithm is returned for an algorithm name the engine lacks.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)

// Recommendation is one suggested book as served by the API.
type Recommendation struct {
	ASIN         string   `json:"asin"`
	Title        string   `json:"title"`
	FinalPrice   float64  `json:"final_price"`
	Rating       *float64 `json:"rating"`
	ReviewsCount int      `json:"reviews_count"`
	MainCategory string   `json:"main_category"`
}

// Config selects and tunes the engine's algorithms.
type Config struct {
	// Algorithm is the default algorithm name.
	Algorithm string
	KMeans    KMeansConfig
}

// Engine answers recommendation requests over a fixed catalog snapshot.
type Engine struct {
	data       *Dataset
	algorithms map[string]Algorithm
	def        string
	log        *logrus.Logger
}

// NewEngine builds the dataset and registers every algorithm.
func NewEngine(books []catalog.Book, cfg Config, log *logrus.Logger) (*Engine, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmKMeans
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	d := NewDataset(books)
	e := &Engine{
		data: d,
		algorithms: map[string]Algorithm{
			AlgorithmCategory: NewCategory(d),
			AlgorithmKNN:      NewKNN(d),
			AlgorithmKMeans:   NewKMeans(d, cfg.KMeans),
		},
		def: cfg.Algorithm,
		log: log,
	}
	if _, ok := e.algorithms[cfg.Algorithm]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, cfg.Algorithm)
	}
	metrics.CatalogBooks.Set(float64(d.Len()))
	log.WithFields(logrus.Fields{
		"books":      d.Len(),
		"categories": len(d.categories),
		"algorithm":  e.def,
	}).Info("engine.ready")
	return e, nil
}

// NewEngineFromStore loads every book from store and builds an engine.
func NewEngineFromStore(ctx context.Context, store catalog.Store, cfg Config, log *logrus.Logger) (*Engine, error) {
	defer logger.Track(ctx, "Engine: catalog load")()
	books, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return NewEngine(books, cfg, log)
}

// Size returns the number of books in the engine's catalog.
func (e *Engine) Size() int { return e.data.Len() }

// Algorithm returns the default algorithm name.
func (e *Engine) Algorithm() string { return e.def }

// Warm runs the default algorithm's one-off preparation, such as k-means
// clustering, so the first request does not pay for it.
func (e *Engine) Warm(ctx context.Context) error {
	if km, ok := e.algorithms[e.def].(*KMeans); ok {
		_, err := km.Labels(ctx)
		return err
	}
	return nil
}

// Recommend returns up to n books similar to asin using the default algorithm.
func (e *Engine) Recommend(ctx context.Context, asin string, n int) ([]Recommendation, error) {
	return e.RecommendWith(ctx, e.def, asin, n)
}

// RecommendWith is Recommend with an explicit algorithm.
func (e *Engine) RecommendWith(ctx context.Context, algorithm, asin string, n int) ([]Recommendation, error) {
	algo, ok := e.algorithms[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}
	recs, err := e.recommend(ctx, algo, asin, n)
	metrics.RecommendationsTotal.WithLabelValues(algo.Name(), resultLabel(err)).Inc()
	return recs, err
}

func (e *Engine) recommend(ctx context.Context, algo Algorithm, asin string, n int) ([]Recommendation, error) {
	target, ok := e.data.Lookup(asin)
	if !ok {
		logger.For(ctx).WithField("asin", asin).Debug("recommend.asin_not_found")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, asin)
	}
	if n < 1 {
		return nil, ErrNoSimilar
	}

	idx, err := algo.Similar(ctx, target, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", algo.Name(), err)
	}
	if len(idx) == 0 {
		return nil, ErrNoSimilar
	}

	out := make([]Recommendation, 0, len(idx))
	for _, i := range idx {
		out = append(out, toRecommendation(e.data.Books[i]))
	}
	logger.For(ctx).WithFields(logrus.Fields{
		"asin":      asin,
		"algorithm": algo.Name(),
		"count":     len(out),
	}).Debug("recommend.done")
	return out, nil
}

func toRecommendation(b catalog.Book) Recommendation {
	r := Recommendation{
		ASIN:         b.ASIN,
		Title:        b.Title,
		FinalPrice:   math.Round(b.FinalPrice*100) / 100,
		ReviewsCount: b.ReviewsCount,
		MainCategory: b.MainCategory,
	}
	if b.HasRating() {
		v := b.Rating
		r.Rating = &v
	}
	return r
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoSimilar):
		return "no_similar"
	default:
		return "error"
	}
}
