package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"bookrec/internal/logger"
	"bookrec/internal/recommend"
)

// Messages of the /recommend error envelope.
const (
	MsgMissingASIN = "missing ASIN code"
	MsgNoSimilar   = "No similar books found or invalid ASIN"
)

// Recommender is the part of recommend.Engine the handlers use.
type Recommender interface {
	Recommend(ctx context.Context, asin string, n int) ([]recommend.Recommendation, error)
	RecommendWith(ctx context.Context, algorithm, asin string, n int) ([]recommend.Recommendation, error)
	Size() int
}

type Server struct {
	Log    *logrus.Logger
	Engine Recommender

	// DefaultCount is used when num_recs is missing or invalid.
	DefaultCount int
	// MaxCount caps num_recs.
	MaxCount int
	// Timeout bounds a single recommendation; zero means no limit.
	Timeout time.Duration
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "books": s.Engine.Size()})
}

func (s *Server) Metrics() http.Handler { return promhttp.Handler() }

// GET /recommend?asin=...&num_recs=5[&algorithm=knn]
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	asin := q.Get("asin")
	if asin == "" {
		WriteError(w, http.StatusBadRequest, MsgMissingASIN)
		return
	}
	n := s.count(q.Get("num_recs"))

	ctx := r.Context()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var (
		recs []recommend.Recommendation
		err  error
	)
	if algo := q.Get("algorithm"); algo != "" {
		recs, err = s.Engine.RecommendWith(ctx, algo, asin, n)
	} else {
		recs, err = s.Engine.Recommend(ctx, asin, n)
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"recommendation": recs})
	case errors.Is(err, recommend.ErrNotFound), errors.Is(err, recommend.ErrNoSimilar):
		WriteError(w, http.StatusOK, MsgNoSimilar)
	case errors.Is(err, recommend.ErrUnknownAlgorithm):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.For(ctx).WithError(err).WithField("asin", asin).Error("recommend.failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) count(raw string) int {
	def := s.DefaultCount
	if def < 1 {
		def = 5
	}
	n := atoiDefault(raw, def)
	if n < 1 {
		n = def
	}
	if s.MaxCount > 0 && n > s.MaxCount {
		n = s.MaxCount
	}
	return n
}

// WriteError writes the {"error": message} envelope shared by every endpoint.
func WriteError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func atoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
