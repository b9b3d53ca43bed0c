package recommend

import (
	"context"
	"math"
	"sort"
)

// Algorithm ranks the books most similar to a target book of its dataset.
type Algorithm interface {
	// Name returns the algorithm identifier.
	Name() string

	// Similar returns up to n dataset indexes, best first. The target is
	// never part of the result.
	Similar(ctx context.Context, target, n int) ([]int, error)
}

// Algorithm names accepted by NewEngine and RecommendWith.
const (
	AlgorithmCategory = "category"
	AlgorithmKNN      = "knn"
	AlgorithmKMeans   = "kmeans"
)

// Category recommends the most popular books of the target's category:
// best-sellers rank ascending, then review count and rating descending.
type Category struct {
	data *Dataset
}

func NewCategory(d *Dataset) *Category { return &Category{data: d} }

func (c *Category) Name() string { return AlgorithmCategory }

func (c *Category) Similar(ctx context.Context, target, n int) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cands := c.data.sameCategory(target)
	books := c.data.Books
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := books[cands[i]], books[cands[j]]
		if r := compareNaNLast(a.MainRank, b.MainRank); r != 0 {
			return r < 0
		}
		if a.ReviewsCount != b.ReviewsCount {
			return a.ReviewsCount > b.ReviewsCount
		}
		return compareNaNLast(-a.Rating, -b.Rating) < 0
	})
	return head(cands, n), nil
}

// KNN recommends the nearest books of the target's category by euclidean
// distance over normalized price and review volume.
type KNN struct {
	data *Dataset
}

func NewKNN(d *Dataset) *KNN { return &KNN{data: d} }

func (k *KNN) Name() string { return AlgorithmKNN }

func (k *KNN) Similar(ctx context.Context, target, n int) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := k.data.Features[target]
	return nearest(k.data.sameCategory(target), n, func(i int) float64 {
		f := k.data.Features[i]
		return math.Hypot(f.Price-t.Price, f.Reviews-t.Reviews)
	}), nil
}

// nearest orders candidates by ascending dist, keeping input order on ties.
func nearest(cands []int, n int, dist func(int) float64) []int {
	d := make(map[int]float64, len(cands))
	for _, c := range cands {
		d[c] = dist(c)
	}
	sort.SliceStable(cands, func(i, j int) bool { return d[cands[i]] < d[cands[j]] })
	return head(cands, n)
}

func head(v []int, n int) []int {
	if n < len(v) {
		return v[:n]
	}
	return v
}

// compareNaNLast orders numbers ascending with NaN after every number.
func compareNaNLast(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
