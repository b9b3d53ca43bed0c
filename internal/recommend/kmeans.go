package recommend

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
)

// KMeansConfig configures the k-means recommender.
type KMeansConfig struct {
	// Clusters is k; it is capped at the dataset size. Defaults to 10.
	Clusters int
	// MaxIterations bounds Lloyd iterations. Defaults to 100.
	MaxIterations int
	// Seed makes the k-means++ initialization reproducible. Defaults to 42.
	Seed uint64
}

// KMeans clusters books over (price, reviews, category, rating) and
// recommends the nearest books that share the target's cluster and category.
type KMeans struct {
	data *Dataset
	cfg  KMeansConfig

	mu        sync.Mutex
	clustered bool
	labels    []int
}

func NewKMeans(d *Dataset, cfg KMeansConfig) *KMeans {
	if cfg.Clusters <= 0 {
		cfg.Clusters = 10
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 100
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	return &KMeans{data: d, cfg: cfg}
}

func (k *KMeans) Name() string { return AlgorithmKMeans }

func (k *KMeans) Similar(ctx context.Context, target, n int) ([]int, error) {
	labels, err := k.Labels(ctx)
	if err != nil {
		return nil, err
	}
	t := vector(k.data.Features[target])
	cands := make([]int, 0)
	for _, i := range k.data.sameCategory(target) {
		if labels[i] == labels[target] {
			cands = append(cands, i)
		}
	}
	return nearest(cands, n, func(i int) float64 {
		return distance(vector(k.data.Features[i]), t)
	}), nil
}

// Labels returns the cluster of every book, clustering on first call. A
// cancelled context leaves the model unclustered for the next caller.
func (k *KMeans) Labels(ctx context.Context) ([]int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.clustered {
		return k.labels, nil
	}
	labels, err := k.cluster(ctx)
	if err != nil {
		return nil, err
	}
	k.labels, k.clustered = labels, true
	return labels, nil
}

func (k *KMeans) cluster(ctx context.Context) ([]int, error) {
	points := make([][4]float64, k.data.Len())
	for i, f := range k.data.Features {
		points[i] = vector(f)
	}
	labels := make([]int, len(points))
	kk := min(k.cfg.Clusters, len(points))
	if kk <= 1 {
		return labels, nil
	}

	rng := rand.New(rand.NewPCG(k.cfg.Seed, k.cfg.Seed))
	centroids := seedCentroids(points, kk, rng)

	for iter := 0; iter < k.cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed := false
		for i, p := range points {
			if best := closest(p, centroids); best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][4]float64, kk)
		counts := make([]int, kk)
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for d := range p {
				sums[c][d] += p[d]
			}
		}
		for c := range centroids {
			// an empty cluster keeps its previous centroid
			if counts[c] == 0 {
				continue
			}
			for d := range sums[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}
	return labels, nil
}

// seedCentroids picks k initial centroids with k-means++.
func seedCentroids(points [][4]float64, k int, rng *rand.Rand) [][4]float64 {
	centroids := make([][4]float64, 0, k)
	centroids = append(centroids, points[rng.IntN(len(points))])
	dist := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := distance(p, centroids[closest(p, centroids)])
			dist[i] = d * d
			total += dist[i]
		}
		if total == 0 {
			// every point coincides with a centroid; duplicates are harmless
			centroids = append(centroids, points[rng.IntN(len(points))])
			continue
		}
		r := rng.Float64() * total
		pick := len(points) - 1
		for i, d := range dist {
			r -= d
			if r <= 0 {
				pick = i
				break
			}
		}
		centroids = append(centroids, points[pick])
	}
	return centroids
}

func closest(p [4]float64, centroids [][4]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, ctr := range centroids {
		if d := distance(p, ctr); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func vector(f Features) [4]float64 {
	return [4]float64{f.Price, f.Reviews, f.Category, f.Rating}
}

func distance(a, b [4]float64) float64 {
	s := 0.0
	for i := range a {
		s += (a[i] - b[i]) * (a[i] - b[i])
	}
	return math.Sqrt(s)
}
