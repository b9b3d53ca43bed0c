package recommend

import (
	"math"
	"sort"

	"bookrec/internal/catalog"
)

// Features is the normalized feature vector of one book.
type Features struct {
	// Price is the min-max scaled final price (0-1).
	Price float64
	// Reviews is log1p(reviews_count), z-score standardized.
	Reviews float64
	// Rating is rating/5; missing ratings take the column mean.
	Rating float64
	// Category is the label-encoded category scaled to 0-1.
	Category float64
}

// Dataset is an immutable set of books with their features.
type Dataset struct {
	Books    []catalog.Book
	Features []Features

	index      map[string]int
	categories []string
}

// NewDataset normalizes books into a Dataset. Books with a duplicate ASIN
// after the first are ignored.
func NewDataset(books []catalog.Book) *Dataset {
	d := &Dataset{index: make(map[string]int, len(books))}
	for _, b := range books {
		if _, dup := d.index[b.ASIN]; dup {
			continue
		}
		d.index[b.ASIN] = len(d.Books)
		d.Books = append(d.Books, b)
	}
	d.Features = Normalize(d.Books)
	d.categories = categoryLabels(d.Books)
	return d
}

// Len returns the number of books.
func (d *Dataset) Len() int { return len(d.Books) }

// Lookup returns the index of asin.
func (d *Dataset) Lookup(asin string) (int, bool) {
	i, ok := d.index[asin]
	return i, ok
}

// Categories returns the distinct categories in label-encoding order.
func (d *Dataset) Categories() []string {
	out := make([]string, len(d.categories))
	copy(out, d.categories)
	return out
}

// sameCategory returns the indexes of books sharing target's category,
// excluding target itself.
func (d *Dataset) sameCategory(target int) []int {
	cat := d.Books[target].MainCategory
	out := make([]int, 0)
	for i, b := range d.Books {
		if i != target && b.MainCategory == cat {
			out = append(out, i)
		}
	}
	return out
}

// Normalize computes the feature vectors for books.
func Normalize(books []catalog.Book) []Features {
	n := len(books)
	out := make([]Features, n)
	if n == 0 {
		return out
	}

	prices := make([]float64, n)
	reviews := make([]float64, n)
	ratings := make([]float64, n)
	for i, b := range books {
		prices[i] = b.FinalPrice
		reviews[i] = math.Log1p(float64(b.ReviewsCount))
		ratings[i] = b.Rating / 5.0
	}
	prices = minMax(prices)
	reviews = zScore(reviews)
	ratings = fillMean(ratings)

	labels := categoryLabels(books)
	code := make(map[string]float64, len(labels))
	for i, c := range labels {
		if len(labels) > 1 {
			code[c] = float64(i) / float64(len(labels)-1)
		}
	}

	for i, b := range books {
		out[i] = Features{
			Price:    prices[i],
			Reviews:  reviews[i],
			Rating:   ratings[i],
			Category: code[b.MainCategory],
		}
	}
	return out
}

// categoryLabels returns the sorted distinct categories, the order used for
// label encoding.
func categoryLabels(books []catalog.Book) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, b := range books {
		if !seen[b.MainCategory] {
			seen[b.MainCategory] = true
			out = append(out, b.MainCategory)
		}
	}
	sort.Strings(out)
	return out
}

func minMax(v []float64) []float64 {
	v = fillMean(v)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	out := make([]float64, len(v))
	if hi == lo {
		return out
	}
	for i, x := range v {
		out[i] = (x - lo) / (hi - lo)
	}
	return out
}

// zScore standardizes with the sample standard deviation.
func zScore(v []float64) []float64 {
	v = fillMean(v)
	out := make([]float64, len(v))
	if len(v) < 2 {
		return out
	}
	mean := 0.0
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	ss := 0.0
	for _, x := range v {
		ss += (x - mean) * (x - mean)
	}
	std := math.Sqrt(ss / float64(len(v)-1))
	if std == 0 {
		return out
	}
	for i, x := range v {
		out[i] = (x - mean) / std
	}
	return out
}

// fillMean replaces NaN entries with the mean of the others (0 if none).
func fillMean(v []float64) []float64 {
	sum, n := 0.0, 0
	for _, x := range v {
		if !math.IsNaN(x) {
			sum += x
			n++
		}
	}
	mean := 0.0
	if n > 0 {
		mean = sum / float64(n)
	}
	out := make([]float64, len(v))
	for i, x := range v {
		if math.IsNaN(x) {
			x = mean
		}
		out[i] = x
	}
	return out
}
