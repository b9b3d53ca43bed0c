// Package catalog holds the book records recommendations are computed from:
// loading them from the scraped CSV dataset and keeping them in a store.
package catalog

import (
	"errors"
	"math"
)

// ErrNotFound is returned when no book has the requested ASIN.
var ErrNotFound = errors.New("book not found")

// Book is one cleaned catalog row. Rating and MainRank are NaN when the
// source row had no usable value.
type Book struct {
	ASIN            string
	Title           string
	Brand           string
	Format          string
	InitialPrice    float64
	FinalPrice      float64
	Discount        float64
	Rating          float64
	ReviewsCount    int
	NumberOfSellers int
	MainCategory    string
	MainRank        float64
}

// HasRating reports whether the book carries a numeric rating.
func (b Book) HasRating() bool { return !math.IsNaN(b.Rating) }

// HasRank reports whether the book carries a best-sellers rank.
func (b Book) HasRank() bool { return !math.IsNaN(b.MainRank) }
