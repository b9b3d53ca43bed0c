package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultFormat replaces a missing book format.
const DefaultFormat = "Other"

// LoadResult is the outcome of reading a CSV dataset.
type LoadResult struct {
	Books []Book
	// Skipped counts rows dropped by cleaning: missing ASIN, duplicate ASIN
	// or invalid prices.
	Skipped int
}

// row is a raw record before cleaning; numeric fields are NaN when absent.
type row struct {
	book    Book
	sellers float64
	format  string
}

// LoadCSV reads a header-led CSV dataset and applies the cleaning rules:
// prices are coerced to numbers and a missing one of initial/final/discount
// is derived from the other two; rows with non-positive prices, negative
// discount or a final price above the initial one are dropped; a missing
// seller count takes the column mode and a missing format becomes "Other".
func LoadCSV(r io.Reader) (LoadResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return LoadResult{}, errors.New("empty csv: header row is required")
		}
		return LoadResult{}, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["asin"]; !ok {
		return LoadResult{}, errors.New("csv has no asin column")
	}

	var (
		res   LoadResult
		rows  []row
		seen  = make(map[string]bool)
		line  = 1
		field = func(rec []string, name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
	)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return LoadResult{}, fmt.Errorf("line %d: %w", line, err)
		}

		asin := field(rec, "asin")
		if asin == "" || seen[asin] {
			res.Skipped++
			continue
		}

		r := row{
			book: Book{
				ASIN:         asin,
				Title:        CleanTitle(field(rec, "title")),
				Brand:        field(rec, "brand"),
				InitialPrice: parseNumber(field(rec, "initial_price")),
				FinalPrice:   parseNumber(field(rec, "final_price")),
				Discount:     parseNumber(field(rec, "discount")),
				Rating:       parseNumber(field(rec, "rating")),
				MainCategory: field(rec, "main_category"),
				MainRank:     parseNumber(field(rec, "main_rank")),
			},
			sellers: parseNumber(field(rec, "number_of_sellers")),
			format:  field(rec, "format"),
		}
		if reviews := parseNumber(field(rec, "reviews_count")); !math.IsNaN(reviews) && reviews > 0 {
			r.book.ReviewsCount = int(reviews)
		}
		if r.book.MainCategory == "" {
			cat, rank := parseBestSellersRank(field(rec, "best_sellers_rank"))
			r.book.MainCategory = cat
			if math.IsNaN(r.book.MainRank) {
				r.book.MainRank = rank
			}
		}

		if !fixPrices(&r.book) {
			res.Skipped++
			continue
		}
		seen[asin] = true
		rows = append(rows, r)
	}

	mode := sellersMode(rows)
	res.Books = make([]Book, 0, len(rows))
	for _, r := range rows {
		b := r.book
		if math.IsNaN(r.sellers) {
			b.NumberOfSellers = mode
		} else {
			b.NumberOfSellers = int(r.sellers)
		}
		b.Format = r.format
		if b.Format == "" {
			b.Format = DefaultFormat
		}
		res.Books = append(res.Books, b)
	}
	return res, nil
}

// CleanTitle NFC-normalizes a title and collapses runs of whitespace.
func CleanTitle(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// fixPrices derives one missing price column from the other two and reports
// whether the row holds a valid price triple.
func fixPrices(b *Book) bool {
	initial, final, discount := b.InitialPrice, b.FinalPrice, b.Discount
	switch {
	case math.IsNaN(initial) && !math.IsNaN(final) && !math.IsNaN(discount):
		initial = final + discount
	case math.IsNaN(final) && !math.IsNaN(initial) && !math.IsNaN(discount):
		final = initial - discount
	case math.IsNaN(discount) && !math.IsNaN(initial) && !math.IsNaN(final):
		discount = initial - final
	}
	// NaN fails every comparison below.
	if !(initial > 0 && final > 0 && discount >= 0 && final <= initial) {
		return false
	}
	b.InitialPrice, b.FinalPrice, b.Discount = initial, final, round2(discount)
	return true
}

func sellersMode(rows []row) int {
	counts := make(map[int]int)
	for _, r := range rows {
		if !math.IsNaN(r.sellers) {
			counts[int(r.sellers)]++
		}
	}
	if len(counts) == 0 {
		return 1
	}
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// parseNumber accepts plain numbers, "$1,299.00" style prices and values
// such as "4.6 out of 5 stars"; anything else is NaN.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		if v, err := strconv.ParseFloat(s[:i], 64); err == nil {
			return v
		}
	}
	return math.NaN()
}

// parseBestSellersRank extracts the first category and rank from the
// JSON-encoded best_sellers_rank column.
func parseBestSellersRank(s string) (string, float64) {
	if s == "" {
		return "", math.NaN()
	}
	var entries []struct {
		Category string          `json:"category"`
		Rank     json.RawMessage `json:"rank"`
	}
	if err := json.Unmarshal([]byte(s), &entries); err != nil || len(entries) == 0 {
		return "", math.NaN()
	}
	rank := parseNumber(strings.Trim(string(entries[0].Rank), `"`))
	return entries[0].Category, rank
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
