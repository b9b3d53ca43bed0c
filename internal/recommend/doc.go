// Package recommend implements content-based book recommendations.
//
// The catalog has no user interaction data, so every model works on the
// books' own attributes: category, price, review volume and rating. A
// Dataset holds the books together with their normalized feature vectors;
// algorithms pick, for a target book, the most similar other books.
//
// # Algorithms
//
//   - category: most popular books of the same category (best-sellers rank,
//     then review count, then rating)
//   - knn: nearest books of the same category by price and review volume
//   - kmeans: books sharing the target's k-means cluster and category,
//     nearest first
//
// # Thread Safety
//
// An Engine is safe for concurrent use once built. The k-means clustering is
// computed on first use and cached.
package recommend
