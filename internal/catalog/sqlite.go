package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	asin              TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	brand             TEXT NOT NULL DEFAULT '',
	format            TEXT NOT NULL DEFAULT '',
	initial_price     REAL NOT NULL,
	final_price       REAL NOT NULL,
	discount          REAL NOT NULL,
	rating            REAL,
	reviews_count     INTEGER NOT NULL DEFAULT 0,
	number_of_sellers INTEGER NOT NULL DEFAULT 0,
	main_category     TEXT NOT NULL DEFAULT '',
	main_rank         REAL
);
CREATE INDEX IF NOT EXISTS books_main_category ON books(main_category);
`

const upsertSQL = `
INSERT INTO books (asin, title, brand, format, initial_price, final_price, discount,
	rating, reviews_count, number_of_sellers, main_category, main_rank)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(asin) DO UPDATE SET
	title = excluded.title,
	brand = excluded.brand,
	format = excluded.format,
	initial_price = excluded.initial_price,
	final_price = excluded.final_price,
	discount = excluded.discount,
	rating = excluded.rating,
	reviews_count = excluded.reviews_count,
	number_of_sellers = excluded.number_of_sellers,
	main_category = excluded.main_category,
	main_rank = excluded.main_rank`

const selectColumns = `asin, title, brand, format, initial_price, final_price, discount,
	rating, reviews_count, number_of_sellers, main_category, main_rank`

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Upsert(ctx context.Context, books []Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range books {
		if _, err := stmt.ExecContext(ctx,
			b.ASIN, b.Title, b.Brand, b.Format,
			b.InitialPrice, b.FinalPrice, b.Discount,
			nullFloat(b.Rating), b.ReviewsCount, b.NumberOfSellers,
			b.MainCategory, nullFloat(b.MainRank),
		); err != nil {
			return fmt.Errorf("upsert %s: %w", b.ASIN, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) All(ctx context.Context) ([]Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM books ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	out := make([]Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ByASIN(ctx context.Context, asin string) (Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM books WHERE asin = ?`, asin)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	return b, err
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(sc scanner) (Book, error) {
	var (
		b            Book
		rating, rank sql.NullFloat64
	)
	err := sc.Scan(&b.ASIN, &b.Title, &b.Brand, &b.Format,
		&b.InitialPrice, &b.FinalPrice, &b.Discount,
		&rating, &b.ReviewsCount, &b.NumberOfSellers,
		&b.MainCategory, &rank)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, err
		}
		return Book{}, fmt.Errorf("scan book: %w", err)
	}
	b.Rating = math.NaN()
	if rating.Valid {
		b.Rating = rating.Float64
	}
	b.MainRank = math.NaN()
	if rank.Valid {
		b.MainRank = rank.Float64
	}
	return b, nil
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
