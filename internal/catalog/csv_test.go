package catalog

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const sampleCSV = `asin,title,brand,format,initial_price,final_price,discount,rating,reviews_count,number_of_sellers,main_category,main_rank
B001,  The   Go Programming   Language ,Addison,Paperback,40,30,10,4.7,1200,3,Computers,12
B002,Derived Initial,Pub,Hardcover,,20,5,4.1,50,,Computers,40
B003,Derived Final,Pub,,25,,5,4.0 out of 5 stars,7,2,Fiction,3
B004,Bad Prices,Pub,Paperback,10,12,0,3.0,1,1,Fiction,9
B001,Duplicate,Pub,Paperback,10,9,1,3.0,1,1,Fiction,9
,No ASIN,Pub,Paperback,10,9,1,3.0,1,1,Fiction,9
B005,"$1,299.00 Edition",Pub,Kindle,"$1,299.00",$999.00,,,0,3,Art,
`

func TestLoadCSV(t *testing.T) {
	res, err := LoadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("got err %v; expected nil", err)
	}

	want := []Book{
		{ASIN: "B001", Title: "The Go Programming Language", Brand: "Addison", Format: "Paperback",
			InitialPrice: 40, FinalPrice: 30, Discount: 10, Rating: 4.7, ReviewsCount: 1200,
			NumberOfSellers: 3, MainCategory: "Computers", MainRank: 12},
		{ASIN: "B002", Title: "Derived Initial", Brand: "Pub", Format: "Hardcover",
			InitialPrice: 25, FinalPrice: 20, Discount: 5, Rating: 4.1, ReviewsCount: 50,
			NumberOfSellers: 3, MainCategory: "Computers", MainRank: 40},
		{ASIN: "B003", Title: "Derived Final", Brand: "Pub", Format: DefaultFormat,
			InitialPrice: 25, FinalPrice: 20, Discount: 5, Rating: 4.0, ReviewsCount: 7,
			NumberOfSellers: 2, MainCategory: "Fiction", MainRank: 3},
		{ASIN: "B005", Title: "$1,299.00 Edition", Brand: "Pub", Format: "Kindle",
			InitialPrice: 1299, FinalPrice: 999, Discount: 300, Rating: math.NaN(), ReviewsCount: 0,
			NumberOfSellers: 3, MainCategory: "Art", MainRank: math.NaN()},
	}
	if diff := cmp.Diff(want, res.Books, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("books mismatch (-want +got):\n%s", diff)
	}
	if res.Skipped != 3 {
		t.Errorf("skipped = %d; expected 3", res.Skipped)
	}
}

func TestLoadCSVBestSellersRank(t *testing.T) {
	in := "asin,title,initial_price,final_price,discount,best_sellers_rank\n" +
		`X1,Ranked,10,8,2,"[{""category"":""Books"",""rank"":1520},{""category"":""Kindle"",""rank"":3}]"` + "\n" +
		"X2,Unranked,10,8,2,not-json\n"

	res, err := LoadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("got err %v; expected nil", err)
	}
	if len(res.Books) != 2 {
		t.Fatalf("got %d books; expected 2", len(res.Books))
	}
	if got := res.Books[0]; got.MainCategory != "Books" || got.MainRank != 1520 {
		t.Errorf("ranked book = %q/%v; expected Books/1520", got.MainCategory, got.MainRank)
	}
	if got := res.Books[1]; got.MainCategory != "" || got.HasRank() {
		t.Errorf("unranked book = %q/%v; expected empty/NaN", got.MainCategory, got.MainRank)
	}
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty input", ""},
		{"no asin column", "title,final_price\nA,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCSV(strings.NewReader(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCleanTitle(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune under NFC.
	got := CleanTitle("  Les   Mise\u0301rables\t ")
	if got != "Les Mis\u00e9rables" {
		t.Errorf("CleanTitle = %q", got)
	}
}
