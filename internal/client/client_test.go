package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bookrec/internal/logger"
)

func serve(t *testing.T, status int, body string, gotQuery *string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommend" {
			t.Errorf("request path = %s; expected /recommend", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %s; expected GET", r.Method)
		}
		if gotQuery != nil {
			*gotQuery = r.URL.RawQuery
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestRecommendSuccess(t *testing.T) {
	var query string
	ts := serve(t, http.StatusOK, `{"recommendation":[
		{"asin":"B1","title":"T","final_price":"$9","rating":"4.5","reviews_count":"10","main_category":"Books"},
		{"asin":"B2","title":"U","final_price":12.5,"rating":4,"reviews_count":1200,"main_category":7}
	]}`, &query)

	env, err := New(ts.URL, WithLogger(logger.Discard())).Recommend(context.Background(), "B0")
	if err != nil {
		t.Fatalf("got err %v; expected nil", err)
	}
	if query != "asin=B0" {
		t.Errorf("query = %q; expected asin=B0", query)
	}
	want := &Envelope{Recommendation: []Book{
		{ASIN: "B1", Title: "T", FinalPrice: "$9", Rating: "4.5", ReviewsCount: "10", MainCategory: "Books"},
		{ASIN: "B2", Title: "U", FinalPrice: "12.5", Rating: "4", ReviewsCount: "1200", MainCategory: "7"},
	}}
	if diff := cmp.Diff(want, env); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}
}

func TestRecommendBusinessError(t *testing.T) {
	ts := serve(t, http.StatusOK, `{"error":"ASIN not found"}`, nil)

	env, err := New(ts.URL).Recommend(context.Background(), "ZZZ")
	if err != nil {
		t.Fatalf("got err %v; expected nil", err)
	}
	if !env.IsError() || *env.Error != "ASIN not found" {
		t.Errorf("envelope = %+v; expected business error", env)
	}
	if env.Recommendation != nil {
		t.Errorf("recommendation should be absent, got %v", env.Recommendation)
	}
}

func TestRecommendEmptyASINIsSent(t *testing.T) {
	var query string
	ts := serve(t, http.StatusOK, `{"error":"missing ASIN code"}`, &query)

	if _, err := New(ts.URL).Recommend(context.Background(), ""); err != nil {
		t.Fatalf("got err %v; expected nil", err)
	}
	if query != "asin=" {
		t.Errorf("query = %q; expected asin=", query)
	}
}

func TestRecommendURLKeepsValueInOneParameter(t *testing.T) {
	c := New("http://books.local/")
	got := c.RecommendURL("B1&num_recs=99#x")
	want := "http://books.local/recommend?asin=B1%26num_recs%3D99%23x"
	if got != want {
		t.Errorf("url = %s; expected %s", got, want)
	}
}

func TestRecommendTransportFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"non-JSON body", http.StatusOK, `<html>oops</html>`, ErrDecode},
		{"empty body", http.StatusOK, ``, ErrDecode},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrStatus},
		{"bad request", http.StatusBadRequest, `{"error":"missing ASIN code"}`, ErrStatus},
		{"neither field", http.StatusOK, `{}`, ErrSchema},
		{"both fields", http.StatusOK, `{"recommendation":[],"error":"x"}`, ErrSchema},
		{"error not a string", http.StatusOK, `{"error":42}`, ErrSchema},
		{"recommendation not a list", http.StatusOK, `{"recommendation":"B1"}`, ErrSchema},
		{"top-level array", http.StatusOK, `[]`, ErrSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := serve(t, tt.status, tt.body, nil)
			env, err := New(ts.URL).Recommend(context.Background(), "B1")
			if !errors.Is(err, tt.want) {
				t.Fatalf("got err %v; expected %v", err, tt.want)
			}
			if !errors.Is(err, ErrTransport) {
				t.Errorf("error %v should wrap ErrTransport", err)
			}
			if env != nil {
				t.Errorf("envelope = %+v; expected nil", env)
			}
		})
	}
}

func TestRecommendNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(url).Recommend(context.Background(), "B1")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("got err %v; expected ErrTransport", err)
	}
}

func TestRecommendCancelled(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(ts.URL).Recommend(ctx, "B1")
	if !errors.Is(err, ErrTransport) || !errors.Is(err, context.Canceled) {
		t.Fatalf("got err %v; expected ErrTransport wrapping context.Canceled", err)
	}
}
