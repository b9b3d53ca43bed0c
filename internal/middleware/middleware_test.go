package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"bookrec/internal/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(logger.IDFrom(r.Context())))
	})
}

func TestCORS(t *testing.T) {
	h := CORS(okHandler())

	t.Run("preflight short-circuits", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/recommend", nil))
		if rr.Code != http.StatusNoContent {
			t.Errorf("status = %d; expected 204", rr.Code)
		}
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("allow-origin = %q", got)
		}
	})

	t.Run("GET passes through", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recommend", nil))
		if rr.Code != http.StatusTeapot {
			t.Errorf("status = %d; expected 418", rr.Code)
		}
	})
}

func TestRequestID(t *testing.T) {
	h := RequestID(okHandler())

	t.Run("keeps caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Body.String() != "abc-123" {
			t.Errorf("context id = %q", rr.Body.String())
		}
		if rr.Header().Get(RequestIDHeader) != "abc-123" {
			t.Errorf("header id = %q", rr.Header().Get(RequestIDHeader))
		}
	})

	t.Run("assigns new id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Body.Len() == 0 || rr.Body.String() != rr.Header().Get(RequestIDHeader) {
			t.Errorf("generated id mismatch: body %q header %q", rr.Body.String(), rr.Header().Get(RequestIDHeader))
		}
	})
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(0.001, 2)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recommend", nil))
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests && !strings.Contains(rr.Body.String(), `"error"`) {
			t.Errorf("429 body should be an error envelope, got %q", rr.Body.String())
		}
	}
	if codes[0] != http.StatusTeapot || codes[1] != http.StatusTeapot || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v; expected [418 418 429]", codes)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(0, 0)(okHandler())
	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusTeapot {
			t.Fatalf("request %d limited with limiter disabled", i)
		}
	}
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true})

	h := Chain(okHandler(), RequestID, RequestLogger(log), Metrics)
	req := httptest.NewRequest(http.MethodGet, "/recommend?asin=B1", nil)
	req.Header.Set(RequestIDHeader, "log-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"http.request", "status=418", "request_id=log-1", "path=/recommend"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}
