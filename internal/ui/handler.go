// Package ui implements the recommendation request handler: the procedure
// run when the user clicks the "recommend" control of a page.
//
// A click reads the ASIN from the page, shows the loading indicator, clears
// the previous result and asks the backend for recommendations. The answer
// ends in exactly one of three renderings: the list of books, the backend's
// error text, or FailureMessage for any transport or parse failure.
//
// A new click supersedes the one in flight: its request is cancelled and
// whatever it eventually returns is discarded, so only the latest click
// renders.
package ui

import (
	"context"
	"html/template"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bookrec/internal/client"
	"bookrec/internal/render"
)

// Page is the set of page elements the handler reads and writes: the text
// input holding the ASIN, the loading indicator and the result area.
// Implementations need no locking; the handler serializes every call.
type Page interface {
	ASIN() string
	SetLoading(visible bool)
	SetResultHTML(fragment template.HTML)
	SetResultText(text string)
}

// Recommender is the backend call issued by a click.
type Recommender interface {
	Recommend(ctx context.Context, asin string) (*client.Envelope, error)
}

// Outcome is how a click ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeBusinessError
	OutcomeTransportError
	// OutcomeSuperseded means a later click (or Cancel) took over before
	// this one resolved; the page was not touched after the click began.
	OutcomeSuperseded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeBusinessError:
		return "business_error"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// DefaultLoadingTimeout bounds how long the loading indicator stays up.
const DefaultLoadingTimeout = 30 * time.Second

// Handler is the recommendation request handler bound to one page.
type Handler struct {
	page    Page
	rec     Recommender
	log     *logrus.Logger
	timeout time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

type Option func(*Handler)

// WithLoadingTimeout sets how long a click may wait for the backend before
// it fails with FailureMessage. Zero waits indefinitely.
func WithLoadingTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithLogger sets the logger used for the handler's debug output.
func WithLogger(l *logrus.Logger) Option {
	return func(h *Handler) { h.log = l }
}

func NewHandler(page Page, rec Recommender, opts ...Option) *Handler {
	h := &Handler{
		page:    page,
		rec:     rec,
		log:     logrus.StandardLogger(),
		timeout: DefaultLoadingTimeout,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Click handles one click. It returns once the click has rendered its
// outcome or has been superseded.
func (h *Handler) Click(ctx context.Context) Outcome {
	gen, reqCtx, asin := h.begin(ctx)
	env, err := h.rec.Recommend(reqCtx, asin)
	return h.finish(gen, asin, env, err)
}

// Cancel aborts the click in flight, if any, without touching the page.
func (h *Handler) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.supersede()
}

func (h *Handler) begin(ctx context.Context) (uint64, context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.supersede()
	var (
		reqCtx context.Context
		cancel context.CancelFunc
	)
	if h.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, h.timeout)
	} else {
		reqCtx, cancel = context.WithCancel(ctx)
	}
	h.cancel = cancel

	asin := h.page.ASIN()
	h.page.SetLoading(true)
	h.page.SetResultHTML("")
	h.log.WithField("asin", asin).Debug("ui.click")
	return h.gen, reqCtx, asin
}

// supersede invalidates the click in flight. Callers hold h.mu.
func (h *Handler) supersede() {
	h.gen++
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

func (h *Handler) finish(gen uint64, asin string, env *client.Envelope, err error) Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()

	if gen != h.gen {
		h.log.WithField("asin", asin).Debug("ui.superseded")
		return OutcomeSuperseded
	}
	h.cancel()
	h.cancel = nil

	h.page.SetLoading(false)

	if err != nil {
		h.log.WithError(err).WithField("asin", asin).Error("ui.request_failed")
		h.page.SetResultText(render.FailureMessage)
		return OutcomeTransportError
	}
	if env.IsError() {
		h.page.SetResultText(*env.Error)
		return OutcomeBusinessError
	}

	fragment, err := render.Recommendations(env.Recommendation)
	if err != nil {
		h.log.WithError(err).WithField("asin", asin).Error("ui.render_failed")
		h.page.SetResultText(render.FailureMessage)
		return OutcomeTransportError
	}
	h.page.SetResultHTML(fragment)
	return OutcomeSuccess
}

// Bind subscribes the handler to clicks: every value received starts a
// click without waiting for the previous one. The returned unbind stops the
// subscription, cancels the click in flight and waits for all click
// goroutines to return. It is safe to call more than once.
func (h *Handler) Bind(clicks <-chan struct{}) (unbind func()) {
	stop := make(chan struct{})
	done := make(chan struct{})
	var wg sync.WaitGroup

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case _, ok := <-clicks:
				if !ok {
					return
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					h.Click(context.Background())
				}()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			h.Cancel()
			wg.Wait()
		})
	}
}

