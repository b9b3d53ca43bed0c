package ui

import (
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"bookrec/internal/render"
)

// TerminalPage is a Page drawn on a terminal: the input is the last line
// typed at the prompt, the loading indicator is a spinner and results are
// printed as plain text.
type TerminalPage struct {
	out io.Writer

	mu   sync.Mutex
	asin string

	spinner *progressbar.ProgressBar
	stop    chan struct{}
	done    chan struct{}
}

func NewTerminalPage(out io.Writer) *TerminalPage {
	return &TerminalPage{out: out}
}

// SetInput stores the value typed by the user.
func (p *TerminalPage) SetInput(asin string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asin = asin
}

func (p *TerminalPage) ASIN() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.asin
}

func (p *TerminalPage) SetLoading(visible bool) {
	if visible {
		p.startSpinner()
		return
	}
	p.stopSpinner()
}

// SetResultHTML prints fragment as text. Clearing is a no-op: terminal
// output cannot be taken back.
func (p *TerminalPage) SetResultHTML(fragment template.HTML) {
	if fragment == "" {
		return
	}
	fmt.Fprintln(p.out, render.Text(fragment))
}

func (p *TerminalPage) SetResultText(text string) {
	fmt.Fprintln(p.out, text)
}

func (p *TerminalPage) startSpinner() {
	if p.spinner != nil {
		return
	}
	p.spinner = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("loading recommendations"),
		progressbar.OptionClearOnFinish(),
	)
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	go func(bar *progressbar.ProgressBar, stop, done chan struct{}) {
		defer close(done)
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				_ = bar.Add(1)
			}
		}
	}(p.spinner, p.stop, p.done)
}

func (p *TerminalPage) stopSpinner() {
	if p.spinner == nil {
		return
	}
	close(p.stop)
	<-p.done
	_ = p.spinner.Finish()
	p.spinner = nil
}
