package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"bookrec/internal/client"
	"bookrec/internal/config"
	"bookrec/internal/logger"
	"bookrec/internal/ui"
)

const historyFile = ".bookrec_history"

func main() {
	cfg := config.Get()
	apiURL := flag.String("api", cfg.Client.BaseURL, "recommendation API base URL")
	loading := flag.Duration("loading-timeout", cfg.Client.LoadingTimeout, "give up waiting after this long (0 waits forever)")
	flag.Parse()

	log := logger.Setup(cfg.Log.Level, cfg.Log.JSON)
	log.SetOutput(os.Stderr)

	c := client.New(*apiURL,
		client.WithHTTPClient(client.NewHTTPClient(cfg.Client.HTTPTimeout)),
		client.WithLogger(log),
	)
	page := ui.NewTerminalPage(os.Stdout)
	h := ui.NewHandler(page, c, ui.WithLoadingTimeout(*loading), ui.WithLogger(log))

	if flag.NArg() > 0 {
		page.SetInput(strings.Join(flag.Args(), " "))
		click(h, page)
		return
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	history := filepath.Join(os.TempDir(), historyFile)
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, historyFile)
	}
	if f, err := os.Open(history); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(history); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("Book recommendations from %s\nEnter an ASIN, or \"exit\" to quit.\n", c.BaseURL())
	for {
		input, err := line.Prompt("asin> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.WithError(err).Error("shell.prompt")
			return
		}
		input = strings.TrimSpace(input)
		if input == "exit" || input == "quit" {
			return
		}
		if input != "" {
			line.AppendHistory(input)
		}
		page.SetInput(input)
		click(h, page)
	}
}

// click runs one click; Ctrl-C while it is pending cancels it.
func click(h *ui.Handler, page *ui.TerminalPage) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sig:
			h.Cancel()
		case <-done:
		}
	}()

	if h.Click(context.Background()) == ui.OutcomeSuperseded {
		page.SetLoading(false)
		fmt.Println("cancelled")
	}
}
