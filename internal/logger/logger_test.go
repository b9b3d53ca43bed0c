package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestForCarriesRequestID(t *testing.T) {
	ctx := ContextWithID(context.Background(), "req-42")

	if got := IDFrom(ctx); got != "req-42" {
		t.Fatalf("IDFrom = %q; expected req-42", got)
	}
	if got := For(ctx).Data["request_id"]; got != "req-42" {
		t.Errorf("entry request_id = %v; expected req-42", got)
	}
	if _, ok := For(context.Background()).Data["request_id"]; ok {
		t.Error("entry without id should not carry request_id")
	}
}

func TestTrackLogsCompletion(t *testing.T) {
	var buf bytes.Buffer
	std := logrus.StandardLogger()
	prevOut, prevFmt := std.Out, std.Formatter
	std.SetOutput(&buf)
	std.SetFormatter(&logrus.TextFormatter{DisableColors: true})
	t.Cleanup(func() {
		std.SetOutput(prevOut)
		std.SetFormatter(prevFmt)
	})

	done := Track(ContextWithID(context.Background(), "abc"), "catalog load")
	done()

	out := buf.String()
	if !strings.Contains(out, "catalog load completed") {
		t.Errorf("missing completion message in %q", out)
	}
	if !strings.Contains(out, "request_id=abc") {
		t.Errorf("missing request id in %q", out)
	}
}

func TestSetupFallsBackToInfo(t *testing.T) {
	l := Setup("chatty", false)
	t.Cleanup(func() { l.SetLevel(logrus.InfoLevel) })
	if l.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v; expected info", l.GetLevel())
	}
	Setup("debug", false)
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v; expected debug", l.GetLevel())
	}
}
