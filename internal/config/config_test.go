package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookrec.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("got err %v; expected nil", err)
		}
		if cfg.API.Port != 5000 || cfg.Recommend.DefaultCount != 5 {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
		if cfg.Client.LoadingTimeout != 30*time.Second {
			t.Errorf("loading timeout = %v; expected 30s", cfg.Client.LoadingTimeout)
		}
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeFile(t, `
api:
  host: 127.0.0.1
  port: 8088
client:
  base_url: http://books.local:8088
  loading_timeout: 5s
recommend:
  algorithm: knn
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("got err %v; expected nil", err)
		}
		if got := cfg.API.Address(); got != "127.0.0.1:8088" {
			t.Errorf("address = %s", got)
		}
		if cfg.Client.LoadingTimeout != 5*time.Second {
			t.Errorf("loading timeout = %v", cfg.Client.LoadingTimeout)
		}
		if cfg.Recommend.Algorithm != "knn" {
			t.Errorf("algorithm = %s", cfg.Recommend.Algorithm)
		}
		if cfg.Recommend.MaxCount != 50 {
			t.Errorf("max count should keep its default, got %d", cfg.Recommend.MaxCount)
		}
	})

	t.Run("environment wins over file", func(t *testing.T) {
		path := writeFile(t, "api:\n  port: 8088\n")
		t.Setenv("BOOKREC_API_PORT", "9099")
		t.Setenv("BOOKREC_CLIENT_BASE_URL", "http://env:9099")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("got err %v; expected nil", err)
		}
		if cfg.API.Port != 9099 {
			t.Errorf("port = %d; expected 9099", cfg.API.Port)
		}
		if cfg.Client.BaseURL != "http://env:9099" {
			t.Errorf("base url = %s", cfg.Client.BaseURL)
		}
	})

	t.Run("invalid algorithm is rejected", func(t *testing.T) {
		path := writeFile(t, "recommend:\n  algorithm: umap\n")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "umap") {
			t.Fatalf("got err %v; expected invalid algorithm", err)
		}
	})

	t.Run("broken yaml", func(t *testing.T) {
		path := writeFile(t, "api: [\n")
		if _, err := Load(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestComponentConfigURL(t *testing.T) {
	c := ComponentConfig{Protocol: "http", Host: "localhost", Port: 5000}
	if got := c.FullURL(); got != "http://localhost:5000" {
		t.Errorf("FullURL = %s", got)
	}
}
