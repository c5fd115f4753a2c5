package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != "127.0.0.1:5000" {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, "127.0.0.1:5000")
	}
	if !cfg.PushEnabled() {
		t.Fatalf("PushEnabled = false, want true")
	}
	if cfg.Push.Path != "/ws" {
		t.Fatalf("Push.Path = %q, want /ws", cfg.Push.Path)
	}
	if got := time.Duration(cfg.Poll.Interval); got != defaultPollInterval {
		t.Fatalf("Poll.Interval = %v, want %v", got, defaultPollInterval)
	}
	if got := time.Duration(cfg.Push.ReconnectDelay); got != defaultReconnectDelay {
		t.Fatalf("Push.ReconnectDelay = %v, want %v", got, defaultReconnectDelay)
	}
	if cfg.Instruments.Primary != "btc" || cfg.Instruments.Secondary != "doge" {
		t.Fatalf("Instruments = %+v, want btc/doge", cfg.Instruments)
	}
	if cfg.Log.Level != "info" || cfg.Metrics.Addr != "" {
		t.Fatalf("Log = %+v Metrics = %+v, want info and disabled metrics", cfg.Log, cfg.Metrics)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api_bind = "  10.0.0.5:9999  "

[push]
enabled = false
path = " /stream "
reconnect_delay = "5s"

[poll]
interval = "10s"

[instruments]
primary = " ETH "
secondary = "shib"

[log]
level = "DEBUG"
file = "  ~/.tickerboard/client.log  "

[metrics]
addr = "127.0.0.1:9100"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != "10.0.0.5:9999" {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, "10.0.0.5:9999")
	}
	if cfg.PushEnabled() {
		t.Fatalf("PushEnabled = true, want false")
	}
	if got := cfg.PushURL(); got != "ws://10.0.0.5:9999/stream" {
		t.Fatalf("PushURL = %q, want %q", got, "ws://10.0.0.5:9999/stream")
	}
	if got := time.Duration(cfg.Push.ReconnectDelay); got != 5*time.Second {
		t.Fatalf("ReconnectDelay = %v, want 5s", got)
	}
	if got := time.Duration(cfg.Poll.Interval); got != 10*time.Second {
		t.Fatalf("Poll.Interval = %v, want 10s", got)
	}
	if cfg.Instruments.Primary != "eth" || cfg.Instruments.Secondary != "shib" {
		t.Fatalf("Instruments = %+v, want eth/shib", cfg.Instruments)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if !strings.HasPrefix(cfg.Log.File, home) {
		t.Fatalf("Log.File = %q, want it under HOME %q", cfg.Log.File, home)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9100" {
		t.Fatalf("Metrics.Addr = %q, want 127.0.0.1:9100", cfg.Metrics.Addr)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
api_bind = "   "

[poll]
interval = ""

[instruments]
primary = ""
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != "127.0.0.1:5000" {
		t.Fatalf("APIBind = %q, want default", cfg.APIBind)
	}
	if got := time.Duration(cfg.Poll.Interval); got != defaultPollInterval {
		t.Fatalf("Poll.Interval = %v, want %v", got, defaultPollInterval)
	}
	if cfg.Instruments.Primary != "btc" {
		t.Fatalf("Instruments.Primary = %q, want btc", cfg.Instruments.Primary)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := writeConfig(t, `api_bind = [`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "duration", body: "[poll]\ninterval = \"soon\"\n", want: "parse config"},
		{name: "log level", body: "[log]\nlevel = \"verbose\"\n", want: "Level"},
		{name: "push path", body: "[push]\npath = \"ws\"\n", want: "Path"},
		{name: "slug", body: "[instruments]\nsecondary = \"do-ge\"\n", want: "Secondary"},
		{name: "metrics addr", body: "[metrics]\naddr = \"nope\"\n", want: "Addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("Load returned nil error, want error mentioning %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestPushURL_Schemes(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{bind: "127.0.0.1:5000", want: "ws://127.0.0.1:5000/ws"},
		{bind: "http://example.com/", want: "ws://example.com/ws"},
		{bind: "https://example.com", want: "wss://example.com/ws"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.APIBind = tt.bind
		if got := cfg.PushURL(); got != tt.want {
			t.Fatalf("PushURL(%q) = %q, want %q", tt.bind, got, tt.want)
		}
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
