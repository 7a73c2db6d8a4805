package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestFromEnv_ParsesAndDefaults(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("LOG_DIR", "./_testlogs")
	t.Setenv("VENDOR_BASE_URL", "https://api.vendor.example/")
	t.Setenv("VENDOR_AUTH_TOKEN", "tok_123")
	t.Setenv("DISCORD_WEBHOOK_URLS", "https://discord.com/api/webhooks/1/a, https://discord.com/api/webhooks/2/b")
	t.Setenv("POLL_INTERVAL_SEC", "10")
	t.Setenv("CHECKOUT_WINDOW_MIN", "20")
	t.Setenv("PUBLIC_API_KEYS", "pub_a,pub_b")
	t.Setenv("ADMIN_API_KEYS", "adm_x")

	cfg := FromEnv()

	if cfg.Addr != ":9090" || cfg.LogDir != "./_testlogs" {
		t.Fatalf("addr/logdir wrong: %+v", cfg)
	}
	if cfg.VendorBaseURL != "https://api.vendor.example" {
		t.Fatalf("base url not trimmed: %q", cfg.VendorBaseURL)
	}
	if len(cfg.DiscordWebhooks) != 2 || cfg.DiscordWebhooks[1] != "https://discord.com/api/webhooks/2/b" {
		t.Fatalf("webhooks wrong: %+v", cfg.DiscordWebhooks)
	}
	if cfg.PollInterval != 10*time.Second || cfg.CheckoutWindow != 20*time.Minute {
		t.Fatalf("durations wrong: %+v", cfg)
	}
	if len(cfg.PublicAPIKeys) != 2 || cfg.PublicAPIKeys[0] != "pub_a" {
		t.Fatalf("public keys wrong: %+v", cfg.PublicAPIKeys)
	}
	if len(cfg.AdminAPIKeys) != 1 || cfg.AdminAPIKeys[0] != "adm_x" {
		t.Fatalf("admin keys wrong: %+v", cfg.AdminAPIKeys)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	// ensure defaults don’t crash if missing env
	os.Unsetenv("ADDR")
	_ = FromEnv()
}

func TestValidate_AggregatesProblems(t *testing.T) {
	cfg := Config{PollInterval: 0}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for empty config")
	}
	msg := err.Error()
	for _, want := range []string{"VENDOR_BASE_URL", "DISCORD_WEBHOOK_URLS", "POLL_INTERVAL_SEC"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing %q", msg, want)
		}
	}
}

func TestParseHeaderBag(t *testing.T) {
	h := ParseHeaderBag(`X-Device: mobile\nX-App-Version: 7.12.1\n\nbroken-line`)
	if h.Get("X-Device") != "mobile" {
		t.Fatalf("X-Device wrong: %q", h.Get("X-Device"))
	}
	if h.Get("X-App-Version") != "7.12.1" {
		t.Fatalf("X-App-Version wrong: %q", h.Get("X-App-Version"))
	}
	if len(h) != 2 {
		t.Fatalf("expected malformed lines dropped, got %v", h)
	}
}
