package config

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	Addr   string // API bind address, e.g., "127.0.0.1:8080" (local) or ":8080" (Docker)
	LogDir string // logs directory

	// Vendor API
	VendorBaseURL string
	VendorHeaders http.Header // opaque header bag from VENDOR_HEADERS
	AuthToken     string
	ClientID      string
	CRMID         string

	// Outbound alerts
	DiscordWebhooks []string

	// Polling
	PollInterval   time.Duration
	RequestTimeout time.Duration
	CheckoutWindow time.Duration // vendor-side cart reservation window

	// Vendor request pacing
	VendorRatePerSec float64
	VendorBurst      int

	// HTTP API protection
	PublicAPIKeys []string
	AdminAPIKeys  []string
	APIRatePerMin int
	APIBurst      int
}

func FromEnv() Config {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	cfg := Config{
		Addr:             addr,
		LogDir:           logDir,
		VendorBaseURL:    strings.TrimRight(os.Getenv("VENDOR_BASE_URL"), "/"),
		VendorHeaders:    ParseHeaderBag(os.Getenv("VENDOR_HEADERS")),
		AuthToken:        os.Getenv("VENDOR_AUTH_TOKEN"),
		ClientID:         os.Getenv("VENDOR_CLIENT_ID"),
		CRMID:            os.Getenv("VENDOR_CRM_ID"),
		DiscordWebhooks:  splitList(os.Getenv("DISCORD_WEBHOOK_URLS")),
		PollInterval:     durationEnv("POLL_INTERVAL_SEC", time.Second, 30*time.Second),
		RequestTimeout:   durationEnv("REQUEST_TIMEOUT_SEC", time.Second, 15*time.Second),
		CheckoutWindow:   durationEnv("CHECKOUT_WINDOW_MIN", time.Minute, 30*time.Minute),
		VendorRatePerSec: floatEnv("VENDOR_RATE_PER_SEC", 2.0),
		VendorBurst:      intEnv("VENDOR_RATE_BURST", 3),
		PublicAPIKeys:    splitList(os.Getenv("PUBLIC_API_KEYS")),
		AdminAPIKeys:     splitList(os.Getenv("ADMIN_API_KEYS")),
		APIRatePerMin:    intEnv("API_RATE_PER_MIN", 120),
		APIBurst:         intEnv("API_RATE_BURST", 60),
	}
	return cfg
}

// Validate reports everything that would keep the daemon from doing useful
// work, aggregated so the operator fixes the whole .env in one go.
func (c Config) Validate() error {
	var err error
	if c.VendorBaseURL == "" {
		err = multierr.Append(err, fmt.Errorf("VENDOR_BASE_URL is required"))
	} else if u, perr := url.Parse(c.VendorBaseURL); perr != nil || u.Scheme == "" || u.Host == "" {
		err = multierr.Append(err, fmt.Errorf("VENDOR_BASE_URL %q is not an absolute URL", c.VendorBaseURL))
	}
	if len(c.DiscordWebhooks) == 0 {
		err = multierr.Append(err, fmt.Errorf("DISCORD_WEBHOOK_URLS is required"))
	}
	for _, w := range c.DiscordWebhooks {
		if _, perr := url.ParseRequestURI(w); perr != nil {
			err = multierr.Append(err, fmt.Errorf("webhook %q is not a valid URL", w))
		}
	}
	if c.PollInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("POLL_INTERVAL_SEC must be positive"))
	}
	return err
}

// ParseHeaderBag turns an environment string of "Name: Value" pairs into an
// http.Header. Pairs are separated by real newlines or the literal two-byte
// sequence \n, so the bag can be pasted into a single-line .env entry.
// Malformed pairs are dropped.
func ParseHeaderBag(s string) http.Header {
	h := http.Header{}
	s = strings.ReplaceAll(s, `\n`, "\n")
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			continue
		}
		h.Set(name, value)
	}
	return h
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intEnv(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func floatEnv(name string, def float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

func durationEnv(name string, unit, def time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * unit
		}
	}
	return def
}
