// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	base := strings.TrimSpace(os.Getenv("VENDOR_BASE_URL"))
	webhooks := strings.TrimSpace(os.Getenv("DISCORD_WEBHOOK_URLS"))
	token := strings.TrimSpace(os.Getenv("VENDOR_AUTH_TOKEN"))
	headers := strings.TrimSpace(os.Getenv("VENDOR_HEADERS"))
	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	addr := strings.TrimSpace(os.Getenv("ADDR"))

	if base == "" {
		fail("VENDOR_BASE_URL is empty (nothing to poll).")
	}
	ok("VENDOR_BASE_URL=" + base)

	if webhooks == "" {
		fail("DISCORD_WEBHOOK_URLS is empty (alerts would go nowhere).")
	}
	ok(fmt.Sprintf("DISCORD_WEBHOOK_URLS present (%d sink(s))", len(strings.Split(webhooks, ","))))

	if token == "" && headers == "" {
		warn("No VENDOR_AUTH_TOKEN or VENDOR_HEADERS — the vendor will answer 401 until credentials are set via PUT /api/credentials.")
	} else {
		ok("vendor credentials present")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}
	if admin == "" {
		warn("ADMIN_API_KEYS empty — registration routes are open (dev mode).")
	}
	if pub == "" {
		warn("PUBLIC_API_KEYS empty — read routes are open (dev mode).")
	}

	if addr == "" {
		warn("ADDR is empty; default in your app may be used.")
	} else {
		ok("ADDR=" + addr)
	}

	ok("preflight passed")
}
