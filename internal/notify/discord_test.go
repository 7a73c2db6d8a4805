package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscord_OK(t *testing.T) {
	var got Payload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	d := NewDiscord(ts.URL)
	if d == nil {
		t.Fatal("expected discord client")
	}
	err := d.Send(context.Background(), Payload{Embeds: []Embed{{Title: "Hello"}}})
	if err != nil {
		t.Fatalf("send err: %v", err)
	}
	if len(got.Embeds) != 1 || got.Embeds[0].Title != "Hello" {
		t.Fatalf("payload not as expected: %+v", got)
	}
}

func TestDiscord_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	d := NewDiscord(ts.URL)
	if err := d.Send(context.Background(), Payload{Content: "x"}); err == nil {
		t.Fatalf("expected error on non-2xx")
	}
}

func TestNewDiscord_EmptyURLDisabled(t *testing.T) {
	if d := NewDiscord(""); d != nil {
		t.Fatalf("expected nil for empty webhook")
	}
}
