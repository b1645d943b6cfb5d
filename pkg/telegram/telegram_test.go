package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// go test -v --run TestClientDeliver
func TestClientDeliver(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	n := New(Options{BotToken: "123:abc", ChatID: "42", BaseURL: srv.URL, Timeout: time.Second}, zap.NewNop())
	if _, ok := n.(*Client); !ok {
		t.Fatalf("expected bot client, got %T", n)
	}

	if err := n.Deliver(context.Background(), "🔔 EURUSD"); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotBody.ChatID != "42" || gotBody.Text != "🔔 EURUSD" {
		t.Errorf("unexpected payload %+v", gotBody)
	}
}

// go test -v --run TestClientDeliverNon2xx
func TestClientDeliverNon2xx(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BotToken: "t", ChatID: "c", BaseURL: srv.URL, Timeout: time.Second})
	if err := c.Deliver(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on 400")
	}
	if calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", calls)
	}
}

// go test -v --run TestConsoleFallback
func TestConsoleFallback(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := New(Options{BotToken: "", ChatID: "42"}, zap.New(core))

	if _, ok := n.(*ConsoleSink); !ok {
		t.Fatalf("expected console sink, got %T", n)
	}
	if err := n.Deliver(context.Background(), "🔔 GBPUSD"); err != nil {
		t.Fatalf("console sink must succeed: %v", err)
	}

	entries := logs.FilterMessage("alert").All()
	if len(entries) != 1 {
		t.Fatalf("expected one alert log line, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["message"]; got != "🔔 GBPUSD" {
		t.Errorf("logged message = %v", got)
	}
}
