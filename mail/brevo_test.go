package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPDispatcherSendsRecoveryCode(t *testing.T) {
	var captured sendRequest
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/smtp/email" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := NewHTTPDispatcher("secret-key", "Eden Map", "noreply@example.com", WithBaseURL(srv.URL))
	if !d.SendRecoveryCode(context.Background(), "alice@example.com", "alice", "4821") {
		t.Fatal("SendRecoveryCode reported failure for accepted request")
	}

	if gotKey != "secret-key" {
		t.Fatalf("api-key header = %q", gotKey)
	}
	if len(captured.To) != 1 || captured.To[0].Email != "alice@example.com" {
		t.Fatalf("recipient mismatch: %+v", captured.To)
	}
	if captured.Sender.Email != "noreply@example.com" {
		t.Fatalf("sender mismatch: %+v", captured.Sender)
	}
	if !strings.Contains(captured.HTMLContent, "4821") {
		t.Fatal("recovery code missing from message body")
	}
	if !strings.Contains(captured.HTMLContent, "15 minutes") {
		t.Fatal("validity window missing from message body")
	}
}

func TestHTTPDispatcherReportsAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := NewHTTPDispatcher("bad-key", "Eden Map", "noreply@example.com", WithBaseURL(srv.URL))
	if d.SendRecoveryCode(context.Background(), "alice@example.com", "alice", "4821") {
		t.Fatal("SendRecoveryCode reported success for rejected request")
	}
}

func TestHTTPDispatcherReportsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	d := NewHTTPDispatcher("key", "Eden Map", "noreply@example.com", WithBaseURL(srv.URL))
	if d.SendRecoveryCode(context.Background(), "alice@example.com", "alice", "4821") {
		t.Fatal("SendRecoveryCode reported success for unreachable server")
	}
}

func TestHTTPDispatcherEscapesLogin(t *testing.T) {
	var captured sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewHTTPDispatcher("key", "Eden Map", "noreply@example.com", WithBaseURL(srv.URL))
	d.SendRecoveryCode(context.Background(), "x@example.com", `<script>alert(1)</script>`, "0000")

	if strings.Contains(captured.HTMLContent, "<script>") {
		t.Fatal("login not escaped in HTML body")
	}
}

func TestNoOpNeverDelivers(t *testing.T) {
	if (NoOp{}).SendRecoveryCode(context.Background(), "a@b.c", "a", "1234") {
		t.Fatal("NoOp reported delivery")
	}
}
