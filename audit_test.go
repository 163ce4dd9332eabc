package authcore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// collectEvents drains the sink until the wanted count arrives or the
// deadline passes. The dispatcher is async, so events trail the call.
func collectEvents(t *testing.T, sink *ChannelSink, want int) []AuditEvent {
	t.Helper()

	var events []AuditEvent
	deadline := time.After(2 * time.Second)
	for len(events) < want {
		select {
		case event := <-sink.Events():
			events = append(events, event)
		case <-deadline:
			t.Fatalf("timed out waiting for audit events: got %d, want %d", len(events), want)
		}
	}
	return events
}

func findEvent(events []AuditEvent, eventType string) (AuditEvent, bool) {
	for _, e := range events {
		if e.EventType == eventType {
			return e, true
		}
	}
	return AuditEvent{}, false
}

func TestEngineEmitsAuditEvents(t *testing.T) {
	ctx := WithClientIP(context.Background(), "203.0.113.9")
	clock := newFakeClock(testEpoch)
	store := newMockStore()
	sink := NewChannelSink(16)
	e := newTestEngine(t, testConfig(clock), store, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	seedAccount(t, e, store, 7, "alice", "alice@example.com", "Sup3r$ecret", PlanMonthly, nil)

	if _, err := e.Login(ctx, "alice", "Sup3r$ecret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := e.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login error = %v", err)
	}

	events := collectEvents(t, sink, 2)

	success, ok := findEvent(events, "login_success")
	if !ok {
		t.Fatalf("no login_success event in %+v", events)
	}
	if success.UserID != 7 || !success.Success || success.Error != "" {
		t.Fatalf("login_success event malformed: %+v", success)
	}
	if success.IP != "203.0.113.9" {
		t.Fatalf("event IP = %q", success.IP)
	}
	if success.EventID == "" {
		t.Fatal("event id missing")
	}
	if !success.Timestamp.Equal(testEpoch) {
		t.Fatalf("event timestamp = %v", success.Timestamp)
	}

	failure, ok := findEvent(events, "login_failure")
	if !ok {
		t.Fatalf("no login_failure event in %+v", events)
	}
	if failure.Success || failure.Error != "invalid_credentials" {
		t.Fatalf("login_failure event malformed: %+v", failure)
	}
}

func TestRecoveryAuditTrail(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(testEpoch)
	store := newMockStore()
	sink := NewChannelSink(16)
	cfg := testConfig(clock)
	cfg.Recovery.AllowPlaintextFallback = true
	e := newTestEngine(t, cfg, store, func(b *Builder) {
		b.WithAuditSink(sink).
			WithMailDispatcher(&recordingMail{deliver: false}).
			WithCodeSource(&fixedCodes{queue: []string{"4821"}})
	})
	seedAccount(t, e, store, 7, "alice", "alice@example.com", "Sup3r$ecret", PlanMonthly, nil)

	if _, err := e.RequestCode(ctx, "alice"); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}

	events := collectEvents(t, sink, 2)

	fallback, ok := findEvent(events, "recovery_plaintext_fallback")
	if !ok {
		t.Fatalf("no fallback event in %+v", events)
	}
	if fallback.Metadata["reason"] != "delivery_unavailable" {
		t.Fatalf("fallback metadata = %+v", fallback.Metadata)
	}

	request, ok := findEvent(events, "recovery_request")
	if !ok {
		t.Fatalf("no request event in %+v", events)
	}
	if request.Metadata["delivered"] != "false" {
		t.Fatalf("request metadata = %+v", request.Metadata)
	}
	// The plaintext code must never reach the audit stream.
	for _, event := range events {
		for k, v := range event.Metadata {
			if v == "4821" {
				t.Fatalf("code leaked into audit metadata %q of %+v", k, event)
			}
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{release: block}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the worker, second fills the buffer, the
	// rest are dropped.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "x"})
	}
	if d.Dropped() == 0 {
		t.Fatal("no events dropped with a full buffer")
	}

	close(block)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		EventID:   "evt-1",
		EventType: "login_success",
		UserID:    7,
		Success:   true,
	})
	sink.Emit(context.Background(), AuditEvent{
		EventID:   "evt-2",
		EventType: "login_failure",
		Error:     "invalid_credentials",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("line count = %d", len(lines))
	}

	var decoded AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.EventID != "evt-1" || decoded.EventType != "login_success" || decoded.UserID != 7 {
		t.Fatalf("decoded event mismatch: %+v", decoded)
	}
}
