package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSlackNotifier_EmptyDigest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	if err := NewSlackNotifier(srv.URL).Notify(context.Background(), Digest{ProjectID: "P100"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no HTTP request for an empty digest")
	}
}

func TestSlackNotifier_GroupsBySeverity(t *testing.T) {
	var body []byte
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	at := time.Date(2025, 6, 10, 10, 30, 0, 0, time.UTC)
	d := Digest{
		ProjectID:   "P100",
		ProjectName: "Plant Upgrade",
		Alerts: []Alert{
			{ID: "date-substitutions", Severity: SeverityLow, Message: "1 unparseable date substituted", TriggeredAt: at},
			{ID: "repeated-delay-T-1", Severity: SeverityHigh, Message: "task T-1 delayed 3 times in 7 days", TriggeredAt: at},
			{ID: "repeated-delay-T-2", Severity: SeverityHigh, Message: "task T-2 delayed 2 times in 7 days", TriggeredAt: at},
		},
	}
	if err := NewSlackNotifier(srv.URL).Notify(context.Background(), d); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("Content-Type = %s", contentType)
	}
	var msg slackMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("unmarshaling request body: %v", err)
	}
	if msg.Text != "Plant Upgrade: 3 schedule alert(s)" {
		t.Errorf("fallback text = %q", msg.Text)
	}

	wantTypes := []string{"header", "section", "divider", "section", "context"}
	if len(msg.Blocks) != len(wantTypes) {
		t.Fatalf("got %d blocks, want %d: %+v", len(msg.Blocks), len(wantTypes), msg.Blocks)
	}
	for i, want := range wantTypes {
		if msg.Blocks[i].Type != want {
			t.Errorf("block %d type = %s, want %s", i, msg.Blocks[i].Type, want)
		}
	}

	high := msg.Blocks[1].Text.Text
	if !strings.HasPrefix(high, "\U0001f534 *HIGH*") || !strings.Contains(high, "T-1") || !strings.Contains(high, "T-2") {
		t.Errorf("high section = %q", high)
	}
	low := msg.Blocks[3].Text.Text
	if !strings.Contains(low, "*LOW*") || !strings.Contains(low, "2025-06-10 10:30 UTC") {
		t.Errorf("low section = %q", low)
	}
	if got := msg.Blocks[4].Elements[0].Text; !strings.Contains(got, "P100") {
		t.Errorf("context = %q", got)
	}
}

func TestSlackNotifier_HeaderFallsBackToProjectID(t *testing.T) {
	msg := buildSlackMessage(Digest{ProjectID: "P7", Alerts: []Alert{{Severity: SeverityMedium, Message: "m"}}})
	if msg.Blocks[0].Text.Text != "P7: 1 schedule alert(s)" {
		t.Errorf("header = %q", msg.Blocks[0].Text.Text)
	}

	msg = buildSlackMessage(Digest{Alerts: []Alert{{Severity: SeverityMedium, Message: "m"}}})
	if msg.Blocks[0].Text.Text != "1 schedule alert(s)" {
		t.Errorf("header = %q", msg.Blocks[0].Text.Text)
	}
	if last := msg.Blocks[len(msg.Blocks)-1]; last.Type == "context" {
		t.Error("context block without a project id")
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := Digest{Alerts: []Alert{{ID: "x", Severity: SeverityMedium, Message: "m", TriggeredAt: time.Now().UTC()}}}
	err := NewSlackNotifier(srv.URL).Notify(context.Background(), d)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status 500 error, got %v", err)
	}
}

func TestSlackNotifier_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := Digest{Alerts: []Alert{{Severity: SeverityLow, Message: "m"}}}
	if err := NewSlackNotifier(srv.URL).Notify(ctx, d); err == nil {
		t.Error("expected error for cancelled context")
	}
}
