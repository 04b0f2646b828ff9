package statsd

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" session/login ": "session_login",
		"foo..bar":        "foo.bar",
		".navigation.":    "navigation",
		"multi  space":    "multi__space",
		"":                "",
	}

	for input, want := range tests {
		if got := normalizeMetricName(input); got != want {
			t.Fatalf("normalizeMetricName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{
		"env": "prod",
		//nolint:gocritic // whitespace is part of the test case
		" service ": " console ",
	}
	local := map[string]string{
		"result": " success ",
		"":       "ignored",
		"env":    "stage",
	}

	got := formatTags(global, local)
	want := "|#env:stage,result:success,service:console"
	if got != want {
		t.Fatalf("formatTags mismatch\n got: %q\nwant: %q", got, want)
	}

	if got := formatTags(nil, nil); got != "" {
		t.Fatalf("formatTags(nil, nil) = %q, want empty string", got)
	}
}

func TestFormatLine(t *testing.T) {
	t.Parallel()

	got := formatLine("console.session.operation", "1", "c", nil, map[string]string{"op": "login"})
	if want := "console.session.operation:1|c|#op:login"; got != want {
		t.Fatalf("formatLine = %q, want %q", got, want)
	}
	if got := formatLine("", "1", "c", nil, nil); got != "" {
		t.Fatalf("formatLine with empty metric = %q, want empty", got)
	}
}

func TestClientWritesToUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close()

	client, err := NewClient(context.Background(), Config{
		Address:    pc.LocalAddr().String(),
		Prefix:     " helpdesk_console. ",
		GlobalTags: map[string]string{"env": "test"},
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	defer client.Close()

	read := func() string {
		t.Helper()
		buf := make([]byte, 512)
		if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			t.Fatalf("set deadline: %v", err)
		}
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		return string(buf[:n])
	}

	client.Count("session.operation", 1, map[string]string{"result": "success"})
	if got, want := read(), "helpdesk_console.session.operation:1|c|#env:test,result:success"; got != want {
		t.Fatalf("count line = %q, want %q", got, want)
	}

	client.Timing("session.duration", 1500*time.Microsecond, nil)
	if got, want := read(), "helpdesk_console.session.duration:1.5|ms|#env:test"; got != want {
		t.Fatalf("timing line = %q, want %q", got, want)
	}
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	if !client.Enabled() {
		t.Fatal("expected client.Enabled to report true with active connection")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client.Enabled to report false after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close (second call) error: %v", err)
	}

	// Writes after Close are dropped.
	client.Count("ignored", 1, nil)

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	nilClient.Count("ignored", 1, nil)
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}

func TestNewClientErrors(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(context.Background(), Config{Address: "   "}); err == nil {
		t.Fatal("expected error for empty address")
	}

	_, err := NewClient(context.Background(), Config{Address: "bad address"})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}
