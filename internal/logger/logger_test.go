package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

// capture routes output to a buffer and restores defaults afterwards.
func capture(t *testing.T, isVerbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(isVerbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetTimestamps(false)
		SetOutput(os.Stderr)
		now = time.Now
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	if IsVerbose() {
		t.Fatal("expected verbose off")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Fatal("expected verbose on")
	}
}

func TestLevels_Verbose(t *testing.T) {
	buf := capture(t, true)

	Debug("parsed %s", "acme-2023.pdf")
	Info("indexed %d chunks", 12)
	Warn("page %d unreadable", 3)
	Error("store closed")

	want := []string{
		"[DEBUG] parsed acme-2023.pdf",
		"[INFO] indexed 12 chunks",
		"[WARN] page 3 unreadable",
		"[ERROR] store closed",
	}
	got := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLevels_QuietOnlyErrors(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("Hidden")
	Error("shown %d", 1)

	if got := buf.String(); got != "[ERROR] shown 1\n" {
		t.Errorf("output = %q", got)
	}
}

func TestSection(t *testing.T) {
	buf := capture(t, true)

	Section("Ingestion")

	if got := buf.String(); got != "\n=== Ingestion ===\n" {
		t.Errorf("output = %q", got)
	}
}

func TestTimestamps(t *testing.T) {
	buf := capture(t, true)
	now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	SetTimestamps(true)

	Info("rescan")

	if got := buf.String(); got != "2024-05-01T09:30:00Z [INFO] rescan\n" {
		t.Errorf("output = %q", got)
	}
}

func TestTimed(t *testing.T) {
	buf := capture(t, true)
	start := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	calls := 0
	now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * 1500 * time.Millisecond)
	}

	done := Timed("embed chunks")
	done()

	if got := buf.String(); got != "[DEBUG] embed chunks took 1.5s\n" {
		t.Errorf("output = %q", got)
	}
}
