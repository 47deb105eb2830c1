package logger

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, mode := range []string{"", "development", "production"} {
		if _, err := New(mode); err != nil {
			t.Errorf("New(%q): %v", mode, err)
		}
	}
	if _, err := New("verbose"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestDeduper_CollapsesRepeats(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := NewDeduper(zap.New(core))
	d.flushDelay = time.Hour

	d.Infof("cache hit for %s", "pika")
	d.Infof("cache hit for %s", "pika")
	d.Infof("cache hit for %s", "pika")
	d.Infof("cache hit for %s", "mew")
	d.Flush()

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(entries))
	}
	if entries[0].Message != "cache hit for pika" || entries[0].ContextMap()["repeated"] != int64(3) {
		t.Errorf("unexpected first entry: %s %v", entries[0].Message, entries[0].ContextMap())
	}
	if entries[1].Message != "cache hit for mew" || len(entries[1].Context) != 0 {
		t.Errorf("unexpected second entry: %s %v", entries[1].Message, entries[1].ContextMap())
	}
}

func TestDeduper_FlushesAfterDelay(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := NewDeduper(zap.New(core))
	d.flushDelay = 10 * time.Millisecond

	d.Infof("once")

	deadline := time.Now().Add(2 * time.Second)
	for logs.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("message was never flushed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if logs.All()[0].Message != "once" {
		t.Errorf("unexpected message %q", logs.All()[0].Message)
	}
}
