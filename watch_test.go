package main

import (
	"encoding/json"
	"os"
	"testing"
	"time"
)

func writeExternalJournal(t *testing.T, path string, shots []ShotRecord) {
	t.Helper()
	data, err := json.Marshal(journalDocument{Version: journalFormatVersion, Shots: shots})
	if err != nil {
		t.Fatalf("marshal external journal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write external journal: %v", err)
	}
}

func TestHandleJournalFileEventReloadsExternalEdits(t *testing.T) {
	j, store := newTestJournal(t)
	if _, err := j.Append(sampleInput("Kenya AA")); err != nil {
		t.Fatalf("append: %v", err)
	}

	// A save made by this process must not trigger a reload.
	handleJournalFileEvent(store, j)
	if j.Len() != 1 {
		t.Fatalf("self-save caused a reload, journal has %d shots", j.Len())
	}

	writeExternalJournal(t, store.Path(), []ShotRecord{
		{
			ID:         "ext-1",
			CreatedAt:  time.Now().UnixMilli(),
			Bean:       "External",
			DoseGrams:  17,
			YieldGrams: 34,
			TimeSec:    27,
			Machine:    MachineMid,
			Flavor:     FlavorProfile{Sourness: 3, Bitterness: 3, Body: 3, Sweetness: 3, Overall: 3},
		},
	})

	handleJournalFileEvent(store, j)
	got, ok := j.Get("ext-1")
	if !ok {
		t.Fatal("external edit was not picked up")
	}
	if got.Bean != "External" {
		t.Fatalf("unexpected reloaded record: %+v", got)
	}

	// The reload hashed the new content, so a second event is a no-op.
	handleJournalFileEvent(store, j)
	if j.Len() != 1 {
		t.Fatalf("expected a stable journal, got %d shots", j.Len())
	}
}

func TestWatchJournalFilePicksUpExternalWrite(t *testing.T) {
	j, store := newTestJournal(t)
	if _, err := j.Append(sampleInput("Before")); err != nil {
		t.Fatalf("append: %v", err)
	}

	stop, err := WatchJournalFile(store, j)
	if err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	defer stop()

	writeExternalJournal(t, store.Path(), []ShotRecord{
		{
			ID:         "watched-1",
			CreatedAt:  time.Now().UnixMilli(),
			Bean:       "Watched",
			DoseGrams:  19,
			YieldGrams: 40,
			TimeSec:    29,
			Machine:    MachineHigh,
			Flavor:     FlavorProfile{Sourness: 2, Bitterness: 2, Body: 4, Sweetness: 4, Overall: 5},
		},
	})

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := j.Get("watched-1"); ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("watcher did not reload the journal within 3s")
}
