package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Persistence is where the journal blob lives. The journal is written
// whole on every mutation and read whole once at startup, so both
// implementations stay trivial: one JSON document in a file, or the
// same document in a single sqlite row.
type Persistence interface {
	Load() ([]ShotRecord, error)
	Save(shots []ShotRecord) error
}

// Journal holds the in-memory shot list, newest first, and writes it
// through a Persistence on every change. A mutation is applied only
// after the save succeeds, so the in-memory list never runs ahead of
// disk.
type Journal struct {
	mu    sync.Mutex
	port  Persistence
	now   func() time.Time
	shots []ShotRecord
}

func NewJournal(port Persistence) *Journal {
	return &Journal{port: port, now: time.Now}
}

// Load replaces the in-memory list with whatever the port holds.
// Called once at startup and again by the file watcher.
func (j *Journal) Load() error {
	shots, err := j.port.Load()
	if err != nil {
		return fmt.Errorf("load journal: %w", err)
	}
	j.mu.Lock()
	j.shots = shots
	j.mu.Unlock()
	return nil
}

// Append assigns identity to a submission and prepends the finished
// record. The id and timestamp are assigned here, in one step, so a
// record never exists half-built.
func (j *Journal) Append(input ShotInput) (ShotRecord, error) {
	rec := ShotRecord{
		ID:         uuid.NewString(),
		CreatedAt:  j.now().UnixMilli(),
		Bean:       input.Bean,
		DoseGrams:  input.DoseGrams,
		YieldGrams: input.YieldGrams,
		TimeSec:    input.TimeSec,
		Machine:    input.Machine,
		Grind:      input.Grind,
		Notes:      input.Notes,
		Flavor:     input.Flavor,
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	next := make([]ShotRecord, 0, len(j.shots)+1)
	next = append(next, rec)
	next = append(next, j.shots...)
	if err := j.port.Save(next); err != nil {
		return ShotRecord{}, fmt.Errorf("save journal: %w", err)
	}
	j.shots = next
	return rec, nil
}

// Remove deletes the shot with the given id. Unknown ids are a no-op
// reported through the bool.
func (j *Journal) Remove(id string) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	idx := -1
	for i, s := range j.shots {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	next := make([]ShotRecord, 0, len(j.shots)-1)
	next = append(next, j.shots[:idx]...)
	next = append(next, j.shots[idx+1:]...)
	if err := j.port.Save(next); err != nil {
		return false, fmt.Errorf("save journal: %w", err)
	}
	j.shots = next
	return true, nil
}

// All returns a copy of the journal, newest first.
func (j *Journal) All() []ShotRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]ShotRecord, len(j.shots))
	copy(out, j.shots)
	return out
}

// Get finds a shot by id.
func (j *Journal) Get(id string) (ShotRecord, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, s := range j.shots {
		if s.ID == id {
			return s, true
		}
	}
	return ShotRecord{}, false
}

// Len reports the number of recorded shots.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.shots)
}
