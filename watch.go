package main

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// handleJournalFileEvent reloads the journal when the file on disk no
// longer matches what this process last read or wrote. Our own saves
// are recognized by content hash and skipped.
func handleJournalFileEvent(store *FileStore, journal *Journal) {
	changed, err := store.ChangedOnDisk()
	if err != nil {
		log.Printf("journal watcher check failed error=%v", err)
		return
	}
	if !changed {
		return
	}
	if err := journal.Load(); err != nil {
		log.Printf("journal reload failed error=%v", err)
		return
	}
	log.Printf("journal reloaded from disk shots=%d", journal.Len())
}

// WatchJournalFile reloads the journal when the file is edited outside
// this process. The directory is watched rather than the file itself:
// editors that rename-replace would drop a per-file watch. The returned
// stop function releases the watcher.
func WatchJournalFile(store *FileStore, journal *Journal) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	path := filepath.Clean(store.Path())
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != path {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				handleJournalFileEvent(store, journal)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("journal watcher error=%v", err)
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
