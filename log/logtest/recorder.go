/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"sync"
	"time"

	"github.com/ssgreg/logf"

	"github.com/pdffacil/pdfgate/log"
)

// RecordedEntry is a logged message with all its fields, including the ones bound by With.
type RecordedEntry struct {
	LoggerName string
	Fields     []log.Field
	Level      log.Level
	Time       time.Time
	Text       string
}

// FindField returns the first field with the given key.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	for i := range re.Fields {
		if re.Fields[i].Key == key {
			field := re.Fields[i]
			return &field, true
		}
	}
	return nil, false
}

var levels = map[logf.Level]log.Level{
	logf.LevelError: log.LevelError,
	logf.LevelWarn:  log.LevelWarn,
	logf.LevelInfo:  log.LevelInfo,
	logf.LevelDebug: log.LevelDebug,
}

type entryStore struct {
	mu      sync.RWMutex
	entries []RecordedEntry
}

//nolint:gocritic
func (s *entryStore) WriteEntry(e logf.Entry) {
	fields := make([]log.Field, 0, len(e.Fields)+len(e.DerivedFields))
	fields = append(append(fields, e.Fields...), e.DerivedFields...)
	s.mu.Lock()
	s.entries = append(s.entries, RecordedEntry{
		LoggerName: e.LoggerName,
		Fields:     fields,
		Level:      levels[e.Level],
		Time:       e.Time,
		Text:       e.Text,
	})
	s.mu.Unlock()
}

// Recorder is a log.FieldLogger recording every entry at debug level and above.
// Loggers derived from it by With or WithLevel write into the same record.
type Recorder struct {
	*log.LogfAdapter
	store *entryStore
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	store := &entryStore{}
	return &Recorder{LogfAdapter: &log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, store)}, store: store}
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []RecordedEntry {
	return r.FindAllEntriesByFilter(func(RecordedEntry) bool { return true })
}

// FindEntry returns the first entry with the given message.
func (r *Recorder) FindEntry(msg string) (RecordedEntry, bool) {
	return r.FindEntryByFilter(func(entry RecordedEntry) bool { return entry.Text == msg })
}

// FindEntryByFilter returns the first entry matching filter.
func (r *Recorder) FindEntryByFilter(filter func(entry RecordedEntry) bool) (RecordedEntry, bool) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, entry := range r.store.entries {
		if filter(entry) {
			return entry, true
		}
	}
	return RecordedEntry{}, false
}

// FindAllEntriesByFilter returns all entries matching filter.
func (r *Recorder) FindAllEntriesByFilter(filter func(entry RecordedEntry) bool) []RecordedEntry {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var found []RecordedEntry
	for _, entry := range r.store.entries {
		if filter(entry) {
			found = append(found, entry)
		}
	}
	return found
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.store.mu.Lock()
	r.store.entries = nil
	r.store.mu.Unlock()
}
