package service

import (
	"log"
	"sync"

	"github.com/unclebandit/customer-sync/internal/model"
)

// SyncEventStore defines the methods the worker needs
type SyncEventStore interface {
	Record(evt model.SyncEvent) error
}

// Worker consumes published sync events
type Worker struct {
	Store   SyncEventStore
	JobChan <-chan model.SyncEvent
	Alert   func(evt model.SyncEvent)
}

// Constructor
func NewWorker(store SyncEventStore, jobChan <-chan model.SyncEvent, alert func(evt model.SyncEvent)) *Worker {
	return &Worker{
		Store:   store,
		JobChan: jobChan,
		Alert:   alert,
	}
}

// Start processes events until the channel is closed
func (w *Worker) Start() {
	for evt := range w.JobChan {
		if evt.Outcome == string(OutcomeFallback) || (evt.Error != "" && evt.Outcome != string(OutcomeCanceled)) {
			if w.Alert != nil {
				w.Alert(evt)
			}
		}

		if err := w.Store.Record(evt); err != nil {
			log.Println("Failed to record sync event:", err)
		}
	}
}

// SessionStats summarises the events seen from one sync manager.
type SessionStats struct {
	Events   int
	Outcomes map[string]int
	Received int
	Dropped  int
	Written  int
	Last     model.SyncEvent
}

// MemorySyncEventStore aggregates events per session.
type MemorySyncEventStore struct {
	mu       sync.Mutex
	sessions map[string]*SessionStats
	seen     map[int64]bool
}

func NewMemorySyncEventStore() *MemorySyncEventStore {
	return &MemorySyncEventStore{
		sessions: map[string]*SessionStats{},
		seen:     map[int64]bool{},
	}
}

// Record is idempotent on the event id, since the broker may redeliver.
func (s *MemorySyncEventStore) Record(evt model.SyncEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen[evt.ID] {
		return nil
	}
	s.seen[evt.ID] = true

	stats, ok := s.sessions[evt.Session]
	if !ok {
		stats = &SessionStats{Outcomes: map[string]int{}}
		s.sessions[evt.Session] = stats
	}

	stats.Events++
	stats.Outcomes[evt.Outcome]++
	stats.Received += evt.Received
	stats.Dropped += evt.Dropped
	stats.Written += evt.Written
	stats.Last = evt
	return nil
}

// Stats returns a copy of the stats for a session.
func (s *MemorySyncEventStore) Stats(session string) (SessionStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, ok := s.sessions[session]
	if !ok {
		return SessionStats{}, false
	}

	out := *stats
	out.Outcomes = make(map[string]int, len(stats.Outcomes))
	for k, v := range stats.Outcomes {
		out.Outcomes[k] = v
	}
	return out, true
}
