package service_test

import (
	"sync"
	"testing"

	"github.com/unclebandit/customer-sync/internal/model"
	"github.com/unclebandit/customer-sync/internal/service"
)

func TestWorkerRecordsEvents(t *testing.T) {
	store := service.NewMemorySyncEventStore()

	jobChan := make(chan model.SyncEvent, 4)
	jobChan <- model.SyncEvent{ID: 1, Session: "s1", Outcome: "success", Page: 1, Received: 3, Dropped: 1, Written: 2}
	jobChan <- model.SyncEvent{ID: 2, Session: "s1", Outcome: "fallback", Page: 2, Error: "offline"}
	jobChan <- model.SyncEvent{ID: 1, Session: "s1", Outcome: "success", Page: 1, Received: 3, Dropped: 1, Written: 2} // redelivered
	jobChan <- model.SyncEvent{ID: 3, Session: "s1", Outcome: "canceled", Page: 3, Error: "context canceled"}
	close(jobChan)

	var mu sync.Mutex
	var alerts []model.SyncEvent

	worker := service.NewWorker(store, jobChan, func(evt model.SyncEvent) {
		mu.Lock()
		alerts = append(alerts, evt)
		mu.Unlock()
	})
	worker.Start()

	stats, ok := store.Stats("s1")
	if !ok {
		t.Fatal("expected stats for session s1")
	}
	if stats.Events != 3 {
		t.Errorf("expected 3 events, got %d", stats.Events)
	}
	if stats.Outcomes["success"] != 1 || stats.Outcomes["fallback"] != 1 {
		t.Errorf("unexpected outcomes %v", stats.Outcomes)
	}
	if stats.Received != 3 || stats.Dropped != 1 || stats.Written != 2 {
		t.Errorf("unexpected totals %+v", stats)
	}
	if stats.Last.ID != 3 {
		t.Errorf("expected last event 3, got %d", stats.Last.ID)
	}
	if len(alerts) != 1 || alerts[0].ID != 2 {
		t.Errorf("expected one alert for the fallback, got %v", alerts)
	}
}

func TestStatsUnknownSession(t *testing.T) {
	store := service.NewMemorySyncEventStore()
	if _, ok := store.Stats("missing"); ok {
		t.Error("expected no stats for an unknown session")
	}
}
