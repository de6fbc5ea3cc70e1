package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/customer-sync/internal/config"
	"github.com/unclebandit/customer-sync/internal/model"
	"github.com/unclebandit/customer-sync/internal/queue"
	"github.com/unclebandit/customer-sync/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required for the sync event worker")
	}

	// Connect to RabbitMQ
	q, err := queue.NewAMQPQueue(cfg.AMQPURL)
	if err != nil {
		log.Fatal(err)
	}
	defer q.Close()

	jobChan := make(chan model.SyncEvent, 64)
	store := service.NewMemorySyncEventStore()
	worker := service.NewWorker(store, jobChan, alertEvent)

	err = q.Subscribe(cfg.EventsTopic, func(payload any) error {
		evt, err := decodeEvent(payload)
		if err != nil {
			// a malformed body will not get better on redelivery
			log.Println("Invalid sync event:", err)
			return nil
		}
		jobChan <- evt
		return nil
	})
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	go worker.Start()

	log.Println("Worker running, waiting for sync events on", cfg.EventsTopic)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}

// decodeEvent accepts both the raw AMQP body and an in-process SyncEvent.
func decodeEvent(payload any) (model.SyncEvent, error) {
	switch p := payload.(type) {
	case model.SyncEvent:
		return p, nil
	case json.RawMessage:
		var evt model.SyncEvent
		if err := json.Unmarshal(p, &evt); err != nil {
			return model.SyncEvent{}, err
		}
		if evt.Session == "" || evt.Outcome == "" {
			return model.SyncEvent{}, fmt.Errorf("sync event %d is missing session or outcome", evt.ID)
		}
		return evt, nil
	default:
		return model.SyncEvent{}, fmt.Errorf("unexpected payload type %T", payload)
	}
}

func alertEvent(evt model.SyncEvent) {
	log.Printf("⚠️ Session %s page %d ended in %s: %s", evt.Session, evt.Page, evt.Outcome, evt.Error)
}
