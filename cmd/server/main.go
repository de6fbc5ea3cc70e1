// cmd/server/main.go
package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/unclebandit/customer-sync/internal/client"
	"github.com/unclebandit/customer-sync/internal/config"
	"github.com/unclebandit/customer-sync/internal/controller"
	"github.com/unclebandit/customer-sync/internal/db"
	"github.com/unclebandit/customer-sync/internal/handler"
	"github.com/unclebandit/customer-sync/internal/queue"
	"github.com/unclebandit/customer-sync/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init cache
	cache, err := db.OpenCache(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cache.Close()

	events := newEventQueue(cfg)
	if closer, ok := events.(io.Closer); ok {
		defer closer.Close()
	}

	customerClient := client.NewCustomerClient(cfg.APIURL, cfg.APIToken, cfg.HTTPTimeout)

	syncManager, err := service.NewSyncManager(customerClient, cache, service.SyncOptions{
		PageSize:    cfg.PageSize,
		Debounce:    cfg.SearchDebounce,
		SortBy:      cfg.SortBy,
		FilterBy:    cfg.FilterBy,
		Events:      events,
		EventsTopic: cfg.EventsTopic,
		NodeID:      cfg.NodeID,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer syncManager.Close()

	res := syncManager.Start(ctx)
	log.Printf("✅ Initial load: %s (page %d, %d received, %d dropped)", res.Outcome, res.Page, res.Received, res.Dropped)

	customerController := &controller.CustomerController{
		Sync:  syncManager,
		Cache: cache,
	}
	exportHandler := handler.NewExportHandler(cache)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: controller.NewRouter(customerController, exportHandler),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("🚀 Server running on :%s (session %s)", cfg.AppPort, syncManager.Session())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("⚠️ Server stopped:", err)
	}
}

// newEventQueue publishes to RabbitMQ when AMQP_URL is set and otherwise
// logs events in process.
func newEventQueue(cfg *config.Config) queue.Queue {
	if cfg.AMQPURL != "" {
		q, err := queue.NewAMQPQueue(cfg.AMQPURL)
		if err == nil {
			log.Println("✅ Publishing sync events to", cfg.EventsTopic)
			return q
		}
		log.Println("⚠️ RabbitMQ unavailable, keeping sync events in process:", err)
	}

	q := queue.NewInMemoryQueue()
	q.Subscribe(cfg.EventsTopic, func(payload any) error {
		log.Printf("📨 Sync event: %+v", payload)
		return nil
	})
	return q
}
