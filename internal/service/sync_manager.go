package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	appErrors "github.com/unclebandit/customer-sync/internal/errors"
	"github.com/unclebandit/customer-sync/internal/model"
	"github.com/unclebandit/customer-sync/internal/normalizer"
	"github.com/unclebandit/customer-sync/internal/queue"
	"github.com/unclebandit/customer-sync/internal/repository"
)

const (
	DefaultPageSize    = 50
	DefaultDebounce    = 500 * time.Millisecond
	DefaultEventsTopic = "customer_sync"
)

// Fetcher is the remote side of the sync.
type Fetcher interface {
	FetchPage(ctx context.Context, q model.PageQuery) (*model.PageResponse, error)
}

// Timer is a cancellable scheduled task.
type Timer interface {
	Stop() bool
}

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFallback Outcome = "fallback"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeRejected Outcome = "rejected" // 2xx but success=false or no customers
	OutcomeStale    Outcome = "stale"    // query changed while the fetch was in flight
	OutcomeCanceled Outcome = "canceled" // caller's context ended; nothing changed
)

// LoadResult reports what a load did. Err holds the error that was absorbed, if any.
type LoadResult struct {
	Outcome  Outcome
	Page     int
	Received int
	Dropped  int
	Written  int
	Err      error
}

func (r LoadResult) Kind() appErrors.ErrorKind {
	return appErrors.KindOf(r.Err)
}

// State is a point-in-time copy of the customer window.
type State struct {
	Items       []model.Customer
	CurrentPage int
	PageSize    int
	TotalCount  int
	SearchQuery string
	Loading     bool
	Refreshing  bool
}

type SyncOptions struct {
	PageSize    int
	Debounce    time.Duration
	SortBy      string
	FilterBy    string
	Events      queue.Queue
	EventsTopic string
	NodeID      int64

	// AfterFunc schedules the debounced search reset; defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) Timer
}

// SyncManager keeps the in-memory customer window in step with the API and the cache.
type SyncManager struct {
	Fetcher Fetcher
	Cache   repository.CustomerRepositoryInterface
	Events  queue.Queue

	pageSize  int
	debounce  time.Duration
	sortBy    string
	filterBy  string
	topic     string
	afterFunc func(d time.Duration, f func()) Timer
	ids       *snowflake.Node
	session   string

	baseCtx context.Context
	cancel  context.CancelFunc
	resets  sync.WaitGroup

	mu           sync.Mutex
	currentPage  int
	searchQuery  string
	totalCount   int
	items        []model.Customer
	loading      bool
	refreshing   bool
	generation   uint64
	resetPending bool
	resetTimer   Timer
	closed       bool
}

// Constructor
func NewSyncManager(fetcher Fetcher, cache repository.CustomerRepositoryInterface, opts SyncOptions) (*SyncManager, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.EventsTopic == "" {
		opts.EventsTopic = DefaultEventsTopic
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}

	node, err := snowflake.NewNode(opts.NodeID)
	if err != nil {
		return nil, fmt.Errorf("event id generator: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SyncManager{
		Fetcher:     fetcher,
		Cache:       cache,
		Events:      opts.Events,
		pageSize:    opts.PageSize,
		debounce:    opts.Debounce,
		sortBy:      opts.SortBy,
		filterBy:    opts.FilterBy,
		topic:       opts.EventsTopic,
		afterFunc:   opts.AfterFunc,
		ids:         node,
		session:     uuid.NewString(),
		baseCtx:     ctx,
		cancel:      cancel,
		currentPage: 1,
		items:       []model.Customer{},
	}, nil
}

// Session identifies this manager instance in published events.
func (m *SyncManager) Session() string {
	return m.session
}

// Start performs the initial load once the cache is open.
func (m *SyncManager) Start(ctx context.Context) LoadResult {
	return m.LoadPage(ctx, 1, true)
}

// LoadPage fetches one page. Only one load runs at a time; a call made while
// another is in flight returns OutcomeSkipped without fetching.
func (m *SyncManager) LoadPage(ctx context.Context, page int, isRefresh bool) LoadResult {
	res := m.loadPage(ctx, page, isRefresh)

	if res.Outcome != OutcomeSkipped && m.takePendingReset() {
		log.Println("🔁 Running search reset deferred by the previous load")
		m.LoadPage(m.baseCtx, 1, true)
	}
	return res
}

func (m *SyncManager) loadPage(ctx context.Context, page int, isRefresh bool) (res LoadResult) {
	m.mu.Lock()
	if m.loading {
		m.mu.Unlock()
		return LoadResult{Outcome: OutcomeSkipped, Page: page}
	}
	m.loading = true
	gen := m.generation
	q := model.PageQuery{
		PageNo:   page,
		PageSize: m.pageSize,
		Search:   m.searchQuery,
		SortBy:   m.sortBy,
		FilterBy: m.filterBy,
	}
	m.mu.Unlock()

	res.Page = page
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.refreshing = false
		m.mu.Unlock()

		m.publish(q, res)
	}()

	resp, err := m.Fetcher.FetchPage(ctx, q)
	if err != nil && ctx.Err() != nil {
		log.Println("🔁 Customer load abandoned by caller:", ctx.Err())
		res.Err = err
		res.Outcome = OutcomeCanceled
		return res
	}
	if err != nil {
		log.Println("⚠️ Error loading customers, falling back to cache:", err)
		res.Err = err
		res.Outcome = m.fallback(ctx, gen)
		return res
	}

	if !resp.Success || resp.Data == nil || resp.Data.Customers == nil {
		log.Println("⚠️ Customer API reported no data for page", page)
		res.Outcome = OutcomeRejected
		return res
	}

	customers, dropped := normalizer.NormalizeAll(resp.Data.Customers)
	res.Received = len(resp.Data.Customers)
	res.Dropped = dropped

	written, err := m.Cache.UpsertAll(ctx, customers)
	if err != nil {
		res.Err = appErrors.NewBatchPersistence(err)
		log.Println("⚠️", res.Err)
	}
	res.Written = written

	m.mu.Lock()
	defer m.mu.Unlock()

	// Cached either way; only the window belongs to the newer query.
	if gen != m.generation {
		res.Outcome = OutcomeStale
		return res
	}

	m.totalCount = resp.Data.Count
	if isRefresh {
		m.items = customers
	} else {
		m.items = append(m.items, customers...)
	}
	m.currentPage = page

	res.Outcome = OutcomeSuccess
	return res
}

// fallback swaps the window for the whole cache. totalCount is left alone.
func (m *SyncManager) fallback(ctx context.Context, gen uint64) Outcome {
	cached, err := m.Cache.ListAll(context.WithoutCancel(ctx))
	if err != nil {
		log.Println("⚠️ Cache fallback failed:", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		return OutcomeStale
	}
	if err == nil {
		m.items = cached
	}
	return OutcomeFallback
}

// OnSearchChange records the new query and (re)schedules the debounced reset.
func (m *SyncManager) OnSearchChange(query string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.searchQuery = query
	m.generation++
	gen := m.generation

	if m.resetTimer != nil {
		m.resetTimer.Stop()
	}
	m.resetTimer = m.afterFunc(m.debounce, func() { m.fireSearchReset(gen) })
}

func (m *SyncManager) fireSearchReset(gen uint64) {
	m.mu.Lock()
	// A later change superseded this timer after it had already fired.
	if m.closed || gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.resetTimer = nil
	m.currentPage = 1
	m.resets.Add(1)
	m.mu.Unlock()

	defer m.resets.Done()

	for {
		if res := m.LoadPage(m.baseCtx, 1, true); res.Outcome != OutcomeSkipped {
			return
		}

		m.mu.Lock()
		if m.loading {
			m.resetPending = true
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
	}
}

func (m *SyncManager) takePendingReset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := m.resetPending && !m.closed
	m.resetPending = false
	if pending {
		m.currentPage = 1
	}
	return pending
}

// OnReachEnd loads the next page unless a load is running or every known record is loaded.
func (m *SyncManager) OnReachEnd(ctx context.Context) LoadResult {
	m.mu.Lock()
	if m.loading || len(m.items) >= m.totalCount {
		page := m.currentPage
		m.mu.Unlock()
		return LoadResult{Outcome: OutcomeSkipped, Page: page}
	}
	next := m.currentPage + 1
	m.mu.Unlock()

	return m.LoadPage(ctx, next, false)
}

func (m *SyncManager) OnPullToRefresh(ctx context.Context) LoadResult {
	m.mu.Lock()
	m.refreshing = true
	m.mu.Unlock()

	return m.LoadPage(ctx, 1, true)
}

func (m *SyncManager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]model.Customer, len(m.items))
	copy(items, m.items)

	return State{
		Items:       items,
		CurrentPage: m.currentPage,
		PageSize:    m.pageSize,
		TotalCount:  m.totalCount,
		SearchQuery: m.searchQuery,
		Loading:     m.loading,
		Refreshing:  m.refreshing,
	}
}

// Close cancels a pending search reset and waits for a running one to finish.
func (m *SyncManager) Close() {
	m.mu.Lock()
	m.closed = true
	if m.resetTimer != nil {
		m.resetTimer.Stop()
		m.resetTimer = nil
	}
	m.mu.Unlock()

	m.cancel()
	m.resets.Wait()
}

func (m *SyncManager) publish(q model.PageQuery, res LoadResult) {
	if m.Events == nil {
		return
	}

	m.mu.Lock()
	total, items := m.totalCount, len(m.items)
	m.mu.Unlock()

	evt := model.SyncEvent{
		ID:       m.ids.Generate().Int64(),
		Session:  m.session,
		Outcome:  string(res.Outcome),
		Page:     res.Page,
		Query:    q.Search,
		Received: res.Received,
		Dropped:  res.Dropped,
		Written:  res.Written,
		Total:    total,
		Items:    items,
		At:       time.Now().UTC(),
	}
	if res.Err != nil {
		evt.Error = res.Err.Error()
	}

	if err := m.Events.Publish(m.topic, evt); err != nil {
		log.Println("⚠️ failed to publish sync event:", err)
	}
}
