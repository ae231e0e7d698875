package reports

import (
	"context"
	"errors"
	"fmt"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"sync"
	"time"
)

const DefaultInterval = 5 * time.Second

var ErrAlreadyStarted = errors.New("refresher already started")

type Source interface {
	Sales(ctx context.Context) ([]common.Sale, error)
	Items(ctx context.Context) ([]common.Item, error)
}

type Report struct {
	Sales     []common.Sale
	Items     []common.Item
	LowStock  []common.Item
	Revenue   float64
	UnitsSold int
	FetchedAt time.Time
}

func NewReport(sales []common.Sale, items []common.Item, fetchedAt time.Time) Report {
	report := Report{
		Sales:     sales,
		Items:     items,
		FetchedAt: fetchedAt,
	}
	for _, sale := range sales {
		report.Revenue += sale.TotalPrice
		report.UnitsSold += sale.Quantity
	}
	for _, item := range items {
		if item.IsLowStock() {
			report.LowStock = append(report.LowStock, item)
		}
	}
	return report
}

// Refresher fetches sales and items on a fixed schedule while started.
// Once Stop returns no further update is delivered. Update callbacks must not call Stop.
type Refresher struct {
	source   Source
	interval time.Duration
	log      *logrus.Entry
	onUpdate func(Report)

	deliverMu  sync.Mutex
	mu         sync.Mutex
	scheduler  *cron.Cron
	cancel     context.CancelFunc
	generation uint64
	latest     *Report
	lastErr    error
}

func NewRefresher(source Source, interval time.Duration, log *logrus.Entry) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Refresher{
		source:   source,
		interval: interval,
		log:      log.WithField("component", "reports"),
	}
}

func (refresher *Refresher) OnUpdate(callback func(Report)) {
	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	refresher.onUpdate = callback
}

// Start refreshes immediately and then every interval until Stop or ctx is done.
func (refresher *Refresher) Start(ctx context.Context) error {
	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	if refresher.scheduler != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	refresher.generation++
	generation := refresher.generation

	// one fetch at a time, the immediate one included
	job := cron.NewChain(cron.SkipIfStillRunning(cron.PrintfLogger(refresher.log))).Then(cron.FuncJob(func() {
		refresher.refresh(runCtx, generation)
	}))
	schedule, err := cron.ParseStandard(fmt.Sprintf("@every %s", refresher.interval))
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	scheduler := cron.New()
	scheduler.Schedule(schedule, job)
	refresher.scheduler = scheduler
	refresher.cancel = cancel
	scheduler.Start()

	go job.Run()
	go func() {
		<-runCtx.Done()
		refresher.stop(func(current uint64) bool { return current == generation })
	}()
	refresher.log.Debugf("Report refresh started. Interval: %v", refresher.interval)
	return nil
}

func (refresher *Refresher) Stop() {
	refresher.stop(func(uint64) bool { return true })
}

func (refresher *Refresher) stop(matches func(generation uint64) bool) {
	refresher.deliverMu.Lock()
	defer refresher.deliverMu.Unlock()

	refresher.mu.Lock()
	scheduler := refresher.scheduler
	if scheduler == nil || !matches(refresher.generation) {
		refresher.mu.Unlock()
		return
	}
	refresher.generation++
	refresher.scheduler = nil
	refresher.cancel()
	refresher.mu.Unlock()

	scheduler.Stop()
	refresher.log.Debugf("Report refresh stopped")
}

func (refresher *Refresher) Latest() (*Report, error) {
	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	return refresher.latest, refresher.lastErr
}

func (refresher *Refresher) refresh(ctx context.Context, generation uint64) {
	sales, err := refresher.source.Sales(ctx)
	if err == nil {
		var items []common.Item
		items, err = refresher.source.Items(ctx)
		if err == nil {
			refresher.deliver(generation, NewReport(sales, items, time.Now()), nil)
			return
		}
	}
	refresher.deliver(generation, Report{}, err)
}

func (refresher *Refresher) deliver(generation uint64, report Report, err error) {
	refresher.deliverMu.Lock()
	defer refresher.deliverMu.Unlock()

	refresher.mu.Lock()
	if generation != refresher.generation {
		refresher.mu.Unlock()
		return
	}
	if err != nil {
		refresher.lastErr = err
		refresher.mu.Unlock()
		refresher.log.Warnf("Report refresh failed. Reason: %v", err)
		return
	}
	refresher.latest = &report
	refresher.lastErr = nil
	callback := refresher.onUpdate
	refresher.mu.Unlock()

	if callback != nil {
		callback(report)
	}
}
