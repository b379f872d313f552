package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/pkg/logger"
)

const flushConcurrency = 4

// flusher periodically saves boards that changed since their last save.
type flusher struct {
	registry *Registry
	store    repository.Store
	interval time.Duration
	logger   logger.Logger

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newFlusher(reg *Registry, store repository.Store, interval time.Duration, log logger.Logger) *flusher {
	return &flusher{
		registry: reg,
		store:    store,
		interval: interval,
		logger:   log,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (f *flusher) start() {
	go f.loop()
}

func (f *flusher) loop() {
	defer close(f.done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), f.interval)
			if err := f.flush(ctx); err != nil {
				f.logger.Error(ctx, "periodic flush failed", logger.Error(err))
			}
			cancel()
		}
	}
}

func (f *flusher) stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
	<-f.done
}

// flush saves every dirty board. A board whose save fails stays dirty.
func (f *flusher) flush(ctx context.Context) error {
	// one round at a time; Drop waits for the round to finish
	f.registry.persist.Lock()
	defer f.registry.persist.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(flushConcurrency)
	saved := 0
	for _, b := range f.registry.snapshot() {
		if b.dropped.Load() || !b.dirty.Swap(false) {
			continue
		}
		saved++
		g.Go(func() error {
			if err := f.store.Save(gctx, b.name, b.index.Entries()); err != nil {
				b.dirty.Store(true)
				return fmt.Errorf("save board %q: %w", b.name, err)
			}
			return nil
		})
	}
	err := g.Wait()
	if saved > 0 {
		f.logger.Debug(ctx, "flushed boards", logger.Int("boards", saved))
	}
	return err
}
