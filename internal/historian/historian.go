// internal/historian/historian.go is an asynchronous consumer that pops auction action records
// from a Redis queue and persists them to PostgreSQL.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/cricket-auction/internal/cache"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Queue is the subset of *redis.Client the service reads from.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Store persists action batches and closes out idle rooms.
type Store interface {
	InsertActions(ctx context.Context, records []cache.AuctionActionRecord) error
	MarkRoomAbandoned(ctx context.Context, code string) error
}

// Options tunes a Service.
type Options struct {
	QueueName     string
	BatchSize     int
	FlushInterval time.Duration
	// Inactivity is how long a room may go without actions before it is marked abandoned.
	Inactivity time.Duration
	PopTimeout time.Duration
}

// Service batches queue records and flushes them to the store.
type Service struct {
	queue Queue
	store Store
	opts  Options
	now   func() time.Time

	lastActivity sync.Map // room code -> time.Time

	batchMu sync.Mutex
	batch   []cache.AuctionActionRecord
}

func New(queue Queue, store Store, opts Options) *Service {
	if opts.QueueName == "" {
		opts.QueueName = cache.DefaultQueueName
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 3 * time.Second
	}
	return &Service{
		queue: queue,
		store: store,
		opts:  opts,
		now:   time.Now,
		batch: make([]cache.AuctionActionRecord, 0, opts.BatchSize),
	}
}

// Run consumes the queue until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	log.WithField("queue", s.opts.QueueName).Info("historian started")

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.readLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.flushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(flushCtx)
	log.Info("historian stopped")
}

// readLoop pops one record at a time with a bounded wait so cancellation is noticed.
func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		if err := s.popOnce(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("BLPop: %v", err)
			time.Sleep(time.Second)
		}
	}
}

// popOnce waits for a single record and batches it. An empty wait is not an error.
func (s *Service) popOnce(ctx context.Context) error {
	res, err := s.queue.BLPop(ctx, s.opts.PopTimeout, s.opts.QueueName).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return nil
	}
	var record cache.AuctionActionRecord
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		log.Warnf("invalid action record: %v", err)
		return nil
	}
	s.add(ctx, record)
	return nil
}

// add batches a record and flushes once the batch is full.
func (s *Service) add(ctx context.Context, record cache.AuctionActionRecord) {
	if record.ActionType == "game_over" {
		s.lastActivity.Delete(record.RoomCode)
	} else {
		s.lastActivity.Store(record.RoomCode, s.now())
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, record)
	full := len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()

	if full {
		s.flush(ctx)
	}
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

// flush writes the pending batch. A failed batch is put back in front of newer records.
func (s *Service) flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := s.batch
	s.batch = make([]cache.AuctionActionRecord, 0, s.opts.BatchSize)
	s.batchMu.Unlock()

	if err := s.store.InsertActions(ctx, pending); err != nil {
		log.Errorf("flush of %d actions failed: %v", len(pending), err)
		s.batchMu.Lock()
		s.batch = append(pending, s.batch...)
		s.batchMu.Unlock()
		return
	}
	log.Debugf("flushed %d actions", len(pending))
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepIdle(ctx)
		}
	}
}

// sweepIdle marks rooms abandoned when they have been silent longer than the inactivity window.
func (s *Service) sweepIdle(ctx context.Context) {
	now := s.now()
	s.lastActivity.Range(func(key, val interface{}) bool {
		code, ok1 := key.(string)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.opts.Inactivity {
			return true
		}
		if err := s.store.MarkRoomAbandoned(ctx, code); err != nil {
			log.WithField("room", code).Warnf("failed to mark room abandoned: %v", err)
			return true
		}
		log.WithField("room", code).Info("room marked abandoned due to inactivity")
		s.lastActivity.Delete(code)
		return true
	})
}
