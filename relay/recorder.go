package relay

import (
	"context"
	"sync"
	"time"

	"github.com/cyberinferno/netpong/cacher"
	"github.com/cyberinferno/netpong/logger"
)

const recordQueue = 256

// recorder writes session records to the store off the hub goroutine so a
// slow backend never stalls pairing or relaying.
type recorder struct {
	log     logger.Logger
	store   cacher.Cacher[SessionRecord]
	ttl     time.Duration
	timeout time.Duration

	queue chan SessionRecord
	wg    sync.WaitGroup
	once  sync.Once
}

func newRecorder(log logger.Logger, store cacher.Cacher[SessionRecord], ttl time.Duration) *recorder {
	r := &recorder{
		log:     log,
		store:   store,
		ttl:     ttl,
		timeout: 2 * time.Second,
		queue:   make(chan SessionRecord, recordQueue),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

// Record queues rec for writing. Records are dropped when the queue is full.
func (r *recorder) Record(rec SessionRecord) {
	select {
	case r.queue <- rec:
	default:
		r.log.Warn("session record dropped, queue full", logger.Field{Key: "session", Value: rec.ID})
	}
}

func (r *recorder) run() {
	defer r.wg.Done()

	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.store.Set(ctx, RecordKey(rec.ID), rec, r.ttl); err != nil {
			r.log.Warn("failed to store session record",
				logger.Field{Key: "session", Value: rec.ID},
				logger.Field{Key: "error", Value: err})
		}
		cancel()
	}
}

// Close writes out everything already queued and stops the recorder. Record
// must not be called after Close.
func (r *recorder) Close() {
	r.once.Do(func() { close(r.queue) })
	r.wg.Wait()
}
