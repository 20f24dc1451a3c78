package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/99minutos/apitoken-system/internal/core/ports"
	"github.com/99minutos/apitoken-system/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// ErrStopped is returned by Submit once the dispatcher's context is done.
var ErrStopped = errors.New("topup dispatcher stopped")

type topupJob struct {
	ctx    context.Context
	userID string
	reply  chan topupReply
}

type topupReply struct {
	result *ports.TopupResult
	err    error
}

// Dispatcher routes top-ups to a fixed set of workers using consistent
// hashing on the user id, so top-ups of one user never run concurrently
// inside this process.
type Dispatcher struct {
	workers []chan topupJob
	service ports.TopupService
	log     zerolog.Logger
	done    <-chan struct{}
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used; buffer <= 0 uses channelBuffer.
func NewDispatcher(numWorkers, buffer int, service ports.TopupService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = channelBuffer
	}
	d := &Dispatcher{
		workers: make([]chan topupJob, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan topupJob, buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.done = ctx.Done()
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Topup queues a top-up on the worker that owns userID and waits for it.
// It satisfies ports.TopupService so handlers can use it directly.
func (d *Dispatcher) Topup(ctx context.Context, userID string) (*ports.TopupResult, error) {
	shard := d.shardIndex(userID)
	job := topupJob{ctx: ctx, userID: userID, reply: make(chan topupReply, 1)}

	select {
	case d.workers[shard] <- job:
		metrics.TopupQueueDepth.WithLabelValues(strconv.Itoa(shard)).Inc()
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
		return nil, ErrStopped
	}

	select {
	case r := <-job.reply:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
		return nil, ErrStopped
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan topupJob) {
	depth := metrics.TopupQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			if ctx.Err() != nil {
				job.reply <- topupReply{err: ErrStopped}
				return
			}
			if job.ctx.Err() != nil {
				job.reply <- topupReply{err: job.ctx.Err()}
				continue
			}
			res, err := d.service.Topup(job.ctx, job.userID)
			if err != nil {
				d.log.Error().Err(err).
					Str("user_id", job.userID).
					Int("worker_id", id).
					Msg("topup failed")
			}
			job.reply <- topupReply{result: res, err: err}
		}
	}
}
