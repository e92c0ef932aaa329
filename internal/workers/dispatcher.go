package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"drape/internal/repositories"
)

const (
	defaultWorkers = 3
	queueCapacity  = 256

	// A little above the generation timeout so the handler's own
	// deadline fires first.
	jobDeadline = 6 * time.Minute
)

// Completer runs the completion pipeline for one job.
type Completer interface {
	Complete(ctx context.Context, jobID uuid.UUID) error
}

// Dispatcher fans queued job ids out to a fixed worker pool. On start it
// re-enqueues jobs left in PROCESSING by a previous run, so a crashed
// process does not strand work forever.
type Dispatcher struct {
	repo    repositories.TryOnRepository
	workers int
	queue   chan uuid.UUID

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	handler Completer
}

func NewDispatcher(repo repositories.TryOnRepository, workers int) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		repo:    repo,
		workers: workers,
		queue:   make(chan uuid.UUID, queueCapacity),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (d *Dispatcher) Start(handler Completer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.handler = handler

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	go d.recoverStrandedJobs()

	log.Printf("dispatcher: started with %d workers", d.workers)
}

func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	log.Println("dispatcher: stopped")
}

// Enqueue queues a job for completion. Drops the id if the dispatcher is
// shutting down; startup recovery will pick the job up on the next boot.
func (d *Dispatcher) Enqueue(jobID uuid.UUID) {
	select {
	case d.queue <- jobID:
	case <-d.ctx.Done():
		log.Printf("dispatcher: dropped job %s, shutting down", jobID)
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case jobID := <-d.queue:
			d.process(id, jobID)
		}
	}
}

func (d *Dispatcher) process(workerID int, jobID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatcher: worker %d panicked on job %s: %v", workerID, jobID, r)
		}
	}()

	// Detached from the request context on purpose; the job keeps going
	// after the HTTP caller hangs up.
	ctx, cancel := context.WithTimeout(context.Background(), jobDeadline)
	defer cancel()

	if err := d.handler.Complete(ctx, jobID); err != nil {
		log.Printf("dispatcher: worker %d: job %s: %v", workerID, jobID, err)
	}
}

// recoverStrandedJobs re-enqueues everything still marked PROCESSING. Jobs
// already picked up this run are handled by the terminal-state guard in the
// completion pipeline, so a double enqueue is harmless.
func (d *Dispatcher) recoverStrandedJobs() {
	ctx, cancel := context.WithTimeout(d.ctx, 30*time.Second)
	defer cancel()

	stranded, err := d.repo.ListProcessing(ctx)
	if err != nil {
		log.Printf("dispatcher: recovery scan failed: %v", err)
		return
	}
	if len(stranded) == 0 {
		return
	}

	log.Printf("dispatcher: re-enqueueing %d stranded jobs", len(stranded))
	for i := range stranded {
		d.Enqueue(stranded[i].ID)
	}
}
