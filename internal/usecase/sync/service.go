// Package sync propagates primary-store lifecycle events into the index store.
package sync

import (
	"context"
	stdsync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/gridwatch/searchsync/internal/domain/entity"
	"github.com/gridwatch/searchsync/internal/metrics"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256

	// jobTimeout bounds a single index write so one stuck downstream call
	// cannot pin a worker forever.
	jobTimeout = 10 * time.Second
)

// Config tunes the pipeline's worker pool.
type Config struct {
	Workers   int
	QueueSize int
	Disabled  bool
}

// Service is the synchronization pipeline. Lifecycle hooks enqueue jobs onto
// a bounded channel drained by a worker pool; the mutation path never waits
// for indexing. Delivery is at-least-once and best-effort: a failed write is
// logged and lost until the next resync or lifecycle event for that entity.
type Service struct {
	entities EntityReader
	index    IndexWriter
	project  Projector
	logger   *zap.Logger
	disabled bool

	jobs      chan job
	wg        stdsync.WaitGroup
	closeOnce stdsync.Once
}

type job struct {
	remove bool
	entity entity.Entity
	typ    entity.Type
	id     int64
}

// New creates the pipeline and starts its workers.
func New(entities EntityReader, index IndexWriter, project Projector, cfg Config, logger *zap.Logger) *Service {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	s := &Service{
		entities: entities,
		index:    index,
		project:  project,
		logger:   logger,
		disabled: cfg.Disabled,
		jobs:     make(chan job, queueSize),
	}

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s
}

// EntityCreated schedules indexing of a newly created entity.
func (s *Service) EntityCreated(e entity.Entity) {
	s.enqueue(job{entity: e, typ: e.Type, id: e.ID})
}

// EntityUpdated schedules re-indexing of an updated entity.
func (s *Service) EntityUpdated(e entity.Entity) {
	s.enqueue(job{entity: e, typ: e.Type, id: e.ID})
}

// EntityDeleted schedules removal of the entity's search document. Deleting
// an already-absent document is a no-op.
func (s *Service) EntityDeleted(t entity.Type, id int64) {
	s.enqueue(job{remove: true, typ: t, id: id})
}

// enqueue is non-blocking: when the queue is full the job is dropped and
// counted, never stalling the caller's mutation path.
func (s *Service) enqueue(j job) {
	if s.disabled {
		return
	}
	select {
	case s.jobs <- j:
	default:
		metrics.SyncDropped.Inc()
		s.logger.Warn("sync queue full, dropping job",
			zap.String("entity_type", string(j.typ)),
			zap.Int64("entity_id", j.id),
			zap.Bool("delete", j.remove),
		)
	}
}

// Close drains the queue and stops the workers.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.jobs) })
	s.wg.Wait()
}

func (s *Service) worker() {
	defer s.wg.Done()
	for j := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		s.process(ctx, j)
		cancel()
	}
}

func (s *Service) process(ctx context.Context, j job) {
	if j.remove {
		if err := s.index.Delete(ctx, j.typ, j.id); err != nil {
			metrics.SyncFailures.WithLabelValues("delete").Inc()
			s.logger.Error("failed to remove document from index",
				zap.String("entity_type", string(j.typ)),
				zap.Int64("entity_id", j.id),
				zap.Error(err),
			)
			return
		}
		metrics.SyncProcessed.WithLabelValues("delete").Inc()
		return
	}

	doc := s.project.Project(ctx, j.entity)
	if err := s.index.Upsert(ctx, doc); err != nil {
		metrics.SyncFailures.WithLabelValues("upsert").Inc()
		s.logger.Error("failed to index document",
			zap.String("entity_type", string(j.typ)),
			zap.Int64("entity_id", j.id),
			zap.Error(err),
		)
		return
	}
	metrics.SyncProcessed.WithLabelValues("upsert").Inc()
}

// ResyncAll re-projects every entity of every supported type. It runs
// synchronously on the caller and returns the number of entities indexed.
func (s *Service) ResyncAll(ctx context.Context) int {
	total := 0
	for _, t := range entity.All() {
		total += s.ResyncType(ctx, t)
	}
	return total
}

// ResyncType re-projects every entity of one type. Per-entity failures are
// logged and skipped; partial success is the expected steady state, so the
// return value is a processed count rather than a success flag.
func (s *Service) ResyncType(ctx context.Context, t entity.Type) int {
	if s.disabled {
		return 0
	}

	list, err := s.entities.FindAll(ctx, t)
	if err != nil {
		s.logger.Error("resync: failed to enumerate entities",
			zap.String("entity_type", string(t)),
			zap.Error(err),
		)
		return 0
	}

	indexed := 0
	for _, e := range list {
		doc := s.project.Project(ctx, e)
		if err := s.index.Upsert(ctx, doc); err != nil {
			metrics.SyncFailures.WithLabelValues("upsert").Inc()
			s.logger.Error("resync: failed to index entity, skipping",
				zap.String("entity_type", string(t)),
				zap.Int64("entity_id", e.ID),
				zap.Error(err),
			)
			continue
		}
		indexed++
	}

	s.logger.Info("resync complete",
		zap.String("entity_type", string(t)),
		zap.Int("indexed", indexed),
		zap.Int("total", len(list)),
	)
	return indexed
}
