// README: Scheduling service wraps the search with caching, persistence, logging and metrics.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ridesched/internal/config"
	"ridesched/internal/types"
	"ridesched/pkg/logger"
	"ridesched/pkg/metrics"
)

type BatchStore interface {
	LoadBatch(ctx context.Context, id types.ID) (Batch, error)
	SaveAssignments(ctx context.Context, batchID, runID types.ID, assignments []Assignment) error
	ListAssignments(ctx context.Context, batchID types.ID) ([]Assignment, error)
}

type ResultCache interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Set(ctx context.Context, key string, r Result, ttl time.Duration) error
}

// Service may be built without a store or cache; the corresponding features
// are then unavailable or skipped.
type Service struct {
	store       BatchStore
	cache       ResultCache
	log         logger.Logger
	metrics     *metrics.Metrics
	opts        Options
	timeout     time.Duration
	cacheTTL    time.Duration
	concurrency int
}

func NewService(store BatchStore, cache ResultCache, cfg config.SchedulingConfig, log logger.Logger, m *metrics.Metrics) (*Service, error) {
	rule, err := ParseOverlapRule(cfg.OverlapRule)
	if err != nil {
		return nil, err
	}
	loc := time.UTC
	if cfg.Timezone != "" {
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("load timezone: %w", err)
		}
	}
	if log == nil {
		log = logger.NewNop()
	}
	concurrency := cfg.BatchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		store:   store,
		cache:   cache,
		log:     log,
		metrics: m,
		opts: Options{
			Overlap:       rule,
			EnforceBreaks: cfg.EnforceBreaks,
			MaxNodes:      cfg.MaxNodes,
			Location:      loc,
		},
		timeout:     cfg.Timeout,
		cacheTTL:    cfg.CacheTTL,
		concurrency: concurrency,
	}, nil
}

type ScheduleCommand struct {
	Requests []RideRequest
	Drivers  []Driver
}

// Schedule validates and solves one input, answering from the cache when the
// same input was solved before.
func (s *Service) Schedule(ctx context.Context, cmd ScheduleCommand) (Result, error) {
	runID := types.NewID()
	log := s.log.With("run_id", runID, "requests", len(cmd.Requests), "drivers", len(cmd.Drivers))

	key, err := Fingerprint(cmd.Requests, cmd.Drivers, s.opts)
	if err != nil {
		return Result{}, err
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn("result cache read failed", "error", err)
			s.countError("cache_get")
		} else if ok {
			if s.metrics != nil {
				s.metrics.CacheHits.Inc()
			}
			cached.RunID = runID
			cached.Cached = true
			log.Info("schedule served from cache", "status", cached.Status)
			return cached, nil
		}
	}

	solveCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := Solve(solveCtx, cmd.Requests, cmd.Drivers, s.opts)
	if err != nil {
		status := "aborted"
		if errors.Is(err, ErrInvalidInput) {
			status = "invalid"
		}
		s.countSearch(status)
		s.countError("solve")
		log.Warn("schedule failed", "status", status, "error", err)
		return Result{}, err
	}
	res.RunID = runID

	s.countSearch(string(res.Status))
	if s.metrics != nil {
		s.metrics.SearchDuration.Observe(res.Stats.Elapsed.Seconds())
		s.metrics.NodesPopped.Observe(float64(res.Stats.NodesPopped))
	}
	log.Info("schedule finished",
		"status", res.Status,
		"nodes_popped", res.Stats.NodesPopped,
		"nodes_pushed", res.Stats.NodesPushed,
		"max_stack_depth", res.Stats.MaxStackDepth,
		"elapsed", res.Stats.Elapsed,
	)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, res, s.cacheTTL); err != nil {
			log.Warn("result cache write failed", "error", err)
			s.countError("cache_set")
		}
	}
	return res, nil
}

// ScheduleBatch solves a stored batch and persists the assignments when a
// schedule was found.
func (s *Service) ScheduleBatch(ctx context.Context, batchID types.ID) (Result, error) {
	if s.store == nil {
		return Result{}, errors.New("batch store not configured")
	}
	b, err := s.store.LoadBatch(ctx, batchID)
	if err != nil {
		return Result{}, err
	}
	res, err := s.Schedule(ctx, ScheduleCommand{Requests: b.Requests, Drivers: b.Drivers})
	if err != nil {
		return Result{}, fmt.Errorf("batch %s: %w", batchID, err)
	}
	if res.Solved() {
		if err := s.store.SaveAssignments(ctx, batchID, res.RunID, res.Assignments); err != nil {
			s.countError("save_assignments")
			return Result{}, fmt.Errorf("save assignments for batch %s: %w", batchID, err)
		}
	}
	return res, nil
}

// ScheduleBatches solves independent batches concurrently. The first failing
// batch cancels the rest.
func (s *Service) ScheduleBatches(ctx context.Context, batchIDs []types.ID) (map[types.ID]Result, error) {
	if len(batchIDs) == 0 {
		return nil, fmt.Errorf("%w: no batch ids", ErrBadRequest)
	}
	seen := make(map[types.ID]struct{}, len(batchIDs))
	for _, id := range batchIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate batch id %q", ErrBadRequest, id)
		}
		seen[id] = struct{}{}
	}

	var mu sync.Mutex
	out := make(map[types.ID]Result, len(batchIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range batchIDs {
		g.Go(func() error {
			res, err := s.ScheduleBatch(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Assignments(ctx context.Context, batchID types.ID) ([]Assignment, error) {
	if s.store == nil {
		return nil, errors.New("batch store not configured")
	}
	return s.store.ListAssignments(ctx, batchID)
}

func (s *Service) countSearch(status string) {
	if s.metrics != nil {
		s.metrics.Searches.WithLabelValues(status).Inc()
	}
}

func (s *Service) countError(op string) {
	if s.metrics != nil {
		s.metrics.ErrorsCount.WithLabelValues(op).Inc()
	}
}
