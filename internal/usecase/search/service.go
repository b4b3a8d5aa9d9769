// Package search fans one query out across the per-type indices and merges
// the results into a single scored, paginated response.
package search

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridwatch/searchsync/internal/domain"
	"github.com/gridwatch/searchsync/internal/domain/document"
	"github.com/gridwatch/searchsync/internal/domain/entity"
	"github.com/gridwatch/searchsync/internal/domain/search/request"
	"github.com/gridwatch/searchsync/internal/domain/search/result"
	"github.com/gridwatch/searchsync/internal/metrics"
)

// queryTypeLabel tags latency samples from this aggregator.
const queryTypeLabel = "federated_search"

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// defaultTypeTimeout bounds each per-type sub-query so one slow index
	// cannot stall the merged response.
	defaultTypeTimeout = 5 * time.Second

	// sideEffectTimeout bounds the fire-and-forget audit/notify channel.
	sideEffectTimeout = 5 * time.Second
)

// Service is the federated search aggregator.
type Service struct {
	repo     Repository
	recorder Recorder
	auditor  Auditor
	notifier Notifier
	weights  Weights
	logger   *zap.Logger
	disabled bool

	defaultPageSize int
	maxPageSize     int
	typeTimeout     time.Duration
}

// New creates the aggregator.
func New(repo Repository, recorder Recorder, weights Weights, logger *zap.Logger) *Service {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Service{
		repo:            repo,
		recorder:        recorder,
		weights:         weights,
		logger:          logger,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		typeTimeout:     defaultTypeTimeout,
	}
}

// WithSideEffects attaches the audit and notification channels. Both are
// best-effort: their failures never fail a search.
func (s *Service) WithSideEffects(auditor Auditor, notifier Notifier) *Service {
	s.auditor = auditor
	s.notifier = notifier
	return s
}

// WithPagination overrides the paging bounds.
func (s *Service) WithPagination(defaultSize, maxSize int) *Service {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// WithTypeTimeout overrides the per-type sub-query timeout.
func (s *Service) WithTypeTimeout(d time.Duration) *Service {
	if d > 0 {
		s.typeTimeout = d
	}
	return s
}

// WithDisabled marks the index subsystem unavailable: searches return an
// empty page instead of failing, since search is non-critical-path.
func (s *Service) WithDisabled(disabled bool) *Service {
	s.disabled = disabled
	return s
}

// Search executes a federated search for the caller. The full matching set
// is merged and scored in memory before the page is sliced; the returned
// total therefore counts every match, not just the page.
func (s *Service) Search(ctx context.Context, caller domain.Identity, req request.Request) (result.Page, error) {
	if !caller.Authenticated() {
		return result.Page{}, domain.ErrAuthenticationRequired
	}
	if req.Admin && !caller.Admin {
		return result.Page{}, domain.ErrAuthorizationDenied
	}

	req = req.Normalize(s.defaultPageSize, s.maxPageSize)
	if s.disabled {
		return result.Page{PageSize: req.PageSize, Page: req.Page}, nil
	}

	for _, t := range req.Types {
		if !t.Valid() {
			return result.Page{}, domain.ErrUnknownEntityType
		}
	}

	start := time.Now()
	types := req.TargetTypes()

	// Fan-out: each sub-query writes only its own slot, joined by Wait.
	perType := make([][]result.Item, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range types {
		i, t := i, t
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(gctx, s.typeTimeout)
			defer cancel()

			docs, err := s.queryType(tctx, t, caller, req)
			if err != nil {
				// Isolated failure: this type contributes nothing, the
				// other types still return.
				metrics.SearchTypeFailures.WithLabelValues(string(t)).Inc()
				s.logger.Warn("per-type query failed",
					zap.String("entity_type", string(t)),
					zap.Error(err),
				)
				return nil
			}
			perType[i] = s.toItems(docs, caller, req)
			return nil
		})
	}
	_ = g.Wait() // sub-queries never propagate errors

	merged := make([]result.Item, 0)
	for _, items := range perType {
		merged = append(merged, items...)
	}
	// Stable: ties keep per-type emission order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score() > merged[j].Score()
	})

	total := len(merged)
	lo := req.Page * req.PageSize
	if lo > total {
		lo = total
	}
	hi := lo + req.PageSize
	if hi > total {
		hi = total
	}

	elapsed := time.Since(start)
	s.recorder.Record(caller.Tenant, queryTypeLabel, elapsed)

	page := result.Page{
		Items:      merged[lo:hi],
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		PageCount:  (total + req.PageSize - 1) / req.PageSize,
		DurationMS: elapsed.Milliseconds(),
	}

	s.emitSideEffects(caller, req.Query, total)
	return page, nil
}

func (s *Service) queryType(
	ctx context.Context, t entity.Type, caller domain.Identity, req request.Request,
) ([]document.Document, error) {
	if req.Admin {
		return s.repo.SearchAll(ctx, t, req.Query)
	}
	return s.repo.SearchTenant(ctx, t, caller.Tenant, req.Query)
}

// toItems converts matched documents into scored result items. In non-admin
// mode any document whose tenant tag disagrees with the caller is dropped:
// the query-time filter is the primary guard, this is defense in depth.
func (s *Service) toItems(docs []document.Document, caller domain.Identity, req request.Request) []result.Item {
	items := make([]result.Item, 0, len(docs))
	for _, d := range docs {
		if !req.Admin && d.TenantID != caller.Tenant {
			s.logger.Warn("dropping result with mismatched tenant tag",
				zap.String("entity_type", string(d.EntityType)),
				zap.Int64("entity_id", d.EntityID),
			)
			continue
		}
		items = append(items, result.New(
			d.EntityType, d.EntityID, d.TenantID,
			d.Name, d.Description, d.Status,
			s.weights.Score(d, req.Query), d.Metadata,
		))
	}
	return items
}

// emitSideEffects audits the query and notifies the user, off the response
// path. Failures here are logged and never surface to the caller.
func (s *Service) emitSideEffects(caller domain.Identity, query string, hits int) {
	if s.auditor == nil && s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		if s.auditor != nil {
			if err := s.auditor.SearchExecuted(ctx, caller, query, hits); err != nil {
				s.logger.Warn("search audit failed", zap.Error(err))
			}
		}
		if s.notifier != nil {
			if err := s.notifier.SearchCompleted(ctx, caller.UserID, query, hits); err != nil {
				s.logger.Warn("search notification failed", zap.Error(err))
			}
		}
	}()
}
