// Package market serves coin payloads to views. It sits between the views
// and the CoinGecko client, collapsing concurrent fetches for the same coin,
// keeping recent payloads in memory and archiving raw responses.
package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/coinview/internal/core"
	"github.com/newthinker/coinview/internal/metrics"
	"github.com/newthinker/coinview/internal/storage/archive"
	"github.com/newthinker/coinview/internal/storage/coin"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Upstream fetches one coin payload and its raw body.
type Upstream interface {
	FetchCoin(ctx context.Context, id string) (*core.Coin, []byte, error)
}

// Service implements the coin view fetcher on top of an Upstream.
type Service struct {
	upstream Upstream
	store    *coin.MemoryStore
	archive  *archive.Archive
	metrics  *metrics.Registry
	logger   *zap.Logger
	group    singleflight.Group
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithStore enables the in-memory payload store.
func WithStore(s *coin.MemoryStore) Option {
	return func(svc *Service) { svc.store = s }
}

// WithArchive archives every raw payload fetched from upstream.
func WithArchive(a *archive.Archive) Option {
	return func(svc *Service) { svc.archive = a }
}

// WithMetrics records fetch metrics.
func WithMetrics(m *metrics.Registry) Option {
	return func(svc *Service) { svc.metrics = m }
}

// NewService creates a new market service
func NewService(upstream Upstream, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		upstream: upstream,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchCoin returns the payload for id.
//
// The upstream call is shared by every concurrent caller for the same id and
// is not cancelled when ctx is; it is bounded by the client timeout. This
// lets a page that gave up waiting pick the result up from the store on its
// next refresh. ctx still bounds how long this caller waits.
func (s *Service) FetchCoin(ctx context.Context, id string) (*core.Coin, error) {
	if err := core.ValidateCoinID(id); err != nil {
		return nil, err
	}

	if s.store != nil {
		if c, err := s.store.Get(ctx, id); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheHit()
			}
			return c, nil
		}
	}

	ch := s.group.DoChan(id, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		c, _ := res.Val.(*core.Coin)
		return c, nil
	}
}

func (s *Service) fetch(ctx context.Context, id string) (*core.Coin, error) {
	start := s.now()
	c, raw, err := s.upstream.FetchCoin(ctx, id)
	elapsed := s.now().Sub(start)

	if s.metrics != nil {
		s.metrics.RecordFetch(fetchStatus(err), elapsed.Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", id, err)
	}

	s.logger.Debug("coin fetched",
		zap.String("coin", id),
		zap.Duration("elapsed", elapsed),
		zap.Int("bytes", len(raw)),
	)

	if s.store != nil {
		s.store.Put(ctx, id, c)
	}
	if s.archive != nil && len(raw) > 0 {
		s.archivePayload(ctx, id, raw)
	}
	return c, nil
}

// archivePayload never fails the fetch; archive problems are logged.
func (s *Service) archivePayload(ctx context.Context, id string, raw []byte) {
	path, err := s.archive.Save(ctx, id, raw, s.now())
	status := "ok"
	if err != nil {
		status = "error"
		s.logger.Warn("archiving payload failed", zap.String("coin", id), zap.Error(err))
	} else {
		s.logger.Debug("payload archived", zap.String("coin", id), zap.String("path", path))
	}
	if s.metrics != nil {
		s.metrics.RecordArchiveWrite(status)
	}
}

func fetchStatus(err error) string {
	if err == nil {
		return "ok"
	}
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr.Code
	}
	return "error"
}
