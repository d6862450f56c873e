package contrib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNoCachedGrid is returned in offline mode when nothing was cached for
// the login.
var ErrNoCachedGrid = errors.New("no cached grid")

// GridCache persists successfully fetched grids.
type GridCache interface {
	Save(ctx context.Context, login string, g *Grid) error
	Latest(ctx context.Context, login string) (*Grid, time.Time, error)
}

// CachedSource wraps a live source with a grid cache.
// Online, every fetched grid with activity is saved. Offline, the newest
// cached grid for the login is returned and the live source is never
// called.
type CachedSource struct {
	live    Source
	cache   GridCache
	login   string
	offline bool
	logger  *slog.Logger
}

// NewCachedSource creates a CachedSource. live may be nil when offline.
func NewCachedSource(live Source, cache GridCache, login string, offline bool) *CachedSource {
	return &CachedSource{live: live, cache: cache, login: login, offline: offline}
}

// SetLogger sets the operational logger.
func (s *CachedSource) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Fetch implements Source.
func (s *CachedSource) Fetch(ctx context.Context) (*Grid, error) {
	if s.offline {
		g, at, err := s.cache.Latest(ctx, s.login)
		if err != nil {
			return nil, fmt.Errorf("loading cached grid for %s: %w", s.login, err)
		}
		if s.logger != nil {
			s.logger.Info("using cached grid", "login", s.login, "fetched_at", at.Format(time.RFC3339))
		}
		return g, nil
	}

	if s.live == nil {
		return nil, errors.New("no live source configured")
	}
	g, err := s.live.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	// An empty grid is what a degraded fetch looks like; don't let it
	// shadow a real one.
	if g.Active() == 0 {
		return g, nil
	}
	if err := s.cache.Save(ctx, s.login, g); err != nil {
		if s.logger != nil {
			s.logger.Warn("could not cache grid", "login", s.login, "error", err)
		}
	}
	return g, nil
}
