package contrib

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memCache struct {
	grids map[string]*Grid
	saves int
}

func (m *memCache) Save(ctx context.Context, login string, g *Grid) error {
	if m.grids == nil {
		m.grids = make(map[string]*Grid)
	}
	cp := *g
	m.grids[login] = &cp
	m.saves++
	return nil
}

func (m *memCache) Latest(ctx context.Context, login string) (*Grid, time.Time, error) {
	g, ok := m.grids[login]
	if !ok {
		return nil, time.Time{}, ErrNoCachedGrid
	}
	return g, time.Unix(0, 0), nil
}

type fixedSource struct {
	grid  *Grid
	err   error
	calls int
}

func (f *fixedSource) Fetch(ctx context.Context) (*Grid, error) {
	f.calls++
	return f.grid, f.err
}

func TestCachedSource_SavesLiveGrid(t *testing.T) {
	var g Grid
	g.Set(3, 4, 2)
	live := &fixedSource{grid: &g}
	cache := &memCache{}

	got, err := NewCachedSource(live, cache, "octocat", false).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if *got != g {
		t.Error("expected live grid")
	}
	if cache.saves != 1 {
		t.Errorf("saves = %d, want 1", cache.saves)
	}
}

func TestCachedSource_SkipsEmptyGrid(t *testing.T) {
	live := &fixedSource{grid: &Grid{}}
	cache := &memCache{}

	if _, err := NewCachedSource(live, cache, "octocat", false).Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if cache.saves != 0 {
		t.Errorf("empty grid should not be cached, saves = %d", cache.saves)
	}
}

func TestCachedSource_PropagatesLiveError(t *testing.T) {
	boom := errors.New("boom")
	live := &fixedSource{err: boom}

	_, err := NewCachedSource(live, &memCache{}, "octocat", false).Fetch(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestCachedSource_Offline(t *testing.T) {
	var g Grid
	g.Set(10, 2, 4)
	cache := &memCache{grids: map[string]*Grid{"octocat": &g}}
	live := &fixedSource{grid: &Grid{}}

	got, err := NewCachedSource(live, cache, "octocat", true).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.At(10, 2) != 4 {
		t.Error("expected cached grid")
	}
	if live.calls != 0 {
		t.Errorf("live source called %d times in offline mode", live.calls)
	}
}

func TestCachedSource_OfflineMiss(t *testing.T) {
	_, err := NewCachedSource(nil, &memCache{}, "ghost", true).Fetch(context.Background())
	if !errors.Is(err, ErrNoCachedGrid) {
		t.Errorf("err = %v, want ErrNoCachedGrid", err)
	}
}
