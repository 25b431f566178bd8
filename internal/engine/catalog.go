package engine

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// TierFile maps a tier to its catalog file name.
func TierFile(t Tier) string { return "scenes_" + string(t) + ".json" }

// resetRatio is the share of a pool that may be consumed before its usage set clears.
const resetRatio = 0.8

// Catalog holds the three scene pools and the per-run anti-repetition state.
type Catalog struct {
	pools  map[Tier][]Scene
	used   map[Tier]map[int]struct{}
	tier   Tier
	loaded bool
	stream *Stream
	log    *slog.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

func WithCatalogLogger(l *slog.Logger) CatalogOption { return func(c *Catalog) { c.log = l } }
func WithCatalogStream(s *Stream) CatalogOption      { return func(c *Catalog) { c.stream = s } }

func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		pools: make(map[Tier][]Scene, len(AllTiers)),
		used:  make(map[Tier]map[int]struct{}, len(AllTiers)),
		tier:  TierEasy,
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load reads the three pools from fsys concurrently. On any failure every tier
// receives the fallback pool, the catalog is still marked loaded and the
// cause is returned for logging only.
func (c *Catalog) Load(ctx context.Context, fsys fs.FS) error {
	pools := make([][]Scene, len(AllTiers))
	g, ctx := errgroup.WithContext(ctx)
	for i, t := range AllTiers {
		i, t := i, t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, TierFile(t))
			if err != nil {
				return errors.Wrapf(err, "read %s pool", t)
			}
			scenes, err := ParseScenes(data)
			if err != nil {
				return errors.Wrapf(err, "parse %s pool", t)
			}
			pools[i] = scenes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, t := range AllTiers {
			c.pools[t] = FallbackScenes()
		}
		c.loaded = true
		c.log.Warn("scene catalog load failed, using fallback scenes", "error", err)
		return err
	}
	for i, t := range AllTiers {
		c.pools[t] = pools[i]
	}
	c.loaded = true
	c.log.Debug("scene catalog loaded",
		"easy", len(c.pools[TierEasy]), "mid", len(c.pools[TierMid]), "hard", len(c.pools[TierHard]))
	return nil
}

// SetPool installs a pool directly. Marks the catalog loaded.
func (c *Catalog) SetPool(t Tier, scenes []Scene) {
	if !t.Validate() {
		return
	}
	c.pools[t] = append([]Scene(nil), scenes...)
	delete(c.used, t)
	c.loaded = true
}

func (c *Catalog) Loaded() bool         { return c.loaded }
func (c *Catalog) Tier() Tier           { return c.tier }
func (c *Catalog) PoolSize(t Tier) int  { return len(c.pools[t]) }
func (c *Catalog) SetStream(s *Stream)  { c.stream = s }
func (c *Catalog) UsedCount(t Tier) int { return len(c.used[t]) }

// SetTier overrides the current tier without sampling.
func (c *Catalog) SetTier(t Tier) {
	if t.Validate() {
		c.tier = t
	}
}

// Reset clears usage and returns to the easy tier.
func (c *Catalog) Reset() {
	c.used = make(map[Tier]map[int]struct{}, len(AllTiers))
	c.tier = TierEasy
}

// Sample picks the next scene. forced overrides the progress curve when valid
// (pass "" for none). Returns false only when unloaded or the resolved pool is empty.
func (c *Catalog) Sample(choicesMade int, low []Meter, forced Tier) (Scene, bool) {
	if !c.loaded {
		return Scene{}, false
	}
	if forced.Validate() {
		c.tier = forced
	} else {
		c.tier = TierForProgress(choicesMade)
	}
	pool := c.pools[c.tier]
	if len(pool) == 0 {
		return Scene{}, false
	}
	used := c.used[c.tier]
	if used == nil {
		used = make(map[int]struct{})
		c.used[c.tier] = used
	}
	if float64(len(used)) > float64(len(pool))*resetRatio {
		clear(used)
	}

	candidates := make([]Scene, 0, len(pool))
	for _, s := range pool {
		if _, ok := used[s.ID]; !ok {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		candidates = pool
		clear(used)
	}

	if len(low) > 0 {
		targeted := make([]Scene, 0, len(candidates))
		for _, s := range candidates {
			if s.Targets(low) {
				targeted = append(targeted, s)
			}
		}
		if len(targeted) > 0 {
			candidates = targeted
		}
	}

	if c.stream == nil {
		c.stream = fallbackStream("scenes")
	}
	picked := candidates[c.stream.Intn(len(candidates))]
	used[picked.ID] = struct{}{}
	return picked, true
}
