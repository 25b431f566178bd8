package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"
)

func scenePool(n int, eff Effects) []Scene {
	out := make([]Scene, n)
	for i := range out {
		out[i] = Scene{
			ID:   i + 1,
			Text: fmt.Sprintf("scene %d", i+1),
			Choices: []Choice{
				{Label: "a", Effects: eff.Clone()},
				{Label: "b", Effects: Effects{}},
			},
		}
	}
	return out
}

func poolJSON(prefix string, n int) string {
	var b strings.Builder
	b.WriteString(`{"scenes":[`)
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id":%d,"text":"%s %d","choices":[{"label":"x","effects":{"mind":-5},"score":3},{"label":"y","effects":{"heart":-2}}]}`, i, prefix, i)
	}
	b.WriteString("]}")
	return b.String()
}

func loadedCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog(WithCatalogStream(NewStream(11)))
	c.SetPool(TierEasy, scenePool(10, Effects{MeterMind: -1}))
	c.SetPool(TierMid, scenePool(10, Effects{MeterHeart: -1}))
	c.SetPool(TierHard, scenePool(10, Effects{MeterTime: -1}))
	return c
}

func TestCatalogLoadFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"scenes_easy.json": {Data: []byte(poolJSON("easy", 3))},
		"scenes_mid.json":  {Data: []byte(poolJSON("mid", 4))},
		"scenes_hard.json": {Data: []byte(poolJSON("hard", 5))},
	}
	c := NewCatalog()
	if err := c.Load(context.Background(), fsys); err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.PoolSize(TierEasy) != 3 || c.PoolSize(TierMid) != 4 || c.PoolSize(TierHard) != 5 {
		t.Fatalf("unexpected pool sizes %d/%d/%d", c.PoolSize(TierEasy), c.PoolSize(TierMid), c.PoolSize(TierHard))
	}
	s, ok := c.Sample(0, nil, "")
	if !ok || s.Choices[0].Score != 3 || s.Choices[1].Score != 0 {
		t.Fatalf("unexpected sampled scene %+v", s)
	}
}

func TestCatalogLoadFailureInstallsFallbackEverywhere(t *testing.T) {
	fsys := fstest.MapFS{
		"scenes_easy.json": {Data: []byte(poolJSON("easy", 3))},
		"scenes_mid.json":  {Data: []byte(`{"scenes": [`)},
	}
	c := NewCatalog()
	if err := c.Load(context.Background(), fsys); err == nil {
		t.Fatalf("expected load error")
	}
	if !c.Loaded() {
		t.Fatalf("catalog must be marked loaded after fallback")
	}
	for _, tier := range AllTiers {
		if c.PoolSize(tier) != 1 {
			t.Fatalf("tier %s should hold the fallback scene, has %d", tier, c.PoolSize(tier))
		}
	}
}

func TestCatalogUnloadedReturnsNothing(t *testing.T) {
	if _, ok := NewCatalog().Sample(0, nil, ""); ok {
		t.Fatalf("unloaded catalog must not return a scene")
	}
}

func TestCatalogTierCurve(t *testing.T) {
	c := loadedCatalog(t)
	for n := 0; n < 40; n++ {
		if _, ok := c.Sample(n, nil, ""); !ok {
			t.Fatalf("no scene at choice %d", n)
		}
		want := TierEasy
		if n >= 30 {
			want = TierHard
		} else if n >= 10 {
			want = TierMid
		}
		if c.Tier() != want {
			t.Fatalf("choice %d: tier %s, want %s", n, c.Tier(), want)
		}
	}
}

func TestCatalogForcedTier(t *testing.T) {
	c := loadedCatalog(t)
	c.Sample(0, nil, TierHard)
	if c.Tier() != TierHard {
		t.Fatalf("forced tier ignored, got %s", c.Tier())
	}
	c.Sample(0, nil, Tier("impossible"))
	if c.Tier() != TierEasy {
		t.Fatalf("invalid forced tier should fall back to progress curve, got %s", c.Tier())
	}
}

func TestCatalogAvoidsRepeatsUntilReset(t *testing.T) {
	c := loadedCatalog(t)
	seen := map[int]bool{}
	// 80% of 10 is 8: the first nine draws clear the set only after the ninth.
	for i := 0; i < 9; i++ {
		s, _ := c.Sample(0, nil, "")
		if seen[s.ID] {
			t.Fatalf("scene %d repeated at draw %d", s.ID, i)
		}
		seen[s.ID] = true
	}
	c.Sample(0, nil, "")
	if c.UsedCount(TierEasy) != 1 {
		t.Fatalf("usage set should clear after exceeding 80%%, has %d", c.UsedCount(TierEasy))
	}
}

func TestCatalogTargetsLowMeters(t *testing.T) {
	c := NewCatalog(WithCatalogStream(NewStream(3)))
	pool := scenePool(6, Effects{MeterMind: -1})
	pool[4].Choices[1].Effects = Effects{MeterDrive: 5}
	c.SetPool(TierEasy, pool)
	s, ok := c.Sample(0, []Meter{MeterDrive}, "")
	if !ok || s.ID != 5 {
		t.Fatalf("expected drive-targeting scene 5, got %d", s.ID)
	}
	// Scene 5 is used now; narrowing finds nothing and must keep the full candidate set.
	if _, ok := c.Sample(0, []Meter{MeterDrive}, ""); !ok {
		t.Fatalf("narrowing must never empty the candidates")
	}
}

func TestCatalogSingleScenePoolAlwaysReturns(t *testing.T) {
	c := NewCatalog(WithCatalogStream(NewStream(5)))
	for _, tier := range AllTiers {
		c.SetPool(tier, FallbackScenes())
	}
	for i := 0; i < 20; i++ {
		if _, ok := c.Sample(i, []Meter{MeterMind}, ""); !ok {
			t.Fatalf("draw %d returned nothing", i)
		}
	}
}

func TestCatalogResetReturnsToEasy(t *testing.T) {
	c := loadedCatalog(t)
	c.Sample(35, nil, "")
	c.Reset()
	if c.Tier() != TierEasy || c.UsedCount(TierHard) != 0 {
		t.Fatalf("reset did not clear state")
	}
}

func TestTierForDifficulty(t *testing.T) {
	cases := []struct {
		d    Difficulty
		n    int
		want Tier
	}{
		{DifficultyEasy, 14, TierEasy},
		{DifficultyEasy, 15, TierMid},
		{DifficultyEasy, 25, TierHard},
		{DifficultyHard, 0, TierMid},
		{DifficultyHard, 5, TierHard},
		{DifficultyNormal, 9, TierEasy},
		{DifficultyNormal, 10, TierMid},
		{DifficultyNormal, 30, TierHard},
	}
	for _, tc := range cases {
		if got := TierForDifficulty(tc.d, tc.n); got != tc.want {
			t.Fatalf("%s at %d: got %s want %s", tc.d, tc.n, got, tc.want)
		}
	}
}
