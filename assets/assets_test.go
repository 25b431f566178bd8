package assets

import (
	"io/fs"
	"testing"

	"github.com/DaanHessen/one-choice/internal/engine"
)

func TestEmbeddedPoolsParse(t *testing.T) {
	for _, tier := range engine.AllTiers {
		data, err := fs.ReadFile(Scenes(), engine.TierFile(tier))
		if err != nil {
			t.Fatalf("read %s: %v", tier, err)
		}
		scenes, err := engine.ParseScenes(data)
		if err != nil {
			t.Fatalf("parse %s: %v", tier, err)
		}
		if len(scenes) < 10 {
			t.Fatalf("%s pool has only %d scenes", tier, len(scenes))
		}
		ids := map[int]bool{}
		for _, sc := range scenes {
			if ids[sc.ID] {
				t.Fatalf("%s: duplicate id %d", tier, sc.ID)
			}
			ids[sc.ID] = true
			for _, ch := range sc.Choices {
				for m := range ch.Effects {
					if !m.Validate() {
						t.Fatalf("%s scene %d: unknown meter %q", tier, sc.ID, m)
					}
				}
			}
		}
	}
}
