package game

import (
	"context"

	"github.com/DaanHessen/one-choice/internal/engine"
	"github.com/pkg/errors"
)

// Policy picks a choice index for sc given the current meters.
type Policy func(sc engine.Scene, current engine.Meters, rng *engine.Stream) int

// RandomPolicy picks uniformly.
func RandomPolicy(sc engine.Scene, _ engine.Meters, rng *engine.Stream) int {
	return rng.Intn(len(sc.Choices))
}

// CautiousPolicy picks the choice that leaves the highest lowest meter.
func CautiousPolicy(sc engine.Scene, current engine.Meters, _ *engine.Stream) int {
	best, bestMin := 0, -1
	for i, ch := range sc.Choices {
		after := current.Clone()
		for m, d := range ch.Effects {
			if m.Validate() {
				after[m] = engine.Clamp(after[m] + d)
			}
		}
		if low := after.Min(); low > bestMin {
			best, bestMin = i, low
		}
	}
	return best
}

// Autoplay plays runs complete runs through c with policy. Runs that reach
// maxChoices without collapsing are abandoned and left out of the result.
func Autoplay(ctx context.Context, c *Controller, runs, maxChoices int, policy Policy, rng *engine.Stream) ([]Summary, error) {
	var out []Summary
	for r := 0; r < runs; r++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if err := c.StartNewGame(ctx); err != nil {
			return out, errors.Wrapf(err, "start run %d", r+1)
		}
		for c.State() == StatePlaying && c.Run().ChoicesMade < maxChoices {
			sc, ok := c.Scene()
			if !ok {
				return out, ErrNoScene
			}
			res, err := c.MakeChoice(ctx, policy(sc, c.Meters(), rng))
			if err != nil {
				return out, errors.Wrapf(err, "run %d choice %d", r+1, c.Run().ChoicesMade+1)
			}
			if res.GameOver {
				out = append(out, res.Summary)
			}
		}
		if c.State() == StatePlaying {
			c.log.Info("run abandoned at choice cap", "run", c.Run().ID, "choices", c.Run().ChoicesMade)
		}
		c.ReturnToMenu(ctx)
	}
	return out, nil
}
