// Package ads is the ad collaborator the run controller consults before a revive.
package ads

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const KindRevive Kind = "revive"

// Provider approves or denies ad-gated actions.
type Provider interface {
	RequestRewarded(ctx context.Context, kind Kind) bool
	RequestInterstitial(ctx context.Context) bool
}

// Standalone is the provider used when no ad network is attached. It approves
// every rewarded request after Delay and refuses overlapping requests while
// one is in flight or within Cooldown of the last one.
type Standalone struct {
	Delay    time.Duration
	Cooldown time.Duration

	mu       sync.Mutex
	busy     bool
	lastDone time.Time
	now      func() time.Time
	log      *slog.Logger
}

func NewStandalone(log *slog.Logger) *Standalone {
	if log == nil {
		log = slog.Default()
	}
	return &Standalone{Delay: 100 * time.Millisecond, Cooldown: time.Second, now: time.Now, log: log}
}

func (s *Standalone) RequestRewarded(ctx context.Context, kind Kind) bool {
	s.mu.Lock()
	if s.busy || (!s.lastDone.IsZero() && s.now().Sub(s.lastDone) < s.Cooldown) {
		s.mu.Unlock()
		s.log.Debug("rewarded ad refused, cooling down", "kind", kind)
		return false
	}
	s.busy = true
	s.mu.Unlock()

	approved := true
	t := time.NewTimer(s.Delay)
	select {
	case <-ctx.Done():
		t.Stop()
		approved = false
	case <-t.C:
	}

	s.mu.Lock()
	s.busy = false
	s.lastDone = s.now()
	s.mu.Unlock()
	s.log.Debug("rewarded ad finished", "kind", kind, "approved", approved)
	return approved
}

// RequestInterstitial is informational only.
func (s *Standalone) RequestInterstitial(ctx context.Context) bool {
	s.log.Debug("interstitial requested")
	return ctx.Err() == nil
}

// Pacer counts returns to the menu and fires an interstitial on every Every-th one.
type Pacer struct {
	Every   int
	counter int
}

func NewPacer() *Pacer { return &Pacer{Every: 3} }

// Tick records one return and reports whether an interstitial is due.
func (p *Pacer) Tick() bool {
	p.counter++
	if p.counter >= p.Every {
		p.counter = 0
		return true
	}
	return false
}
