package game

import (
	"io"
	"sync"
)

type SoundKind string

const (
	SoundClick    SoundKind = "click"
	SoundCollapse SoundKind = "collapse"
)

// Sound plays short cues. Implementations must not block.
type Sound interface {
	Play(kind SoundKind)
}

// Bell rings the terminal bell on collapse and stays quiet otherwise.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBell(w io.Writer) *Bell { return &Bell{w: w} }

func (b *Bell) Play(kind SoundKind) {
	if b == nil || b.w == nil || kind != SoundCollapse {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = b.w.Write([]byte{'\a'})
}

// Silent discards every cue.
type Silent struct{}

func (Silent) Play(SoundKind) {}
