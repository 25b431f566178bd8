package game

import "github.com/DaanHessen/one-choice/internal/engine"

type QuoteCategory string

const (
	QuotesMenu     QuoteCategory = "menu"
	QuotesPreGame  QuoteCategory = "preGame"
	QuotesGameOver QuoteCategory = "gameOver"
	QuotesRestart  QuoteCategory = "restart"
)

// LineSource resolves list keys in the active language.
type LineSource interface {
	Lines(key string) []string
}

// Quotes hands out flavour lines without repeating one inside a category
// until the whole category has been shown.
type Quotes struct {
	src    LineSource
	used   map[QuoteCategory]map[int]struct{}
	stream *engine.Stream
}

func NewQuotes(src LineSource, stream *engine.Stream) *Quotes {
	return &Quotes{src: src, used: make(map[QuoteCategory]map[int]struct{}), stream: stream}
}

func (q *Quotes) Get(cat QuoteCategory) string {
	lines := q.src.Lines("quotes." + string(cat))
	if len(lines) == 0 {
		return ""
	}
	used := q.used[cat]
	if used == nil || len(used) >= len(lines) {
		used = make(map[int]struct{})
		q.used[cat] = used
	}
	free := make([]int, 0, len(lines)-len(used))
	for i := range lines {
		if _, ok := used[i]; !ok {
			free = append(free, i)
		}
	}
	idx := free[q.stream.Intn(len(free))]
	used[idx] = struct{}{}
	return lines[idx]
}

// Reset forgets every shown quote, used when the language changes.
func (q *Quotes) Reset() {
	q.used = make(map[QuoteCategory]map[int]struct{})
}
