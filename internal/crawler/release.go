package crawler

import "sync"

// keepScans is how many scans' element handles stay alive. The previous
// scan is kept so a fill still injecting from it is not cut off by a
// concurrent rebuild.
const keepScans = 2

// generations retains the handles of the most recent scans and releases
// older ones.
type generations[T any] struct {
	mu      sync.Mutex
	keep    int
	gens    [][]T
	release func(T)
}

// push records one scan's handles and releases every scan older than the
// last keep.
func (g *generations[T]) push(items []T) {
	g.mu.Lock()
	g.gens = append(g.gens, items)
	var stale [][]T
	if n := len(g.gens) - g.keep; n > 0 {
		stale = g.gens[:n]
		g.gens = append([][]T(nil), g.gens[n:]...)
	}
	g.mu.Unlock()

	for _, gen := range stale {
		for _, it := range gen {
			g.release(it)
		}
	}
}

// drain releases everything still retained.
func (g *generations[T]) drain() {
	g.mu.Lock()
	all := g.gens
	g.gens = nil
	g.mu.Unlock()

	for _, gen := range all {
		for _, it := range gen {
			g.release(it)
		}
	}
}
