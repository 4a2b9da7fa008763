package engine

import (
	"sort"
	"sync"
	"time"

	"xivherald/internal/subscription"
)

// statusBoard tracks each kind loop's current phase for introspection.
type statusBoard struct {
	mu    sync.Mutex
	kinds map[subscription.Kind]KindStatus
}

func newStatusBoard() *statusBoard {
	return &statusBoard{kinds: map[subscription.Kind]KindStatus{}}
}

func (b *statusBoard) set(kind subscription.Kind, state State, nextFire time.Time) {
	b.mu.Lock()
	b.kinds[kind] = KindStatus{Kind: kind, State: state, NextFire: nextFire}
	b.mu.Unlock()
}

func (b *statusBoard) snapshot() []KindStatus {
	b.mu.Lock()
	out := make([]KindStatus, 0, len(b.kinds))
	for _, s := range b.kinds {
		out = append(out, s)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
