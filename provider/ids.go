package provider

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDAllocator hands out provider-native handles. Each binding owns one, so
// handle uniqueness is scoped to the binding's lifetime rather than to any
// package-global counter.
type IDAllocator struct {
	prefix string
	seq    uint64
}

func NewIDAllocator(prefix string) *IDAllocator {
	return &IDAllocator{prefix: prefix}
}

// Next returns a fresh handle combining the binding prefix, a sequence
// number, and a short UUID fragment.
func (a *IDAllocator) Next() string {
	n := atomic.AddUint64(&a.seq, 1)
	return fmt.Sprintf("%s-%d-%s", a.prefix, n, uuid.New().String()[:8])
}
