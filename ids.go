package controllerim

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out controller identifiers.
type IDGenerator interface {
	NextID() string
}

// UUIDGenerator issues random UUIDs. It is the scope default.
type UUIDGenerator struct{}

func (UUIDGenerator) NextID() string {
	return uuid.NewString()
}

// SequenceGenerator issues prefix1, prefix2, ... and is handy for
// deterministic tests.
type SequenceGenerator struct {
	prefix  string
	counter atomic.Uint64
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) NextID() string {
	return fmt.Sprintf("%s%d", g.prefix, g.counter.Add(1))
}
