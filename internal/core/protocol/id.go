package protocol

import (
	"math"
	"sync"

	"github.com/yndnr/cryptogen-go/internal/core/domain"
)

// MaxSafeID is the largest request id (2^53 - 1). Ids stay exact in any
// codec that carries numbers as IEEE-754 doubles.
const MaxSafeID int64 = 1<<53 - 1

// IDGenerator hands out request ids: start, start+1, ..., MaxSafeID, then
// start again. It is safe for concurrent use.
type IDGenerator struct {
	mu    sync.Mutex
	start int64
	next  int64
}

// NewIDGenerator returns a generator whose first id is start.
func NewIDGenerator(start int64) (*IDGenerator, error) {
	if start < 0 {
		return nil, domain.InvalidArgument("id start must be greater than or equal to zero, got %d", start)
	}
	if start > MaxSafeID {
		return nil, domain.InvalidArgument("id start must be a safe integer, got %d", start)
	}
	return &IDGenerator{start: start, next: start}, nil
}

// IDGeneratorFromNumber validates a numeric start value (as decoded from
// configuration or a numeric codec) and returns a generator for it.
func IDGeneratorFromNumber(start float64) (*IDGenerator, error) {
	if math.IsNaN(start) || math.IsInf(start, 0) || start != math.Trunc(start) {
		return nil, domain.InvalidArgument("id start must be a whole number, got %v", start)
	}
	if math.Abs(start) > float64(MaxSafeID) {
		return nil, domain.InvalidArgument("id start must be a safe integer, got %v", start)
	}
	return NewIDGenerator(int64(start))
}

// Start returns the first id of the sequence.
func (g *IDGenerator) Start() int64 {
	return g.start
}

// Next returns the next id.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.next
	if g.next >= MaxSafeID {
		g.next = g.start
	} else {
		g.next++
	}
	return id
}
