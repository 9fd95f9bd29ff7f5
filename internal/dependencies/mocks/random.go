package mocks

import (
	"encoding/binary"

	"github.com/mcoot/gameroom-go/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// BytesResults is a queue of results to return from Bytes
	BytesResults [][]byte
	bytesIndex   int

	// counter drives the fallback for Bytes so that unqueued calls still
	// yield distinct values (ID generation retries on collision and would
	// otherwise spin forever)
	counter uint64
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// Bytes returns the next queued result padded or truncated to n bytes, or a
// deterministic counter-derived value if none remaining
func (r *MockRandom) Bytes(n int) []byte {
	b := make([]byte, n)
	if r.bytesIndex < len(r.BytesResults) {
		copy(b, r.BytesResults[r.bytesIndex])
		r.bytesIndex++
		return b
	}
	r.counter++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], r.counter)
	copy(b, buf[8-min(n, 8):])
	return b
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueBytes adds values to the Bytes result queue
func (r *MockRandom) QueueBytes(values ...[]byte) {
	r.BytesResults = append(r.BytesResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.IntnResults = nil
	r.intnIndex = 0
	r.BytesResults = nil
	r.bytesIndex = 0
	r.counter = 0
}
