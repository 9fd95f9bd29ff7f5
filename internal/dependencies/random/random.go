package random

import (
	"crypto/rand"
	"math/big"
)

// Random provides random generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// Bytes returns n random bytes
	Bytes(n int) []byte
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	max := big.NewInt(int64(n))
	result, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fall back to 0 on error (should never happen with crypto/rand)
		return 0
	}
	return int(result.Int64())
}

// Bytes returns n cryptographically random bytes
func (r *CryptoRandom) Bytes(n int) []byte {
	b := make([]byte, n)
	// rand.Read never returns a partial buffer without an error; a zeroed
	// buffer on failure is consistent with Intn's fallback
	_, _ = rand.Read(b)
	return b
}
