// Package entropy provides the randomness capability handed to the
// ceremony coordinator.
package entropy

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/zeebo/blake3"
)

// Locked serializes reads from an underlying reader, so concurrent callers
// always draw disjoint ranges of its output stream.
type Locked struct {
	mu sync.Mutex
	r  io.Reader
}

// NewLocked wraps r.
func NewLocked(r io.Reader) *Locked {
	return &Locked{r: r}
}

// Read implements io.Reader.
func (l *Locked) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}

// System returns the operating system's CSPRNG.
func System() *Locked {
	return NewLocked(rand.Reader)
}

// NewSeeded returns a deterministic stream expanded from seed with the
// BLAKE3 extendable output function. It exists for reproducible tests and
// must never back a production ceremony.
func NewSeeded(seed []byte) *Locked {
	h := blake3.New()
	_, _ = h.Write([]byte("frost-entropy-seed"))
	_, _ = h.Write(seed)
	return NewLocked(h.Digest())
}
