package sqlitevfs

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// PageSource is what a registered VFS reads pages from: a fixed-length,
// version-pinned byte range source. s3object.RangeReader plus
// s3object.Binding.Length satisfy this through a small adapter the
// top-level session package provides.
type PageSource interface {
	ReadRange(offset int64, length int) ([]byte, error)
	Size() int64
}

// sessionCounter hands out the monotonic half of each VFS registration
// name; combined with a random nonce so that no two live sessions — even
// across processes sharing a machine clock — can collide.
var sessionCounter uint64

// UniqueName returns a VFS registration name that's unique per session:
// a monotonic counter plus a random nonce.
func UniqueName() string {
	var n = atomic.AddUint64(&sessionCounter, 1)
	return fmt.Sprintf("s3sqlite-%d-%s", n, uuid.NewString())
}

// registry maps a live fileHandle's token to its sessionState, recovering
// Go-side state from a purego callback. This VFS's open files are
// identified by an opaque token rather than by reinterpreting a raw C
// pointer as a Go pointer.
var registry = struct {
	mu   sync.Mutex
	m    map[uintptr]*sessionState
	next uintptr
}{m: make(map[uintptr]*sessionState)}

func registerSession(s *sessionState) uintptr {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.next++
	var token = registry.next
	registry.m[token] = s
	return token
}

func lookupSession(token uintptr) *sessionState {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.m[token]
}

func unregisterSession(token uintptr) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.m, token)
}
