package driver

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/d21d3q/geoframe/internal/frame"
	"github.com/d21d3q/geoframe/internal/records"
)

// Parser decodes frames of a single signal format.
type Parser interface {
	Name() string
	Parse(frame.Frame) (records.Coordinate, error)
}

// ErrFormat matches every FormatError through errors.Is.
var ErrFormat = errors.New("malformed frame")

// FormatError reports a frame whose fields cannot be interpreted by the
// parser registered for its tag.
type FormatError struct {
	Variant string
	Offset  int
	Width   int
	Reason  string
}

func (e *FormatError) Error() string {
	if e.Width > 0 {
		return fmt.Sprintf("signal %s: %s at bytes %d-%d", e.Variant, e.Reason, e.Offset, e.Offset+e.Width-1)
	}
	return fmt.Sprintf("signal %s: %s", e.Variant, e.Reason)
}

// Is lets errors.Is(err, ErrFormat) succeed.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Registry maps sync tags to parsers. It is filled at construction time and
// sealed before decoding starts. Sealing publishes an immutable snapshot
// that lookups read without locking.
type Registry struct {
	mu      sync.RWMutex
	parsers map[frame.SyncTag]Parser
	frozen  atomic.Pointer[map[frame.SyncTag]Parser]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[frame.SyncTag]Parser)}
}

// Register adds or replaces the parser for tag. It panics once the registry
// has been sealed.
func (r *Registry) Register(tag frame.SyncTag, p Parser) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() != nil {
		panic(fmt.Sprintf("driver: register %s on sealed registry", tag))
	}
	r.parsers[tag] = p
	return r
}

// Seal freezes the registry. Further Register calls panic. Sealing twice
// is a no-op.
func (r *Registry) Seal() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() == nil {
		snapshot := maps.Clone(r.parsers)
		r.frozen.Store(&snapshot)
	}
	return r
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.frozen.Load() != nil
}

// Lookup returns the parser registered for tag.
func (r *Registry) Lookup(tag frame.SyncTag) (Parser, bool) {
	if snapshot := r.frozen.Load(); snapshot != nil {
		p, ok := (*snapshot)[tag]
		return p, ok
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[tag]
	return p, ok
}

// Tags lists registered tags in ascending order.
func (r *Registry) Tags() []frame.SyncTag {
	if snapshot := r.frozen.Load(); snapshot != nil {
		return sortedTags(*snapshot)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedTags(r.parsers)
}

func sortedTags(parsers map[frame.SyncTag]Parser) []frame.SyncTag {
	return slices.Sorted(maps.Keys(parsers))
}
