// Package vtk implements the legacy VTK file formats (structured points and
// polydata) and the quadric decimation filter behind an object model that
// mirrors a manually managed native library: every object is tracked in a
// process-wide pool, must be released with Delete, and leaves auxiliary
// entries behind that only a global GC sweep reclaims.
package vtk

import "sync"

// pool tracks every live vtk object in the process. All access goes through
// its mutex; GC in particular inspects and mutates the whole table, so it
// must never interleave with other object operations outside the lock.
var pool = struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[uint64]*poolEntry
}{entries: make(map[uint64]*poolEntry)}

type poolEntry struct {
	parent   uint64 // owning object, 0 if standalone
	released bool
	free     func() // drops payload references when collected
}

// object is embedded by every tracked vtk type and carries its pool identity.
type object struct {
	id uint64
}

// register adds a new entry to the pool and returns its id. parent marks the
// object as auxiliary output of another object; such entries survive their
// parent's Delete and are reclaimed by the next GC sweep.
func register(parent uint64, free func()) uint64 {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	pool.nextID++
	id := pool.nextID
	pool.entries[id] = &poolEntry{parent: parent, free: free}
	return id
}

// Delete marks the object released. The pool entry itself stays behind until
// the next GC sweep, matching the reference-count bookkeeping of the wrapped
// library: an explicit release does not reclaim auxiliary objects the object
// produced, nor the accounting slot.
func (o *object) Delete() {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	if e, ok := pool.entries[o.id]; ok {
		e.released = true
	}
}

// GC sweeps the process-wide object pool: every released entry is reclaimed,
// as is every auxiliary entry whose parent is no longer tracked. Returns the
// number of entries collected.
//
// The sweep is global and serialized; it must not run concurrently with any
// other native-object operation except through the pool lock it shares with
// them.
func GC() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	collected := 0
	for changed := true; changed; {
		changed = false
		for id, e := range pool.entries {
			orphan := false
			if e.parent != 0 {
				if _, ok := pool.entries[e.parent]; !ok {
					orphan = true
				}
			}
			if e.released || orphan {
				if e.free != nil {
					e.free()
				}
				delete(pool.entries, id)
				collected++
				changed = true
			}
		}
	}
	return collected
}

// LiveObjects returns the number of entries currently tracked in the pool.
func LiveObjects() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return len(pool.entries)
}
