package reactor

import (
	"runtime"
	"sync"
	"weak"

	mapset "github.com/deckarep/golang-set/v2"
)

// A dependency set is the ordered list of effects subscribed to one
// (object, key, kind) triple. It knows where it lives so that removing the
// last effect can prune the levels above it.
type depSet struct {
	owner   *targetDeps
	key     Key
	kind    TrackKind
	effects []*Effect
	index   mapset.Set[*Effect]
}

func (s *depSet) add(e *Effect) bool {
	if !s.index.Add(e) {
		return false
	}
	s.effects = append(s.effects, e)
	return true
}

func (s *depSet) remove(e *Effect) {
	if !s.index.Contains(e) {
		return
	}
	s.index.Remove(e)
	for i, other := range s.effects {
		if other == e {
			s.effects = append(s.effects[:i], s.effects[i+1:]...)
			break
		}
	}
}

// All subscriptions for one observed object. cleanup reports the object's
// reclamation and is stopped when the entry is pruned, so an object carries
// at most one pending cleanup however often its entry is recreated.
type targetDeps struct {
	handle  any
	keys    map[Key]map[TrackKind]*depSet
	cleanup runtime.Cleanup
}

// registry maps observed objects to their dependency sets. Objects are held
// through weak pointers only: once an object is reclaimed its whole entry is
// dropped on the next registry operation.
type registry struct {
	targets map[any]*targetDeps

	reclaimedMu    sync.Mutex
	reclaimed      []any
	reclaimedTotal uint64
}

func newRegistry() *registry {
	return &registry{
		targets: map[any]*targetDeps{},
	}
}

// Weak pointers made from the same pointer compare equal, so they work as
// map keys without keeping the object alive.
func handleOf[T any](target *T) any {
	return weak.Make(target)
}

// reclaim runs on the runtime's cleanup goroutine.
func (r *registry) reclaim(handle any) {
	r.reclaimedMu.Lock()
	r.reclaimed = append(r.reclaimed, handle)
	r.reclaimedTotal++
	r.reclaimedMu.Unlock()
}

func (r *registry) sweep() {
	r.reclaimedMu.Lock()
	handles := r.reclaimed
	r.reclaimed = nil
	r.reclaimedMu.Unlock()

	for _, h := range handles {
		delete(r.targets, h)
	}
}

func record[T any](r *registry, target *T, key Key, kind TrackKind, e *Effect) {
	r.sweep()

	handle := handleOf(target)
	td, ok := r.targets[handle]
	if !ok {
		td = &targetDeps{
			handle: handle,
			keys:   map[Key]map[TrackKind]*depSet{},
		}
		td.cleanup = runtime.AddCleanup(target, r.reclaim, handle)
		r.targets[handle] = td
	}

	kinds, ok := td.keys[key]
	if !ok {
		kinds = map[TrackKind]*depSet{}
		td.keys[key] = kinds
	}

	deps, ok := kinds[kind]
	if !ok {
		deps = &depSet{
			owner: td,
			key:   key,
			kind:  kind,
			index: mapset.NewThreadUnsafeSet[*Effect](),
		}
		kinds[kind] = deps
	}

	if deps.add(e) {
		e.memberships = append(e.memberships, deps)
	}
}

// collect returns the deduplicated, ordered run-set for a write.
func (r *registry) collect(handle any, kind TriggerKind, key Key) []*Effect {
	r.sweep()

	td, ok := r.targets[handle]
	if !ok {
		return nil
	}

	keys := []Key{key}
	if kind.structural() {
		keys = append(keys, IterateKey)
	}

	var toRun []*Effect
	seen := mapset.NewThreadUnsafeSet[*Effect]()
	for _, k := range keys {
		kinds, ok := td.keys[k]
		if !ok {
			continue
		}
		for _, trackKind := range triggerTrackKinds[kind] {
			deps, ok := kinds[trackKind]
			if !ok {
				continue
			}
			for _, e := range deps.effects {
				if seen.Add(e) {
					toRun = append(toRun, e)
				}
			}
		}
	}
	return toRun
}

// clearMemberships detaches e from every set it belongs to and prunes the
// sets, keys and objects left empty.
func (r *registry) clearMemberships(e *Effect) {
	for _, deps := range e.memberships {
		deps.remove(e)
		if len(deps.effects) == 0 {
			r.prune(deps)
		}
	}
	e.memberships = e.memberships[:0]
}

func (r *registry) prune(deps *depSet) {
	td := deps.owner
	kinds, ok := td.keys[deps.key]
	if !ok || kinds[deps.kind] != deps {
		return
	}
	delete(kinds, deps.kind)
	if len(kinds) != 0 {
		return
	}
	delete(td.keys, deps.key)
	if len(td.keys) != 0 {
		return
	}
	if r.targets[td.handle] == td {
		delete(r.targets, td.handle)
		td.cleanup.Stop()
	}
}

type registryCounts struct {
	objects, keys, sets, subscriptions int
	reclaimed                          uint64
}

func (r *registry) counts() (c registryCounts) {
	r.sweep()

	r.reclaimedMu.Lock()
	c.reclaimed = r.reclaimedTotal
	r.reclaimedMu.Unlock()

	c.objects = len(r.targets)
	for _, td := range r.targets {
		c.keys += len(td.keys)
		for _, kinds := range td.keys {
			c.sets += len(kinds)
			for _, deps := range kinds {
				c.subscriptions += len(deps.effects)
			}
		}
	}
	return c
}
