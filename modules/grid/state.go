package grid

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/proceduralarchitect/ismruntime/batch"
)

// InstanceFlags is a bitmask of per-instance state flags. The zero value is
// an intact, visible instance.
type InstanceFlags uint8

const (
	FlagDamaged InstanceFlags = 1 << iota
	FlagDestroyed
	FlagHidden
)

// Intact reports whether the instance carries no damage or destruction flag.
func (f InstanceFlags) Intact() bool {
	return f&(FlagDamaged|FlagDestroyed) == 0
}

func (f InstanceFlags) Damaged() bool {
	return f&FlagDamaged != 0
}

func (f InstanceFlags) Destroyed() bool {
	return f&FlagDestroyed != 0
}

func (f InstanceFlags) Hidden() bool {
	return f&FlagHidden != 0
}

// Indexed reports whether an instance with these flags belongs in the spatial
// index. Hidden and destroyed instances leave the index but keep their slot.
func (f InstanceFlags) Indexed() bool {
	return !f.Destroyed() && !f.Hidden()
}

// State owns the authoritative per-scene instance location array together
// with the spatial index over it. Instance identifiers are array positions
// and stay stable for the scene's lifetime: removal flags the slot instead of
// compacting the array. Every index access goes through the state's lock,
// which is what makes the single-threaded index safe to share between
// connections.
type State struct {
	mutex      sync.RWMutex
	index      LocationIndex
	locations  []Vector3
	flags      []InstanceFlags
	liveCount  int
	generation uint64
}

func NewState(cellSize float64) (*State, error) {
	index, err := NewSpatialIndex(cellSize)
	if err != nil {
		return nil, errors.New("creating spatial index failed").Wrap(err)
	}

	return &State{index: index}, nil
}

// Add registers an instance at the given location and returns its identifier.
func (s *State) Add(location Vector3) int32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := (int32)(len(s.locations))
	s.locations = append(s.locations, location)
	s.flags = append(s.flags, 0)
	s.liveCount++
	s.generation++

	s.index.Insert(id, location)
	instrumentInstanceAdded()
	return id
}

// Remove hides an instance. Its slot stays allocated so identifiers of other
// instances remain stable. Removing an unknown or already removed identifier
// is a no-op.
func (s *State) Remove(id int32) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isLive(id) {
		return false
	}

	if s.flags[id].Indexed() {
		s.index.Remove(id, s.locations[id])
	}
	s.flags[id] |= FlagDestroyed
	s.liveCount--
	s.generation++

	instrumentInstanceRemoved()
	return true
}

// Move updates an instance's location, keeping the index in sync. Moving a
// hidden instance only updates its slot.
func (s *State) Move(id int32, location Vector3) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isLive(id) {
		return false
	}

	if s.flags[id].Indexed() {
		s.index.Update(id, s.locations[id], location)
	}
	s.locations[id] = location
	return true
}

// SetFlags replaces an instance's state flags. Transitions that change index
// membership keep the index in sync and count as structural mutations.
// Destruction is permanent; use Remove to also instrument it.
func (s *State) SetFlags(id int32, flags InstanceFlags) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isLive(id) {
		return false
	}

	old := s.flags[id]
	s.flags[id] = flags

	if flags.Destroyed() {
		s.liveCount--
	}

	if old.Indexed() != flags.Indexed() {
		if flags.Indexed() {
			s.index.Insert(id, s.locations[id])
		} else {
			s.index.Remove(id, s.locations[id])
		}
		s.generation++
	}
	return true
}

func (s *State) Flags(id int32) (InstanceFlags, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isLive(id) {
		return 0, false
	}
	return s.flags[id], true
}

func (s *State) Location(id int32) (Vector3, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isLive(id) {
		return Vector3{}, false
	}
	return s.locations[id], true
}

// Count returns the number of live instances.
func (s *State) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.liveCount
}

// Generation returns the structural generation token. It changes whenever
// instances are added or removed; the batch layer compares it to discard
// stale results.
func (s *State) Generation() uint64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.generation
}

// QueryRadius returns the instances in cells touched by the sphere's bounding
// box. With exact set, results are post-filtered by true distance; the index
// itself never is.
func (s *State) QueryRadius(center Vector3, radius float64, exact bool) []int32 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := s.index.QueryRadius(center, radius)
	if !exact {
		instrumentQuery(queryKindRadius)
		return ids
	}

	filtered := ids[:0]
	radiusSquared := radius * radius
	for _, id := range ids {
		if DistSquared(s.locations[id], center) <= radiusSquared {
			filtered = append(filtered, id)
		}
	}
	instrumentQuery(queryKindRadius)
	return filtered
}

// QueryBox returns the instances in cells touched by the box.
func (s *State) QueryBox(box Box) []int32 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	instrumentQuery(queryKindBox)
	return s.index.QueryBox(box)
}

// Nearest returns the live instance closest to the location, within
// maxDistance when positive.
func (s *State) Nearest(location Vector3, maxDistance float64) (int32, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	instrumentQuery(queryKindNearest)
	return s.index.FindNearest(location, s.locations, maxDistance)
}

// RebuildIndex discards and reinserts the whole index from the location
// array, skipping hidden and destroyed slots.
func (s *State) RebuildIndex() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.index.Clear()
	for id, location := range s.locations {
		if s.flags[id].Indexed() {
			s.index.Insert((int32)(id), location)
		}
	}
}

func (s *State) Stats() Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.index.Stats()
}

func (s *State) DebugInfo() DebugInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.index.DebugInfo()
}

// SnapshotCells captures one batch snapshot per occupied cell inside the
// given bounds. Snapshots carry the current generation token.
func (s *State) SnapshotCells(bounds Box) []batch.Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	byCell := make(map[CellCoord][]batch.Instance)
	for _, id := range s.index.QueryBox(bounds) {
		location := s.locations[id]
		coord := s.index.CellFor(location)
		byCell[coord] = append(byCell[coord], batch.Instance{
			ID:       id,
			Location: [3]float64{location.X, location.Y, location.Z},
		})
	}

	snapshots := make([]batch.Snapshot, 0, len(byCell))
	for coord, instances := range byCell {
		snapshots = append(snapshots, batch.Snapshot{
			Cell:       batch.Cell{X: coord.X, Y: coord.Y, Z: coord.Z},
			Generation: s.generation,
			Instances:  instances,
		})
	}
	return snapshots
}

// ApplyResults applies batch mutations back to the store. Results whose
// generation token no longer matches are discarded as stale, as are
// mutations that target removed instances.
func (s *State) ApplyResults(results []batch.Result) (applied, stale int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, result := range results {
		if result.Generation != s.generation {
			stale++
			instrumentStaleResult()
			continue
		}

		for _, mutation := range result.Mutations {
			if !s.isLive(mutation.ID) {
				continue
			}

			location := Vector3{
				X: mutation.Location[0],
				Y: mutation.Location[1],
				Z: mutation.Location[2],
			}
			if s.flags[mutation.ID].Indexed() {
				s.index.Update(mutation.ID, s.locations[mutation.ID], location)
			}
			s.locations[mutation.ID] = location
		}
		applied++
	}
	return applied, stale
}

func (s *State) isLive(id int32) bool {
	return id >= 0 && (int)(id) < len(s.locations) && !s.flags[id].Destroyed()
}
