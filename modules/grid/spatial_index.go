package grid

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Uniform Grid Spatial Index
//
// A spatial hash that divides world space into cubic cells of a fixed edge
// length and stores the set of instance identifiers per cell. All operations
// are bounded by the number of cells touched rather than the total instance
// count, except FindNearest's candidate distance pass and Rebuild, which are
// linear in instance count by necessity.
//
// The index is not safe for concurrent use. Callers serialize access, e.g.
// through the owning State's lock.

const (
	// How many times FindNearest doubles its search radius before giving up.
	// A latency bound, not a nearest-neighbor guarantee: with an unbounded
	// max distance and a sparse distribution the search can give up while
	// instances still exist farther out.
	nearestSearchRounds = 5
)

// CellCoord identifies a cubic cell of world space. Two locations share a
// cell iff floor(axis/cellSize) matches on all three axes.
type CellCoord struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

type SpatialIndex struct {
	cellSize float64
	cells    map[CellCoord]map[int32]struct{}
}

// NewSpatialIndex creates an index with the given cell edge length in world
// units. Rule of thumb: use 2x your typical query radius, to keep the number
// of cells touched by a query small while keeping instances per cell low.
func NewSpatialIndex(cellSize float64) (*SpatialIndex, error) {
	if cellSize <= 0 {
		return nil, errors.New("cell size must be strictly positive").
			WithTag("cell_size", cellSize)
	}

	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[CellCoord]map[int32]struct{}),
	}, nil
}

func (x *SpatialIndex) CellSize() float64 {
	return x.cellSize
}

// CellFor converts a world location to its cell coordinate. Floor division,
// not truncation: with a cell size of 100, location -50 belongs to cell -1.
func (x *SpatialIndex) CellFor(location Vector3) CellCoord {
	return CellCoord{
		X: (int32)(math.Floor(location.X / x.cellSize)),
		Y: (int32)(math.Floor(location.Y / x.cellSize)),
		Z: (int32)(math.Floor(location.Z / x.cellSize)),
	}
}

// CellBounds returns the world-space bounds of a cell.
func (x *SpatialIndex) CellBounds(coord CellCoord) Box {
	min := Vector3{
		X: (float64)(coord.X) * x.cellSize,
		Y: (float64)(coord.Y) * x.cellSize,
		Z: (float64)(coord.Z) * x.cellSize,
	}
	return Box{
		Min: min,
		Max: Add(min, Vector3{x.cellSize, x.cellSize, x.cellSize}),
	}
}

// Insert adds an instance to the cell its location maps to. Cells have set
// semantics: inserting an already present identifier into the same cell is a
// no-op.
func (x *SpatialIndex) Insert(id int32, location Vector3) {
	coord := x.CellFor(location)

	cell, ok := x.cells[coord]
	if !ok {
		cell = make(map[int32]struct{})
		x.cells[coord] = cell
	}
	cell[id] = struct{}{}
}

// Remove deletes an instance from the cell the given location maps to. The
// caller must supply the same location used at insertion; the index keeps no
// location store of its own. Removing an identifier that is not in the
// computed cell is a safe no-op.
func (x *SpatialIndex) Remove(id int32, location Vector3) {
	coord := x.CellFor(location)

	cell, ok := x.cells[coord]
	if !ok {
		return
	}

	delete(cell, id)
	if len(cell) == 0 {
		delete(x.cells, coord)
	}
}

// Update moves an instance between cells. When both locations map to the same
// cell it does nothing: most updates are intra-cell and cost zero set
// mutation.
func (x *SpatialIndex) Update(id int32, oldLocation, newLocation Vector3) {
	oldCoord := x.CellFor(oldLocation)
	newCoord := x.CellFor(newLocation)
	if oldCoord == newCoord {
		return
	}

	x.Remove(id, oldLocation)
	x.Insert(id, newLocation)
}

// QueryRadius returns every instance in any cell touched by the bounding box
// of the sphere (center, radius). Over-approximation: instances outside the
// exact sphere may be included, instances inside it never miss.
func (x *SpatialIndex) QueryRadius(center Vector3, radius float64) []int32 {
	extent := Vector3{radius, radius, radius}
	return x.QueryBox(Box{
		Min: Sub(center, extent),
		Max: Add(center, extent),
	})
}

// QueryBox returns every instance in any cell touched by the box. Same
// over-approximation contract as QueryRadius.
func (x *SpatialIndex) QueryBox(box Box) []int32 {
	minCoord := x.CellFor(box.Min)
	maxCoord := x.CellFor(box.Max)

	var result []int32
	for cx := minCoord.X; cx <= maxCoord.X; cx++ {
		for cy := minCoord.Y; cy <= maxCoord.Y; cy++ {
			for cz := minCoord.Z; cz <= maxCoord.Z; cz++ {
				for id := range x.cells[CellCoord{cx, cy, cz}] {
					result = append(result, id)
				}
			}
		}
	}
	return result
}

// FindNearest returns the instance closest to the given location, searching
// with a geometrically expanding radius. A negative maxDistance means
// unbounded; a positive maxDistance is a hard cap and no candidate farther
// than it is ever returned. Candidates without an entry in locations are
// skipped.
func (x *SpatialIndex) FindNearest(location Vector3, locations []Vector3, maxDistance float64) (int32, bool) {
	searchRadius := maxDistance
	if searchRadius <= 0 {
		searchRadius = x.cellSize * 2
	}
	maxDistSquared := maxDistance * maxDistance

	for round := 0; round < nearestSearchRounds; round++ {
		best := (int32)(-1)
		bestDistSquared := math.Inf(1)

		for _, id := range x.QueryRadius(location, searchRadius) {
			if (int)(id) >= len(locations) || id < 0 {
				continue
			}

			distSquared := DistSquared(locations[id], location)
			if maxDistance > 0 && distSquared > maxDistSquared {
				continue
			}
			if distSquared < bestDistSquared {
				bestDistSquared = distSquared
				best = id
			}
		}

		if best >= 0 {
			return best, true
		}

		if maxDistance > 0 && searchRadius >= maxDistance {
			break
		}

		searchRadius *= 2
		if maxDistance > 0 && searchRadius > maxDistance {
			searchRadius = maxDistance
		}
	}

	return -1, false
}

// Clear discards all cells. The index becomes equivalent to a freshly
// constructed one with the same cell size.
func (x *SpatialIndex) Clear() {
	x.cells = make(map[CellCoord]map[int32]struct{})
}

// Rebuild clears the index and inserts every entry of locations, using the
// array position as the identifier.
func (x *SpatialIndex) Rebuild(locations []Vector3) {
	x.Clear()
	for i, location := range locations {
		x.Insert((int32)(i), location)
	}
}

// CellCount returns the number of live cells. Cells are removed as soon as
// their last instance is, so this reflects only occupied space.
func (x *SpatialIndex) CellCount() int {
	return len(x.cells)
}

// TotalInstances returns the sum of all cell sizes.
func (x *SpatialIndex) TotalInstances() int {
	total := 0
	for _, cell := range x.cells {
		total += len(cell)
	}
	return total
}

func (x *SpatialIndex) Stats() Stats {
	stats := Stats{
		CellSize:  x.cellSize,
		CellCount: len(x.cells),
	}

	for _, cell := range x.cells {
		stats.TotalInstances += len(cell)
		if len(cell) > stats.MaxPerCell {
			stats.MaxPerCell = len(cell)
		}
	}
	if stats.CellCount > 0 {
		stats.AvgPerCell = (float64)(stats.TotalInstances) / (float64)(stats.CellCount)
	}

	return stats
}

func (x *SpatialIndex) DebugInfo() DebugInfo {
	info := DebugInfo{
		CellSize: x.cellSize,
		Cells:    make([]CellOccupancy, 0, len(x.cells)),
	}

	for coord, cell := range x.cells {
		info.Cells = append(info.Cells, CellOccupancy{
			Coord:  coord,
			Count:  len(cell),
			Bounds: x.CellBounds(coord),
		})
	}

	return info
}
