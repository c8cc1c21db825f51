package grid

// LocationIndex is the capability interface for locating instances by world
// location in better-than-linear time. Instance identifiers are opaque to the
// index; they are indices into a caller-owned array of locations that the
// caller keeps in sync through Insert, Remove and Update.
type LocationIndex interface {
	CellFor(location Vector3) CellCoord
	CellBounds(coord CellCoord) Box

	Insert(id int32, location Vector3)
	Remove(id int32, location Vector3)
	Update(id int32, oldLocation, newLocation Vector3)

	// QueryRadius and QueryBox return every instance in any cell touched by
	// the query bounds. This is a conservative over-approximation: callers
	// requiring an exact sphere or box filter must post-filter by true
	// distance themselves.
	QueryRadius(center Vector3, radius float64) []int32
	QueryBox(box Box) []int32

	FindNearest(location Vector3, locations []Vector3, maxDistance float64) (int32, bool)

	Clear()
	Rebuild(locations []Vector3)

	CellSize() float64
	CellCount() int
	TotalInstances() int
	Stats() Stats
	DebugInfo() DebugInfo
}

// Stats describes index occupancy. Diagnostic only: use it to tune the cell
// size (target 10-50 instances per cell; above 100 the cell size is too
// coarse).
type Stats struct {
	CellSize       float64 `json:"cell_size"`
	CellCount      int     `json:"cell_count"`
	TotalInstances int     `json:"total_instances"`
	AvgPerCell     float64 `json:"avg_per_cell"`
	MaxPerCell     int     `json:"max_per_cell"`
}

// CellOccupancy describes a single live cell for debug visualization.
type CellOccupancy struct {
	Coord  CellCoord `json:"coord"`
	Count  int       `json:"count"`
	Bounds Box       `json:"bounds"`
}

// DebugInfo is a snapshot of every live cell, used by external debug drawing.
// It has no effect on index state.
type DebugInfo struct {
	CellSize float64         `json:"cell_size"`
	Cells    []CellOccupancy `json:"cells"`
}
