package grid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, cellSize float64) *SpatialIndex {
	t.Helper()

	index, err := NewSpatialIndex(cellSize)
	require.NoError(t, err)
	return index
}

func TestNewSpatialIndex(t *testing.T) {
	t.Run("strictly positive cell size succeeds", func(t *testing.T) {
		index, err := NewSpatialIndex(100)
		require.NoError(t, err)
		require.Equal(t, float64(100), index.CellSize())
	})

	t.Run("zero cell size is rejected", func(t *testing.T) {
		_, err := NewSpatialIndex(0)
		require.Error(t, err)
	})

	t.Run("negative cell size is rejected", func(t *testing.T) {
		_, err := NewSpatialIndex(-10)
		require.Error(t, err)
	})
}

func TestSpatialIndexCellFor(t *testing.T) {
	index := newTestIndex(t, 100)

	tests := []struct {
		scenario string
		location Vector3
		coord    CellCoord
	}{
		{
			scenario: "origin maps to cell zero",
			location: Vector3{},
			coord:    CellCoord{0, 0, 0},
		},
		{
			scenario: "location inside a cell",
			location: Vector3{X: 99.9, Y: 50, Z: 1},
			coord:    CellCoord{0, 0, 0},
		},
		{
			scenario: "cell boundary belongs to the next cell",
			location: Vector3{X: 100},
			coord:    CellCoord{1, 0, 0},
		},
		{
			scenario: "negative location floors rather than truncates",
			location: Vector3{X: -50, Y: -150, Z: -0.1},
			coord:    CellCoord{-1, -2, -1},
		},
		{
			scenario: "negative cell boundary",
			location: Vector3{X: -100},
			coord:    CellCoord{-1, 0, 0},
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			require.Equal(t, test.coord, index.CellFor(test.location))
		})
	}
}

func TestSpatialIndexInsertIsIdempotent(t *testing.T) {
	index := newTestIndex(t, 100)
	location := Vector3{X: 42, Y: 7, Z: 3}

	index.Insert(1, location)
	index.Insert(1, location)

	require.Equal(t, 1, index.CellCount())
	require.Equal(t, 1, index.TotalInstances())
}

func TestSpatialIndexRemove(t *testing.T) {
	t.Run("removing the last instance removes the cell", func(t *testing.T) {
		index := newTestIndex(t, 100)
		location := Vector3{X: 42}

		index.Insert(1, location)
		index.Remove(1, location)

		require.Zero(t, index.CellCount())
		require.Zero(t, index.TotalInstances())
	})

	t.Run("cell with remaining instances survives", func(t *testing.T) {
		index := newTestIndex(t, 100)

		index.Insert(1, Vector3{X: 10})
		index.Insert(2, Vector3{X: 20})
		index.Remove(1, Vector3{X: 10})

		require.Equal(t, 1, index.CellCount())
		require.Equal(t, 1, index.TotalInstances())
	})

	t.Run("removing an absent instance is a no-op", func(t *testing.T) {
		index := newTestIndex(t, 100)

		index.Insert(1, Vector3{X: 10})
		index.Remove(2, Vector3{X: 10})
		index.Remove(1, Vector3{X: 500})

		require.Equal(t, 1, index.TotalInstances())
	})
}

func TestSpatialIndexUpdate(t *testing.T) {
	t.Run("move within a cell keeps membership", func(t *testing.T) {
		index := newTestIndex(t, 100)

		index.Insert(1, Vector3{X: 10})
		index.Update(1, Vector3{X: 10}, Vector3{X: 90})

		require.Equal(t, 1, index.CellCount())
		require.ElementsMatch(t, []int32{1}, index.QueryRadius(Vector3{X: 50}, 10))
	})

	t.Run("move across cells relocates the instance", func(t *testing.T) {
		index := newTestIndex(t, 100)

		index.Insert(1, Vector3{X: 10})
		index.Update(1, Vector3{X: 10}, Vector3{X: 250})

		require.Equal(t, 1, index.CellCount())
		require.Empty(t, index.QueryBox(NewBox(Vector3{}, Vector3{X: 99})))
		require.ElementsMatch(t, []int32{1}, index.QueryBox(NewBox(Vector3{X: 200}, Vector3{X: 299})))
	})
}

func TestSpatialIndexQueryRadiusNeverMisses(t *testing.T) {
	index := newTestIndex(t, 100)

	locations := []Vector3{
		{X: 10, Y: 10, Z: 10},
		{X: 95, Y: 95, Z: 95},
		{X: -30, Y: 40, Z: 120},
		{X: 500, Y: 500, Z: 500},
	}
	for i, location := range locations {
		index.Insert((int32)(i), location)
	}

	center := Vector3{X: 20, Y: 20, Z: 20}
	radius := float64(150)
	result := index.QueryRadius(center, radius)

	// Every instance truly within the radius must be in the result. The
	// result may over-approximate but never miss.
	for i, location := range locations {
		if DistSquared(location, center) <= radius*radius {
			require.Contains(t, result, (int32)(i))
		}
	}
	require.NotContains(t, result, (int32)(3))
}

func TestSpatialIndexQueryBox(t *testing.T) {
	index := newTestIndex(t, 100)

	index.Insert(1, Vector3{X: 50, Y: 50, Z: 50})
	index.Insert(2, Vector3{X: 150, Y: 50, Z: 50})
	index.Insert(3, Vector3{X: 950, Y: 950, Z: 950})

	result := index.QueryBox(NewBox(Vector3{}, Vector3{X: 200, Y: 99, Z: 99}))
	require.ElementsMatch(t, []int32{1, 2}, result)

	require.Empty(t, index.QueryBox(NewBox(
		Vector3{X: 2000, Y: 2000, Z: 2000},
		Vector3{X: 2100, Y: 2100, Z: 2100},
	)))
}

func TestSpatialIndexFindNearest(t *testing.T) {
	locations := []Vector3{
		{X: 0},
		{X: 500},
		{X: 5000},
	}

	makeIndex := func(t *testing.T) *SpatialIndex {
		index := newTestIndex(t, 1000)
		for i, location := range locations {
			index.Insert((int32)(i), location)
		}
		return index
	}

	t.Run("unbounded search finds the closest instance", func(t *testing.T) {
		index := makeIndex(t)

		id, found := index.FindNearest(Vector3{X: 400}, locations, -1)
		require.True(t, found)
		require.Equal(t, int32(1), id)
	})

	t.Run("bounded search respects the distance cap", func(t *testing.T) {
		index := makeIndex(t)

		// Instance 1 is 600 units away from X=1100, within the cap.
		id, found := index.FindNearest(Vector3{X: 1100}, locations, 700)
		require.True(t, found)
		require.Equal(t, int32(1), id)

		// Nothing within 50 units of X=5200 even though cell level search
		// touches the cell containing instance 2.
		_, found = index.FindNearest(Vector3{X: 5200}, locations, 50)
		require.False(t, found)
	})

	t.Run("search on an empty index terminates", func(t *testing.T) {
		index := newTestIndex(t, 1000)

		_, found := index.FindNearest(Vector3{}, nil, -1)
		require.False(t, found)
	})

	t.Run("candidates without a location entry are skipped", func(t *testing.T) {
		index := makeIndex(t)
		index.Insert(25, Vector3{X: 390})

		// Identifier 25 is out of the locations slice range and must not be
		// considered, even though it sits closest to the query point.
		id, found := index.FindNearest(Vector3{X: 400}, locations, -1)
		require.True(t, found)
		require.Equal(t, int32(1), id)
	})
}

func TestSpatialIndexClear(t *testing.T) {
	index := newTestIndex(t, 100)

	index.Insert(1, Vector3{X: 10})
	index.Insert(2, Vector3{X: 500})
	index.Clear()

	require.Zero(t, index.CellCount())
	require.Zero(t, index.TotalInstances())
	require.Empty(t, index.QueryRadius(Vector3{}, 1000))
}

func TestSpatialIndexRebuild(t *testing.T) {
	index := newTestIndex(t, 100)

	// Degrade the index with entries that no longer match the source data.
	index.Insert(7, Vector3{X: 9999})
	index.Insert(8, Vector3{X: -9999})

	locations := []Vector3{
		{X: 10},
		{X: 20},
		{X: 250},
	}
	index.Rebuild(locations)

	require.Equal(t, 2, index.CellCount())
	require.Equal(t, 3, index.TotalInstances())
	require.ElementsMatch(t, []int32{0, 1}, index.QueryBox(NewBox(Vector3{}, Vector3{X: 99})))
	require.ElementsMatch(t, []int32{2}, index.QueryBox(NewBox(Vector3{X: 200}, Vector3{X: 299})))
}

func TestSpatialIndexStats(t *testing.T) {
	index := newTestIndex(t, 1000)

	index.Insert(0, Vector3{X: 0})
	index.Insert(1, Vector3{X: 500})
	index.Insert(2, Vector3{X: 5000})

	stats := index.Stats()
	require.Equal(t, float64(1000), stats.CellSize)
	require.Equal(t, 2, stats.CellCount)
	require.Equal(t, 3, stats.TotalInstances)
	require.Equal(t, 2, stats.MaxPerCell)
	require.Equal(t, 1.5, stats.AvgPerCell)
}

func TestSpatialIndexDebugInfo(t *testing.T) {
	index := newTestIndex(t, 100)

	index.Insert(1, Vector3{X: 10})
	index.Insert(2, Vector3{X: 20})

	info := index.DebugInfo()
	require.Equal(t, float64(100), info.CellSize)
	require.Len(t, info.Cells, 1)

	cell := info.Cells[0]
	require.Equal(t, CellCoord{0, 0, 0}, cell.Coord)
	require.Equal(t, 2, cell.Count)
	require.Equal(t, Vector3{}, cell.Bounds.Min)
	require.Equal(t, Vector3{X: 100, Y: 100, Z: 100}, cell.Bounds.Max)
}
