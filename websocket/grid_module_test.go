package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/proceduralarchitect/ismruntime/modules"
	"github.com/proceduralarchitect/ismruntime/modules/grid"
	"github.com/proceduralarchitect/ismruntime/wire"
	"github.com/stretchr/testify/require"
)

func newGridTestModule() modules.Module {
	return &grid.Module{CellSize: 1000}
}

func joinScene(scenario *wire.Scenario) *wire.Scenario {
	return scenario.
		Send(func() any {
			return wire.SceneJoinRequest{
				Type:      wire.MsgTypeSceneJoinRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 1,
			}
		}).
		Receive(
			wire.FilterByRequestID(1),
			wire.FilterByType(wire.MsgTypeSceneJoinResponse),
		)
}

func TestGridModuleInstanceAdd(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler(newGridTestModule))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := joinScene(wire.NewScenario(clientA)).
		Send(func() any {
			return grid.InstanceAddRequest{
				Type:      grid.MsgTypeGridInstanceAddRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 2,
				Location:  grid.Vector3{X: 500},
			}
		}).
		Receive(
			wire.FilterByType(grid.MsgTypeGridInstanceAddResponse),
			wire.FilterByRequestID(2),
			func(msg wire.Msg) error {
				var res grid.InstanceAddResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, int32(0), res.InstanceID)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)
}

func TestGridModuleQueryRadius(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler(newGridTestModule))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	scenario := joinScene(wire.NewScenario(clientA))

	locations := []grid.Vector3{
		{X: 0, Y: 0, Z: 0},
		{X: 500, Y: 0, Z: 0},
		{X: 5000, Y: 0, Z: 0},
	}
	for i, location := range locations {
		location := location
		requestID := uint32(2 + i)

		scenario = scenario.
			Send(func() any {
				return grid.InstanceAddRequest{
					Type:      grid.MsgTypeGridInstanceAddRequest,
					Timestamp: time.Now().UTC(),
					RequestID: requestID,
					Location:  location,
				}
			}).
			Receive(
				wire.FilterByType(grid.MsgTypeGridInstanceAddResponse),
				wire.FilterByRequestID(requestID),
			)
	}

	err := scenario.
		Send(func() any {
			return grid.QueryRadiusRequest{
				Type:      grid.MsgTypeGridQueryRadiusRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 10,
				Center:    grid.Vector3{},
				Radius:    100,
			}
		}).
		Receive(
			wire.FilterByType(grid.MsgTypeGridQueryRadiusResponse),
			wire.FilterByRequestID(10),
			func(msg wire.Msg) error {
				var res grid.QueryResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				// Cell level result: both instances of the origin cell.
				require.ElementsMatch(t, []int32{0, 1}, res.InstanceIDs)
				return err
			},
		).
		Send(func() any {
			return grid.NearestRequest{
				Type:        grid.MsgTypeGridNearestRequest,
				Timestamp:   time.Now().UTC(),
				RequestID:   11,
				Location:    grid.Vector3{X: 400},
				MaxDistance: -1,
			}
		}).
		Receive(
			wire.FilterByType(grid.MsgTypeGridNearestResponse),
			wire.FilterByRequestID(11),
			func(msg wire.Msg) error {
				var res grid.NearestResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.True(t, res.Found)
				require.Equal(t, int32(1), res.InstanceID)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)
}

func TestGridModuleInstanceState(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler(newGridTestModule))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := joinScene(wire.NewScenario(clientA)).
		Send(func() any {
			return grid.InstanceAddRequest{
				Type:      grid.MsgTypeGridInstanceAddRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 2,
				Location:  grid.Vector3{X: 100},
			}
		}).
		Receive(
			wire.FilterByType(grid.MsgTypeGridInstanceAddResponse),
			wire.FilterByRequestID(2),
		).
		Send(func() any {
			return grid.InstanceStateRequest{
				Type:       grid.MsgTypeGridInstanceStateRequest,
				Timestamp:  time.Now().UTC(),
				RequestID:  3,
				InstanceID: 0,
				Flags:      grid.FlagHidden,
			}
		}).
		Receive(
			wire.FilterByType(grid.MsgTypeGridInstanceStateResponse),
			wire.FilterByRequestID(3),
		).
		Send(func() any {
			return grid.QueryRadiusRequest{
				Type:      grid.MsgTypeGridQueryRadiusRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 4,
				Center:    grid.Vector3{X: 100},
				Radius:    10,
			}
		}).
		Receive(
			wire.FilterByType(grid.MsgTypeGridQueryRadiusResponse),
			wire.FilterByRequestID(4),
			func(msg wire.Msg) error {
				var res grid.QueryResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Empty(t, res.InstanceIDs)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)
}

func TestGridModuleStats(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler(newGridTestModule))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := joinScene(wire.NewScenario(clientA)).
		Send(func() any {
			return grid.InstanceAddRequest{
				Type:      grid.MsgTypeGridInstanceAddRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 2,
				Location:  grid.Vector3{X: 42},
			}
		}).
		Receive(
			wire.FilterByType(grid.MsgTypeGridInstanceAddResponse),
			wire.FilterByRequestID(2),
		).
		Send(func() any {
			return wire.Request{
				Type:      grid.MsgTypeGridStatsRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 3,
			}
		}).
		Receive(
			wire.FilterByType(grid.MsgTypeGridStatsResponse),
			wire.FilterByRequestID(3),
			func(msg wire.Msg) error {
				var res grid.StatsResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, float64(1000), res.Stats.CellSize)
				require.Equal(t, 1, res.Stats.CellCount)
				require.Equal(t, 1, res.Stats.TotalInstances)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)
}

func TestGridModuleBatchMove(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler(newGridTestModule))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()

	err := joinScene(wire.NewScenario(clientA)).
		Send(func() any {
			return grid.InstanceAddRequest{
				Type:      grid.MsgTypeGridInstanceAddRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 2,
				Location:  grid.Vector3{X: 100},
			}
		}).
		Receive(
			wire.FilterByType(grid.MsgTypeGridInstanceAddResponse),
			wire.FilterByRequestID(2),
		).
		Send(func() any {
			return grid.BatchMoveRequest{
				Type:      grid.MsgTypeGridBatchMoveRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 3,
				Bounds: grid.NewBox(
					grid.Vector3{X: -1000, Y: -1000, Z: -1000},
					grid.Vector3{X: 1000, Y: 1000, Z: 1000},
				),
				Offset: grid.Vector3{X: 2000},
			}
		}).
		Receive(
			wire.FilterByType(grid.MsgTypeGridBatchMoveResponse),
			wire.FilterByRequestID(3),
			func(msg wire.Msg) error {
				var res grid.BatchMoveResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, 1, res.Chunks)
				require.Equal(t, 1, res.Applied)
				require.Zero(t, res.Stale)
				return err
			},
		).
		Send(func() any {
			return grid.QueryRadiusRequest{
				Type:      grid.MsgTypeGridQueryRadiusRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 4,
				Center:    grid.Vector3{X: 2100},
				Radius:    10,
			}
		}).
		Receive(
			wire.FilterByType(grid.MsgTypeGridQueryRadiusResponse),
			wire.FilterByRequestID(4),
			func(msg wire.Msg) error {
				var res grid.QueryResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, []int32{0}, res.InstanceIDs)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)
}
