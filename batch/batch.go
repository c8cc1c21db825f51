// Package batch processes per-cell snapshots of instance data on a bounded
// worker pool. One snapshot covers all instances of a single spatial cell;
// each chunk is independently processable. Results carry the generation token
// captured at snapshot time so the owner can discard mutations that became
// stale while the chunk was in flight.
package batch

import (
	"context"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// Cell identifies the spatial cell a snapshot covers.
type Cell struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// Instance is the read-only copy of a single instance handed to a
// transformer. The transformer owns the copy and can read it freely on any
// worker goroutine.
type Instance struct {
	ID       int32      `json:"id"`
	Location [3]float64 `json:"location"`
}

// Snapshot is the unit of work handed to a transformer: every instance of one
// occupied cell, plus the owner's generation token at capture time.
type Snapshot struct {
	Cell       Cell
	Generation uint64
	Instances  []Instance
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Instances) == 0
}

// Mutation is a requested change to a single instance.
type Mutation struct {
	ID       int32      `json:"id"`
	Location [3]float64 `json:"location"`
}

// Result is the outcome of transforming one snapshot. The owner validates
// Generation before applying: when the source was structurally modified since
// the snapshot, the result is discarded as stale.
type Result struct {
	Cell       Cell
	Generation uint64
	Mutations  []Mutation
}

// A Transformer computes mutations from a snapshot. It runs on a worker
// goroutine and must not touch the snapshot source.
type Transformer func(ctx context.Context, s Snapshot) (Result, error)

// Run processes the given snapshots on at most workers goroutines and returns
// one result per non-empty snapshot. A non-positive workers count falls back
// to a small default. The first transformer error cancels remaining chunks.
func Run(ctx context.Context, snapshots []Snapshot, transform Transformer, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mutex sync.Mutex
	results := make([]Result, 0, len(snapshots))

	for _, snapshot := range snapshots {
		if snapshot.IsEmpty() {
			continue
		}
		snapshot := snapshot

		g.Go(func() error {
			result, err := transform(ctx, snapshot)
			if err != nil {
				instrumentChunkFailure()
				return errors.New("transforming batch chunk failed").
					WithTag("cell_x", snapshot.Cell.X).
					WithTag("cell_y", snapshot.Cell.Y).
					WithTag("cell_z", snapshot.Cell.Z).
					Wrap(err)
			}
			instrumentChunkProcessed(len(snapshot.Instances))

			mutex.Lock()
			results = append(results, result)
			mutex.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Translate returns a transformer that moves every instance of a chunk by the
// given offset, preserving the snapshot's generation token.
func Translate(offset [3]float64) Transformer {
	return func(ctx context.Context, s Snapshot) (Result, error) {
		result := Result{
			Cell:       s.Cell,
			Generation: s.Generation,
			Mutations:  make([]Mutation, len(s.Instances)),
		}

		for i, instance := range s.Instances {
			result.Mutations[i] = Mutation{
				ID: instance.ID,
				Location: [3]float64{
					instance.Location[0] + offset[0],
					instance.Location[1] + offset[1],
					instance.Location[2] + offset[2],
				},
			}
		}

		return result, nil
	}
}
