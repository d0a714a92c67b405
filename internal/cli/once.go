package cli

import (
	"context"
	"io"

	apperrors "github.com/agbru/cpuwatch/internal/errors"
	"github.com/agbru/cpuwatch/internal/snapshot"
)

// SnapshotWaiter is the part of the distributor once mode reads from.
type SnapshotWaiter interface {
	NextAfter(ctx context.Context, after uint64) (snapshot.Snapshot, error)
}

// RunOnce waits for the first snapshot published to src, then prints it to
// out. A spinner is shown on status while waiting; the sampler needs two
// readings before it can publish.
func RunOnce(ctx context.Context, src SnapshotWaiter, config OutputConfig, out, status io.Writer) error {
	spin := newSpinner(status)
	spin.UpdateSuffix(" waiting for the first CPU sample...")
	spin.Start()
	snap, err := src.NextAfter(ctx, 0)
	spin.Stop()
	if err != nil {
		return apperrors.WrapError(err, "wait for first sample")
	}
	return DisplaySnapshotWithConfig(out, snap, config)
}
