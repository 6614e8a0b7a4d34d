// Package optimistic applies a local change ahead of a remote write and
// compensates when the write fails.
package optimistic

import "context"

// Update runs apply, then remote. If remote fails, revert runs and the remote
// error is returned unchanged.
func Update(ctx context.Context, apply, revert func(), remote func(ctx context.Context) error) error {
	apply()
	if err := remote(ctx); err != nil {
		revert()
		return err
	}
	return nil
}
