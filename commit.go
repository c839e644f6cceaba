package git

import (
	"errors"
	"fmt"

	"github.com/simplewave/dart-git/ginternals"
	"github.com/simplewave/dart-git/ginternals/object"
)

// CommitParams groups the inputs needed to create a new commit
type CommitParams struct {
	Message string
	Author  object.Signature
	// Committer defaults to Author when zero
	Committer object.Signature
	// AutoStage walks the work-tree and stages every regular file
	// before building the tree
	AutoStage bool
}

// CreateCommit reads the index (auto-staging the work-tree first if
// requested), builds the tree it describes, and creates a commit
// pointing to it. HEAD's branch is updated to the new commit; if HEAD
// is detached, HEAD itself is updated instead
func (r *Repository) CreateCommit(params CommitParams) (*object.Commit, error) {
	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("could not read index: %w", err)
	}

	if params.AutoStage {
		if err = r.AddDirectory(idx, r.Config.WorkTreePath); err != nil {
			return nil, fmt.Errorf("could not stage work-tree: %w", err)
		}
		if err = r.WriteIndex(idx); err != nil {
			return nil, fmt.Errorf("could not persist index: %w", err)
		}
	}

	treeID, err := r.writeTree(idx)
	if err != nil {
		return nil, fmt.Errorf("could not build tree: %w", err)
	}

	var parents []ginternals.Oid
	head, err := r.Reference(ginternals.Head)
	switch {
	case err == nil:
		parents = []ginternals.Oid{head.Target()}
	case errors.Is(err, ginternals.ErrRefNotFound):
		// no HEAD yet, or HEAD points at a branch with no commit yet:
		// this is the root commit
	default:
		return nil, fmt.Errorf("could not resolve HEAD: %w", err)
	}

	c := object.NewCommit(treeID, params.Author, &object.CommitOptions{
		Message:   params.Message,
		Committer: params.Committer,
		ParentsID: parents,
	})

	commitID, err := r.WriteObject(c.ToObject())
	if err != nil {
		return nil, fmt.Errorf("could not write commit: %w", err)
	}

	if err = r.updateHeadAfterCommit(commitID); err != nil {
		return nil, err
	}

	return r.Commit(commitID)
}

// updateHeadAfterCommit points the current branch (or HEAD itself, if
// detached) to the newly created commit. HEAD may be symbolic and
// point at a branch that doesn't exist on disk yet (a freshly
// initialized repository before its first commit); that's not an
// error, it just means the branch ref gets created
func (r *Repository) updateHeadAfterCommit(commitID ginternals.Oid) error {
	headPath := ginternals.Head

	isSymbolic, target, _, err := r.dotGit.RawReference(headPath)
	switch {
	case err == nil:
		// handled below
	case errors.Is(err, ginternals.ErrRefNotFound):
		// no HEAD yet: point it directly at the new commit
		_, werr := r.NewReference(headPath, commitID)
		if werr != nil {
			return fmt.Errorf("could not create HEAD: %w", werr)
		}
		return nil
	default:
		return fmt.Errorf("could not read HEAD: %w", err)
	}

	if isSymbolic {
		if _, err = r.NewReference(target, commitID); err != nil {
			return fmt.Errorf("could not update branch ref: %w", err)
		}
		return nil
	}

	// detached HEAD: overwrite HEAD itself
	if _, err = r.NewReference(headPath, commitID); err != nil {
		return fmt.Errorf("could not update HEAD: %w", err)
	}
	return nil
}
