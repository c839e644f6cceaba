package git

import (
	"path/filepath"
	"testing"

	"github.com/simplewave/dart-git/ginternals"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTillAncestor(t *testing.T) {
	t.Parallel()

	r, d := newTestRepo(t)
	require.NoError(t, afero.WriteFile(r.wt, filepath.Join(d, "a.txt"), []byte("v1"), 0o644))
	c1, err := r.CreateCommit(CommitParams{Message: "c1", Author: testAuthor, AutoStage: true})
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(r.wt, filepath.Join(d, "b.txt"), []byte("v2"), 0o644))
	c2, err := r.CreateCommit(CommitParams{Message: "c2", Author: testAuthor, AutoStage: true})
	require.NoError(t, err)

	n, err := r.CountTillAncestor(c2.ID(), c1.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.CountTillAncestor(c1.ID(), c2.ID())
	require.NoError(t, err)
	assert.Equal(t, -1, n)

	n, err = r.CountTillAncestor(c1.ID(), c1.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNumChangesToPush(t *testing.T) {
	t.Parallel()

	t.Run("no configured upstream returns 0", func(t *testing.T) {
		t.Parallel()

		r, d := newTestRepo(t)
		require.NoError(t, afero.WriteFile(r.wt, filepath.Join(d, "a.txt"), []byte("v1"), 0o644))
		_, err := r.CreateCommit(CommitParams{Message: "c1", Author: testAuthor, AutoStage: true})
		require.NoError(t, err)

		n, err := r.NumChangesToPush("master")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("ahead of the upstream branch", func(t *testing.T) {
		t.Parallel()

		r, d := newTestRepo(t)
		require.NoError(t, afero.WriteFile(r.wt, filepath.Join(d, "a.txt"), []byte("v1"), 0o644))
		c1, err := r.CreateCommit(CommitParams{Message: "c1", Author: testAuthor, AutoStage: true})
		require.NoError(t, err)

		_, err = r.NewReference("refs/remotes/origin/master", c1.ID())
		require.NoError(t, err)

		require.NoError(t, afero.WriteFile(r.wt, filepath.Join(d, "b.txt"), []byte("v2"), 0o644))
		_, err = r.CreateCommit(CommitParams{Message: "c2", Author: testAuthor, AutoStage: true})
		require.NoError(t, err)

		configPath := ginternals.ConfigPath(r.Config, "")
		existing, err := afero.ReadFile(r.Config.FS, configPath)
		require.NoError(t, err)
		branchSection := "\n[branch \"master\"]\n\tremote = origin\n\tmerge = refs/heads/master\n"
		require.NoError(t, afero.WriteFile(r.Config.FS, configPath, append(existing, []byte(branchSection)...), 0o644))

		// NumChangesToPush reads branch config through the cached
		// FileAggregate, so a freshly opened Repository is needed to see
		// the edit made directly on disk above
		reopened, err := OpenRepository(d)
		require.NoError(t, err)
		t.Cleanup(func() { assert.NoError(t, reopened.Close()) })

		n, err := reopened.NumChangesToPush("master")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
