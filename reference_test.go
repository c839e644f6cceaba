package git

import (
	"fmt"
	"testing"

	"github.com/simplewave/dart-git/ginternals"
	"github.com/simplewave/dart-git/ginternals/object"
	"github.com/simplewave/dart-git/internal/testhelper"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferences(t *testing.T) {
	t.Parallel()

	r, _ := newTestRepo(t)

	oid1, err := r.WriteObject(object.New(object.TypeBlob, []byte("a")))
	require.NoError(t, err)
	oid2, err := r.WriteObject(object.New(object.TypeBlob, []byte("b")))
	require.NoError(t, err)

	_, err = r.NewReference("refs/heads/feature-a", oid1)
	require.NoError(t, err)
	_, err = r.NewReference("refs/heads/feature-b", oid2)
	require.NoError(t, err)
	_, err = r.NewReference("refs/tags/v1", oid1)
	require.NoError(t, err)

	refs, err := r.References("refs/heads/")
	require.NoError(t, err)

	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name())
	}
	assert.ElementsMatch(t, []string{
		"refs/heads/feature-a",
		"refs/heads/feature-b",
	}, names)
}

func TestDeleteReference(t *testing.T) {
	t.Parallel()

	d, cleanup := testhelper.TempDir(t)
	t.Cleanup(cleanup)

	r, err := InitRepository(d)
	require.NoError(t, err)

	oid1, err := r.WriteObject(object.New(object.TypeBlob, []byte("a")))
	require.NoError(t, err)
	oid2, err := r.WriteObject(object.New(object.TypeBlob, []byte("b")))
	require.NoError(t, err)

	_, err = r.NewReference("refs/heads/feature-a", oid1)
	require.NoError(t, err)

	// simulate a stale packed-refs entry for the same ref, pointing at a
	// different commit than the loose file that shadows it
	packedRefsPath := ginternals.PackedRefsPath(r.Config)
	packedContent := fmt.Sprintf("%s refs/heads/feature-a\n", oid2.String())
	require.NoError(t, afero.WriteFile(r.Config.FS, packedRefsPath, []byte(packedContent), 0o644))
	require.NoError(t, r.Close())

	r2, err := OpenRepository(d)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, r2.Close()) })

	// the loose ref shadows the packed one
	ref, err := r2.Reference("refs/heads/feature-a")
	require.NoError(t, err)
	assert.Equal(t, oid1, ref.Target())

	// deleting the loose file falls back to the untouched packed entry
	require.NoError(t, r2.DeleteReference("refs/heads/feature-a"))
	ref, err = r2.Reference("refs/heads/feature-a")
	require.NoError(t, err)
	assert.Equal(t, oid2, ref.Target())

	// deleting a reference that has no loose file and no packed entry
	// is a silent no-op
	require.NoError(t, r2.DeleteReference("refs/heads/never-existed"))
}
