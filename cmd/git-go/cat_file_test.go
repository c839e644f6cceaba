package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"testing"
	"time"

	git "github.com/simplewave/dart-git"
	"github.com/simplewave/dart-git/ginternals"
	"github.com/simplewave/dart-git/ginternals/object"
	"github.com/simplewave/dart-git/internal/env"
	"github.com/simplewave/dart-git/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatFileParams(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc string
		args []string
	}{
		{
			desc: "-t cannot be used with -p",
			args: []string{"cat-file", "-p", "-t", "642480605b8b0fd464ab5762e044269cf29a60a3"},
		},
		{
			desc: "-s cannot be used with -p",
			args: []string{"cat-file", "-p", "-s", "642480605b8b0fd464ab5762e044269cf29a60a3"},
		},
		{
			desc: "-s cannot be used with -t",
			args: []string{"cat-file", "-t", "-s", "642480605b8b0fd464ab5762e044269cf29a60a3"},
		},
		{
			desc: "no type allowed with -t",
			args: []string{"cat-file", "-t", "blob", "642480605b8b0fd464ab5762e044269cf29a60a3"},
		},
		{
			desc: "no type allowed with -s",
			args: []string{"cat-file", "-s", "blob", "642480605b8b0fd464ab5762e044269cf29a60a3"},
		},
		{
			desc: "no type allowed with -p",
			args: []string{"cat-file", "-p", "blob", "642480605b8b0fd464ab5762e044269cf29a60a3"},
		},
		{
			desc: "type required when no -p -s -t",
			args: []string{"cat-file", "642480605b8b0fd464ab5762e044269cf29a60a3"},
		},
		{
			desc: "sha required when no -p -s -t",
			args: []string{"cat-file", "blob"},
		},
	}
	for i, tc := range testCases {
		tc := tc
		i := i
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			cmd := newRootCmd(".", env.NewFromOs())
			cmd.SetArgs(tc.args)

			var err error
			require.NotPanics(t, func() {
				err = cmd.Execute()
			})
			require.Error(t, err)
		})
	}
}

// catFileFixture describes the small repository newCatFileFixture
// builds on disk, with one blob, one tree containing it, one commit
// pointing at that tree, and a branch + HEAD pointing at the commit:
// the repo path and the hashes of each object
type catFileFixture struct {
	repoPath string
	blobID   ginternals.Oid
	treeID   ginternals.Oid
	commitID ginternals.Oid
}

func newCatFileFixture(t *testing.T) catFileFixture {
	t.Helper()

	repoPath, cleanup := testhelper.TempDir(t)
	t.Cleanup(cleanup)

	r, err := git.InitRepository(repoPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, r.Close())
	})

	blob := object.New(object.TypeBlob, []byte("hello"))
	blobID, err := r.WriteObject(blob)
	require.NoError(t, err)

	tree := object.NewTree([]object.TreeEntry{
		{Path: "hello.txt", Mode: object.ModeFile, ID: blobID},
	})
	treeID, err := r.WriteObject(tree.ToObject())
	require.NoError(t, err)

	author := object.Signature{Name: "Ada Lovelace", Email: "ada@example.com", Time: time.Unix(0, 0).UTC()}
	commit := object.NewCommit(treeID, author, &object.CommitOptions{
		Message:   "initial commit\n",
		Committer: author,
	})
	commitID, err := r.WriteObject(commit.ToObject())
	require.NoError(t, err)

	_, err = r.NewReference(ginternals.LocalBranchFullName("master"), commitID)
	require.NoError(t, err)
	_, err = r.NewSymbolicReference(ginternals.Head, ginternals.LocalBranchFullName("master"))
	require.NoError(t, err)

	return catFileFixture{
		repoPath: repoPath,
		blobID:   blobID,
		treeID:   treeID,
		commitID: commitID,
	}
}

func TestCatFile(t *testing.T) {
	t.Parallel()

	fx := newCatFileFixture(t)

	testCases := []struct {
		desc           string
		args           func() []string
		expectedOutput string
	}{
		{
			desc:           "-s should print the size (blob)",
			args:           func() []string { return []string{"cat-file", "-s", fx.blobID.String()} },
			expectedOutput: "5\n",
		},
		{
			desc:           "-t should print the type (blob)",
			args:           func() []string { return []string{"cat-file", "-t", fx.blobID.String()} },
			expectedOutput: "blob\n",
		},
		{
			desc:           "-p should pretty-print (blob)",
			args:           func() []string { return []string{"cat-file", "-p", fx.blobID.String()} },
			expectedOutput: "hello",
		},
		{
			desc:           "default should print raw object (blob)",
			args:           func() []string { return []string{"cat-file", "blob", fx.blobID.String()} },
			expectedOutput: "hello",
		},
		{
			desc:           "-t should print the type (tree)",
			args:           func() []string { return []string{"cat-file", "-t", fx.treeID.String()} },
			expectedOutput: "tree\n",
		},
		{
			desc:           "-p should pretty-print (tree)",
			args:           func() []string { return []string{"cat-file", "-p", fx.treeID.String()} },
			expectedOutput: fmt.Sprintf("100644 blob %s\thello.txt\n", fx.blobID.String()),
		},
		{
			desc:           "-t should print the type (commit)",
			args:           func() []string { return []string{"cat-file", "-t", fx.commitID.String()} },
			expectedOutput: "commit\n",
		},
		{
			desc: "default should print raw object (HEAD)",
			args: func() []string { return []string{"cat-file", "commit", "HEAD"} },
		},
		{
			desc: "default should print raw object (refs/heads/master)",
			args: func() []string { return []string{"cat-file", "commit", "refs/heads/master"} },
		},
		{
			desc: "default should print raw object (master)",
			args: func() []string { return []string{"cat-file", "commit", "master"} },
		},
	}
	for i, tc := range testCases {
		tc := tc
		i := i
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			outBuf := bytes.NewBufferString("")
			cmd := newRootCmd(".", env.NewFromOs())
			cmd.SetOut(outBuf)
			args := append([]string{"-C", fx.repoPath}, tc.args()...)
			cmd.SetArgs(args)

			var err error
			require.NotPanics(t, func() {
				err = cmd.Execute()
			})
			require.NoError(t, err)

			out, err := ioutil.ReadAll(outBuf)
			require.NoError(t, err)

			if tc.expectedOutput != "" {
				assert.Equal(t, tc.expectedOutput, string(out))
			}
		})
	}
}
