package git

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/simplewave/dart-git/ginternals"
	"github.com/simplewave/dart-git/ginternals/object"
)

// treeBuilder assembles the hierarchy of tree objects implied by a
// flat list of index entries. Every directory (including the root,
// keyed by "") owns its own set of leaves; writing proceeds from the
// deepest directories up so that a parent always has the hash of its
// children available by the time it's serialized.
type treeBuilder struct {
	repo *Repository
	// entries maps a directory path ("" for root) to the leaves it
	// directly contains
	entries map[string]map[string]object.TreeEntry
	// parent maps a directory path to the path of its parent directory.
	// The root ("") has no entry here.
	parent map[string]string
}

func newTreeBuilder(r *Repository) *treeBuilder {
	return &treeBuilder{
		repo:    r,
		entries: map[string]map[string]object.TreeEntry{"": {}},
		parent:  map[string]string{},
	}
}

// dir ensures a directory (and all its ancestors) exists in the
// builder's working set, and returns it
func (tb *treeBuilder) dir(dirPath string) map[string]object.TreeEntry {
	if m, ok := tb.entries[dirPath]; ok {
		return m
	}

	parentPath := path.Dir(dirPath)
	if parentPath == "." {
		parentPath = ""
	}
	parentEntries := tb.dir(parentPath)

	m := map[string]object.TreeEntry{}
	tb.entries[dirPath] = m
	tb.parent[dirPath] = parentPath

	base := path.Base(dirPath)
	if _, exists := parentEntries[base]; !exists {
		parentEntries[base] = object.TreeEntry{
			Path: base,
			Mode: object.ModeDirectory,
			// hash is filled in once the child directory is written
			ID: ginternals.NullOid,
		}
	}
	return m
}

// insert adds a leaf to the directory containing it, creating any
// implied ancestor directories along the way
func (tb *treeBuilder) insert(entryPath string, mode object.TreeObjectMode, id ginternals.Oid) {
	dirPath := path.Dir(entryPath)
	if dirPath == "." {
		dirPath = ""
	}
	base := path.Base(entryPath)

	m := tb.dir(dirPath)
	m[base] = object.TreeEntry{
		Path: base,
		Mode: mode,
		ID:   id,
	}
}

// writeTree builds and persists the hierarchy of tree objects implied
// by the given index entries, and returns the hash of the root tree
func (r *Repository) writeTree(idx *ginternals.Index) (ginternals.Oid, error) {
	tb := newTreeBuilder(r)

	for _, e := range idx.Entries {
		mode := object.TreeObjectMode(e.Mode)
		if !mode.IsValid() {
			mode = object.ModeFile
		}
		tb.insert(e.Path, mode, e.Hash)
	}

	// Sort directories by depth descending, then lexicographic, so
	// that every child is written before its parent
	dirs := make([]string, 0, len(tb.entries))
	for d := range tb.entries {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := depth(dirs[i]), depth(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})

	written := map[string]ginternals.Oid{}
	for _, d := range dirs {
		leaves := tb.entries[d]
		entries := make([]object.TreeEntry, 0, len(leaves))
		for _, e := range leaves {
			if e.Mode == object.ModeDirectory && e.ID.IsZero() {
				childPath := path.Join(d, e.Path)
				childID, ok := written[childPath]
				if !ok {
					return ginternals.NullOid, fmt.Errorf("could not resolve child directory %s: %w", childPath, object.ErrObjectInvalid)
				}
				e.ID = childID
			}
			entries = append(entries, e)
		}
		object.SortEntries(entries)

		t := object.NewTree(entries)
		id, err := r.WriteObject(t.ToObject())
		if err != nil {
			return ginternals.NullOid, fmt.Errorf("could not write tree %s: %w", d, err)
		}
		written[d] = id
	}

	return written[""], nil
}

// depth returns the number of path components in a directory path
// ("sub" is 1, "sub/deep" is 2); the root ("") has depth 0
func depth(dirPath string) int {
	if dirPath == "" {
		return 0
	}
	return strings.Count(dirPath, "/") + 1
}
