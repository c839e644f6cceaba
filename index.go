package git

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/simplewave/dart-git/ginternals"
	"github.com/simplewave/dart-git/ginternals/config"
	"github.com/simplewave/dart-git/ginternals/object"
	"github.com/spf13/afero"
)

// ReadIndex loads the staging index from disk. A missing index file
// is treated as an empty, fresh index
func (r *Repository) ReadIndex() (*ginternals.Index, error) {
	p := ginternals.IndexPath(r.Config)
	data, err := afero.ReadFile(r.Config.FS, p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ginternals.NewIndex(), nil
		}
		return nil, fmt.Errorf("could not read index at %s: %w", p, err)
	}

	idx, err := ginternals.DecodeIndex(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse index at %s: %w", p, err)
	}
	return idx, nil
}

// WriteIndex persists the index to disk, atomically (write to a
// lockfile, then rename into place)
func (r *Repository) WriteIndex(idx *ginternals.Index) error {
	data, err := idx.Encode()
	if err != nil {
		return fmt.Errorf("could not encode index: %w", err)
	}

	fsys := r.Config.FS
	p := ginternals.IndexPath(r.Config)
	lockPath := p + ".lock"
	if err = afero.WriteFile(fsys, lockPath, data, 0o644); err != nil {
		return fmt.Errorf("could not persist index to disk: %w", err)
	}
	if err = fsys.Rename(lockPath, p); err != nil {
		return fmt.Errorf("could not persist index to disk: %w", err)
	}
	return nil
}

// relWorkTreePath returns a path relative to the work-tree, using
// forward slashes, or ErrPathOutsideWorkTree if the given path
// escapes it
func (r *Repository) relWorkTreePath(p string) (string, error) {
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.Config.WorkTreePath, p)
	}
	rel, err := filepath.Rel(r.Config.WorkTreePath, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s: %w", p, ginternals.ErrPathOutsideWorkTree)
	}
	return filepath.ToSlash(rel), nil
}

// AddFile stages a single file: it reads the file, writes a blob for
// its content, and inserts/updates the matching entry in idx. The
// index isn't persisted; the caller must call WriteIndex
func (r *Repository) AddFile(idx *ginternals.Index, p string) error {
	relPath, err := r.relWorkTreePath(p)
	if err != nil {
		return err
	}

	absPath := filepath.Join(r.Config.WorkTreePath, relPath)
	content, err := afero.ReadFile(r.wt, absPath)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", absPath, err)
	}
	info, err := r.wt.Stat(absPath)
	if err != nil {
		return fmt.Errorf("could not stat %s: %w", absPath, err)
	}

	o := object.New(object.TypeBlob, content)
	oid, err := r.WriteObject(o)
	if err != nil {
		return fmt.Errorf("could not write blob for %s: %w", relPath, err)
	}

	mode := uint32(object.ModeFile)
	if info.Mode()&0o111 != 0 {
		mode = uint32(object.ModeExecutable)
	}

	mtime := info.ModTime()
	for i := range idx.Entries {
		if idx.Entries[i].Path == relPath {
			idx.Entries[i].Hash = oid
			idx.Entries[i].Size = uint32(info.Size())
			idx.Entries[i].CTimeSec = uint32(mtime.Unix())
			idx.Entries[i].CTimeNano = uint32(mtime.Nanosecond())
			idx.Entries[i].MTimeSec = uint32(mtime.Unix())
			idx.Entries[i].MTimeNano = uint32(mtime.Nanosecond())
			idx.Entries[i].Mode = mode
			return nil
		}
	}

	idx.Entries = append(idx.Entries, ginternals.IndexEntry{
		Path:      relPath,
		Hash:      oid,
		Size:      uint32(info.Size()),
		Mode:      mode,
		CTimeSec:  uint32(mtime.Unix()),
		CTimeNano: uint32(mtime.Nanosecond()),
		MTimeSec:  uint32(mtime.Unix()),
		MTimeNano: uint32(mtime.Nanosecond()),
	})
	return nil
}

// AddDirectory stages every regular file under dir, skipping anything
// inside the metadata directory
func (r *Repository) AddDirectory(idx *ginternals.Index, dir string) error {
	absDir := dir
	if !filepath.IsAbs(absDir) {
		absDir = filepath.Join(r.Config.WorkTreePath, dir)
	}

	return afero.Walk(r.wt, absDir, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("could not walk %s: %w", p, err)
		}
		if info.IsDir() {
			if p == r.Config.GitDirPath {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if isInsideMetadataDir(r.Config, p) {
			return nil
		}
		return r.AddFile(idx, p)
	})
}

// RemoveFile drops every entry in idx whose path equals the
// normalized relative path, silently doing nothing if none match.
// Returns the number of entries removed
func (r *Repository) RemoveFile(idx *ginternals.Index, p string) (int, error) {
	relPath, err := r.relWorkTreePath(p)
	if err != nil {
		return 0, err
	}

	kept := idx.Entries[:0]
	removed := 0
	for _, e := range idx.Entries {
		if e.Path == relPath {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	idx.Entries = kept
	return removed, nil
}

func isInsideMetadataDir(cfg *config.Config, p string) bool {
	rel, err := filepath.Rel(cfg.GitDirPath, p)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
