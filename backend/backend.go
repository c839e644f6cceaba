// Package backend contains the object/reference store implementation used
// by a repository: loose objects on disk, references (loose and packed),
// and the in-memory indexes kept on top of them.
package backend

import (
	"errors"
	"fmt"
	"sync"

	"github.com/simplewave/dart-git/ginternals"
	"github.com/simplewave/dart-git/ginternals/config"
	"github.com/simplewave/dart-git/internal/cache"
	"github.com/simplewave/dart-git/internal/syncutil"
	"github.com/spf13/afero"
)

// defaultObjectCacheSize is the number of objects kept in the read-through
// cache
const defaultObjectCacheSize = 1000

// defaultMutexShards is the number of shards used by the per-object-id
// locks
const defaultMutexShards = 256

// RefWalkFunc represents a function that will be applied on all references
// found by WalkReferences()
type RefWalkFunc = func(ref *ginternals.Reference) error

// OidWalkFunc represents a function that will be applied on all the
// object ids found by WalkLooseObjectIDs()
type OidWalkFunc = func(oid ginternals.Oid) error

// WalkStop is a fake error used to tell Walk() to stop
var WalkStop = errors.New("stop walking") //nolint // the linter expects all errors to start with Err, but since here we're faking an error we don't want that

// Backend stores and retrieves objects and references for a repository
// using the filesystem as storage. It can be used concurrently: object
// writes/reads are guarded by a sharded mutex and references are kept in
// a sync.Map.
type Backend struct {
	fs     afero.Fs
	config *config.Config

	refs sync.Map // ref name (string) -> raw file content ([]byte), loose wins over packed
	// packedRefs holds only the entries that came from packed-refs, so a
	// deleted loose ref can fall back to its packed value instead of
	// vanishing outright
	packedRefs sync.Map // ref name (string) -> raw file content ([]byte)

	looseObjects sync.Map // ginternals.Oid -> struct{}
	objectMu     *syncutil.NamedMutex
	cache        *cache.LRU
}

// New returns a Backend that operates on the repository described by cfg.
// It loads the existing references and the list of loose objects already
// on disk, if any.
func New(cfg *config.Config) (*Backend, error) {
	fs := cfg.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}

	objCache, err := cache.NewLRU(defaultObjectCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create object cache: %w", err)
	}

	b := &Backend{
		fs:       fs,
		config:   cfg,
		objectMu: syncutil.NewNamedMutex(defaultMutexShards),
		cache:    objCache,
	}

	if err := b.loadRefs(); err != nil {
		return nil, fmt.Errorf("could not load references: %w", err)
	}
	if err := b.loadLooseObject(); err != nil {
		return nil, fmt.Errorf("could not load loose objects: %w", err)
	}

	return b, nil
}

// Close frees the resources held by the backend
func (b *Backend) Close() error {
	if b.cache != nil {
		b.cache.Clear()
	}
	return nil
}

// Path returns the path to the repository's metadata directory (.git)
func (b *Backend) Path() string {
	return b.config.GitDirPath
}
