// Package git implements the core of a git repository: the object
// database, the reference store, the staging index, and the
// operations built on top of them (tree building, committing,
// ahead-count).
package git

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/simplewave/dart-git/backend"
	"github.com/simplewave/dart-git/ginternals"
	"github.com/simplewave/dart-git/ginternals/config"
	"github.com/simplewave/dart-git/ginternals/object"
	"github.com/simplewave/dart-git/internal/pathutil"
	"github.com/spf13/afero"
)

// ErrRepositoryExists reports that a repository already exists at a
// path. InitRepository and InitRepositoryWithParams don't return it:
// running them on an existing repository succeeds
var ErrRepositoryExists = errors.New("repository already exists")

// Repository represents a git repository: the metadata directory
// (object database, references, index) plus, for non-bare
// repositories, the work-tree it tracks
type Repository struct {
	// Config is the resolved configuration used to open/init this
	// repository
	Config *config.Config

	dotGit *backend.Backend
	wt     afero.Fs
	isBare bool
}

// InitOptions contains all the optional data used to initialize a
// repository
type InitOptions struct {
	// IsBare represents whether a bare repository will be created or not
	IsBare bool
	// InitialBranchName is the name of the branch HEAD will point to.
	// Defaults to ginternals.Master
	InitialBranchName string
	// Symlink creates a .git FILE containing a pointer to the actual
	// git directory, instead of using the git directory directly
	Symlink bool
}

// InitRepository initializes a new git repository at the given path
func InitRepository(repoPath string) (*Repository, error) {
	cfg, err := config.LoadConfigSkipEnv(config.LoadConfigOptions{
		WorkTreePath:     repoPath,
		GitDirPath:       filepath.Join(repoPath, config.DefaultDotGitDirName),
		SkipGitDirLookUp: true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create config: %w", err)
	}
	return InitRepositoryWithParams(cfg, InitOptions{})
}

// InitRepositoryWithParams initializes a new git repository using the
// provided config and options.
// Running this on an existing repository is safe; it won't overwrite
// anything already there
func InitRepositoryWithParams(cfg *config.Config, opts InitOptions) (*Repository, error) {
	branchName := opts.InitialBranchName
	if branchName == "" {
		branchName = ginternals.Master
	}

	b, err := backend.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create backend: %w", err)
	}

	if err = b.InitWithOptions(branchName, backend.InitOptions{
		CreateSymlink: opts.Symlink,
	}); err != nil {
		return nil, fmt.Errorf("could not init repository: %w", err)
	}

	return newRepository(cfg, b, opts.IsBare), nil
}

// OpenOptions contains all the optional data used to open a
// repository
type OpenOptions struct {
	// IsBare represents whether the repository is bare (has no
	// work-tree) or not
	IsBare bool
}

// OpenRepository loads an existing git repository from the given path
func OpenRepository(repoPath string) (*Repository, error) {
	cfg, err := config.LoadConfigSkipEnv(config.LoadConfigOptions{
		WorkingDirectory: repoPath,
	})
	if err != nil {
		if errors.Is(err, pathutil.ErrNoRepo) {
			return nil, fmt.Errorf("%s: %w", repoPath, ginternals.ErrInvalidRepository)
		}
		return nil, fmt.Errorf("could not create config: %w", err)
	}
	return OpenRepositoryWithParams(cfg, OpenOptions{})
}

// OpenRepositoryWithParams loads an existing git repository using the
// provided config and options
func OpenRepositoryWithParams(cfg *config.Config, opts OpenOptions) (*Repository, error) {
	b, err := backend.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create backend: %w", err)
	}

	// Since we can't just check that the directory exists (it could be
	// a valid, empty, bare repo), we make sure HEAD exists instead.
	// HEAD isn't followed: a fresh repository's HEAD points at a branch
	// that has no commit yet.
	if _, _, _, err = b.RawReference(ginternals.Head); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.GitDirPath, ginternals.ErrInvalidRepository)
	}

	return newRepository(cfg, b, opts.IsBare), nil
}

func newRepository(cfg *config.Config, b *backend.Backend, isBare bool) *Repository {
	r := &Repository{
		Config: cfg,
		dotGit: b,
		isBare: isBare,
	}
	if !isBare {
		r.wt = cfg.FS
		if r.wt == nil {
			r.wt = afero.NewOsFs()
		}
	}
	return r
}

// Close releases any resource held by the repository
func (r *Repository) Close() error {
	return r.dotGit.Close()
}

// IsBare returns whether the repository has no work-tree
func (r *Repository) IsBare() bool {
	return r.isBare
}

// Reference returns a reference by its full name (ex: "HEAD",
// "refs/heads/master")
func (r *Repository) Reference(name string) (*ginternals.Reference, error) {
	return r.dotGit.Reference(name)
}

// NewReference creates and persists a direct (hash) reference,
// overwriting it if it already exists
func (r *Repository) NewReference(name string, target ginternals.Oid) (*ginternals.Reference, error) {
	ref := ginternals.NewReference(name, target)
	if err := r.dotGit.WriteReference(ref); err != nil {
		return nil, fmt.Errorf("could not persist reference %s: %w", name, err)
	}
	return ref, nil
}

// NewSymbolicReference creates and persists a symbolic reference,
// overwriting it if it already exists
func (r *Repository) NewSymbolicReference(name, target string) (*ginternals.Reference, error) {
	ref := ginternals.NewSymbolicReference(name, target)
	if err := r.dotGit.WriteReference(ref); err != nil {
		return nil, fmt.Errorf("could not persist reference %s: %w", name, err)
	}
	return ref, nil
}

// References returns every reference whose name starts with prefix,
// loose refs taking precedence over packed ones with the same name
func (r *Repository) References(prefix string) ([]*ginternals.Reference, error) {
	refs, err := r.dotGit.List(prefix)
	if err != nil {
		return nil, fmt.Errorf("could not list references under %s: %w", prefix, err)
	}
	return refs, nil
}

// DeleteReference removes a reference's loose file, leaving any packed
// entry for the same name untouched on disk
func (r *Repository) DeleteReference(name string) error {
	if err := r.dotGit.Delete(name); err != nil {
		return fmt.Errorf("could not delete reference %s: %w", name, err)
	}
	return nil
}

// Object returns the object matching the given id
func (r *Repository) Object(oid ginternals.Oid) (*object.Object, error) {
	return r.dotGit.Object(oid)
}

// WriteObject persists an object to the object database and returns
// its id
func (r *Repository) WriteObject(o *object.Object) (ginternals.Oid, error) {
	return r.dotGit.WriteObject(o)
}

// Commit returns the commit object matching the given id
func (r *Repository) Commit(oid ginternals.Oid) (*object.Commit, error) {
	o, err := r.Object(oid)
	if err != nil {
		return nil, fmt.Errorf("could not get commit %s: %w", oid.String(), err)
	}
	c, err := o.AsCommit()
	if err != nil {
		return nil, fmt.Errorf("%s is not a commit: %w", oid.String(), err)
	}
	return c, nil
}

// Tree returns the tree object matching the given id
func (r *Repository) Tree(oid ginternals.Oid) (*object.Tree, error) {
	o, err := r.Object(oid)
	if err != nil {
		return nil, fmt.Errorf("could not get tree %s: %w", oid.String(), err)
	}
	t, err := o.AsTree()
	if err != nil {
		return nil, fmt.Errorf("%s is not a tree: %w", oid.String(), err)
	}
	return t, nil
}
