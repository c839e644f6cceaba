package ginternals

import "errors"

// Error taxonomy shared across the object store, reference store, and
// index codec. Collaborators wrap these with context using fmt.Errorf's
// %w so callers can keep checking with errors.Is against the sentinels
// below.
var (
	// ErrObjectNotFound is an error corresponding to a git object not being
	// found
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectCorrupt is returned when an object's computed hash
	// doesn't match the hash it was stored/requested under
	ErrObjectCorrupt = errors.New("object is corrupt")

	// ErrRefNotFound is an error thrown when trying to act on a
	// reference that doesn't exists
	ErrRefNotFound = errors.New("reference not found")
	// ErrRefExists is an error thrown when trying to act on a
	// reference that should not exist, but does
	ErrRefExists = errors.New("reference already exists")
	// ErrRefNameInvalid is an error thrown when the name of a reference
	// is not valid
	ErrRefNameInvalid = errors.New("reference name is not valid")
	// ErrRefInvalid is an error thrown when a reference is not valid
	ErrRefInvalid = errors.New("reference is not valid")
	// ErrRefCycle is returned when resolving a reference chain loops
	// back onto a name already visited
	ErrRefCycle = errors.New("circular reference")
	// ErrRefTooDeep is returned when a reference chain exceeds the
	// maximum number of hops
	ErrRefTooDeep = errors.New("reference chain is too deep")
	// ErrPackedRefInvalid is an error thrown when the packed-refs
	// file cannot be parsed properly
	ErrPackedRefInvalid = errors.New("packed-refs file is invalid")
	// ErrUnknownRefType is an error thrown when the type of a reference
	// is unknown
	ErrUnknownRefType = errors.New("unknown reference type")

	// ErrIndexCorrupt is returned when the index file fails its
	// trailing checksum, or its header doesn't match expectations
	ErrIndexCorrupt = errors.New("index is corrupt")
	// ErrIndexUnknownExtension is returned when the index contains a
	// mandatory extension this codec doesn't understand
	ErrIndexUnknownExtension = errors.New("index contains an unknown mandatory extension")

	// ErrPathOutsideWorkTree is returned when an index operation is
	// given a path that escapes the work-tree
	ErrPathOutsideWorkTree = errors.New("path is outside the work tree")

	// ErrInvalidRepository is returned when a path doesn't contain a
	// valid git metadata directory
	ErrInvalidRepository = errors.New("invalid repository")
)
