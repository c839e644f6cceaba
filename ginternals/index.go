package ginternals

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // matches the hash the rest of the object model uses
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/simplewave/dart-git/internal/readutil"
)

// indexSignature is the magic 4 bytes found at the start of every
// index file
const indexSignature = "DIRC"

// IndexVersion is the only index format version this codec understands
const IndexVersion = 2

// indexEntryFixedSize is the number of bytes of an entry before its
// path: 10 big-endian uint32s (ctime x2, mtime x2, dev, ino, mode,
// uid, gid, size) + a 20-byte hash + a 2-byte flags field
const indexEntryFixedSize = 10*4 + oidSize + 2

// Index entry flags bitfield layout (16 bits, high to low)
const (
	indexFlagAssumeValid = 1 << 15
	indexFlagExtended    = 1 << 14
	indexFlagStageShift  = 12
	indexFlagStageMask   = 0x3
	indexFlagNameMask    = 0xFFF
)

// IndexEntry represents a single staged file inside the Index
type IndexEntry struct {
	CTimeSec  uint32
	CTimeNano uint32
	MTimeSec  uint32
	MTimeNano uint32
	Dev       uint32
	Ino       uint32
	Mode      uint32
	UID       uint32
	GID       uint32
	Size      uint32
	Hash      Oid

	AssumeValid bool
	Stage       uint16

	// Path is forward-slash separated and relative to the work-tree
	Path string
}

// Index represents the content of the git staging area (the `index`
// file under the repository's metadata directory)
type Index struct {
	// Version is always IndexVersion: DecodeIndex rejects any other
	// version read from disk
	Version uint32
	Entries []IndexEntry
}

// NewIndex returns a new, empty index
func NewIndex() *Index {
	return &Index{
		Version: IndexVersion,
	}
}

// Len returns the number of entries in the index
func (idx *Index) Len() int {
	return len(idx.Entries)
}

// Sort orders the entries ascending by (path, stage), as required
// before persisting the index to disk
func (idx *Index) Sort() {
	sort.Slice(idx.Entries, func(i, j int) bool {
		a, b := idx.Entries[i], idx.Entries[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Stage < b.Stage
	})
}

// DecodeIndex parses the binary content of an index file.
// An absent index file should be represented by the caller as an
// empty slice, which DecodeIndex turns into a fresh empty v2 index.
func DecodeIndex(data []byte) (*Index, error) {
	if len(data) == 0 {
		return NewIndex(), nil
	}

	if len(data) < 12+oidSize {
		return nil, fmt.Errorf("index is too short: %w", ErrIndexCorrupt)
	}

	trailer := data[len(data)-oidSize:]
	body := data[:len(data)-oidSize]
	sum := sha1.Sum(body) //nolint:gosec // matches git's own index checksum
	if !bytes.Equal(sum[:], trailer) {
		return nil, fmt.Errorf("index checksum doesn't match: %w", ErrIndexCorrupt)
	}

	if string(body[0:4]) != indexSignature {
		return nil, fmt.Errorf("unexpected index signature %q: %w", body[0:4], ErrIndexCorrupt)
	}
	version := binary.BigEndian.Uint32(body[4:8])
	if version != IndexVersion {
		return nil, fmt.Errorf("unsupported index version %d: %w", version, ErrIndexCorrupt)
	}
	entryCount := binary.BigEndian.Uint32(body[8:12])

	idx := &Index{
		Version: version,
		Entries: make([]IndexEntry, 0, entryCount),
	}

	offset := 12
	for i := uint32(0); i < entryCount; i++ {
		entry, consumed, err := decodeIndexEntry(body[offset:])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		idx.Entries = append(idx.Entries, entry)
		offset += consumed
	}

	// Whatever is left (if anything) is extensions. We don't implement
	// any extension, so we only need to know whether we're allowed to
	// skip it.
	for offset < len(body) {
		if offset+8 > len(body) {
			return nil, fmt.Errorf("truncated extension header: %w", ErrIndexCorrupt)
		}
		tag := body[offset : offset+4]
		size := binary.BigEndian.Uint32(body[offset+4 : offset+8])
		offset += 8
		if offset+int(size) > len(body) {
			return nil, fmt.Errorf("truncated extension %q: %w", tag, ErrIndexCorrupt)
		}
		// Extensions whose tag starts with an uppercase ASCII letter are
		// mandatory: we don't support any, so we must fail instead of
		// silently ignoring them.
		if tag[0] >= 'A' && tag[0] <= 'Z' {
			return nil, fmt.Errorf("extension %q: %w", tag, ErrIndexUnknownExtension)
		}
		offset += int(size)
	}

	return idx, nil
}

func decodeIndexEntry(data []byte) (entry IndexEntry, consumed int, err error) {
	if len(data) < indexEntryFixedSize {
		return entry, 0, fmt.Errorf("not enough data for entry header: %w", ErrIndexCorrupt)
	}

	entry.CTimeSec = binary.BigEndian.Uint32(data[0:4])
	entry.CTimeNano = binary.BigEndian.Uint32(data[4:8])
	entry.MTimeSec = binary.BigEndian.Uint32(data[8:12])
	entry.MTimeNano = binary.BigEndian.Uint32(data[12:16])
	entry.Dev = binary.BigEndian.Uint32(data[16:20])
	entry.Ino = binary.BigEndian.Uint32(data[20:24])
	entry.Mode = binary.BigEndian.Uint32(data[24:28])
	entry.UID = binary.BigEndian.Uint32(data[28:32])
	entry.GID = binary.BigEndian.Uint32(data[32:36])
	entry.Size = binary.BigEndian.Uint32(data[36:40])

	hash, err := NewOidFromHex(data[40 : 40+oidSize])
	if err != nil {
		return entry, 0, fmt.Errorf("invalid entry hash: %w", ErrIndexCorrupt)
	}
	entry.Hash = hash

	flagsOffset := 40 + oidSize
	flags := binary.BigEndian.Uint16(data[flagsOffset : flagsOffset+2])
	entry.AssumeValid = flags&indexFlagAssumeValid != 0
	entry.Stage = (flags >> indexFlagStageShift) & indexFlagStageMask
	nameLen := int(flags & indexFlagNameMask)

	pathStart := flagsOffset + 2
	var pathBytes []byte
	if nameLen == indexFlagNameMask {
		// the length didn't fit in 12 bits: the path is NUL-terminated
		// instead of length-prefixed
		pathBytes = readutil.ReadTo(data[pathStart:], 0)
		if pathBytes == nil {
			return entry, 0, fmt.Errorf("unterminated entry path: %w", ErrIndexCorrupt)
		}
	} else {
		if pathStart+nameLen > len(data) {
			return entry, 0, fmt.Errorf("entry path longer than available data: %w", ErrIndexCorrupt)
		}
		pathBytes = data[pathStart : pathStart+nameLen]
	}
	entry.Path = string(pathBytes)

	// the entry (from its start) is padded with NUL bytes up to the
	// next multiple of 8, with at least one NUL terminator
	unpadded := indexEntryFixedSize + len(pathBytes)
	total := ((unpadded + 1 + 7) / 8) * 8
	return entry, total, nil
}

// Encode serializes the index to its on-disk binary representation,
// sorting entries by (path, stage) first
func (idx *Index) Encode() ([]byte, error) {
	idx.Sort()

	buf := new(bytes.Buffer)
	buf.WriteString(indexSignature)

	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:4], IndexVersion)
	binary.BigEndian.PutUint32(header[4:8], uint32(len(idx.Entries)))
	buf.Write(header)

	for i := range idx.Entries {
		if err := encodeIndexEntry(buf, &idx.Entries[i]); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	sum := sha1.Sum(buf.Bytes()) //nolint:gosec // matches git's own index checksum
	buf.Write(sum[:])
	return buf.Bytes(), nil
}

func encodeIndexEntry(buf *bytes.Buffer, entry *IndexEntry) error {
	fixed := make([]byte, indexEntryFixedSize)
	binary.BigEndian.PutUint32(fixed[0:4], entry.CTimeSec)
	binary.BigEndian.PutUint32(fixed[4:8], entry.CTimeNano)
	binary.BigEndian.PutUint32(fixed[8:12], entry.MTimeSec)
	binary.BigEndian.PutUint32(fixed[12:16], entry.MTimeNano)
	binary.BigEndian.PutUint32(fixed[16:20], entry.Dev)
	binary.BigEndian.PutUint32(fixed[20:24], entry.Ino)
	binary.BigEndian.PutUint32(fixed[24:28], entry.Mode)
	binary.BigEndian.PutUint32(fixed[28:32], entry.UID)
	binary.BigEndian.PutUint32(fixed[32:36], entry.GID)
	binary.BigEndian.PutUint32(fixed[36:40], entry.Size)
	copy(fixed[40:40+oidSize], entry.Hash.Bytes())

	nameLen := len(entry.Path)
	if nameLen > indexFlagNameMask {
		nameLen = indexFlagNameMask
	}
	var flags uint16
	if entry.AssumeValid {
		flags |= indexFlagAssumeValid
	}
	flags |= (entry.Stage & indexFlagStageMask) << indexFlagStageShift
	flags |= uint16(nameLen)
	binary.BigEndian.PutUint16(fixed[40+oidSize:40+oidSize+2], flags)

	buf.Write(fixed)
	buf.WriteString(entry.Path)

	unpadded := indexEntryFixedSize + len(entry.Path)
	total := ((unpadded + 1 + 7) / 8) * 8
	padding := total - unpadded
	buf.Write(make([]byte, padding))
	return nil
}
