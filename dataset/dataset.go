// Package dataset implements the platform-independent binary container for
// text-derived constants: planetary constants (PCA) and Euler parameter
// (EPA) sets.
//
// The container is an ASN.1 DER sequence of header, lookup table and
// payload. The header carries a CRC32 (IEEE) over the payload and the
// format version; the LUT maps integer IDs and FNV-1a name hashes to entry
// offsets. Encoding is canonical: LUT rows keep insertion order, integers
// are minimum-width DER, and the CRC is computed after the payload is
// finalized, so decode(encode(ds)) reproduces ds bit for bit.
package dataset

import (
	"encoding/asn1"
	"errors"
	"fmt"
	"hash/crc32"
)

// Kind discriminates dataset flavors.
type Kind int

const (
	KindPlanetaryData   Kind = 1
	KindEulerParameters Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindPlanetaryData:
		return "PCA"
	case KindEulerParameters:
		return "EPA"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Version is the dataset format version triple.
type Version struct {
	Major, Minor, Patch uint16
}

// CurrentVersion is the format version written by this library. Readers
// reject any file whose minor component differs.
var CurrentVersion = Version{Major: 1, Minor: 4, Patch: 0}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Capacity bounds, sized for the full planetary system plus margin.
const (
	PlanetaryCapacity = 256
	EulerCapacity     = 32
)

var (
	// ErrChecksumMismatch reports payload corruption.
	ErrChecksumMismatch = errors.New("dataset: payload CRC32 mismatch")
	// ErrCapacityExceeded reports an Add beyond the LUT bound.
	ErrCapacityExceeded = errors.New("dataset: LUT capacity exceeded")
	// ErrUnknownID reports a failed ID lookup.
	ErrUnknownID = errors.New("dataset: no entry for ID")
	// ErrUnknownName reports a failed name lookup.
	ErrUnknownName = errors.New("dataset: no entry for name")
	// ErrLUTOffset reports a LUT row pointing outside the payload.
	ErrLUTOffset = errors.New("dataset: LUT offset out of payload range")
)

// IncompatibleVersionError reports a minor-version mismatch.
type IncompatibleVersionError struct {
	Expected, Got Version
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("dataset: incompatible version: expected %v, got %v", e.Expected, e.Got)
}

// NameHash is the fixed LUT name hash: FNV-1a 64-bit truncated to the low
// 32 bits. The truncation is part of the wire format, so the fold is
// implemented here rather than through hash/fnv's full-width interface.
func NameHash(name string) uint32 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= prime64
	}
	return uint32(h)
}

// Codec binds a dataset flavor to its entry serialization.
type Codec[T any] struct {
	Kind      Kind
	Capacity  int
	Marshal   func(T) ([]byte, error)
	Unmarshal func([]byte) (T, error)
}

// wire layout, DER via encoding/asn1.
type wireHeader struct {
	CRC   int64
	Major int
	Minor int
	Patch int
	Kind  int
}

type wireIDRow struct {
	ID     int
	Offset int
	Length int
}

type wireNameRow struct {
	Hash   int64
	Offset int
	Length int
}

type wireDataSet struct {
	Header   wireHeader
	IDRows   []wireIDRow
	NameRows []wireNameRow
	Payload  []byte
}

// entryRef locates one entry in the payload.
type entryRef struct {
	id     int32
	hash   uint32
	offset int
	length int
}

// DataSet is an in-memory PCA or EPA container. It is immutable once
// decoded (loads never mutate) and safe for concurrent reads; Add is only
// used by converters building a new set.
type DataSet[T any] struct {
	codec   Codec[T]
	version Version
	refs    []entryRef // insertion order
	entries []T
	payload []byte
}

// New returns an empty dataset for the codec.
func New[T any](codec Codec[T]) *DataSet[T] {
	return &DataSet[T]{codec: codec, version: CurrentVersion}
}

// Len returns the entry count.
func (ds *DataSet[T]) Len() int { return len(ds.refs) }

// Kind returns the dataset flavor.
func (ds *DataSet[T]) Kind() Kind { return ds.codec.Kind }

// Version returns the format version the set was decoded from (or will be
// encoded with).
func (ds *DataSet[T]) Version() Version { return ds.version }

// Add appends an entry under the given ID and name. Insertion order is
// preserved through encode/decode. Name collisions are permitted: lookups
// chain through probes in insertion order.
func (ds *DataSet[T]) Add(id int32, name string, entry T) error {
	if len(ds.refs) >= ds.codec.Capacity {
		return fmt.Errorf("%w: %d entries (%s bound %d)", ErrCapacityExceeded, len(ds.refs), ds.codec.Kind, ds.codec.Capacity)
	}
	blob, err := ds.codec.Marshal(entry)
	if err != nil {
		return fmt.Errorf("dataset: marshaling entry %d: %w", id, err)
	}
	ds.refs = append(ds.refs, entryRef{
		id:     id,
		hash:   NameHash(name),
		offset: len(ds.payload),
		length: len(blob),
	})
	ds.entries = append(ds.entries, entry)
	ds.payload = append(ds.payload, blob...)
	return nil
}

// ByID returns the entry stored under id.
func (ds *DataSet[T]) ByID(id int32) (T, error) {
	for i, r := range ds.refs {
		if r.id == id {
			return ds.entries[i], nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w %d", ErrUnknownID, id)
}

// ByName returns the first entry whose name hash matches, probing in
// insertion order.
func (ds *DataSet[T]) ByName(name string) (T, error) {
	h := NameHash(name)
	for i, r := range ds.refs {
		if r.hash == h {
			return ds.entries[i], nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w %q", ErrUnknownName, name)
}

// ByNameAll returns every entry chained under the name's hash, in insertion
// order. Callers disambiguate collisions.
func (ds *DataSet[T]) ByNameAll(name string) []T {
	h := NameHash(name)
	var out []T
	for i, r := range ds.refs {
		if r.hash == h {
			out = append(out, ds.entries[i])
		}
	}
	return out
}

// IDs returns the stored IDs in insertion order.
func (ds *DataSet[T]) IDs() []int32 {
	out := make([]int32, len(ds.refs))
	for i, r := range ds.refs {
		out[i] = r.id
	}
	return out
}

// Encode serializes the dataset canonically.
func (ds *DataSet[T]) Encode() ([]byte, error) {
	w := wireDataSet{
		Header: wireHeader{
			CRC:   int64(crc32.ChecksumIEEE(ds.payload)),
			Major: int(ds.version.Major),
			Minor: int(ds.version.Minor),
			Patch: int(ds.version.Patch),
			Kind:  int(ds.codec.Kind),
		},
		IDRows:   make([]wireIDRow, len(ds.refs)),
		NameRows: make([]wireNameRow, len(ds.refs)),
		Payload:  ds.payload,
	}
	if w.Payload == nil {
		w.Payload = []byte{}
	}
	for i, r := range ds.refs {
		w.IDRows[i] = wireIDRow{ID: int(r.id), Offset: r.offset, Length: r.length}
		w.NameRows[i] = wireNameRow{Hash: int64(r.hash), Offset: r.offset, Length: r.length}
	}
	out, err := asn1.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("dataset: encoding: %w", err)
	}
	return out, nil
}

// Decode parses and validates a dataset image: version check first, then
// CRC, then the LUT with bounds checks, then every entry blob.
func Decode[T any](codec Codec[T], data []byte) (*DataSet[T], error) {
	var w wireDataSet
	rest, err := asn1.Unmarshal(data, &w)
	if err != nil {
		return nil, fmt.Errorf("dataset: DER parse: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("dataset: %d trailing bytes after DER value", len(rest))
	}

	got := Version{Major: uint16(w.Header.Major), Minor: uint16(w.Header.Minor), Patch: uint16(w.Header.Patch)}
	if got.Minor != CurrentVersion.Minor {
		return nil, &IncompatibleVersionError{Expected: CurrentVersion, Got: got}
	}
	if Kind(w.Header.Kind) != codec.Kind {
		return nil, fmt.Errorf("dataset: kind mismatch: file is %v, expected %v", Kind(w.Header.Kind), codec.Kind)
	}
	if crc := crc32.ChecksumIEEE(w.Payload); int64(crc) != w.Header.CRC {
		return nil, fmt.Errorf("%w: header %#x, computed %#x", ErrChecksumMismatch, w.Header.CRC, crc)
	}
	if len(w.IDRows) != len(w.NameRows) {
		return nil, fmt.Errorf("dataset: LUT index size mismatch (%d ids, %d names)", len(w.IDRows), len(w.NameRows))
	}
	if len(w.IDRows) > codec.Capacity {
		return nil, fmt.Errorf("%w: file holds %d entries (%s bound %d)", ErrCapacityExceeded, len(w.IDRows), codec.Kind, codec.Capacity)
	}

	ds := &DataSet[T]{codec: codec, version: got, payload: w.Payload}
	for i, row := range w.IDRows {
		if row.Offset < 0 || row.Length < 0 || row.Offset+row.Length > len(w.Payload) {
			return nil, fmt.Errorf("%w: entry %d at [%d, %d) of %d-byte payload", ErrLUTOffset, row.ID, row.Offset, row.Offset+row.Length, len(w.Payload))
		}
		entry, err := codec.Unmarshal(w.Payload[row.Offset : row.Offset+row.Length])
		if err != nil {
			return nil, fmt.Errorf("dataset: entry %d: %w", row.ID, err)
		}
		ds.refs = append(ds.refs, entryRef{
			id:     int32(row.ID),
			hash:   uint32(w.NameRows[i].Hash),
			offset: row.Offset,
			length: row.Length,
		})
		ds.entries = append(ds.entries, entry)
	}
	return ds, nil
}
