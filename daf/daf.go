package daf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// RecordSize is the fixed DAF physical record length in bytes.
const RecordSize = 1024

// wordSize is the length of one address word (a double).
const wordSize = 8

// Kind discriminates the supported kernel families.
type Kind uint8

const (
	KindSPK Kind = iota // DAF/SPK ephemeris kernel
	KindPCK             // DAF/PCK binary orientation kernel
)

func (k Kind) String() string {
	switch k {
	case KindSPK:
		return "DAF/SPK"
	case KindPCK:
		return "DAF/PCK"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// nd and ni are the per-kind summary geometry.
func (k Kind) nd() int { return 2 }
func (k Kind) ni() int {
	if k == KindPCK {
		return 5
	}
	return 6
}

// Summary names one segment of the file.
type Summary struct {
	// Doubles holds the ND double components; for both SPK and PCK these
	// are the segment window [StartET, EndET].
	Doubles [2]float64
	// Ints holds the NI integer components. SPK: target, center, frame,
	// data type, start addr, end addr. PCK: target orientation, base
	// orientation, data type, start addr, end addr.
	Ints [6]int32
	// NInts is the number of valid entries in Ints (6 for SPK, 5 for PCK).
	NInts int
	// Name is the segment name from the paired name record, trimmed.
	Name string
}

// StartET and EndET bound the segment coverage in TDB seconds past J2000.
func (s Summary) StartET() float64 { return s.Doubles[0] }
func (s Summary) EndET() float64   { return s.Doubles[1] }

// StartAddr and EndAddr are the 1-based word addresses of the payload.
func (s Summary) StartAddr() int32 { return s.Ints[s.NInts-2] }
func (s Summary) EndAddr() int32   { return s.Ints[s.NInts-1] }

// DataType is the interpolation type of the segment payload.
func (s Summary) DataType() int32 { return s.Ints[s.NInts-3] }

// DAF is an open kernel file. It is immutable and safe for concurrent use.
type DAF struct {
	src   ByteSource
	order binary.ByteOrder
	kind  Kind
	nd    int
	ni    int
	fward int32 // first summary record number
	bward int32 // last summary record number
	name  string
}

// Open validates the file record and prepares an endian-aware view over the
// source. The source is owned by the returned DAF and closed with it.
func Open(src ByteSource) (*DAF, error) {
	if src.Size() < RecordSize {
		return nil, fmt.Errorf("%w: file shorter than one record (%d bytes)", ErrTruncatedRecord, src.Size())
	}
	var rec [RecordSize]byte
	if _, err := src.ReadAt(rec[:], 0); err != nil {
		return nil, fmt.Errorf("%w: reading file record: %v", ErrTruncatedRecord, err)
	}

	var kind Kind
	switch {
	case bytes.Equal(rec[0:8], []byte("DAF/SPK ")):
		kind = KindSPK
	case bytes.Equal(rec[0:8], []byte("DAF/PCK ")):
		kind = KindPCK
	default:
		return nil, markerError(rec[0:8])
	}

	var order binary.ByteOrder
	switch endian := string(rec[88:96]); endian {
	case "LTL-IEEE":
		order = binary.LittleEndian
	case "BIG-IEEE":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEndianness, endian)
	}

	nd := int(order.Uint32(rec[8:12]))
	ni := int(order.Uint32(rec[12:16]))
	if nd != kind.nd() || ni != kind.ni() {
		return nil, geometryError(kind, nd, ni)
	}

	d := &DAF{
		src:   src,
		order: order,
		kind:  kind,
		nd:    nd,
		ni:    ni,
		fward: int32(order.Uint32(rec[76:80])),
		bward: int32(order.Uint32(rec[80:84])),
		name:  strings.TrimRight(string(rec[16:76]), " \x00"),
	}
	if d.fward < 2 {
		return nil, fmt.Errorf("%w: forward pointer %d", ErrSummaryOutOfBounds, d.fward)
	}
	return d, nil
}

// Kind returns the kernel family of the file.
func (d *DAF) Kind() Kind { return d.kind }

// InternalName returns the 60-byte internal file name, trimmed.
func (d *DAF) InternalName() string { return d.name }

// Close releases the underlying source.
func (d *DAF) Close() error { return d.src.Close() }

// summarySize is the number of words one packed summary occupies.
func (d *DAF) summarySize() int { return d.nd + (d.ni+1)/2 }

// EachSummary walks the forward chain of summary records, invoking fn for
// each summary in file order. fn returning false stops the walk early.
func (d *DAF) EachSummary(fn func(Summary) bool) error {
	recNo := d.fward
	for recNo != 0 {
		var rec, names [RecordSize]byte
		off := int64(recNo-1) * RecordSize
		if _, err := d.src.ReadAt(rec[:], off); err != nil {
			return fmt.Errorf("%w: summary record %d: %v", ErrTruncatedRecord, recNo, err)
		}
		// The name record immediately follows its summary record.
		if _, err := d.src.ReadAt(names[:], off+RecordSize); err != nil {
			return fmt.Errorf("%w: name record %d: %v", ErrTruncatedRecord, recNo+1, err)
		}

		next := int32(d.f64(rec[0:8]))
		nsum := int(d.f64(rec[16:24]))
		ssize := d.summarySize()
		if nsum < 0 || (3+nsum*ssize)*wordSize > RecordSize {
			return fmt.Errorf("%w: record %d declares %d summaries", ErrSummaryOutOfBounds, recNo, nsum)
		}

		for i := 0; i < nsum; i++ {
			base := (3 + i*ssize) * wordSize
			var s Summary
			s.NInts = d.ni
			for j := 0; j < d.nd; j++ {
				s.Doubles[j] = d.f64(rec[base+j*wordSize:])
			}
			intBase := base + d.nd*wordSize
			for j := 0; j < d.ni; j++ {
				s.Ints[j] = int32(d.order.Uint32(rec[intBase+j*4:]))
			}
			nameBase := i * ssize * wordSize
			s.Name = strings.TrimRight(string(names[nameBase:nameBase+ssize*wordSize]), " \x00")

			if int64(s.EndAddr())*wordSize > d.src.Size() || s.StartAddr() < 1 || s.EndAddr() < s.StartAddr() {
				return fmt.Errorf("%w: segment %q [%d, %d]", ErrSummaryOutOfBounds, s.Name, s.StartAddr(), s.EndAddr())
			}
			if !fn(s) {
				return nil
			}
		}
		recNo = next
	}
	return nil
}

// Summaries collects all summaries of the file in order.
func (d *DAF) Summaries() ([]Summary, error) {
	var out []Summary
	err := d.EachSummary(func(s Summary) bool {
		out = append(out, s)
		return true
	})
	return out, err
}

// f64 decodes one double from the file's byte order.
func (d *DAF) f64(b []byte) float64 {
	return math.Float64frombits(d.order.Uint64(b))
}

// ReadDouble returns the double at the 1-based word address.
func (d *DAF) ReadDouble(addr int32) (float64, error) {
	var buf [wordSize]byte
	if _, err := d.src.ReadAt(buf[:], int64(addr-1)*wordSize); err != nil {
		return 0, fmt.Errorf("%w: word %d: %v", ErrTruncatedRecord, addr, err)
	}
	return d.f64(buf[:]), nil
}

// ReadDoubles fills dst with the count doubles starting at the 1-based word
// address, applying byte swaps as needed. dst must have len >= count.
func (d *DAF) ReadDoubles(addr int32, dst []float64) error {
	raw := make([]byte, len(dst)*wordSize)
	if _, err := d.src.ReadAt(raw, int64(addr-1)*wordSize); err != nil {
		return fmt.Errorf("%w: words [%d, %d): %v", ErrTruncatedRecord, addr, int(addr)+len(dst), err)
	}
	for i := range dst {
		dst[i] = d.f64(raw[i*wordSize:])
	}
	return nil
}

// Segment returns a view over the payload of the summary.
func (d *DAF) Segment(s Summary) *SegmentView {
	return &SegmentView{daf: d, start: s.StartAddr(), end: s.EndAddr()}
}

// SegmentView is a bounded window over a segment payload, addressed by
// 0-based word index relative to the segment start. Views borrow the DAF's
// source and are invalidated by Close.
type SegmentView struct {
	daf   *DAF
	start int32 // 1-based word address of the first payload word
	end   int32 // 1-based word address of the last payload word
}

// Len returns the number of words in the segment.
func (v *SegmentView) Len() int { return int(v.end-v.start) + 1 }

// Double returns the word at 0-based index i within the segment.
func (v *SegmentView) Double(i int) (float64, error) {
	if i < 0 || i >= v.Len() {
		return 0, fmt.Errorf("%w: index %d of %d-word segment", ErrSummaryOutOfBounds, i, v.Len())
	}
	return v.daf.ReadDouble(v.start + int32(i))
}

// Doubles fills dst with words [i, i+len(dst)) of the segment.
func (v *SegmentView) Doubles(i int, dst []float64) error {
	if i < 0 || i+len(dst) > v.Len() {
		return fmt.Errorf("%w: range [%d, %d) of %d-word segment", ErrSummaryOutOfBounds, i, i+len(dst), v.Len())
	}
	return v.daf.ReadDoubles(v.start+int32(i), dst)
}
