// Package daftest builds small synthetic DAF kernels in memory for tests.
// The layout matches production files bit-for-bit: one file record, one
// summary record, one name record, then contiguous element words.
package daftest

import (
	"encoding/binary"
	"math"

	"github.com/SwitchbackEngineer/anise/daf"
)

// Segment describes one segment to place in the synthetic kernel.
type Segment struct {
	Name string
	// Doubles are the ND summary doubles (segment window).
	Doubles [2]float64
	// Ints are the leading NI-2 integer components (target/center/frame/
	// type for SPK; target/base/type for PCK). The start and end addresses
	// are appended by the builder.
	Ints []int32
	// Payload is the segment element data.
	Payload []float64
}

const (
	recordWords = daf.RecordSize / 8
	// Data begins after the file, summary and name records.
	firstDataWord = 3*recordWords + 1
)

// Build assembles a kernel image containing the given segments with the
// requested byte order. At most 25 segments fit the single summary record;
// tests never need more.
func Build(kind daf.Kind, order binary.ByteOrder, segs []Segment) []byte {
	ni := 6
	marker := "DAF/SPK "
	if kind == daf.KindPCK {
		ni = 5
		marker = "DAF/PCK "
	}
	ssize := 2 + (ni+1)/2 // summary size in words

	if len(segs) > (recordWords-3)/ssize {
		panic("daftest: too many segments for one summary record")
	}

	// Lay out payload addresses first.
	starts := make([]int32, len(segs))
	ends := make([]int32, len(segs))
	next := int32(firstDataWord)
	for i, s := range segs {
		starts[i] = next
		ends[i] = next + int32(len(s.Payload)) - 1
		next = ends[i] + 1
	}
	totalWords := int(next - 1)
	// Round the image up to whole records.
	totalRecords := (totalWords + recordWords - 1) / recordWords
	if totalRecords < 3 {
		totalRecords = 3
	}
	img := make([]byte, totalRecords*daf.RecordSize)

	endianMarker := "LTL-IEEE"
	if order == binary.BigEndian {
		endianMarker = "BIG-IEEE"
	}

	// File record.
	copy(img[0:8], marker)
	order.PutUint32(img[8:12], 2)
	order.PutUint32(img[12:16], uint32(ni))
	copy(img[16:76], "synthetic test kernel")
	order.PutUint32(img[76:80], 2)                       // FWARD
	order.PutUint32(img[80:84], 2)                       // BWARD
	order.PutUint32(img[84:88], uint32(totalWords+1))    // FREE
	copy(img[88:96], endianMarker)                       // endian marker
	copy(img[699:727], "FTPSTR:\r:\n:\r\n:\r\x00:\x81:") // transfer sentinel

	putF64 := func(off int, v float64) {
		order.PutUint64(img[off:off+8], math.Float64bits(v))
	}

	// Summary record (record 2).
	sumBase := daf.RecordSize
	putF64(sumBase+0, 0)                   // next
	putF64(sumBase+8, 0)                   // prev
	putF64(sumBase+16, float64(len(segs))) // nsum
	for i, s := range segs {
		base := sumBase + (3+i*ssize)*8
		putF64(base, s.Doubles[0])
		putF64(base+8, s.Doubles[1])
		ints := append(append([]int32{}, s.Ints...), starts[i], ends[i])
		if len(ints) != ni {
			panic("daftest: wrong integer component count")
		}
		for j, iv := range ints {
			order.PutUint32(img[base+16+j*4:], uint32(iv))
		}
	}

	// Name record (record 3).
	nameBase := 2 * daf.RecordSize
	for i := range img[nameBase : nameBase+daf.RecordSize] {
		img[nameBase+i] = ' '
	}
	for i, s := range segs {
		copy(img[nameBase+i*ssize*8:], s.Name)
	}

	// Element data.
	for i, s := range segs {
		off := int(starts[i]-1) * 8
		for _, v := range s.Payload {
			putF64(off, v)
			off += 8
		}
	}
	return img
}
