package geotiff

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"
)

// TIFF tag IDs read from the first image directory.
const (
	tagImageWidth         = 256
	tagImageLength        = 257
	tagModelPixelScaleTag = 33550
	tagModelTiepointTag   = 33922
	tagGeoKeyDirectoryTag = 34735
	tagGeoDoubleParamsTag = 34736
	tagGeoASCIIParamsTag  = 34737
)

// TIFF data types.
const (
	dtByte      = 1
	dtASCII     = 2
	dtShort     = 3
	dtLong      = 4
	dtRational  = 5
	dtSByte     = 6
	dtUndef     = 7
	dtSShort    = 8
	dtSLong     = 9
	dtSRational = 10
	dtFloat     = 11
	dtDouble    = 12
	dtLong8     = 16
	dtSLong8    = 17
	dtIFD8      = 18
)

// maxEntries is the largest entry count accepted for one directory.
const maxEntries = 4096

// directory holds the georeferencing tags of one TIFF image directory.
type directory struct {
	width, height   uint32
	modelTiepoint   []float64
	modelPixelScale []float64
	geoKeys         []uint16
	geoDoubles      []float64
	geoASCII        string
}

type entry struct {
	tag      uint16
	dataType uint16
	count    uint64
	value    []byte
}

// readDirectory parses the TIFF or BigTIFF header and the first image
// directory. Pixel data is never touched.
func readDirectory(r io.ReadSeeker) (directory, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return directory{}, errors.Wrap(err, "reading TIFF header")
	}

	var bo binary.ByteOrder
	switch string(header[0:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return directory{}, errors.Newf("invalid TIFF byte order: %x", header[0:2])
	}

	magic := bo.Uint16(header[2:4])
	if magic != 42 && magic != 43 {
		return directory{}, errors.Newf("invalid TIFF magic: %d", magic)
	}
	bigTIFF := magic == 43

	var offset uint64
	if bigTIFF {
		// bytes 4-7 hold the offset size and padding, the first IFD
		// offset follows as a uint64
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return directory{}, errors.Wrap(err, "reading BigTIFF header")
		}
		offset = bo.Uint64(buf[:])
	} else {
		offset = uint64(bo.Uint32(header[4:8]))
	}
	if offset == 0 {
		return directory{}, errors.New("TIFF has no image directory")
	}

	entries, err := readEntries(r, bo, offset, bigTIFF)
	if err != nil {
		return directory{}, errors.Wrapf(err, "parsing IFD at offset %d", offset)
	}
	return buildDirectory(entries, bo), nil
}

func readEntries(r io.ReadSeeker, bo binary.ByteOrder, offset uint64, bigTIFF bool) ([]entry, error) {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}

	var n uint64
	if bigTIFF {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		n = bo.Uint64(buf[:])
	} else {
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		n = uint64(bo.Uint16(buf[:]))
	}
	if n > maxEntries {
		return nil, errors.Newf("directory claims %d entries", n)
	}

	size := 12
	if bigTIFF {
		size = 20
	}
	entries := make([]entry, n)
	buf := make([]byte, size)
	for i := range entries {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		entries[i] = parseEntry(buf, bo, bigTIFF)
	}

	for i := range entries {
		if !wanted(entries[i].tag) {
			continue
		}
		if err := resolve(r, bo, &entries[i], bigTIFF); err != nil {
			return nil, errors.Wrapf(err, "resolving tag %d", entries[i].tag)
		}
	}
	return entries, nil
}

func wanted(tag uint16) bool {
	switch tag {
	case tagImageWidth, tagImageLength, tagModelPixelScaleTag, tagModelTiepointTag,
		tagGeoKeyDirectoryTag, tagGeoDoubleParamsTag, tagGeoASCIIParamsTag:
		return true
	}
	return false
}

func parseEntry(buf []byte, bo binary.ByteOrder, bigTIFF bool) entry {
	e := entry{tag: bo.Uint16(buf[0:2]), dataType: bo.Uint16(buf[2:4])}
	if bigTIFF {
		e.count = bo.Uint64(buf[4:12])
		e.value = append([]byte(nil), buf[12:20]...)
	} else {
		e.count = uint64(bo.Uint32(buf[4:8]))
		e.value = append([]byte(nil), buf[8:12]...)
	}
	return e
}

func dataTypeSize(dt uint16) int {
	switch dt {
	case dtByte, dtASCII, dtSByte, dtUndef:
		return 1
	case dtShort, dtSShort:
		return 2
	case dtLong, dtSLong, dtFloat, dtIFD8:
		return 4
	case dtRational, dtSRational, dtDouble, dtLong8, dtSLong8:
		return 8
	default:
		return 1
	}
}

// resolve replaces an offset value with the data it points to when the
// data does not fit inline.
func resolve(r io.ReadSeeker, bo binary.ByteOrder, e *entry, bigTIFF bool) error {
	if e.count > 1<<20 {
		return errors.Newf("tag %d has %d values", e.tag, e.count)
	}
	total := int(e.count) * dataTypeSize(e.dataType)
	inline := 4
	if bigTIFF {
		inline = 8
	}
	if total <= inline {
		return nil
	}

	var at uint64
	if bigTIFF {
		at = bo.Uint64(e.value)
	} else {
		at = uint64(bo.Uint32(e.value))
	}
	if _, err := r.Seek(int64(at), io.SeekStart); err != nil {
		return err
	}
	data := make([]byte, total)
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}
	e.value = data
	return nil
}

func buildDirectory(entries []entry, bo binary.ByteOrder) directory {
	var d directory
	for _, e := range entries {
		switch e.tag {
		case tagImageWidth:
			d.width = getUint32(e, bo)
		case tagImageLength:
			d.height = getUint32(e, bo)
		case tagModelTiepointTag:
			d.modelTiepoint = getFloat64Slice(e, bo)
		case tagModelPixelScaleTag:
			d.modelPixelScale = getFloat64Slice(e, bo)
		case tagGeoKeyDirectoryTag:
			d.geoKeys = getUint16Slice(e, bo)
		case tagGeoDoubleParamsTag:
			d.geoDoubles = getFloat64Slice(e, bo)
		case tagGeoASCIIParamsTag:
			n := min(int(e.count), len(e.value))
			d.geoASCII = string(e.value[:n])
		}
	}
	return d
}

func getUint32(e entry, bo binary.ByteOrder) uint32 {
	switch e.dataType {
	case dtShort:
		return uint32(bo.Uint16(e.value))
	case dtLong:
		return bo.Uint32(e.value)
	case dtLong8:
		return uint32(bo.Uint64(e.value))
	default:
		return uint32(e.value[0])
	}
}

func getUint16Slice(e entry, bo binary.ByteOrder) []uint16 {
	n := min(int(e.count), len(e.value)/2)
	out := make([]uint16, n)
	for i := range out {
		out[i] = bo.Uint16(e.value[i*2:])
	}
	return out
}

func getFloat64Slice(e entry, bo binary.ByteOrder) []float64 {
	size := dataTypeSize(e.dataType)
	n := min(int(e.count), len(e.value)/size)
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		off := i * size
		switch e.dataType {
		case dtDouble:
			out = append(out, math.Float64frombits(bo.Uint64(e.value[off:])))
		case dtFloat:
			out = append(out, float64(math.Float32frombits(bo.Uint32(e.value[off:]))))
		}
	}
	return out
}
