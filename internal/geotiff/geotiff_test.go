package geotiff

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pspoerri/geoproj"
	"github.com/stretchr/testify/require"
)

type testEntry struct {
	tag, dataType uint16
	count         uint32
	data          []byte
}

// buildTIFF lays out a classic TIFF with one directory. Values longer than
// four bytes are appended after the directory.
func buildTIFF(bo binary.ByteOrder, entries []testEntry) []byte {
	var dir, ext bytes.Buffer
	extStart := 8 + 2 + len(entries)*12 + 4

	binary.Write(&dir, bo, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&dir, bo, e.tag)
		binary.Write(&dir, bo, e.dataType)
		binary.Write(&dir, bo, e.count)
		if len(e.data) <= 4 {
			var v [4]byte
			copy(v[:], e.data)
			dir.Write(v[:])
			continue
		}
		binary.Write(&dir, bo, uint32(extStart+ext.Len()))
		ext.Write(e.data)
	}
	binary.Write(&dir, bo, uint32(0))

	var out bytes.Buffer
	if bo == binary.BigEndian {
		out.WriteString("MM")
	} else {
		out.WriteString("II")
	}
	binary.Write(&out, bo, uint16(42))
	binary.Write(&out, bo, uint32(8))
	out.Write(dir.Bytes())
	out.Write(ext.Bytes())
	return out.Bytes()
}

func encode(bo binary.ByteOrder, v any) []byte {
	var b bytes.Buffer
	binary.Write(&b, bo, v)
	return b.Bytes()
}

func TestReadFile(t *testing.T) {
	info, err := Open(filepath.Join("testdata", "utm32.tif"))
	require.NoError(t, err)
	require.Equal(t, 32632, info.EPSG)
	require.Equal(t, "EPSG:32632", info.Code())
	require.False(t, info.Geographic)
	require.Equal(t, 20, info.Width)
	require.Equal(t, 10, info.Height)
	require.Equal(t, Bounds{MinX: 465000, MinY: 5247000, MaxX: 467000, MaxY: 5248000}, info.Bounds())
}

func TestReadBigEndianGeographic(t *testing.T) {
	bo := binary.BigEndian
	data := buildTIFF(bo, []testEntry{
		{tagImageWidth, dtShort, 1, encode(bo, uint16(360))},
		{tagImageLength, dtLong, 1, encode(bo, uint32(180))},
		{tagModelPixelScaleTag, dtDouble, 3, encode(bo, []float64{0.5, 0.5, 0})},
		{tagModelTiepointTag, dtDouble, 6, encode(bo, []float64{10, 20, 0, -170, 80, 0})},
		{tagGeoKeyDirectoryTag, dtShort, 12, encode(bo, []uint16{
			1, 1, 0, 2,
			gkModelTypeGeoKey, 0, 1, modelTypeGeographic,
			gkGeographicTypeGeoKey, 0, 1, 4326,
		})},
	})

	info, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 4326, info.EPSG)
	require.True(t, info.Geographic)
	// tiepoint pixel (10,20) sits at (-170,80)
	require.Equal(t, -175.0, info.OriginX)
	require.Equal(t, 90.0, info.OriginY)
	require.Equal(t, Bounds{MinX: -175, MinY: 0, MaxX: 5, MaxY: 90}, info.Bounds())
}

func TestParseGeoKeys(t *testing.T) {
	tests := []struct {
		name       string
		keys       []uint16
		code       int
		geographic bool
	}{
		{"empty", nil, 0, false},
		{"projected", []uint16{1, 1, 0, 1, gkProjectedCSTypeGeoKey, 0, 1, 27700}, 27700, false},
		{"user defined", []uint16{1, 1, 0, 2,
			gkModelTypeGeoKey, 0, 1, modelTypeProjected,
			gkProjectedCSTypeGeoKey, 0, 1, userDefined}, 0, false},
		{"projected with base geographic", []uint16{1, 1, 0, 3,
			gkModelTypeGeoKey, 0, 1, modelTypeProjected,
			gkGeographicTypeGeoKey, 0, 1, 4326,
			gkProjectedCSTypeGeoKey, 0, 1, 32632}, 32632, false},
		{"value stored elsewhere", []uint16{1, 1, 0, 1, gkProjectedCSTypeGeoKey, 34736, 1, 0}, 0, false},
		{"truncated", []uint16{1, 1, 0, 5, gkProjectedCSTypeGeoKey, 0, 1}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, geographic := parseGeoKeys(tt.keys)
			require.Equal(t, tt.code, code)
			require.Equal(t, tt.geographic, geographic)
		})
	}
}

func TestWorldFileFallback(t *testing.T) {
	info, err := Open(filepath.Join("testdata", "plain.tif"))
	require.NoError(t, err)
	require.Equal(t, 4326, info.EPSG)
	require.Equal(t, Bounds{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}, info.Bounds())
}

func TestNoGeoreference(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("testdata", "plain.tif"))
	require.NoError(t, err)
	path := filepath.Join(dir, "bare.tif")
	require.NoError(t, os.WriteFile(path, src, 0o644))

	_, err = Open(path)
	require.ErrorIs(t, err, ErrNoGeoreference)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bare.tfw"), []byte("1\n0.1\n0\n-1\n0\n0\n"), 0o644))
	_, err = Open(path)
	require.ErrorContains(t, err, "rotated")
}

func TestReadErrors(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":      nil,
		"byte order": []byte("XX*\x00\x08\x00\x00\x00"),
		"magic":      []byte("II\x07\x00\x08\x00\x00\x00"),
		"no ifd":     []byte("II*\x00\x00\x00\x00\x00"),
		"truncated":  []byte("II*\x00\x08\x00\x00\x00\x05\x00"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(data))
			require.Error(t, err)
		})
	}
}

func TestFootprint(t *testing.T) {
	info, err := Open(filepath.Join("testdata", "utm32.tif"))
	require.NoError(t, err)

	e, err := geoproj.NewKnownCRS(info.Code(), "EPSG:4326", nil)
	require.NoError(t, err)

	b, err := info.Footprint(e, 8)
	require.NoError(t, err)
	// (8.5417, 47.3769) projects to (465403, 5247151) which is inside the raster
	require.Less(t, b.MinX, 8.5417)
	require.Greater(t, b.MaxX, 8.5417)
	require.Less(t, b.MinY, 47.3769)
	require.Greater(t, b.MaxY, 47.3769)
	require.InDelta(t, 0.0265, b.MaxX-b.MinX, 0.002)
	require.InDelta(t, 0.009, b.MaxY-b.MinY, 0.001)
}
