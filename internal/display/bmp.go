package display

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
)

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
	paletteSize    = 2 * 4

	// PixelDataOffset is where the pixel rows start in every encoded image.
	PixelDataOffset = fileHeaderSize + infoHeaderSize + paletteSize

	// 72 DPI
	pixelsPerMetre = 2835
)

type fileHeader struct {
	Type       [2]byte
	Size       uint32
	Reserved1  uint16
	Reserved2  uint16
	DataOffset uint32
}

type infoHeader struct {
	Size            uint32
	Width           int32
	Height          int32
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	ImageSize       uint32
	XPixelsPerMetre int32
	YPixelsPerMetre int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// RowStride is the number of bytes per stored row: one bit per pixel padded to 4 bytes.
func RowStride(width int) int {
	return ((width + 31) / 32) * 4
}

// EncodedSize is the exact length of an encoded width x height image.
func EncodedSize(width, height int) int {
	return PixelDataOffset + RowStride(width)*height
}

// EncodeBMP writes img as an uncompressed 1-bit Windows bitmap. Palette index 0 is black and
// index 1 is white; any other index is written as white. Rows are stored bottom-up.
func EncodeBMP(w io.Writer, img *image.Paletted) error {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("cannot encode empty image %dx%d", width, height)
	}

	stride := RowStride(width)
	fh := fileHeader{
		Type:       [2]byte{'B', 'M'},
		Size:       uint32(EncodedSize(width, height)),
		DataOffset: PixelDataOffset,
	}
	ih := infoHeader{
		Size:            infoHeaderSize,
		Width:           int32(width),
		Height:          int32(height),
		Planes:          1,
		BitCount:        1,
		ImageSize:       uint32(stride * height),
		XPixelsPerMetre: pixelsPerMetre,
		YPixelsPerMetre: pixelsPerMetre,
		ColorsUsed:      2,
		ColorsImportant: 2,
	}

	if err := binary.Write(w, binary.LittleEndian, fh); err != nil {
		return fmt.Errorf("writing file header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, ih); err != nil {
		return fmt.Errorf("writing info header: %w", err)
	}
	// BGRA palette entries
	if _, err := w.Write([]byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0}); err != nil {
		return fmt.Errorf("writing palette: %w", err)
	}

	row := make([]byte, stride)
	for y := bounds.Max.Y - 1; y >= bounds.Min.Y; y-- {
		clear(row)
		for x := 0; x < width; x++ {
			if img.ColorIndexAt(bounds.Min.X+x, y) != black {
				row[x>>3] |= 0x80 >> uint(x&7)
			}
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("writing pixel row: %w", err)
		}
	}
	return nil
}

func encode(img *image.Paletted) []byte {
	var buf bytes.Buffer
	buf.Grow(EncodedSize(img.Bounds().Dx(), img.Bounds().Dy()))
	// bytes.Buffer writes do not fail and the canvas is never empty.
	_ = EncodeBMP(&buf, img)
	return buf.Bytes()
}
