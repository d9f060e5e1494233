package display

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowStride(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{1, 4},
		{32, 4},
		{33, 8},
		{800, 100},
		{4096, 512},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RowStride(tt.width), "width %d", tt.width)
	}
	assert.Equal(t, 48062, EncodedSize(800, 480))
}

func TestEncodeBMP_PixelLayout(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 9, 2), palette)
	for i := range img.Pix {
		img.Pix[i] = white
	}
	// top-left and bottom-right black
	img.SetColorIndex(0, 0, black)
	img.SetColorIndex(8, 1, black)

	var buf bytes.Buffer
	require.NoError(t, EncodeBMP(&buf, img))
	data := buf.Bytes()
	require.Len(t, data, EncodedSize(9, 2))

	// palette: black then white
	assert.Equal(t, []byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0}, data[PixelDataOffset-8:PixelDataOffset])

	rows := data[PixelDataOffset:]
	bottom, top := rows[0:4], rows[4:8]
	assert.Equal(t, []byte{0xff, 0x00, 0x00, 0x00}, bottom)
	assert.Equal(t, []byte{0x7f, 0x80, 0x00, 0x00}, top)
}

func TestEncodeBMP_EmptyImage(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 0, 0), palette)
	err := EncodeBMP(&bytes.Buffer{}, img)
	assert.Error(t, err)
}
