package display

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		maxChars int
		want     []string
	}{
		{"fits", "short line", 20, []string{"short line"}},
		{"breaks on space", "one two three", 7, []string{"one two", "three"}},
		{"splits long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"collapses spaces", "  a   b  ", 10, []string{"a b"}},
		{"zero width", "anything", 0, nil},
		{"empty", "", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrap(tt.in, tt.maxChars))
		})
	}
}

func TestFit(t *testing.T) {
	assert.Equal(t, "hello", fit("hello", 100, 1))
	assert.Equal(t, "abcd...", fit("abcdefghijkl", 7*7, 1))
	assert.Equal(t, "ab", fit("abcdef", 14, 1))
	assert.Equal(t, "", fit("abc", 3, 1))
}

func TestCanvasClipsOutOfBounds(t *testing.T) {
	c := newCanvas(10, 10)
	c.fillRect(image.Rect(-5, -5, 3, 3), black)
	c.strokeRect(image.Rect(8, 8, 50, 50), 3, black)
	c.text(-20, 5, "clipped text", 3, black)
	c.text(5, 5, "x", 2, black)

	assert.Equal(t, black, c.img.ColorIndexAt(0, 0))
	assert.Equal(t, white, c.img.ColorIndexAt(4, 0))
	assert.Equal(t, image.Rect(0, 0, 10, 10), c.img.Rect)
}
