// screen.go - 64x32 monochrome framebuffer for Intuition8

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Intuition8
License: GPLv3 or later
*/

package main

const (
	SCREEN_WIDTH  = 64
	SCREEN_HEIGHT = 32
	SCREEN_PIXELS = SCREEN_WIDTH * SCREEN_HEIGHT
)

// Screen is the machine's framebuffer: one byte per logical pixel, 0 for
// unset and 1 for set, stored row-major in a single flat array. Renderers
// may widen the values to any native representation.
type Screen struct {
	Pix [SCREEN_PIXELS]byte
}

// Row returns the y-th row as a slice aliasing the flat buffer. The view is
// an index computation, never an independently owned copy, so writes through
// it land directly in Pix.
func (s *Screen) Row(y int) []byte {
	return s.Pix[y*SCREEN_WIDTH : y*SCREEN_WIDTH+SCREEN_WIDTH]
}

// At reports the pixel value at (x, y).
func (s *Screen) At(x, y int) byte {
	return s.Pix[y*SCREEN_WIDTH+x]
}

// Clear unsets every pixel.
func (s *Screen) Clear() {
	for i := range s.Pix {
		s.Pix[i] = 0
	}
}
