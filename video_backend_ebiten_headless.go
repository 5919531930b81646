//go:build headless

package main

// NewEbitenOutput resolves to the headless backend when building without a
// display stack.
func NewEbitenOutput() (VideoOutput, error) {
	return NewHeadlessOutput()
}
