// video_chip.go - Display controller for Intuition8

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Intuition8
License: GPLv3 or later
*/

/*
video_chip.go - CHIP-8 Display Controller

The video chip sits between the machine's 1-bit framebuffer and a swappable
VideoOutput backend. Present() widens the 64x32 logical pixels into an RGBA
frame using the configured monochrome palette and hands it to the backend.

Unlike the machine core, the chip carries a mutex: Present() is called from
the host runner loop while backends read lifecycle state from their own
goroutines. The chip has no clock of its own - the runner is the frame
pacemaker, which keeps framebuffer reads serialised against cycle
execution as the machine requires.
*/

package main

import (
	"sync"
)

const (
	COLOR_PIXEL_ON  = 0xFFFFFFFF // RGBA white
	COLOR_PIXEL_OFF = 0x000000FF // RGBA black
)

type VideoChip struct {
	mutex    sync.Mutex
	output   VideoOutput
	enabled  bool
	frame    []byte // RGBA staging buffer, SCREEN_PIXELS*4 bytes
	onColor  uint32
	offColor uint32
}

func NewVideoChip(backend int, scale int) (*VideoChip, error) {
	output, err := NewVideoOutput(backend)
	if err != nil {
		return nil, &VideoError{
			Operation: "chip creation",
			Details:   "failed to create video output",
			Err:       err,
		}
	}

	chip := &VideoChip{
		output:   output,
		frame:    make([]byte, SCREEN_PIXELS*4),
		onColor:  COLOR_PIXEL_ON,
		offColor: COLOR_PIXEL_OFF,
	}

	config := DisplayConfig{
		Width:       SCREEN_WIDTH,
		Height:      SCREEN_HEIGHT,
		Scale:       scale,
		RefreshRate: 60,
		PixelFormat: PixelFormatRGBA,
		VSync:       true,
	}
	if err := output.SetDisplayConfig(config); err != nil {
		return nil, &VideoError{
			Operation: "chip creation",
			Details:   "failed to configure video output",
			Err:       err,
		}
	}

	return chip, nil
}

func (chip *VideoChip) Start() error {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()
	chip.enabled = true
	return chip.output.Start()
}

func (chip *VideoChip) Stop() {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()
	chip.enabled = false
	if err := chip.output.Stop(); err != nil {
		return
	}
}

func (chip *VideoChip) Output() VideoOutput {
	return chip.output
}

// Present widens the machine framebuffer to RGBA and pushes it to the
// backend. The caller serialises Present against cycle execution; the
// screen is read exactly once per call.
func (chip *VideoChip) Present(screen *Screen) error {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()

	if !chip.enabled {
		return nil
	}

	for i, pix := range screen.Pix {
		color := chip.offColor
		if pix != 0 {
			color = chip.onColor
		}
		chip.frame[i*4] = byte(color >> 24)
		chip.frame[i*4+1] = byte(color >> 16)
		chip.frame[i*4+2] = byte(color >> 8)
		chip.frame[i*4+3] = byte(color)
	}

	return chip.output.UpdateFrame(chip.frame)
}
