// video_chip_test.go - Display controller test suite for Intuition8

package main

import "testing"

func newTestVideoChip(t *testing.T) *VideoChip {
	t.Helper()
	chip, err := NewVideoChip(VIDEO_BACKEND_HEADLESS, 1)
	if err != nil {
		t.Fatalf("failed to create video chip: %v", err)
	}
	return chip
}

// TestPresentWidensFrame verifies the 1-bit to RGBA widening and that the
// frame reaches the backend.
func TestPresentWidensFrame(t *testing.T) {
	chip := newTestVideoChip(t)
	if err := chip.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer chip.Stop()

	var screen Screen
	screen.Pix[0] = 1
	screen.Pix[100] = 1

	if err := chip.Present(&screen); err != nil {
		t.Fatalf("present failed: %v", err)
	}

	output := chip.Output().(*HeadlessVideoOutput)
	if output.GetFrameCount() != 1 {
		t.Fatalf("frame count %d, expected 1", output.GetFrameCount())
	}

	// Lit pixels render as opaque white, unlit as opaque black.
	for _, i := range []int{0, 100} {
		for c := 0; c < 4; c++ {
			if chip.frame[i*4+c] != 0xFF {
				t.Fatalf("lit pixel %d channel %d = %#x", i, c, chip.frame[i*4+c])
			}
		}
	}
	if chip.frame[4] != 0 || chip.frame[5] != 0 || chip.frame[6] != 0 {
		t.Fatal("unlit pixel has lit colour channels")
	}
	if chip.frame[7] != 0xFF {
		t.Fatal("unlit pixel not opaque")
	}
}

// TestPresentBeforeStart verifies that presenting to a stopped chip is a
// silent no-op.
func TestPresentBeforeStart(t *testing.T) {
	chip := newTestVideoChip(t)

	var screen Screen
	if err := chip.Present(&screen); err != nil {
		t.Fatalf("present on stopped chip errored: %v", err)
	}

	output := chip.Output().(*HeadlessVideoOutput)
	if output.GetFrameCount() != 0 {
		t.Fatal("stopped chip pushed a frame")
	}
}

func TestVideoChipLifecycle(t *testing.T) {
	chip := newTestVideoChip(t)
	output := chip.Output()

	if output.IsStarted() {
		t.Fatal("backend started before Start()")
	}
	if err := chip.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !output.IsStarted() {
		t.Fatal("backend not started")
	}

	config := output.GetDisplayConfig()
	if config.Width != SCREEN_WIDTH || config.Height != SCREEN_HEIGHT {
		t.Fatalf("display config %dx%d, expected %dx%d",
			config.Width, config.Height, SCREEN_WIDTH, SCREEN_HEIGHT)
	}

	chip.Stop()
	if output.IsStarted() {
		t.Fatal("backend still started after Stop()")
	}
}

func TestUnknownBackendRejected(t *testing.T) {
	if _, err := NewVideoChip(999, 1); err == nil {
		t.Fatal("unknown backend accepted")
	}
}
