//go:build !headless

// video_backend_ebiten.go - Ebiten video backend for Intuition8

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Intuition8
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// ebitenPadMap maps the conventional QWERTY block onto the hex pad.
var ebitenPadMap = map[ebiten.Key]byte{
	ebiten.Key1: 0x1, ebiten.Key2: 0x2, ebiten.Key3: 0x3, ebiten.Key4: 0xC,
	ebiten.KeyQ: 0x4, ebiten.KeyW: 0x5, ebiten.KeyE: 0x6, ebiten.KeyR: 0xD,
	ebiten.KeyA: 0x7, ebiten.KeyS: 0x8, ebiten.KeyD: 0x9, ebiten.KeyF: 0xE,
	ebiten.KeyZ: 0xA, ebiten.KeyX: 0x0, ebiten.KeyC: 0xB, ebiten.KeyV: 0xF,
}

type EbitenOutput struct {
	running      bool
	window       *ebiten.Image
	width        int
	height       int
	scale        int
	fullscreen   bool
	format       PixelFormat
	frameBuffer  []byte
	bufferMutex  sync.RWMutex
	frameCount   uint64
	refreshRate  int
	vsyncChan    chan struct{}
	done         chan struct{}
	inputHandler func(key byte, pressed bool)
	resetHandler func()
	padState     [NUM_KEYS]bool

	resetInProgress atomic.Bool
}

func NewEbitenOutput() (VideoOutput, error) {
	return &EbitenOutput{
		width:       SCREEN_WIDTH,
		height:      SCREEN_HEIGHT,
		scale:       10,
		format:      PixelFormatRGBA,
		frameBuffer: make([]byte, SCREEN_PIXELS*4),
		refreshRate: 60,
		vsyncChan:   make(chan struct{}, 1),
		done:        make(chan struct{}),
	}, nil
}

func (eo *EbitenOutput) Start() error {
	if eo.running {
		return nil
	}
	eo.bufferMutex.Lock()
	eo.done = make(chan struct{})
	eo.bufferMutex.Unlock()
	eo.running = true

	ebiten.SetWindowSize(eo.width*eo.scale, eo.height*eo.scale)
	ebiten.SetWindowTitle("Intuition8 (c) 2024 - 2026 Zayn Otley")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if eo.fullscreen {
		ebiten.SetFullscreen(true)
	}

	go func() {
		defer func() {
			eo.running = false
			eo.bufferMutex.RLock()
			done := eo.done
			eo.bufferMutex.RUnlock()
			select {
			case <-done:
			default:
				close(done)
			}
		}()
		if err := ebiten.RunGame(eo); err != nil {
			fmt.Printf("Ebiten error: %v\n", err)
		}
	}()

	// Wait for first Draw call to ensure Ebiten is ready
	<-eo.vsyncChan
	return nil
}

func (eo *EbitenOutput) Stop() error {
	eo.running = false
	return nil
}

func (eo *EbitenOutput) Close() error {
	return eo.Stop()
}

func (eo *EbitenOutput) IsStarted() bool {
	return eo.running
}

func (eo *EbitenOutput) Done() <-chan struct{} {
	eo.bufferMutex.RLock()
	done := eo.done
	eo.bufferMutex.RUnlock()
	return done
}

func (eo *EbitenOutput) UpdateFrame(data []byte) error {
	eo.bufferMutex.Lock()
	copy(eo.frameBuffer, data)
	eo.bufferMutex.Unlock()
	return nil
}

func (eo *EbitenOutput) SetDisplayConfig(config DisplayConfig) error {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()

	if config.Width > 0 {
		eo.width = config.Width
	}
	if config.Height > 0 {
		eo.height = config.Height
	}
	if config.Scale > 0 {
		eo.scale = config.Scale
	}
	eo.format = config.PixelFormat
	eo.fullscreen = config.Fullscreen

	newSize := eo.width * eo.height * 4
	if len(eo.frameBuffer) != newSize {
		eo.frameBuffer = make([]byte, newSize)
	}
	if eo.window != nil {
		eo.window.Dispose()
		eo.window = nil
	}
	if eo.running {
		ebiten.SetFullscreen(eo.fullscreen)
		if !eo.fullscreen {
			ebiten.SetWindowSize(eo.width*eo.scale, eo.height*eo.scale)
		}
	}
	return nil
}

func (eo *EbitenOutput) GetDisplayConfig() DisplayConfig {
	return DisplayConfig{
		Width:       eo.width,
		Height:      eo.height,
		Scale:       eo.scale,
		RefreshRate: eo.refreshRate,
		PixelFormat: eo.format,
		VSync:       true,
		Fullscreen:  eo.fullscreen,
	}
}

func (eo *EbitenOutput) GetFrameCount() uint64 {
	return atomic.LoadUint64(&eo.frameCount)
}

func (eo *EbitenOutput) GetRefreshRate() int {
	return eo.refreshRate
}

func (eo *EbitenOutput) SetInputHandler(fn func(key byte, pressed bool)) {
	eo.bufferMutex.Lock()
	eo.inputHandler = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) SetResetHandler(fn func()) {
	eo.bufferMutex.Lock()
	eo.resetHandler = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	if !eo.running {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		eo.bufferMutex.Lock()
		eo.fullscreen = !eo.fullscreen
		ebiten.SetFullscreen(eo.fullscreen)
		if !eo.fullscreen {
			ebiten.SetWindowSize(eo.width*eo.scale, eo.height*eo.scale)
		}
		eo.bufferMutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		if eo.resetInProgress.CompareAndSwap(false, true) {
			eo.bufferMutex.RLock()
			handler := eo.resetHandler
			eo.bufferMutex.RUnlock()
			if handler != nil {
				go func() {
					defer eo.resetInProgress.Store(false)
					handler()
				}()
			} else {
				eo.resetInProgress.Store(false)
			}
		}
	}

	eo.pollPad()
	return nil
}

// pollPad reports pad key transitions to the input handler. Ebiten exposes
// level state, so edges are detected here against the previous poll.
func (eo *EbitenOutput) pollPad() {
	eo.bufferMutex.RLock()
	handler := eo.inputHandler
	eo.bufferMutex.RUnlock()
	if handler == nil {
		return
	}

	for key, pad := range ebitenPadMap {
		pressed := ebiten.IsKeyPressed(key)
		if pressed != eo.padState[pad] {
			eo.padState[pad] = pressed
			handler(pad, pressed)
		}
	}
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	if eo.window == nil {
		eo.window = ebiten.NewImage(eo.width, eo.height)
	}

	eo.bufferMutex.RLock()
	eo.window.WritePixels(eo.frameBuffer)
	eo.bufferMutex.RUnlock()
	screen.DrawImage(eo.window, nil)

	atomic.AddUint64(&eo.frameCount, 1)
	select {
	case eo.vsyncChan <- struct{}{}:
	default:
	}
}

func (eo *EbitenOutput) Layout(_, _ int) (int, int) {
	return eo.width, eo.height
}
