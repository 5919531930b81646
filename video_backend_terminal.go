// video_backend_terminal.go - ANSI terminal video backend for Intuition8

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Intuition8
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

const (
	// Terminals report key repeats rather than releases, so a key is
	// considered released once no repeat has arrived for this long.
	terminalKeyHold = 150 * time.Millisecond

	terminalPollPeriod = 50 * time.Millisecond
)

// terminalPadMap mirrors the QWERTY pad layout used by the Ebiten backend.
var terminalPadMap = map[byte]byte{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// TerminalOutput renders the framebuffer into an ANSI terminal using
// half-block glyphs (two framebuffer rows per text line) and feeds raw-mode
// stdin bytes into the pad with a timed-release model.
type TerminalOutput struct {
	mutex        sync.Mutex
	started      bool
	config       DisplayConfig
	frameCount   uint64
	refreshRate  int
	oldTermState *term.State
	done         chan struct{}
	stopOnce     sync.Once
	inputHandler func(key byte, pressed bool)
	resetHandler func()
	lastPress    [NUM_KEYS]time.Time
	padState     [NUM_KEYS]bool
}

func NewTerminalOutput() (VideoOutput, error) {
	return &TerminalOutput{
		refreshRate: 60,
		done:        make(chan struct{}),
	}, nil
}

func (to *TerminalOutput) Start() error {
	to.mutex.Lock()
	defer to.mutex.Unlock()
	if to.started {
		return nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return &VideoError{
			Operation: "terminal start",
			Details:   "failed to set raw mode",
			Err:       err,
		}
	}
	to.oldTermState = oldState
	to.started = true

	// Hide the cursor and clear once; frames repaint from the home
	// position rather than clearing, to avoid flicker.
	fmt.Print("\x1b[?25l\x1b[2J")

	go to.readLoop()
	go to.releaseLoop()
	return nil
}

func (to *TerminalOutput) Stop() error {
	to.mutex.Lock()
	defer to.mutex.Unlock()
	if !to.started {
		return nil
	}
	to.started = false

	to.stopOnce.Do(func() { close(to.done) })

	fmt.Print("\x1b[?25h\x1b[0m\r\n")
	if to.oldTermState != nil {
		_ = term.Restore(int(os.Stdin.Fd()), to.oldTermState)
		to.oldTermState = nil
	}
	return nil
}

func (to *TerminalOutput) Close() error {
	return to.Stop()
}

func (to *TerminalOutput) IsStarted() bool {
	to.mutex.Lock()
	defer to.mutex.Unlock()
	return to.started
}

func (to *TerminalOutput) Done() <-chan struct{} {
	return to.done
}

func (to *TerminalOutput) SetDisplayConfig(config DisplayConfig) error {
	to.mutex.Lock()
	to.config = config
	to.mutex.Unlock()
	return nil
}

func (to *TerminalOutput) GetDisplayConfig() DisplayConfig {
	to.mutex.Lock()
	defer to.mutex.Unlock()
	return to.config
}

func (to *TerminalOutput) GetFrameCount() uint64 {
	return atomic.LoadUint64(&to.frameCount)
}

func (to *TerminalOutput) GetRefreshRate() int {
	return to.refreshRate
}

func (to *TerminalOutput) SetInputHandler(fn func(key byte, pressed bool)) {
	to.mutex.Lock()
	to.inputHandler = fn
	to.mutex.Unlock()
}

func (to *TerminalOutput) SetResetHandler(fn func()) {
	to.mutex.Lock()
	to.resetHandler = fn
	to.mutex.Unlock()
}

// UpdateFrame repaints the whole display. Two framebuffer rows share one
// text line via the upper/lower half-block glyphs, so the 64x32 screen
// occupies 64x16 character cells.
func (to *TerminalOutput) UpdateFrame(buffer []byte) error {
	to.mutex.Lock()
	started := to.started
	to.mutex.Unlock()
	if !started {
		return nil
	}

	var sb strings.Builder
	sb.Grow(SCREEN_PIXELS + 64)
	sb.WriteString("\x1b[H")

	for y := 0; y < SCREEN_HEIGHT; y += 2 {
		for x := 0; x < SCREEN_WIDTH; x++ {
			top := buffer[(y*SCREEN_WIDTH+x)*4] != 0
			bottom := buffer[((y+1)*SCREEN_WIDTH+x)*4] != 0
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("\r\n")
	}

	fmt.Print(sb.String())
	atomic.AddUint64(&to.frameCount, 1)
	return nil
}

// readLoop performs blocking one-byte reads of raw stdin. Pad keys are
// reported pressed on arrival; ESC and Ctrl+C close the output. Raw mode
// turns ISIG off, so Ctrl+C arrives here as the byte 0x03.
func (to *TerminalOutput) readLoop() {
	buf := make([]byte, 1)
	for {
		select {
		case <-to.done:
			return
		default:
		}

		n, err := os.Stdin.Read(buf)
		if err != nil {
			to.stopOnce.Do(func() { close(to.done) })
			return
		}
		if n == 0 {
			continue
		}

		b := buf[0]
		switch b {
		case 0x1b, 0x03: // ESC, Ctrl+C
			to.stopOnce.Do(func() { close(to.done) })
			return
		case 0x12: // Ctrl+R: hard reset
			to.mutex.Lock()
			handler := to.resetHandler
			to.mutex.Unlock()
			if handler != nil {
				handler()
			}
			continue
		}

		pad, ok := terminalPadMap[b]
		if !ok {
			continue
		}

		to.mutex.Lock()
		to.lastPress[pad] = time.Now()
		wasPressed := to.padState[pad]
		to.padState[pad] = true
		handler := to.inputHandler
		to.mutex.Unlock()

		if !wasPressed && handler != nil {
			handler(pad, true)
		}
	}
}

// releaseLoop ages out held keys that have stopped repeating.
func (to *TerminalOutput) releaseLoop() {
	ticker := time.NewTicker(terminalPollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-to.done:
			return
		case <-ticker.C:
			now := time.Now()
			to.mutex.Lock()
			handler := to.inputHandler
			var released []byte
			for pad := range to.padState {
				if to.padState[pad] && now.Sub(to.lastPress[pad]) > terminalKeyHold {
					to.padState[pad] = false
					released = append(released, byte(pad))
				}
			}
			to.mutex.Unlock()

			if handler != nil {
				for _, pad := range released {
					handler(pad, false)
				}
			}
		}
	}
}
