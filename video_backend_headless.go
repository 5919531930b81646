// video_backend_headless.go - Headless video backend for Intuition8

package main

import "sync/atomic"

// HeadlessVideoOutput counts frames and discards them. Used by tests and
// by headless builds, where it also stands in for the Ebiten backend.
type HeadlessVideoOutput struct {
	started      bool
	config       DisplayConfig
	frameCount   uint64
	refreshRate  int
	done         chan struct{}
	inputHandler func(key byte, pressed bool)
	resetHandler func()
}

func NewHeadlessOutput() (VideoOutput, error) {
	return &HeadlessVideoOutput{
		refreshRate: 60,
		done:        make(chan struct{}),
	}, nil
}

func (h *HeadlessVideoOutput) Start() error {
	h.started = true
	return nil
}

func (h *HeadlessVideoOutput) Stop() error {
	h.started = false
	return nil
}

func (h *HeadlessVideoOutput) Close() error {
	h.started = false
	select {
	case <-h.done:
	default:
		close(h.done)
	}
	return nil
}

func (h *HeadlessVideoOutput) IsStarted() bool {
	return h.started
}

func (h *HeadlessVideoOutput) Done() <-chan struct{} {
	return h.done
}

func (h *HeadlessVideoOutput) SetDisplayConfig(config DisplayConfig) error {
	h.config = config
	return nil
}

func (h *HeadlessVideoOutput) GetDisplayConfig() DisplayConfig {
	return h.config
}

func (h *HeadlessVideoOutput) UpdateFrame(buffer []byte) error {
	atomic.AddUint64(&h.frameCount, 1)
	return nil
}

func (h *HeadlessVideoOutput) GetFrameCount() uint64 {
	return atomic.LoadUint64(&h.frameCount)
}

func (h *HeadlessVideoOutput) GetRefreshRate() int {
	if h.refreshRate == 0 {
		return 60
	}
	return h.refreshRate
}

func (h *HeadlessVideoOutput) SetInputHandler(fn func(key byte, pressed bool)) {
	h.inputHandler = fn
}

func (h *HeadlessVideoOutput) SetResetHandler(fn func()) {
	h.resetHandler = fn
}

// PressPad injects a pad key transition, for tests driving the input path.
func (h *HeadlessVideoOutput) PressPad(key byte, pressed bool) {
	if h.inputHandler != nil {
		h.inputHandler(key, pressed)
	}
}
