// keypad.go - 16-key hex pad state for Intuition8

package main

import "sync"

const NUM_KEYS = 16

// Keypad holds the pressed state of the sixteen hex keys. The host input
// layer is the only writer (Press/Release); the execution engine only ever
// reads it (EX9E, EXA1, FX0A). Input backends deliver key events from their
// own goroutines, so the pad is the serialisation point between the input
// layer and the cycle loop.
//
// The canonical CHIP-8 pad layout, and the QWERTY keys both interactive
// backends map onto it:
//
//	1 2 3 C        1 2 3 4
//	4 5 6 D   <-   Q W E R
//	7 8 9 E        A S D F
//	A 0 B F        Z X C V
type Keypad struct {
	mutex sync.Mutex
	keys  [NUM_KEYS]bool
}

func NewKeypad() *Keypad {
	return &Keypad{}
}

func (k *Keypad) Press(key byte) {
	if key >= NUM_KEYS {
		return
	}
	k.mutex.Lock()
	k.keys[key] = true
	k.mutex.Unlock()
}

func (k *Keypad) Release(key byte) {
	if key >= NUM_KEYS {
		return
	}
	k.mutex.Lock()
	k.keys[key] = false
	k.mutex.Unlock()
}

func (k *Keypad) Pressed(key byte) bool {
	if key >= NUM_KEYS {
		return false
	}
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.keys[key]
}

// FirstPressed returns the lowest-numbered key currently held down.
// Used by the FX0A key wait.
func (k *Keypad) FirstPressed() (byte, bool) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	for i, pressed := range k.keys {
		if pressed {
			return byte(i), true
		}
	}
	return 0, false
}

// Reset releases every key.
func (k *Keypad) Reset() {
	k.mutex.Lock()
	for i := range k.keys {
		k.keys[i] = false
	}
	k.mutex.Unlock()
}
