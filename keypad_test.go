// keypad_test.go - Hex pad test suite for Intuition8

package main

import "testing"

func TestKeypadPressRelease(t *testing.T) {
	k := NewKeypad()

	if k.Pressed(0x5) {
		t.Fatal("key pressed on a fresh pad")
	}

	k.Press(0x5)
	if !k.Pressed(0x5) {
		t.Fatal("press not observed")
	}
	if k.Pressed(0x6) {
		t.Fatal("press leaked to a neighbouring key")
	}

	k.Release(0x5)
	if k.Pressed(0x5) {
		t.Fatal("release not observed")
	}
}

// TestKeypadOutOfRange verifies that key numbers past 0xF are ignored on
// write and read as unpressed.
func TestKeypadOutOfRange(t *testing.T) {
	k := NewKeypad()

	k.Press(16)
	k.Press(0xFF)
	k.Release(16)

	if k.Pressed(16) || k.Pressed(0xFF) {
		t.Fatal("out-of-range key read as pressed")
	}
	if _, ok := k.FirstPressed(); ok {
		t.Fatal("out-of-range press registered on the pad")
	}
}

func TestKeypadFirstPressed(t *testing.T) {
	k := NewKeypad()

	if _, ok := k.FirstPressed(); ok {
		t.Fatal("key reported on a fresh pad")
	}

	k.Press(0xB)
	k.Press(0x3)

	key, ok := k.FirstPressed()
	if !ok || key != 0x3 {
		t.Fatalf("FirstPressed = %#x,%v, expected lowest held key 0x3", key, ok)
	}

	k.Release(0x3)
	key, ok = k.FirstPressed()
	if !ok || key != 0xB {
		t.Fatalf("FirstPressed = %#x,%v after release, expected 0xB", key, ok)
	}
}

func TestKeypadReset(t *testing.T) {
	k := NewKeypad()
	for key := byte(0); key < NUM_KEYS; key++ {
		k.Press(key)
	}

	k.Reset()

	for key := byte(0); key < NUM_KEYS; key++ {
		if k.Pressed(key) {
			t.Fatalf("key %#x still pressed after reset", key)
		}
	}
}

// TestKeySkips drives EX9E and EXA1 through the pad and verifies the skip
// distances against held and released keys.
func TestKeySkips(t *testing.T) {
	tests := []struct {
		name     string
		op       uint16
		held     bool
		wantSkip bool
	}{
		{"EX9E held key skips", 0xE59E, true, true},
		{"EX9E released key falls through", 0xE59E, false, false},
		{"EXA1 released key skips", 0xE5A1, false, true},
		{"EXA1 held key falls through", 0xE5A1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t)
			m.V[5] = 0x7
			if tt.held {
				m.Keys.Press(0x7)
			}

			step(t, m, tt.op)

			want := m.ProgramStart() + 2
			if tt.wantSkip {
				want += 2
			}
			if m.PC != want {
				t.Fatalf("PC=0x%03X, expected 0x%03X", m.PC, want)
			}
		})
	}
}
