// Package scan turns raw keystrokes from a keyboard-emulating barcode scanner
// into complete codes.
//
// A scanner types a code much faster than a person and ends it with Enter, but
// some models omit the terminator. The buffer therefore emits on Enter or when no
// keystroke arrived for the debounce window, whichever comes first:
//
//	Idle -> Accumulating -> (Enter | debounce timeout) -> emit, Idle
package scan

import (
	"strings"
	"sync"
	"time"
)

type State int

const (
	Idle State = iota
	Accumulating
)

func (s State) String() string {
	if s == Accumulating {
		return "accumulating"
	}
	return "idle"
}

// DefaultDebounce is the inter-keystroke gap treated as end of scan.
const DefaultDebounce = 100 * time.Millisecond

type Config struct {
	Debounce time.Duration
	// Timeout-terminated input shorter than this is dropped as stray typing.
	// Enter-terminated input is always emitted.
	MinLength int
}

// Buffer accumulates keystrokes and hands complete codes to emit. emit runs on
// the caller's goroutine for Enter and on a timer goroutine for timeouts; the
// buffer never calls it concurrently with itself.
type Buffer struct {
	cfg  Config
	emit func(code string)

	mu    sync.Mutex
	emitM sync.Mutex
	buf   strings.Builder
	state State
	timer *time.Timer
	// gen invalidates every timer but the one armed by the latest keystroke
	gen uint64
}

func NewBuffer(cfg Config, emit func(code string)) *Buffer {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Buffer{cfg: cfg, emit: emit}
}

// Press feeds one keystroke.
func (b *Buffer) Press(r rune) {
	if r == '\r' || r == '\n' {
		b.mu.Lock()
		code := b.takeLocked()
		b.mu.Unlock()
		b.deliver(code)
		return
	}
	if r < ' ' {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf.WriteRune(r)
	b.state = Accumulating
	if b.timer != nil {
		b.timer.Stop()
	}
	// a timer that already fired but has not taken the lock yet must not emit
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(b.cfg.Debounce, func() { b.expire(gen) })
}

// Write feeds raw input bytes, so a Buffer can sit behind an io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	for _, r := range string(p) {
		b.Press(r)
	}
	return len(p), nil
}

// State reports the current state.
func (b *Buffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset drops any partial input.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.takeLocked()
}

func (b *Buffer) expire(gen uint64) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	code := b.takeLocked()
	b.mu.Unlock()

	if len([]rune(code)) < b.cfg.MinLength {
		return
	}
	b.deliver(code)
}

// takeLocked empties the buffer and returns to Idle. b.mu must be held.
func (b *Buffer) takeLocked() string {
	code := strings.TrimSpace(b.buf.String())
	b.buf.Reset()
	b.state = Idle
	b.gen++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	return code
}

func (b *Buffer) deliver(code string) {
	if code == "" || b.emit == nil {
		return
	}
	b.emitM.Lock()
	defer b.emitM.Unlock()
	b.emit(code)
}
