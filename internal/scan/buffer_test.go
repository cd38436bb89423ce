package scan

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu    sync.Mutex
	codes []string
}

func (c *collector) add(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes = append(c.codes, code)
}

func (c *collector) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.codes...)
}

func typeString(b *Buffer, s string) {
	for _, r := range s {
		b.Press(r)
	}
}

func TestEnterEmitsImmediately(t *testing.T) {
	c := &collector{}
	b := NewBuffer(Config{Debounce: time.Hour}, c.add)

	typeString(b, "1007")
	assert.Equal(t, Accumulating, b.State())

	b.Press('\r')
	assert.Equal(t, []string{"1007"}, c.get())
	assert.Equal(t, Idle, b.State())
}

func TestDebounceTimeoutEmits(t *testing.T) {
	c := &collector{}
	b := NewBuffer(Config{Debounce: 20 * time.Millisecond}, c.add)

	typeString(b, "#1008")
	require.Eventually(t, func() bool { return len(c.get()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"#1008"}, c.get())
	assert.Equal(t, Idle, b.State())
}

func TestKeystrokesWithinWindowAccumulate(t *testing.T) {
	c := &collector{}
	b := NewBuffer(Config{Debounce: 50 * time.Millisecond}, c.add)

	for _, r := range "5550001" {
		b.Press(r)
		time.Sleep(5 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return len(c.get()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"5550001"}, c.get())
}

func TestEnterCancelsPendingTimeout(t *testing.T) {
	c := &collector{}
	b := NewBuffer(Config{Debounce: 20 * time.Millisecond}, c.add)

	typeString(b, "1007\n")
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"1007"}, c.get(), "timer must not emit a second time")
}

func TestShortTimeoutInputIsDropped(t *testing.T) {
	c := &collector{}
	b := NewBuffer(Config{Debounce: 10 * time.Millisecond, MinLength: 3}, c.add)

	typeString(b, "ab")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, c.get())
	assert.Equal(t, Idle, b.State())

	typeString(b, "ab\r")
	assert.Equal(t, []string{"ab"}, c.get(), "enter always emits")
}

func TestResetAndEmptyEnter(t *testing.T) {
	c := &collector{}
	b := NewBuffer(Config{Debounce: 10 * time.Millisecond}, c.add)

	typeString(b, "12")
	b.Reset()
	b.Press('\n')
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, c.get())
}

func TestWriteFeedsBytes(t *testing.T) {
	c := &collector{}
	b := NewBuffer(Config{Debounce: time.Hour}, c.add)

	n, err := b.Write([]byte("1007\r\n1008\n"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, []string{"1007", "1008"}, c.get())
}

func TestStaleTimerDoesNotCutNewKeystroke(t *testing.T) {
	c := &collector{}
	b := NewBuffer(Config{Debounce: time.Hour}, c.add)

	b.Press('1')
	b.mu.Lock()
	fired := b.gen
	b.mu.Unlock()

	// the first timer fired but lost the lock to the next keystroke
	b.Press('2')
	b.expire(fired)

	assert.Empty(t, c.get())
	assert.Equal(t, Accumulating, b.State())

	b.Press('\n')
	assert.Equal(t, []string{"12"}, c.get())
}
