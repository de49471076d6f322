package transition

import (
	"sync"
	"time"
)

// Clock reports time in seconds. Only differences between readings matter.
type Clock interface {
	Now() float64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// StepClock advances by a fixed step each time Advance is called. It is used
// for offline rendering where frames are produced faster or slower than real
// time.
type StepClock struct {
	mu   sync.Mutex
	now  float64
	step float64
}

// NewStepClock returns a clock at zero that advances by 1/fps per frame.
func NewStepClock(fps int) *StepClock {
	if fps <= 0 {
		fps = 60
	}
	return &StepClock{step: 1.0 / float64(fps)}
}

func (c *StepClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by one frame.
func (c *StepClock) Advance() {
	c.mu.Lock()
	c.now += c.step
	c.mu.Unlock()
}
