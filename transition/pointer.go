package transition

import (
	"math"

	"go.uber.org/atomic"
)

// PointerProvider supplies the latest pointer position in viewport pixels.
type PointerProvider interface {
	Pointer() (x, y float64)
}

// PointerState holds the most recent pointer (mouse or touch) position.
// Both coordinates live in one 64-bit word so a reader never observes x from
// one event and y from another.
type PointerState struct {
	packed atomic.Uint64
}

var _ PointerProvider = (*PointerState)(nil)

// NewPointerState returns a pointer resting at the viewport origin.
func NewPointerState() *PointerState {
	return &PointerState{}
}

// Set records a pointer move. Last write wins.
func (p *PointerState) Set(x, y float64) {
	bits := uint64(math.Float32bits(float32(x)))<<32 | uint64(math.Float32bits(float32(y)))
	p.packed.Store(bits)
}

// Pointer returns the last recorded position.
func (p *PointerState) Pointer() (float64, float64) {
	bits := p.packed.Load()
	x := math.Float32frombits(uint32(bits >> 32))
	y := math.Float32frombits(uint32(bits))
	return float64(x), float64(y)
}

// NormalizePointer maps a pixel position to [0,1]x[0,1]. The vertical axis is
// inverted so the top edge of the viewport is 1.
func NormalizePointer(x, y float64, width, height int) (float64, float64) {
	w := float64(atLeastOne(width))
	h := float64(atLeastOne(height))
	return clamp01(x / w), clamp01(1.0 - y/h)
}

// SweepPointer is a scripted pointer for unattended rendering. It moves the
// pointer from the bottom of the viewport to the top and back once per
// period.
type SweepPointer struct {
	Clock   Clock
	Period  float64
	Width   int
	Height  int
	started float64
}

// NewSweepPointer starts a sweep at the clock's current time.
func NewSweepPointer(clock Clock, period float64, width, height int) *SweepPointer {
	return &SweepPointer{
		Clock:   clock,
		Period:  period,
		Width:   width,
		Height:  height,
		started: clock.Now(),
	}
}

func (s *SweepPointer) Pointer() (float64, float64) {
	period := s.Period
	if period <= 0 {
		period = 1
	}
	phase := math.Mod(s.Clock.Now()-s.started, period) / period
	// triangle wave: 0 -> 1 -> 0
	t := 1 - math.Abs(2*phase-1)
	h := float64(atLeastOne(s.Height))
	return float64(atLeastOne(s.Width)) / 2, h - t*h
}
