package transition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clockedReader records the clock and the drawn time at each readback.
type clockedReader struct {
	backend   *CPUBackend
	effect    *Effect
	clock     *StepClock
	readAt    []float64
	drawnWith []float32
}

func (r *clockedReader) ReadPixels() []byte {
	r.readAt = append(r.readAt, r.clock.Now())
	u, _ := r.effect.Uniforms()
	r.drawnWith = append(r.drawnWith, u.Time)
	return r.backend.ReadPixels()
}

func TestStepFramesAdvanceAfterReadback(t *testing.T) {
	src := newFakeSource()
	src.images["a.jpg"] = solid(4, 4, red)
	src.images["b.jpg"] = solid(4, 4, blue)

	backend := NewCPUBackend()
	clock := NewStepClock(4)
	e, err := New(Config{
		Images:   []string{"a.jpg", "b.jpg"},
		Source:   src,
		Backend:  backend,
		Viewport: FixedViewport{Width: 2, Height: 2},
		Clock:    clock,
	})
	require.NoError(t, err)

	reader := &clockedReader{backend: backend, effect: e, clock: clock}
	frames := NewStepFrames(e, reader, clock)

	_, err = frames.RenderFrame(0)
	assert.ErrorIs(t, err, ErrNotReady)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.Load(ctx)
	require.NoError(t, e.WaitReady(ctx))

	_, err = frames.RenderFrame(0)
	assert.ErrorIs(t, err, ErrNotReady, "not started")

	e.Start()
	for i := 0; i < 3; i++ {
		pixels, err := frames.RenderFrame(int64(i))
		require.NoError(t, err)
		assert.Len(t, pixels, 2*2*4)
	}

	assert.Equal(t, []float64{0, 0.25, 0.5}, reader.readAt)
	assert.Equal(t, []float32{0, 0.25, 0.5}, reader.drawnWith)
	assert.Equal(t, 0.75, clock.Now())
}

func TestStepFramesDrawFailureKeepsClock(t *testing.T) {
	f := newFixture(t)
	waitReady(t, f.effect)
	f.effect.Start()
	f.backend.drawErr = errors.New("context lost")

	frames := NewStepFrames(f.effect, &clockedReader{clock: f.clock}, f.clock)
	_, err := frames.RenderFrame(0)
	assert.ErrorIs(t, err, f.backend.drawErr)
	assert.Equal(t, 0.0, f.clock.Now())
}
