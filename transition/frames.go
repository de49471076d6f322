package transition

// PixelReader reads back the last drawn frame as RGBA rows, top row first.
type PixelReader interface {
	ReadPixels() []byte
}

// StepFrames produces frames for offline encoding. Each call draws with the
// current step clock reading, reads the result back and only then advances
// the clock, so frame n is always rendered at n/fps seconds.
type StepFrames struct {
	effect *Effect
	reader PixelReader
	clock  *StepClock
}

func NewStepFrames(effect *Effect, reader PixelReader, clock *StepClock) *StepFrames {
	return &StepFrames{effect: effect, reader: reader, clock: clock}
}

// RenderFrame draws and reads back one frame. The pts argument is the
// encoder's frame number; timing comes from the clock.
func (f *StepFrames) RenderFrame(int64) ([]byte, error) {
	if f.effect.State() != StateReady || !f.effect.Running() {
		return nil, ErrNotReady
	}
	if err := f.effect.Frame(); err != nil {
		return nil, err
	}
	pixels := f.reader.ReadPixels()
	f.clock.Advance()
	return pixels, nil
}
