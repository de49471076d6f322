package transition

import "sync"

// State is the load state of the effect.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Readiness tracks texture completions until every requested image is in.
// Completions may arrive in any order and from any goroutine; the Ready
// transition is reported exactly once.
type Readiness struct {
	mu        sync.Mutex
	state     State
	remaining int
	textures  []Texture
	err       error
}

// NewReadiness waits for n textures.
func NewReadiness(n int) *Readiness {
	return &Readiness{
		state:     StateLoading,
		remaining: n,
		textures:  make([]Texture, n),
	}
}

// Complete records the texture for slot index. It returns true only for the
// call that moves the machine into StateReady. Repeated slots, out of range
// slots and calls after a terminal state are ignored.
func (r *Readiness) Complete(index int, tex Texture) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateLoading || index < 0 || index >= len(r.textures) || tex == nil {
		return false
	}
	if r.textures[index] != nil {
		return false
	}
	r.textures[index] = tex
	r.remaining--
	if r.remaining > 0 {
		return false
	}
	r.state = StateReady
	return true
}

// Fail moves a loading machine into StateFailed. It returns true if this call
// made the transition.
func (r *Readiness) Fail(err *LoadError) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateLoading || err == nil {
		return false
	}
	r.state = StateFailed
	r.err = err
	return true
}

// Abort moves a ready machine into StateFailed when the textures arrived but
// could not be turned into a usable program. It returns true if this call
// made the transition.
func (r *Readiness) Abort(err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateReady || err == nil {
		return false
	}
	r.state = StateFailed
	r.err = err
	return true
}

func (r *Readiness) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Remaining is the number of textures still outstanding.
func (r *Readiness) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Textures returns the loaded textures in request order. It is only complete
// once the state is StateReady.
func (r *Readiness) Textures() []Texture {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Texture, len(r.textures))
	copy(out, r.textures)
	return out
}

// Err returns the failure that ended loading or setup, if any.
func (r *Readiness) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
