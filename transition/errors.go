package transition

import (
	"errors"
	"fmt"
)

var (
	// ErrImageCount is returned when the effect is not given exactly two images.
	ErrImageCount = errors.New("transition requires exactly two images")
	// ErrNotReady is returned by operations that need loaded textures.
	ErrNotReady = errors.New("transition is not ready")
)

// LoadError reports an image that could not be fetched, decoded or uploaded.
type LoadError struct {
	Index int
	URL   string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load image %d (%s): %v", e.Index, e.URL, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
