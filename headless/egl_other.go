//go:build !linux

package headless

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/richinsley/goshaderwipe/graphics"
)

// Context is unavailable outside Linux.
type Context struct {
	graphics.Context
}

func New(width, height int, logger *zap.Logger) (*Context, error) {
	return nil, fmt.Errorf("egl headless rendering is not supported on this platform")
}
