package health

import (
	"context"

	"gatecontrol-hq/gatecontrol/internal/fsutil"
)

// Pinger is implemented by components that can verify their backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a Pinger.
func PingCheck(p Pinger) CheckFunc {
	return p.Ping
}

// WritableDirCheck verifies that files can be created in dir.
func WritableDirCheck(dir string) CheckFunc {
	return func(context.Context) error {
		return fsutil.CheckWritableDir(dir)
	}
}
