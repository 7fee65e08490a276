package publisher

import (
	"context"

	"gatecontrol-hq/gatecontrol/pkg/model"
)

// Artifact is a successfully written configuration handed to mirrors.
type Artifact struct {
	EnvironmentID string
	FileName      string
	Data          []byte
	Record        model.PublishRecord
}

// Mirror copies published artifacts to a secondary location.
type Mirror interface {
	Name() string
	Mirror(ctx context.Context, artifact Artifact) error
}

// Reloader tells a gateway node to pick up a new configuration.
type Reloader interface {
	Reload(ctx context.Context, node string) error
}
