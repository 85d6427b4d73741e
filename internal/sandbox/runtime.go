package sandbox

import (
	"context"
	"errors"
	"time"
)

var (
	ErrContainerNotFound   = errors.New("container not found")
	ErrContainerNotRunning = errors.New("container not running")
)

// RunSpec describes one sandbox container to launch.
type RunSpec struct {
	Name       string
	Image      string
	Env        map[string]string
	Binds      []Bind
	Privileged bool
	ExtraHosts []string
}

// Bind mounts HostPath read-write at ContainerPath.
type Bind struct {
	HostPath      string
	ContainerPath string
}

// Runtime starts and removes sandbox containers.
type Runtime interface {
	// Run creates and starts a container and returns its id.
	Run(ctx context.Context, spec RunSpec) (string, error)
	// Stop asks the container to exit, killing it after timeout.
	Stop(ctx context.Context, id string, timeout time.Duration) error
	// Remove force-removes the container.
	Remove(ctx context.Context, id string) error
}

// isGone reports whether err means the container is already stopped or removed.
func isGone(err error) bool {
	return errors.Is(err, ErrContainerNotFound) || errors.Is(err, ErrContainerNotRunning)
}
