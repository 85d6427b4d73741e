package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"
)

var _ Runtime = (*DockerRuntime)(nil)

// CommandFunc runs a program and returns its combined output.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// DockerRuntime drives containers through the docker CLI.
type DockerRuntime struct {
	binary  string
	command CommandFunc
}

func NewDockerRuntime(binary string) *DockerRuntime {
	if binary == "" {
		binary = "docker"
	}
	return &DockerRuntime{binary: binary, command: execCommand}
}

// WithCommand replaces the process runner; used by tests.
func (d *DockerRuntime) WithCommand(fn CommandFunc) *DockerRuntime {
	d.command = fn
	return d
}

func (d *DockerRuntime) Run(ctx context.Context, spec RunSpec) (string, error) {
	// A container with the same name can survive a crashed server; reclaim it.
	if spec.Name != "" {
		if err := d.Remove(ctx, spec.Name); err != nil && !isGone(err) {
			return "", fmt.Errorf("removing stale container %s: %w", spec.Name, err)
		}
	}

	out, err := d.command(ctx, d.binary, runArgs(spec)...)
	if err != nil {
		if spec.Name != "" {
			_ = d.Remove(context.WithoutCancel(ctx), spec.Name)
		}
		return "", fmt.Errorf("docker run failed: %s: %w", strings.TrimSpace(string(out)), err)
	}

	containerID := lastLine(out)
	if containerID == "" {
		return "", fmt.Errorf("docker run returned no container id")
	}
	return containerID, nil
}

func (d *DockerRuntime) Stop(ctx context.Context, id string, timeout time.Duration) error {
	seconds := int(timeout / time.Second)
	out, err := d.command(ctx, d.binary, "stop", "--time", strconv.Itoa(seconds), id)
	if err != nil {
		return classify(out, err, "docker stop")
	}
	return nil
}

func (d *DockerRuntime) Remove(ctx context.Context, id string) error {
	out, err := d.command(ctx, d.binary, "rm", "--force", "--volumes", id)
	if err != nil {
		return classify(out, err, "docker rm")
	}
	return nil
}

func runArgs(spec RunSpec) []string {
	args := []string{"run", "--detach"}

	if spec.Name != "" {
		args = append(args, "--name", spec.Name)
	}
	if spec.Privileged {
		args = append(args, "--privileged")
	}
	for _, host := range spec.ExtraHosts {
		args = append(args, "--add-host", host)
	}

	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--env", fmt.Sprintf("%s=%s", k, spec.Env[k]))
	}

	for _, b := range spec.Binds {
		args = append(args, "--volume", fmt.Sprintf("%s:%s:rw", b.HostPath, b.ContainerPath))
	}

	return append(args, spec.Image)
}

// classify maps docker CLI failures onto the runtime's sentinel errors.
func classify(out []byte, err error, what string) error {
	msg := strings.TrimSpace(string(out))
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "no such container"):
		return fmt.Errorf("%s: %s: %w", what, msg, ErrContainerNotFound)
	case strings.Contains(lower, "is not running"),
		strings.Contains(lower, "removal of container") && strings.Contains(lower, "already in progress"):
		return fmt.Errorf("%s: %s: %w", what, msg, ErrContainerNotRunning)
	default:
		return fmt.Errorf("%s failed: %s: %w", what, msg, err)
	}
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
