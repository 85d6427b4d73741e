package bridge

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/immxrtalbeast/rnplay/lib/logger/sl"
)

var _ Executor = (*CommandExecutor)(nil)

// CommandExecutor starts processes and reaps them in the background.
type CommandExecutor struct {
	log *slog.Logger
}

func NewCommandExecutor(log *slog.Logger) *CommandExecutor {
	if log == nil {
		log = slog.Default()
	}
	return &CommandExecutor{log: log}
}

func (e *CommandExecutor) Start(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			e.log.Warn("command failed",
				slog.String("cmd", name),
				slog.String("stderr", strings.TrimSpace(stderr.String())),
				sl.Err(err),
			)
		}
	}()

	return nil
}
