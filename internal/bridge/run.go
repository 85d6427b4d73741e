package bridge

import (
	"context"
	"log/slog"

	"github.com/immxrtalbeast/rnplay/internal/config"
)

// Run wires a bridge from cfg and serves it until the relay link ends or ctx
// is done.
func Run(ctx context.Context, cfg *config.BridgeConfig, log *slog.Logger) error {
	log.Info("bridge starting",
		slog.String("project_id", cfg.ProjectID),
		slog.String("signaling_url", cfg.SignalingURL),
	)

	client, err := DialRelay(ctx, cfg.SignalingURL)
	if err != nil {
		return err
	}

	input := NewInputDispatcher(cfg.ADBBinary, cfg.SwipeDuration, NewCommandExecutor(log), log)

	var video VideoSource
	if cfg.CaptureEnabled {
		video = NewRTPRelay(cfg.FFmpegBinary, cfg.CaptureInput, cfg.RTPAddress, log)
	}

	b, err := New(Options{
		ProjectID:   cfg.ProjectID,
		STUNServers: cfg.STUNServers,
	}, client, input, video, log)
	if err != nil {
		_ = client.Close()
		return err
	}

	return b.Serve(ctx)
}
