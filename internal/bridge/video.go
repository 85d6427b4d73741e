package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os/exec"
	"sync"

	"github.com/immxrtalbeast/rnplay/lib/logger/sl"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
)

// rtpBufferSize fits one RTP packet at the usual path MTU.
const rtpBufferSize = 1500

// VideoSource feeds RTP packets into the outgoing video track.
type VideoSource interface {
	Start(ctx context.Context, track *webrtc.TrackLocalStaticRTP) error
	Close() error
}

// RTPRelay launches the capture transcoder and copies the RTP it emits on a
// loopback UDP socket into the track.
type RTPRelay struct {
	ffmpeg  string
	input   string
	address string
	log     *slog.Logger

	mu       sync.Mutex
	listener net.PacketConn
	cmd      *exec.Cmd
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewRTPRelay(ffmpeg, input, address string, log *slog.Logger) *RTPRelay {
	if log == nil {
		log = slog.Default()
	}
	return &RTPRelay{
		ffmpeg:  ffmpeg,
		input:   input,
		address: address,
		log:     log,
	}
}

func (r *RTPRelay) Start(ctx context.Context, track *webrtc.TrackLocalStaticRTP) error {
	const op = "bridge.video.start"

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listener != nil {
		return nil
	}

	listener, err := net.ListenPacket("udp", r.address)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	r.listener = listener
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.pump(listener, track)

	if r.ffmpeg != "" {
		cmd := exec.CommandContext(ctx, r.ffmpeg, r.transcodeArgs()...)
		if err := cmd.Start(); err != nil {
			r.log.Error("failed to start capture transcoder", slog.String("op", op), sl.Err(err))
		} else {
			r.cmd = cmd
			go func() {
				if err := cmd.Wait(); err != nil && ctx.Err() == nil {
					r.log.Warn("capture transcoder exited", slog.String("op", op), sl.Err(err))
				}
			}()
		}
	}

	r.log.Info("video relay started", slog.String("op", op), slog.String("address", listener.LocalAddr().String()))
	return nil
}

func (r *RTPRelay) transcodeArgs() []string {
	return []string{
		"-i", r.input,
		"-an",
		"-vcodec", "libvpx",
		"-cpu-used", "8",
		"-deadline", "realtime",
		"-f", "rtp",
		"rtp://" + r.address,
	}
}

func (r *RTPRelay) pump(listener net.PacketConn, track *webrtc.TrackLocalStaticRTP) {
	defer close(r.done)

	buf := make([]byte, rtpBufferSize)
	for {
		n, _, err := listener.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				r.log.Warn("video relay read failed", sl.Err(err))
			}
			return
		}

		packet := &rtp.Packet{}
		if err := packet.Unmarshal(buf[:n]); err != nil {
			r.log.Debug("dropping malformed rtp packet", sl.Err(err))
			continue
		}

		if err := track.WriteRTP(packet); err != nil {
			if errors.Is(err, io.ErrClosedPipe) {
				return
			}
			r.log.Debug("failed to write rtp packet", sl.Err(err))
		}
	}
}

// LocalAddr is the address the relay listens on, or nil before Start.
func (r *RTPRelay) LocalAddr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.LocalAddr()
}

func (r *RTPRelay) Close() error {
	r.mu.Lock()
	listener, cancel, done := r.listener, r.cancel, r.done
	r.listener, r.cancel, r.cmd = nil, nil, nil
	r.mu.Unlock()

	if listener == nil {
		return nil
	}

	cancel()
	err := listener.Close()
	<-done
	return err
}
