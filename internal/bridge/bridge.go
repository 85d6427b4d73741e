package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/immxrtalbeast/rnplay/internal/domain"
	"github.com/immxrtalbeast/rnplay/lib/logger/sl"
	"github.com/pion/webrtc/v3"
)

var ErrClosed = errors.New("bridge closed")

type State string

const (
	StateDisconnected State = "disconnected"
	StateJoined       State = "joined"
	StateNegotiating  State = "negotiating"
	StateConnected    State = "connected"
	StateClosed       State = "closed"
)

type Options struct {
	ProjectID   string
	STUNServers []string
}

// Bridge negotiates a peer connection with the browser through the relay,
// streams the device video over it and feeds data-channel input to the
// device. One negotiation is live at a time; a new offer replaces it.
type Bridge struct {
	opts     Options
	signaler Signaler
	input    *InputDispatcher
	video    VideoSource
	track    *webrtc.TrackLocalStaticRTP
	log      *slog.Logger

	mu    sync.Mutex
	state State
	neg   *negotiation
	ctx   context.Context

	videoMu      sync.Mutex
	videoStarted bool

	closeOnce sync.Once
	closeErr  error
}

func New(opts Options, signaler Signaler, input *InputDispatcher, video VideoSource, log *slog.Logger) (*Bridge, error) {
	if log == nil {
		log = slog.Default()
	}

	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"video",
		"rnplay-"+opts.ProjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating video track: %w", err)
	}

	return &Bridge{
		opts:     opts,
		signaler: signaler,
		input:    input,
		video:    video,
		track:    track,
		log:      log.With(slog.String("project_id", opts.ProjectID)),
		state:    StateDisconnected,
		ctx:      context.Background(),
	}, nil
}

func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return
	}
	if b.state != s {
		b.log.Debug("bridge state changed", slog.String("from", string(b.state)), slog.String("to", string(s)))
	}
	b.state = s
}

func (b *Bridge) runContext() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctx
}

// Serve announces the bridge to the relay and handles signals until the
// relay connection drops or ctx is done. Every resource is released before
// it returns, including after a panic.
func (b *Bridge) Serve(ctx context.Context) (err error) {
	const op = "bridge.serve"
	log := b.log.With(slog.String("op", op))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", op, r)
			log.Error("bridge fault", sl.Err(err))
		}
		if closeErr := b.Close(); closeErr != nil {
			log.Warn("teardown incomplete", sl.Err(closeErr))
		}
	}()

	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = b.signaler.Close() })
	defer stop()

	if err := b.signaler.Send(domain.Join{Role: domain.RoleBridge, ProjectID: b.opts.ProjectID}); err != nil {
		return fmt.Errorf("%s: join: %w", op, err)
	}
	b.setState(StateJoined)
	log.Info("joined relay")

	for {
		raw, err := b.signaler.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s: relay disconnected: %w", op, err)
		}

		if err := b.HandleSignal(ctx, raw); err != nil {
			log.Warn("signal not handled", sl.Err(err))
		}
	}
}

// HandleSignal processes one message received from the relay.
func (b *Bridge) HandleSignal(ctx context.Context, raw []byte) error {
	signal, err := domain.ParseSignal(raw)
	if err != nil {
		return err
	}

	if signal.Session() != b.opts.ProjectID {
		b.log.Debug("ignoring signal for another project", slog.String("other", signal.Session()))
		return nil
	}

	switch s := signal.(type) {
	case domain.Offer:
		return b.handleOffer(ctx, s.SDP)
	case domain.Candidate:
		return b.handleCandidate(s.Candidate)
	case domain.Joined:
		b.log.Debug("relay acknowledged join", slog.String("role", string(s.Role)))
	default:
		b.log.Debug("ignoring signal", slog.String("type", string(signal.SignalType())))
	}
	return nil
}

func (b *Bridge) handleOffer(ctx context.Context, sdp string) error {
	const op = "bridge.offer"
	log := b.log.With(slog.String("op", op))

	b.mu.Lock()
	if b.state == StateClosed {
		b.mu.Unlock()
		return ErrClosed
	}
	prev := b.neg
	b.neg = nil
	b.mu.Unlock()

	if prev != nil {
		log.Info("restarting negotiation")
		if err := prev.close(); err != nil {
			log.Warn("previous peer connection did not close cleanly", sl.Err(err))
		}
	}
	b.setState(StateNegotiating)

	n, answer, err := b.negotiate(sdp)
	if err != nil {
		b.setState(StateJoined)
		return fmt.Errorf("%s: %w", op, err)
	}

	b.mu.Lock()
	if b.state == StateClosed {
		b.mu.Unlock()
		_ = n.close()
		return ErrClosed
	}
	b.neg = n
	b.mu.Unlock()

	if err := b.signaler.Send(domain.Answer{SDP: answer.SDP, ProjectID: b.opts.ProjectID}); err != nil {
		return fmt.Errorf("%s: send answer: %w", op, err)
	}
	n.markAnswered(b.sendCandidate)
	log.Info("answer sent")

	b.startVideo(ctx)
	return nil
}

func (b *Bridge) negotiate(sdp string) (*negotiation, webrtc.SessionDescription, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: b.iceServers()})
	if err != nil {
		return nil, webrtc.SessionDescription{}, fmt.Errorf("creating peer connection: %w", err)
	}
	n := &negotiation{pc: pc}

	fail := func(err error) (*negotiation, webrtc.SessionDescription, error) {
		_ = pc.Close()
		return nil, webrtc.SessionDescription{}, err
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		n.queueOrSend(c.ToJSON(), b.sendCandidate)
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		b.onConnectionState(n, s)
	})
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		b.attachDataChannel(n, dc)
	})

	if _, err := pc.AddTransceiverFromTrack(b.track, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionSendonly,
	}); err != nil {
		return fail(fmt.Errorf("adding video transceiver: %w", err))
	}

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}); err != nil {
		return fail(fmt.Errorf("setting remote description: %w", err))
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return fail(fmt.Errorf("creating answer: %w", err))
	}

	if err := pc.SetLocalDescription(answer); err != nil {
		return fail(fmt.Errorf("setting local description: %w", err))
	}

	return n, answer, nil
}

func (b *Bridge) iceServers() []webrtc.ICEServer {
	if len(b.opts.STUNServers) == 0 {
		return nil
	}
	return []webrtc.ICEServer{{URLs: b.opts.STUNServers}}
}

func (b *Bridge) sendCandidate(c webrtc.ICECandidateInit) {
	if err := b.signaler.Send(domain.Candidate{Candidate: c, ProjectID: b.opts.ProjectID}); err != nil {
		b.log.Warn("failed to send local candidate", sl.Err(err))
	}
}

func (b *Bridge) handleCandidate(c webrtc.ICECandidateInit) error {
	b.mu.Lock()
	n := b.neg
	b.mu.Unlock()

	if n == nil {
		b.log.Debug("candidate without peer connection, dropping")
		return nil
	}

	if err := n.pc.AddICECandidate(c); err != nil {
		return fmt.Errorf("bridge.candidate: %w", err)
	}
	return nil
}

func (b *Bridge) onConnectionState(n *negotiation, s webrtc.PeerConnectionState) {
	b.mu.Lock()
	current := b.neg == n
	b.mu.Unlock()
	if !current {
		return
	}

	b.log.Info("peer connection state changed", slog.String("state", s.String()))
	switch s {
	case webrtc.PeerConnectionStateConnected:
		b.setState(StateConnected)
	case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
		b.setState(StateJoined)
	}
}

func (b *Bridge) attachDataChannel(n *negotiation, dc *webrtc.DataChannel) {
	n.setDataChannel(dc)

	dc.OnOpen(func() {
		b.log.Info("input channel open", slog.String("label", dc.Label()))
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		defer func() {
			if r := recover(); r != nil {
				b.log.Error("input handler panicked", slog.Any("panic", r))
			}
		}()
		if b.input == nil {
			return
		}
		b.input.Dispatch(b.runContext(), msg.Data)
	})
}

// startVideo starts the video relay unless it already runs. A failed start
// is retried on the next answered offer.
func (b *Bridge) startVideo(ctx context.Context) {
	if b.video == nil {
		return
	}

	b.videoMu.Lock()
	defer b.videoMu.Unlock()
	if b.videoStarted {
		return
	}

	if err := b.video.Start(ctx, b.track); err != nil {
		b.log.Error("failed to start video relay", sl.Err(err))
		return
	}
	b.videoStarted = true
}

// Close releases the video relay, data channel, peer connection and relay
// link in that order. A failure in one step does not skip the others.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		n := b.neg
		b.neg = nil
		b.state = StateClosed
		b.mu.Unlock()

		var errs []error
		if b.video != nil {
			errs = append(errs, release("video relay", b.video.Close))
		}
		if n != nil {
			errs = append(errs, release("data channel", n.closeDataChannel))
			errs = append(errs, release("peer connection", n.pc.Close))
		}
		errs = append(errs, release("relay link", b.signaler.Close))

		b.closeErr = errors.Join(errs...)
		b.log.Info("bridge closed")
	})
	return b.closeErr
}

func release(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("release %s: panic: %v", name, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("release %s: %w", name, err)
	}
	return nil
}

// negotiation is the peer connection built for one offer. Local candidates
// found before the answer went out are held back so the browser never sees
// a candidate ahead of the answer.
type negotiation struct {
	pc *webrtc.PeerConnection

	mu       sync.Mutex
	dc       *webrtc.DataChannel
	answered bool
	pending  []webrtc.ICECandidateInit
}

func (n *negotiation) queueOrSend(c webrtc.ICECandidateInit, send func(webrtc.ICECandidateInit)) {
	n.mu.Lock()
	if !n.answered {
		n.pending = append(n.pending, c)
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()
	send(c)
}

func (n *negotiation) markAnswered(send func(webrtc.ICECandidateInit)) {
	n.mu.Lock()
	n.answered = true
	pending := n.pending
	n.pending = nil
	n.mu.Unlock()

	for _, c := range pending {
		send(c)
	}
}

func (n *negotiation) setDataChannel(dc *webrtc.DataChannel) {
	n.mu.Lock()
	prev := n.dc
	n.dc = dc
	n.mu.Unlock()

	if prev != nil && prev != dc {
		_ = prev.Close()
	}
}

func (n *negotiation) closeDataChannel() error {
	n.mu.Lock()
	dc := n.dc
	n.dc = nil
	n.mu.Unlock()

	if dc == nil {
		return nil
	}
	return dc.Close()
}

func (n *negotiation) close() error {
	return errors.Join(n.closeDataChannel(), n.pc.Close())
}
