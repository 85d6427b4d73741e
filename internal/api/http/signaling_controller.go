package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/rnplay/internal/config"
	"github.com/immxrtalbeast/rnplay/internal/service"
	"github.com/immxrtalbeast/rnplay/lib/logger/sl"
)

type SignalingController struct {
	relay    service.RelayInteractor
	cfg      config.SignalingConfig
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewSignalingController(relay service.RelayInteractor, cfg config.SignalingConfig, allowedOrigins []string, log *slog.Logger) *SignalingController {
	if log == nil {
		log = slog.Default()
	}
	return &SignalingController{
		relay: relay,
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

// originChecker accepts requests without an Origin header (the bridge is
// not a browser) and browser requests from an allowed origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Connect upgrades the request and pumps messages into the relay until the
// socket closes.
func (c *SignalingController) Connect(ctx *gin.Context) {
	const op = "http.signaling.connect"

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("failed to upgrade connection", slog.String("op", op), sl.Err(err))
		return
	}

	transport := NewWSTransport(conn, c.cfg.SendQueueSize, c.cfg.WriteTimeout, c.cfg.PingInterval)
	log := c.log.With(
		slog.String("op", op),
		slog.String("transport_id", transport.ID()),
		slog.String("remote_addr", ctx.Request.RemoteAddr),
	)

	c.relay.Connect(transport)
	go transport.writeLoop()

	defer func() {
		c.relay.Disconnect(transport)
		transport.Close()
	}()

	if c.cfg.PongTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
		})
	}

	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("signaling socket closed", sl.Err(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if c.cfg.PongTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
		}

		if err := c.relay.HandleMessage(ctx.Request.Context(), transport, raw); err != nil {
			log.Debug("message rejected", sl.Err(err))
		}
	}
}
