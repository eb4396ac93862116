package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Tune/internal/app/orch"
	"github.com/dkeye/Tune/internal/config"
	"github.com/dkeye/Tune/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Limits are the per-connection transport knobs.
type Limits struct {
	ReadLimit  int64
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
	SendBuffer int
}

func LimitsFrom(cfg *config.Config) Limits {
	return Limits{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		PongWait:   cfg.PongWait,
		WriteWait:  cfg.WriteWait,
		SendBuffer: cfg.SendBuffer,
	}
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limits  Limits
	Limiter *IntentLimiter

	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config) *SignalWSController {
	return &SignalWSController{
		Orch:    o,
		Limits:  LimitsFrom(cfg),
		Limiter: NewIntentLimiter(cfg.IntentRate, cfg.IntentBurst),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || cfg.AllowOrigin(origin)
			},
		},
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// client is what the read loop knows about its connection.
type client struct {
	sid   core.SessionID
	token string
	conn  *WsSignalConn
}

// HandleSignal upgrades the request and serves the connection until it
// closes. Every connection gets its own id; the cookie token is only the
// default user identity.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	cl := &client{
		sid:   core.SessionID(uuid.NewString()),
		token: c.GetString("client_token"),
		conn: &WsSignalConn{
			conn: ws,
			send: make(chan core.Frame, ctl.Limits.SendBuffer),
		},
	}
	log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Str("remote", c.ClientIP()).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Connect(cl.sid, cl.conn, cancel)

	go ctl.writePump(ctx, cl.conn)
	go ctl.readPump(ctx, cancel, cl)
}
