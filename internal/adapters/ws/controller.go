package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avdeyev/radar/internal/app"
	"github.com/avdeyev/radar/internal/config"
	"github.com/avdeyev/radar/internal/core"
	"github.com/avdeyev/radar/internal/domain"
)

const writeWait = 5 * time.Second

type Controller struct {
	Orch       *app.Orchestrator
	ReadLimit  int64
	PingPeriod time.Duration
	validate   *validator.Validate
}

func NewController(orch *app.Orchestrator, cfg *config.Config) *Controller {
	return &Controller{
		Orch:       orch,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		validate:   validator.New(),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and runs the connection's pumps. Every
// connection gets a fresh opaque id; the transport handle itself is
// never used as a key.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	id := domain.ConnID(uuid.NewString())
	log.Info().Str("module", "ws").Str("conn", string(id)).Str("client", c.GetString("client_token")).Msg("new connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}

	conn := &WsConn{
		conn: sock,
		send: make(chan core.Frame, 32),
	}

	if err := ctl.Orch.OnConnect(id, conn); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("register connection")
		conn.Close()
		return
	}

	go ctl.writePump(ctx, id, conn)
	go ctl.readPump(ctx, id, conn)
}

// writePump drains the outbound queue and pings on PingPeriod. The
// heartbeat detects dead transports the application layer never hears
// about.
func (ctl *Controller) writePump(ctx context.Context, id domain.ConnID, c *WsConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("conn", string(id)).Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("ping failed")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump consumes inbound messages until the transport dies; a pong
// must arrive before the next ping is due or the read deadline fires.
func (ctl *Controller) readPump(ctx context.Context, id domain.ConnID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(id)).Msg("connection closing")
		ctl.Orch.OnDisconnect(id)
		c.Close()
	}()

	pongWait := ctl.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("conn", string(id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("readPump read error")
				return
			}
			ctl.handleMessage(id, data)
		}
	}
}
