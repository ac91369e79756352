package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avelov/huddle/internal/app"
	"github.com/avelov/huddle/internal/config"
	"github.com/avelov/huddle/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller accepts upgraded connections, admits them into the registry
// and feeds inbound frames to the dispatcher.
type Controller struct {
	Registry *app.Registry
	Dispatch *app.Dispatcher
	Limiter  *RateLimiter
	Cfg      *config.Config
}

func NewController(reg *app.Registry, disp *app.Dispatcher, limiter *RateLimiter, cfg *config.Config) *Controller {
	return &Controller{Registry: reg, Dispatch: disp, Limiter: limiter, Cfg: cfg}
}

// HandleChat upgrades the request and runs the connection lifecycle.
// Identity and email were verified upstream by the session middleware;
// a request without them never reaches the hub.
func (ctl *Controller) HandleChat(ctx context.Context, c *gin.Context) {
	id := domain.UserID(c.GetString("identity"))
	email := c.GetString("email")
	if id == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	log.Info().Str("module", "ws").Str("user", string(id)).Msg("new WS connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	sock.SetReadLimit(ctl.Cfg.ReadLimit)

	conn := newWSConn(id, sock)

	if err := ctl.Registry.OnOpen(conn, id, email); err != nil {
		var capErr *app.CapacityError
		if errors.As(err, &capErr) {
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, capErr.Error())
			_ = sock.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		}
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, conn)
	}()
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.sock.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Debug().Err(err).Str("module", "ws").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.sock.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, c *wsConn) {
	defer func() {
		log.Info().Str("module", "ws").Str("user", string(c.id)).Msg("readPump closing")
		c.Close()
		ctl.Registry.OnClose(c, c.id)
		if ctl.Limiter != nil && !ctl.Registry.IsPresent(c.id) {
			ctl.Limiter.Forget(c.id)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.sock.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug().Err(err).Str("module", "ws").Str("user", string(c.id)).Msg("readPump read error")
				}
				return
			}
			if ctl.Limiter != nil && !ctl.Limiter.Allow(c.id) {
				log.Warn().Str("module", "ws").Str("user", string(c.id)).Msg("frame dropped: rate limit")
				continue
			}
			ctl.Dispatch.Process(c, data)
		}
	}
}
