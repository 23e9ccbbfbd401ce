package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxPingPeriod  = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendQueueSize  = 64
)

type WSHandler struct {
	service    *app.QuizService
	auth       *auth.Authenticator
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
}

// pingInterval fits three ping rounds into the staleness window, capped below pongWait.
func pingInterval(staleAfter time.Duration) time.Duration {
	p := staleAfter / 3
	if p <= 0 || p > maxPingPeriod {
		return maxPingPeriod
	}
	return p
}

func NewWSHandler(service *app.QuizService, authn *auth.Authenticator) *WSHandler {
	return &WSHandler{
		service:    service,
		auth:       authn,
		pingPeriod: pingInterval(service.Registry().StaleAfter()),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// wsConn is the outbound side of one websocket. Deliver never blocks: events queue for the
// writer goroutine and a full queue closes the connection.
type wsConn struct {
	id     string
	ws     *websocket.Conn
	send   chan domain.Event
	done   chan struct{}
	closer sync.Once
	// verified host identity from the upgrade request's token, if any
	hostID string
}

func newWSConn(ws *websocket.Conn, hostID string) *wsConn {
	return &wsConn{
		id:     uuid.NewString(),
		ws:     ws,
		send:   make(chan domain.Event, sendQueueSize),
		done:   make(chan struct{}),
		hostID: hostID,
	}
}

func (c *wsConn) Deliver(ev domain.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		c.Close()
		return false
	}
}

func (c *wsConn) Close() {
	c.closer.Do(func() { close(c.done) })
}

func (c *wsConn) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Str("conn", c.id).Msg("ws write failed")
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// ServeWS upgrades HTTP requests to websockets and feeds their frames to the quiz service.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	hostID := ""
	if token := bearerToken(r); token != "" && h.auth.Enabled() {
		id, err := h.auth.Verify(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		hostID = id
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	conn := newWSConn(ws, hostID)
	h.service.Connect(conn.id, conn)
	log.Debug().Str("conn", conn.id).Msg("ws connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		conn.writePump(h.pingPeriod)
	}()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		h.service.Touch(conn.id)
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn", conn.id).Msg("ws read failed")
			}
			break
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		h.handleFrame(r, conn, data)
	}

	h.service.Disconnect(conn.id)
	conn.Close()
	<-writerDone
	log.Debug().Str("conn", conn.id).Msg("ws disconnected")
}

func (h *WSHandler) handleFrame(r *http.Request, conn *wsConn, data []byte) {
	h.service.Touch(conn.id)
	cmd, err := decodeCommand(data)
	if err != nil {
		conn.Deliver(domain.NewEvent(domain.EventError, domain.ErrorPayload{Message: app.PublicMessage(err)}))
		return
	}
	if join, ok := cmd.(app.JoinCommand); ok && join.IsHost && h.auth.Enabled() && join.HostID != conn.hostID {
		log.Warn().Str("conn", conn.id).Str("room", join.Pin).Msg("host join without matching token")
		conn.Deliver(domain.NewEvent(domain.EventJoinError, domain.ErrorPayload{Message: app.PublicMessage(domain.ErrInvalidHostToken)}))
		return
	}
	// Rejections are reported to the connection and logged by the service.
	_ = h.service.Handle(r.Context(), conn.id, cmd)
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
