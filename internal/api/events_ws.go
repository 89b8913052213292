package api

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingPeriod   = wsPongTimeout * 9 / 10
	wsSendBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // отладочный API
}

// handleEvents транслирует события шины в websocket.
// Фильтры: ?type=block.changed,chunk.meshed и ?source=world,mesh.
// Медленный клиент теряет события, шина не блокируется.
func (rs *RestServer) handleEvents(c *gin.Context) {
	if rs.bus == nil {
		fail(c, http.StatusServiceUnavailable, "Шина событий не настроена")
		return
	}
	if !rs.beginStream() {
		fail(c, http.StatusServiceUnavailable, "Сервер останавливается")
		return
	}
	defer rs.streams.Done()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rs.logger.Warn("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	filter := eventbus.Filter{
		Types:   splitQuery(c.Query("type")),
		Sources: splitQuery(c.Query("source")),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan *eventbus.Envelope, wsSendBuffer)
	var dropped atomic.Uint64
	sub, err := rs.bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		select {
		case out <- ev:
		default:
			dropped.Add(1)
		}
	})
	if err != nil {
		closeStream(conn, websocket.CloseTryAgainLater, "bus closed")
		return
	}
	defer sub.Unsubscribe()

	rs.logger.Info("🔌 подписчик событий подключён: %s", c.ClientIP())
	defer func() {
		rs.logger.Info("🔌 подписчик событий отключён: %s, потеряно %d", c.ClientIP(), dropped.Load())
	}()

	// Читатель нужен для pong и обнаружения закрытия
	go func() {
		defer cancel()
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			closeStream(conn, websocket.CloseGoingAway, "bus closed")
			return
		case <-rs.closing:
			closeStream(conn, websocket.CloseGoingAway, "server shutdown")
			return
		case ev := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func closeStream(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second))
}

func splitQuery(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
