package httpapi

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"storefront/internal/feed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// @Summary Live order list
// @Description WebSocket. Sends {orders, sales_total} on connect and after every order change.
// @Description A second stream from the same session replaces the first.
// @Tags admin
// @Router /admin/orders/stream [get]
func (s *Server) streamOrders(c *gin.Context) {
	owner := currentSession(c).ID
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	send := make(chan feed.Snapshot, 1)
	sub, err := s.Feed.Subscribe(c.Request.Context(), owner, func(snap feed.Snapshot) {
		// latest wins; the writer may be behind
		select {
		case send <- snap:
			return
		default:
		}
		select {
		case <-send:
		default:
		}
		send <- snap
	})
	if err != nil {
		slog.Error("Order feed subscribe failed", "owner", owner, "err", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "feed unavailable"),
			time.Now().Add(writeWait))
		return
	}
	slog.Info("Order stream opened", "owner", owner, "admin", currentAdmin(c).ID)

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		writePump(conn, send, sub)
	}()

	readPump(conn)

	sub.Stop()
	<-pumpDone
	slog.Info("Order stream closed", "owner", owner, "reason", sub.Err())
}

// readPump discards client frames and returns when the connection goes away.
func readPump(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket read error", "err", err)
			}
			return
		}
	}
}

// closeFrame tells the client why its stream ended.
func closeFrame(reason error) []byte {
	if errors.Is(reason, feed.ErrReplaced) {
		return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by a newer stream")
	}
	return websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
}

func writePump(conn *websocket.Conn, send <-chan feed.Snapshot, sub *feed.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				// unblock readPump
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}

		case <-sub.Done():
			// nil means the handler stopped it after the client left
			if reason := sub.Err(); reason != nil {
				_ = conn.WriteControl(websocket.CloseMessage, closeFrame(reason), time.Now().Add(writeWait))
				conn.Close()
			}
			return
		}
	}
}
