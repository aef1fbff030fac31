package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/util"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS pushes every scan snapshot to the client as a JSON text frame. Query
// parameters strategy and exchange narrow the feed.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	strategy := r.URL.Query().Get("strategy")
	exchange := r.URL.Query().Get("exchange")
	logger := util.NewLogger("component", "ws", "remote", r.RemoteAddr)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error(err, common.ErrCodeWebsocketFailed, common.ErrMsgWebsocketFailed, "Upgrade failed")
		return
	}
	defer conn.Close()

	snapshots, cancel := s.scanner.Hub().Subscribe()
	defer cancel()

	// The reader only services control frames and notices the client leaving.
	done := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	logger.Debug("Client connected", "strategy", strategy, "exchange", exchange)
	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if (strategy != "" && snap.Strategy != strategy) || (exchange != "" && snap.Exchange != exchange) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(snap); err != nil {
				logger.Error(err, common.ErrCodeStreamClosed, common.ErrMsgStreamClosed, "Failed to push snapshot")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
