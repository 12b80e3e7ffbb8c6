package gateway

import (
	"encoding/json"
	"runtime"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ========================= low-level =========================

// fallback when the hello frame carries no usable interval
const defaultHeartbeat = 45 * time.Second

// dialAndSetup dials the gateway and sends the identify frame. The
// heartbeat goroutine starts later, once the server's hello announces the
// interval.
func (g *Gateway) dialAndSetup() (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(g.url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(1 << 20)

	g.touchActivity()

	ident, err := json.Marshal(identifyData{
		Token:   g.token,
		Intents: defaultIntents,
		Properties: identifyProperties{
			OS:      runtime.GOOS,
			Browser: "verifybot",
			Device:  "verifybot",
		},
	})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	frame, err := json.Marshal(&Frame{Op: opIdentify, D: ident})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	g.wmu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	werr := conn.WriteMessage(websocket.TextMessage, frame)
	g.wmu.Unlock()
	if werr != nil {
		_ = conn.Close()
		return nil, werr
	}
	return conn, nil
}

// safely close the current connection
func (g *Gateway) closeConn() {
	g.stopHeartbeat()
	if g.conn != nil {
		_ = g.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
			time.Now().Add(500*time.Millisecond))
		_ = g.conn.Close()
		g.conn = nil
	}
}

func (g *Gateway) startHeartbeat(interval time.Duration) {
	g.stopHeartbeat()
	g.beatStop = make(chan struct{})
	stop := g.beatStop

	g.log.Debug("heartbeat started", zap.Duration("interval", interval))

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if err := g.sendHeartbeat(); err != nil {
					if g.OnError != nil && !g.closed.Load() {
						g.OnError(err)
					}
				}
				// no ack for two intervals — the link hangs, close it and
				// let the read loop reconnect
				if g.sinceLastActivity() > 2*interval {
					g.closeConn()
					return
				}
			}
		}
	}()
}

func (g *Gateway) stopHeartbeat() {
	if g.beatStop != nil {
		close(g.beatStop)
		g.beatStop = nil
	}
}

func (g *Gateway) touchActivity() {
	g.lastActivity.Store(time.Now().UnixNano())
}

func (g *Gateway) sinceLastActivity() time.Duration {
	n := g.lastActivity.Load()
	if n == 0 {
		return time.Hour
	}
	return time.Since(time.Unix(0, n))
}
