package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Gateway struct {
	url   string
	token string

	conn   *websocket.Conn
	closed atomic.Bool
	seq    atomic.Int64 // last dispatch sequence, echoed in heartbeats

	wmu          sync.Mutex    // serializes socket writes
	beatStop     chan struct{} // stop channel for the heartbeat goroutine
	lastActivity atomic.Int64  // unix nanos of the last successful receive

	log *zap.Logger

	// callback events, assigned before Connect
	OnConnecting   func()
	OnConnected    func()
	OnEvent        func(t string, d json.RawMessage)
	OnDisconnected func()
	OnError        func(error)
}

func New(url, token string, log *zap.Logger) *Gateway {
	return &Gateway{
		url:   url,
		token: token,
		log:   log,
	}
}

// Connect establishes the WebSocket, identifies and starts the read loop.
// Cancel the context for a soft exit from the read loop.
func (g *Gateway) Connect(ctx context.Context) error {
	if g.OnConnecting != nil {
		g.OnConnecting()
	}
	conn, err := g.dialAndSetup()
	if err != nil {
		return err
	}
	g.conn = conn
	g.closed.Store(false)

	if g.OnConnected != nil {
		g.OnConnected()
	}

	go g.readLoop(ctx)
	return nil
}

func (g *Gateway) Disconnect() {
	g.closed.Store(true)
	g.closeConn()
	if g.OnDisconnected != nil {
		g.OnDisconnected()
	}
}

func (g *Gateway) IsConnected() bool {
	return g.conn != nil && !g.closed.Load()
}

// send marshals a frame and writes it through the write mutex with a
// deadline.
func (g *Gateway) send(f *Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}

	g.wmu.Lock()
	defer g.wmu.Unlock()
	if g.conn == nil {
		return fmt.Errorf("not connected")
	}
	_ = g.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return g.conn.WriteMessage(websocket.TextMessage, b)
}

func heartbeatFrame(seq int64) *Frame {
	d := json.RawMessage("null")
	if seq > 0 {
		d, _ = json.Marshal(seq)
	}
	return &Frame{Op: opHeartbeat, D: d}
}

func (g *Gateway) sendHeartbeat() error {
	return g.send(heartbeatFrame(g.seq.Load()))
}
