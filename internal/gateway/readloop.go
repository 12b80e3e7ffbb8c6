package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

func (g *Gateway) readLoop(ctx context.Context) {
	defer func() {
		g.closed.Store(true)
		g.closeConn()
		if g.OnDisconnected != nil {
			g.OnDisconnected()
		}
	}()

	// close on context cancellation
	go func() {
		<-ctx.Done()
		g.closeConn()
	}()

	backoff := time.Second

	for {
		if g.conn == nil {
			if g.OnError != nil && !g.closed.Load() {
				g.OnError(fmt.Errorf("connection is nil"))
			}
			// fall through to the reconnect branch below
		} else {
			_, data, err := g.conn.ReadMessage()
			if err == nil {
				var f Frame
				if uerr := json.Unmarshal(data, &f); uerr != nil {
					if g.OnError != nil {
						g.OnError(uerr)
					}
					continue
				}

				g.touchActivity()
				g.handleFrame(&f)

				backoff = time.Second
				continue
			}

			if g.OnError != nil && !g.closed.Load() {
				g.OnError(err)
			}
			if g.closed.Load() {
				return
			}
		}

		g.closeConn()

		// reconnect with backoff; every successful dial re-identifies
		for !g.closed.Load() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
				conn, derr := g.dialAndSetup()
				if derr != nil {
					if g.OnError != nil {
						g.OnError(fmt.Errorf("reconnect failed (wait %v): %w", backoff, derr))
					}
					if backoff < 30*time.Second {
						backoff *= 2
						if backoff > 30*time.Second {
							backoff = 30 * time.Second
						}
					}
					continue
				}
				g.conn = conn
				g.touchActivity()
				if g.OnConnected != nil {
					g.OnConnected()
				}
				backoff = time.Second
				goto CONTINUE_READ
			}
		}
	CONTINUE_READ:
		continue
	}
}

func (g *Gateway) handleFrame(f *Frame) {
	switch f.Op {
	case opHello:
		var h helloData
		if err := json.Unmarshal(f.D, &h); err != nil {
			if g.OnError != nil {
				g.OnError(err)
			}
			return
		}
		interval := time.Duration(h.HeartbeatInterval) * time.Millisecond
		if interval <= 0 {
			interval = defaultHeartbeat
		}
		g.startHeartbeat(interval)

	case opHeartbeat:
		// server asked for an immediate beat
		if err := g.sendHeartbeat(); err != nil && g.OnError != nil {
			g.OnError(err)
		}

	case opHeartbeatAck:
		g.touchActivity()

	case opDispatch:
		if f.S != nil {
			g.seq.Store(*f.S)
		}
		g.log.Debug("dispatch", zap.String("event", f.T))
		if g.OnEvent != nil {
			g.OnEvent(f.T, f.D)
		}
	}
}
