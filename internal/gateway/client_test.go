package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestConnectLoopback runs the client against an in-process gateway: hello,
// identify, one dispatch.
func TestConnectLoopback(t *testing.T) {
	up := websocket.Upgrader{}
	identified := make(chan identifyData, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		_ = c.WriteMessage(websocket.TextMessage,
			[]byte(`{"op":10,"d":{"heartbeat_interval":60000}}`))

		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		var f Frame
		if json.Unmarshal(data, &f) == nil && f.Op == opIdentify {
			var ident identifyData
			_ = json.Unmarshal(f.D, &ident)
			identified <- ident
		}

		seq := int64(1)
		frame, _ := json.Marshal(&Frame{Op: opDispatch, T: EventReady, S: &seq,
			D: json.RawMessage(`{"user":{"id":"5","username":"verifybot"},"application":{"id":"7"}}`)})
		_ = c.WriteMessage(websocket.TextMessage, frame)

		// keep the socket open until the client hangs up
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	gw := New(url, "secret-token", zap.NewNop())

	events := make(chan string, 10)
	gw.OnEvent = func(name string, _ json.RawMessage) { events <- name }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, gw.Connect(ctx))
	defer gw.Disconnect()
	require.True(t, gw.IsConnected())

	select {
	case ident := <-identified:
		require.Equal(t, "secret-token", ident.Token)
		require.Equal(t, defaultIntents, ident.Intents)
	case <-time.After(3 * time.Second):
		t.Fatal("server never saw an identify frame")
	}

	select {
	case name := <-events:
		require.Equal(t, EventReady, name)
		require.EqualValues(t, 1, gw.seq.Load())
	case <-time.After(3 * time.Second):
		t.Fatal("dispatch was not delivered")
	}
}
