// Package gateway implements the WebSocket client for the Discord gateway.
// The client dials the gateway, identifies with the bot token, answers the
// server's heartbeat contract and delivers dispatch events, reconnecting
// automatically with exponential backoff when the link drops.
//
// Events (callback fields on the struct):
//   - OnConnecting, OnConnected, OnEvent, OnDisconnected, OnError.
//
// Safety and resilience:
//   - Socket writes are serialized (mutex + write deadline).
//   - A heartbeat goroutine runs at the interval announced by the hello
//     frame; two missed acks force a close so the read loop reconnects.
//   - On every successful (re)connect the client identifies again.
//
// Example:
//
//	gw := gateway.New(url, token, logger)
//	gw.OnEvent = func(t string, d json.RawMessage) { fmt.Println(t) }
//	ctx := context.Background()
//	if err := gw.Connect(ctx); err != nil { log.Fatal(err) }
//	defer gw.Disconnect()
package gateway
