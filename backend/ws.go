package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsIdlePingInterval = 30 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func serveWS(hub *Hub, w http.ResponseWriter, r *http.Request, snapshot func() StatusResponse) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		Log().Warnw("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{hub: hub, send: make(chan []byte, 32)}
	hub.Register(client)
	client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(snapshot())})

	go func() {
		defer func() {
			hub.Unregister(client)
			_ = conn.Close()
		}()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			Log().Debugw("websocket writer closed", "error", err)
		}
	}()

	go func() {
		defer func() {
			hub.Unregister(client)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// writeWSWithHeartbeat drains the send channel and pings idle connections
// so intermediaries do not drop them.
func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
