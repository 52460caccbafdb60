package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/USA-RedDragon/pinpoint-server/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Websocket interface {
	OnMessage(ctx context.Context, r *http.Request, w Writer, msg []byte, t int)
	OnConnect(ctx context.Context, r *http.Request, w Writer)
	OnDisconnect(ctx context.Context, r *http.Request)
}

func CreateHandler(ws Websocket, config *config.Config) func(*gin.Context) {
	wsUpgrader := websocket.Upgrader{
		HandshakeTimeout: 0,
		ReadBufferSize:   bufferSize,
		WriteBufferSize:  bufferSize,
		WriteBufferPool:  nil,
		Subprotocols:     []string{},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
		},
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			origin = strings.ToLower(origin)
			for _, host := range config.HTTP.CORSHosts {
				host = strings.ToLower(host)
				if strings.HasSuffix(host, ":443") && strings.HasPrefix(origin, "https://") {
					host = strings.TrimSuffix(host, ":443")
				}
				if strings.HasSuffix(host, ":80") && strings.HasPrefix(origin, "http://") {
					host = strings.TrimSuffix(host, ":80")
				}
				if strings.Contains(origin, host) {
					return true
				}
			}
			return false
		},
		EnableCompression: true,
	}

	return func(c *gin.Context) {
		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("Failed to set websocket upgrade", "error", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		defer func() {
			ws.OnDisconnect(c, c.Request)
			_ = conn.Close()
		}()

		handle(c.Request.Context(), conn, ws, c.Request)
	}
}

func handle(ctx context.Context, conn *websocket.Conn, ws Websocket, r *http.Request) {
	writer := wsWriter{
		writer: make(chan Message, bufferSize),
		error:  make(chan string),
	}
	ws.OnConnect(ctx, r, writer)

	go func() {
		for {
			t, msg, err := conn.ReadMessage()
			if err != nil {
				writer.Error("read failed")
				break
			}
			switch {
			case t == websocket.PingMessage:
				writer.WriteMessage(Message{
					Type: websocket.PongMessage,
				})
			case strings.EqualFold(string(msg), "ping"):
				writer.WriteMessage(Message{
					Type: websocket.TextMessage,
					Data: []byte("PONG"),
				})
			default:
				ws.OnMessage(ctx, r, writer, msg, t)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-writer.error:
			return
		case msg := <-writer.writer:
			err := conn.WriteMessage(msg.Type, msg.Data)
			if err != nil {
				return
			}
		}
	}
}
