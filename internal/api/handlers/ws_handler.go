package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/yoockh/resumerank/internal/events"
	"github.com/yoockh/resumerank/internal/services"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsWriteWait  = 10 * time.Second
)

type WSHandler struct {
	jobs     services.JobService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(jobs services.JobService, rdb *redis.Client, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		jobs:  jobs,
		redis: rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

// originChecker allows any origin when the list is empty.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

type wsClientMsg struct {
	Type string `json:"type"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// JobProgress streams the job's analysis progress events to the client.
func (h *WSHandler) JobProgress(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	jobID := c.Param("job_id")
	if _, err := h.jobs.Owned(c.Request.Context(), jobID, userID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, events.JobChannel(jobID))
	defer pubsub.Close()

	// reader: keeps the deadline fresh and answers application pings
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
				continue
			}
			switch msg.Type {
			case "ping":
				_ = wc.writeText([]byte(`{"type":"pong"}`))
			default:
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	// writer: Redis Pub/Sub -> WS
	msgs := pubsub.Channel()
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wc.ping(); err != nil {
				return
			}
		case m, ok := <-msgs:
			if !ok {
				return
			}
			// payload is already a JSON progress event
			if err := wc.writeText([]byte(m.Payload)); err != nil {
				return
			}
		}
	}
}
