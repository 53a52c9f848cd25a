package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"reportforge/internal/events"
)

// EventStreamHandler tails the outbound event channels over a websocket so
// operators can watch completions and failures live.
type EventStreamHandler struct {
	redisClient *redis.Client
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

// NewEventStreamHandler builds the websocket tail handler.
func NewEventStreamHandler(redisClient *redis.Client, logger *slog.Logger) *EventStreamHandler {
	return &EventStreamHandler{
		redisClient: redisClient,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

type streamFrame struct {
	Channel string `json:"channel"`
	Payload string `json:"payload"`
}

// HandleConnection upgrades the connection and forwards outbound events
// until the client disconnects.
func (h *EventStreamHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	log := h.logger.With(slog.String("client_ip", c.ClientIP()))

	pubsub := h.redisClient.Subscribe(ctx, events.ChannelReportGenerated, events.ChannelReportFailed)
	defer func() { _ = pubsub.Close() }()

	// Drain client frames only to detect disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Info("event stream client connected")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info("event stream client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				log.Warn("event stream subscription closed")
				return
			}
			frame := streamFrame{Channel: msg.Channel, Payload: msg.Payload}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(frame); err != nil {
				log.Info("event stream write failed, closing", slog.Any("error", err))
				return
			}
		}
	}
}
